package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

const authorizationTimeout = 5 * time.Minute

func newConnectCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "connect PROVIDER",
		Short: "Connect a calendar or video provider",
		Long: "Connect a calendar or video provider through OAuth. The consent page opens in the\n" +
			"browser and the redirect is captured on a local port.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(append([]string{}, integrations.CalendarProviders...), integrations.VideoProviders...),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			provider := args[0]

			integrationType, ok := integrations.ProviderIntegrationType(provider)
			if !ok {
				return printError(a.out, &integrations.ValidationError{
					Field:   "provider",
					Message: fmt.Sprintf("Unknown provider %q", provider),
				})
			}

			receiver, err := integrations.StartCallbackReceiver(a.cfg.CallbackPort)
			if err != nil {
				return printError(a.out, err)
			}
			defer receiver.Close()

			var nav integrations.Navigator = integrations.BrowserNavigator{}
			if noBrowser {
				nav = integrations.NavigatorFunc(func(_ context.Context, url string) error {
					fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL to authorize %s:\n%s\n", integrations.ProviderDisplayName(provider), url)
					return nil
				})
			}
			coord := integrations.NewOAuthCoordinator(a.svc, nav, integrations.WithStateMaxAge(a.cfg.OAuthStateMaxAge))

			if _, err := coord.Initiate(ctx, integrations.OAuthInitiateRequest{
				Provider:        provider,
				IntegrationType: integrationType,
				RedirectURI:     receiver.RedirectURI(),
			}); err != nil {
				return printError(a.out, err)
			}
			a.logger.Debug("CLI:Connect:Waiting", "provider", provider, "scopes", integrations.ProviderScopes(provider))

			query, err := receiver.Wait(ctx, authorizationTimeout)
			if err != nil {
				return printError(a.out, err)
			}

			resp, err := coord.HandleRedirect(ctx, query)
			return printResult(a.out, resp, err)
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	return cmd
}

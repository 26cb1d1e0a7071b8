package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

func newLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Save the backend API token",
		Long:        "Save the backend API token. Without --token the token is read from stdin.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipSetup": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Paste API token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return printError(out, fmt.Errorf("read token: %w", err))
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return printError(out, &integrations.ValidationError{Field: "token", Message: "Token is required"})
			}

			replaced := integrations.IsConfigured()
			tok := integrations.NewToken(token)
			if err := integrations.SaveToken(tok); err != nil {
				return printError(out, err)
			}

			data := map[string]any{"saved": true, "replaced": replaced}
			if !tok.Expiry.IsZero() {
				data["expiry"] = tok.Expiry
			}
			return printResult(out, data, nil)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "API token (read from stdin when empty)")
	return cmd
}

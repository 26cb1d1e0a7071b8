package main

import (
	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

// dailyAPILimit is the per-provider call budget shown in usage meters.
const dailyAPILimit = 1000

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Video conferencing integrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List video integrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := appFrom(cmd)
				items, err := a.svc.VideoIntegrations(cmd.Context())
				return printResult(a.out, items, err)
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show a video integration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				vi, err := a.svc.VideoIntegration(cmd.Context(), args[0])
				if err != nil {
					return printError(a.out, err)
				}
				return printResult(a.out, map[string]any{
					"integration": vi,
					"usage":       integrations.FormatAPIUsage(vi.APICallsToday, dailyAPILimit),
					"actions":     integrations.RecommendedActions(vi.State()),
				}, nil)
			},
		},
		newVideoUpdateCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Disconnect a video integration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				err := a.svc.DeleteVideoIntegration(cmd.Context(), args[0])
				return printResult(a.out, map[string]string{"deleted": args[0]}, err)
			},
		},
	)
	return cmd
}

func newVideoUpdateCmd() *cobra.Command {
	var active, autoLinks bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a video integration's flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			current, err := a.svc.VideoIntegration(ctx, args[0])
			if err != nil {
				return printError(a.out, err)
			}
			settings := integrations.VideoIntegrationSettings{
				IsActive:          current.IsActive,
				AutoGenerateLinks: current.AutoGenerateLinks,
			}
			if cmd.Flags().Changed("active") {
				settings.IsActive = active
			}
			if cmd.Flags().Changed("auto-links") {
				settings.AutoGenerateLinks = autoLinks
			}

			vi, err := a.svc.UpdateVideoIntegration(ctx, args[0], settings)
			return printResult(a.out, vi, err)
		},
	}
	cmd.Flags().BoolVar(&active, "active", true, "whether the integration is active")
	cmd.Flags().BoolVar(&autoLinks, "auto-links", true, "generate meeting links for new bookings")
	return cmd
}

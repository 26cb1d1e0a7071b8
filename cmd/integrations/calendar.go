package main

import (
	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Calendar integrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List calendar integrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := appFrom(cmd)
				items, err := a.svc.CalendarIntegrations(cmd.Context())
				return printResult(a.out, items, err)
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show a calendar integration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				ci, err := a.svc.CalendarIntegration(cmd.Context(), args[0])
				if err != nil {
					return printError(a.out, err)
				}
				return printResult(a.out, map[string]any{
					"integration": ci,
					"health":      integrations.CalendarHealthOf(ci),
					"actions":     integrations.RecommendedActions(ci.State()),
				}, nil)
			},
		},
		newCalendarUpdateCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Disconnect a calendar integration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				err := a.svc.DeleteCalendarIntegration(cmd.Context(), args[0])
				return printResult(a.out, map[string]string{"deleted": args[0]}, err)
			},
		},
		&cobra.Command{
			Use:   "refresh ID",
			Short: "Refresh a calendar sync",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				res, err := a.svc.RefreshCalendarSync(cmd.Context(), args[0])
				return printResult(a.out, res, err)
			},
		},
		&cobra.Command{
			Use:   "force-sync ID",
			Short: "Sync a calendar now",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				res, err := a.svc.ForceCalendarSync(cmd.Context(), args[0])
				return printResult(a.out, res, err)
			},
		},
	)
	return cmd
}

func newCalendarUpdateCmd() *cobra.Command {
	var active, syncEnabled bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a calendar integration's flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			// Start from the current flags so unset options are preserved.
			current, err := a.svc.CalendarIntegration(ctx, args[0])
			if err != nil {
				return printError(a.out, err)
			}
			settings := integrations.CalendarIntegrationSettings{
				IsActive:    current.IsActive,
				SyncEnabled: current.SyncEnabled,
			}
			if cmd.Flags().Changed("active") {
				settings.IsActive = active
			}
			if cmd.Flags().Changed("sync") {
				settings.SyncEnabled = syncEnabled
			}

			ci, err := a.svc.UpdateCalendarIntegration(ctx, args[0], settings)
			return printResult(a.out, ci, err)
		},
	}
	cmd.Flags().BoolVar(&active, "active", true, "whether the integration is active")
	cmd.Flags().BoolVar(&syncEnabled, "sync", true, "whether events are synced")
	return cmd
}

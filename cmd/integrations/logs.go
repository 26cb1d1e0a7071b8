package main

import (
	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

func newLogsCmd() *cobra.Command {
	var (
		logType         string
		integrationType string
		success         bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show integration logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			filter := integrations.LogFilter{
				LogType:         logType,
				IntegrationType: integrationType,
			}
			if cmd.Flags().Changed("success") {
				filter.Success = &success
			}

			logs, err := a.svc.IntegrationLogs(cmd.Context(), filter)
			return printResult(a.out, logs, err)
		},
	}
	cmd.Flags().StringVar(&logType, "type", "", "log type (calendar_sync, video_link_created, webhook_sent, error)")
	cmd.Flags().StringVar(&integrationType, "integration-type", "", "integration type (calendar, video, webhook)")
	cmd.Flags().BoolVar(&success, "success", true, "only successful (true) or failed (false) entries")
	return cmd
}

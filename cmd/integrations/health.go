package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

type healthView struct {
	integrations.IntegrationHealth
	Color        string  `json:"color"`
	HealthyRatio float64 `json:"healthyRatio"`
}

func newHealthView(h integrations.IntegrationHealth) healthView {
	return healthView{
		IntegrationHealth: h,
		Color:             integrations.HealthColor(h.OverallHealth),
		HealthyRatio:      integrations.HealthyRatio(h),
	}
}

func newHealthCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show integration health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if !watch {
				h, err := a.svc.IntegrationHealth(cmd.Context())
				if err != nil {
					return printError(a.out, err)
				}
				return printResult(a.out, newHealthView(h), nil)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			poller := integrations.NewHealthPoller(a.svc, a.cfg.HealthInterval, func(h integrations.IntegrationHealth, err error) {
				if err != nil {
					_ = printError(a.out, err)
					return
				}
				_ = printResult(a.out, newHealthView(h), nil)
			})
			if err := poller.Start(ctx); err != nil {
				return printError(a.out, err)
			}
			defer poller.Stop()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until interrupted")
	return cmd
}

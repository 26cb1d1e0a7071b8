package main

import (
	"github.com/spf13/cobra"

	integrations "github.com/jima/integrations"
)

type conflictView struct {
	integrations.Conflict
	Label string `json:"label"`
	Color string `json:"color"`
}

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Show calendar conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			report, err := a.svc.CalendarConflicts(cmd.Context())
			if err != nil {
				return printError(a.out, err)
			}

			views := func(in []integrations.Conflict) []conflictView {
				out := make([]conflictView, 0, len(in))
				for _, c := range in {
					out = append(out, conflictView{
						Conflict: c,
						Label:    integrations.OverlapLabel(c.OverlapType),
						Color:    integrations.OverlapColor(c.OverlapType),
					})
				}
				return out
			}

			return printResult(a.out, map[string]any{
				"hasConflicts":        report.HasConflicts(),
				"total":               report.Total(),
				"conflicts":           views(report.Conflicts),
				"overlaps":            views(report.Overlaps),
				"manualBlocksCount":   report.ManualBlocksCount,
				"syncedBlocksCount":   report.SyncedBlocksCount,
				"totalExternalEvents": report.TotalExternalEvents,
				"totalManualBlocks":   report.TotalManualBlocks,
			}, nil)
		},
	}
}

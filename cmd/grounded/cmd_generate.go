package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/label"
	"github.com/grounded-app/risk-engine/internal/report"
	"github.com/grounded-app/risk-engine/internal/synth"
)

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Synthesize user histories, label them and store them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := synth.GenerateDataset(cmd.Context(), a.cfg.Dataset(), a.logger)
			if err != nil {
				return err
			}
			bundles, records, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()

			if err := records.SaveHistory(ds.History); err != nil {
				return err
			}
			if err := records.SaveProfiles(ds.Profiles); err != nil {
				return err
			}
			a.logger.Info("stored synthetic history",
				zap.String("db", a.cfg.Database.Path),
				zap.Int("users", len(ds.History)),
				zap.Int("days", a.cfg.Synth.Days),
			)

			labeled := label.Default().LabelHistory(ds.History)
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderDataset(report.Dataset(labeled)))
			return nil
		},
	}
	cmd.Flags().Int("users", 0, "number of synthetic users")
	cmd.Flags().Int("days", 0, "days per user")
	cmd.Flags().Uint64("seed", 0, "generator seed")
	return cmd
}

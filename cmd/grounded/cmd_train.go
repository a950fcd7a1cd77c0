package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/report"
)

func (a *app) trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a bundle on the stored history, gate it and activate it if it passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, records, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()

			h, err := records.LoadHistory()
			if err != nil {
				return err
			}
			if len(h) == 0 {
				return errors.New("no stored history; run generate first")
			}

			res, err := pipeline.Train(cmd.Context(), h, a.cfg.Options(), a.logger)
			if err != nil {
				return err
			}
			pr, err := pipeline.Promote(bundles, res, a.cfg.Gate, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTraining(res, pr))
			return nil
		},
	}
	cmd.Flags().Int("epochs", 0, "maximum training epochs")
	cmd.Flags().Float64("lr", 0, "initial learning rate")
	cmd.Flags().Uint64("train-seed", 0, "trainer shuffle seed")
	cmd.Flags().String("policy", "", "unknown category policy: zero or reject")
	cmd.Flags().Float64("min-auc", 0, "gate AUC floor")
	cmd.Flags().Float64("min-recall", 0, "gate recall floor")
	return cmd
}

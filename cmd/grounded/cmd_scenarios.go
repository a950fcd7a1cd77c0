package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grounded-app/risk-engine/internal/report"
	"github.com/grounded-app/risk-engine/internal/scenario"
)

func (a *app) scenariosCmd() *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Run the built-in scenarios, or a YAML fixture, against the active bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios := scenario.Builtin()
			if fixture != "" {
				var err error
				if scenarios, err = scenario.LoadFixture(fixture); err != nil {
					return err
				}
			}

			bundles, _, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()
			_, enc, p, err := loadActive(bundles)
			if err != nil {
				return err
			}

			results, err := scenario.NewHarness(enc, p, a.logger).Run(cmd.Context(), scenarios)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderScenarios(results))

			failed := 0
			for _, r := range results {
				if !r.Matches() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d scenario expectations not met", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML scenario fixture")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/report"
)

func (a *app) inspectCmd() *cobra.Command {
	var (
		last    int
		version string
		asJSON  bool
		samples int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List bundle versions, show one version, or sample predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, records, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()
			out := cmd.OutOrStdout()

			if samples > 0 {
				_, enc, p, err := loadActive(bundles)
				if err != nil {
					return err
				}
				h, err := records.LoadHistory()
				if err != nil {
					return err
				}
				got, err := pipeline.SamplePredictions(cmd.Context(), enc, p, h, samples, a.cfg.Eval.Threshold, a.cfg.Split.Seed)
				if err != nil {
					return err
				}
				fmt.Fprint(out, report.RenderSamples(got))
				return nil
			}

			if version != "" {
				b, err := bundles.Get(version)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(b, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal bundle: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			versions, err := bundles.ListWithRuns(last)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(versions, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal versions: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprint(out, report.RenderVersions(versions, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 10, "number of versions to list")
	cmd.Flags().StringVar(&version, "version", "", "show one version as JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "list as JSON")
	cmd.Flags().IntVar(&samples, "samples", 0, "score N random stored windows of the active bundle against their labels")
	return cmd
}

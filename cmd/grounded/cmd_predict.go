package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/report"
	"github.com/grounded-app/risk-engine/internal/riskrpc"
	"github.com/grounded-app/risk-engine/internal/window"
)

func (a *app) predictCmd() *cobra.Command {
	var (
		user   int
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict next-day risk for a stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, records, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()

			b, enc, local, err := loadActive(bundles)
			if err != nil {
				return err
			}
			days, err := records.LoadUser(record.UserID(user))
			if err != nil {
				return err
			}
			if len(days) == 0 {
				return fmt.Errorf("user %d has no stored history", user)
			}

			var p model.Predictor = local
			versionID := b.VersionID
			if remote {
				client, err := riskrpc.NewClient(a.cfg.RPC.Addr, enc.Transform().Schema())
				if err != nil {
					return err
				}
				defer client.Close()
				p = client
				versionID = "served by " + a.cfg.RPC.Addr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RPC.Timeout())
			defer cancel()
			prob, err := pipeline.PredictUser(ctx, enc, p, days)
			if errors.Is(err, window.ErrInsufficientHistory) {
				fmt.Fprintf(cmd.OutOrStdout(), "no prediction: user %d has %d days, need %d\n", user, len(days), b.SequenceLength)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderPrediction(record.UserID(user), versionID, prob))
			return nil
		},
	}
	cmd.Flags().IntVar(&user, "user", 0, "user ID")
	cmd.Flags().BoolVar(&remote, "remote", false, "predict through the gRPC service at rpc.addr")
	cmd.Flags().String("addr", "", "gRPC address for --remote")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/pipeline"
)

func (a *app) rollbackCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "rollback VERSION",
		Short: "Re-activate an earlier bundle version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.switchActive(cmd, args[0], reason, pipeline.Rollback)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual rollback", "reason recorded in run_log")
	return cmd
}

func (a *app) activateCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "activate VERSION",
		Short: "Activate a stored bundle version, bypassing the gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.switchActive(cmd, args[0], reason, pipeline.Activate)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual activation", "reason recorded in run_log")
	return cmd
}

func (a *app) switchActive(cmd *cobra.Command, versionID, reason string, fn func(*artifact.Store, string, string) (string, error)) error {
	bundles, _, err := a.openStores()
	if err != nil {
		return err
	}
	defer bundles.Close()

	runID, err := fn(bundles, versionID, reason)
	if err != nil {
		return err
	}
	a.logger.Info("switched active bundle", zap.String("version_id", versionID), zap.String("run_id", runID))
	fmt.Fprintf(cmd.OutOrStdout(), "active bundle is now %s\n", versionID)
	return nil
}

package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/grounded-app/risk-engine/internal/riskrpc"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the active bundle over gRPC until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, _, err := a.openStores()
			if err != nil {
				return err
			}
			defer bundles.Close()
			b, _, p, err := loadActive(bundles)
			if err != nil {
				return err
			}

			lis, err := net.Listen("tcp", a.cfg.RPC.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", a.cfg.RPC.Addr, err)
			}
			return riskrpc.NewServer(p, b.Schema, b.VersionID, a.logger).Serve(cmd.Context(), lis)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/config"
	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/history"
	"github.com/grounded-app/risk-engine/internal/logging"
	"github.com/grounded-app/risk-engine/internal/model"
)

// #region app

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
	cfg     config.Config
	logger  *zap.Logger
}

// flagKeys maps command-line flags onto config keys. A flag only overrides
// the config when it is defined on the running command.
var flagKeys = map[string]string{
	"db":         "database.path",
	"log-level":  "logging.level",
	"log-format": "logging.encoding",
	"users":      "synth.users",
	"days":       "synth.days",
	"seed":       "synth.seed",
	"epochs":     "train.epochs",
	"lr":         "train.learning_rate",
	"train-seed": "train.seed",
	"policy":     "encoder.unknown_policy",
	"min-auc":    "gate.min_auc",
	"min-recall": "gate.min_recall",
	"addr":       "rpc.addr",
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// #endregion app

// #region root

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "grounded",
		Short:         "grounded risk engine: synthetic data, training and next-day risk prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper()
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return fmt.Errorf("bind flags: %w", err)
			}
			cfg, err := config.Load(v, a.cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.Logging, a.verbose)
			if err != nil {
				return err
			}
			a.v, a.cfg, a.logger = v, cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.String("db", "", "SQLite database path")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log encoding: json or console")

	root.AddCommand(
		a.generateCmd(),
		a.trainCmd(),
		a.predictCmd(),
		a.scenariosCmd(),
		a.inspectCmd(),
		a.rollbackCmd(),
		a.activateCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// #endregion root

// #region stores

func (a *app) openStores() (*artifact.Store, *history.Store, error) {
	bundles, err := artifact.NewStore(a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	records, err := history.NewStore(bundles.DB())
	if err != nil {
		bundles.Close()
		return nil, nil, err
	}
	return bundles, records, nil
}

func loadActive(store *artifact.Store) (artifact.Bundle, *features.Encoder, *model.Baseline, error) {
	b, err := store.GetActive()
	if err != nil {
		return artifact.Bundle{}, nil, nil, fmt.Errorf("load active bundle: %w", err)
	}
	enc, err := b.Encoder()
	if err != nil {
		return artifact.Bundle{}, nil, nil, err
	}
	p, err := b.Predictor()
	if err != nil {
		return artifact.Bundle{}, nil, nil, err
	}
	return b, enc, p, nil
}

// #endregion stores

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/grounded-app/risk-engine/internal/eval"
	"github.com/grounded-app/risk-engine/internal/gate"
	"github.com/grounded-app/risk-engine/internal/logging"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/synth"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// EnvPrefix prefixes every environment override, e.g. GROUNDED_TRAIN_EPOCHS.
const EnvPrefix = "GROUNDED"

// DefaultFile is the config file looked up in the working directory when none is given.
const DefaultFile = "grounded.yaml"

// #region types

// Config is the full runtime configuration of the grounded CLI.
type Config struct {
	Database DatabaseConfig       `json:"database" yaml:"database" mapstructure:"database"`
	Synth    SynthConfig          `json:"synth" yaml:"synth" mapstructure:"synth"`
	Split    pipeline.SplitConfig `json:"split" yaml:"split" mapstructure:"split"`
	Encoder  EncoderConfig        `json:"encoder" yaml:"encoder" mapstructure:"encoder"`
	Train    model.TrainConfig    `json:"train" yaml:"train" mapstructure:"train"`
	Eval     eval.EvalConfig      `json:"eval" yaml:"eval" mapstructure:"eval"`
	Gate     gate.GateConfig      `json:"gate" yaml:"gate" mapstructure:"gate"`
	RPC      RPCConfig            `json:"rpc" yaml:"rpc" mapstructure:"rpc"`
	Logging  logging.Config       `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig locates the SQLite file shared by the history and bundle stores.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// SynthConfig sizes the synthetic dataset.
type SynthConfig struct {
	Seed    uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
	Users   int    `json:"users" yaml:"users" mapstructure:"users"`
	Days    int    `json:"days" yaml:"days" mapstructure:"days"`
	Workers int    `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// EncoderConfig selects the unknown-category policy baked into new bundles.
type EncoderConfig struct {
	UnknownPolicy string `json:"unknown_policy" yaml:"unknown_policy" mapstructure:"unknown_policy"`
}

// RPCConfig configures the remote predictor.
type RPCConfig struct {
	Addr      string `json:"addr" yaml:"addr" mapstructure:"addr"`
	TimeoutMS int    `json:"timeout_ms" yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// Timeout returns the per-call deadline.
func (r RPCConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// #endregion types

// #region defaults

// Default returns the configuration used when no file or override is present.
func Default() Config {
	ds := synth.DefaultDatasetConfig()
	return Config{
		Database: DatabaseConfig{Path: "grounded.db"},
		Synth:    SynthConfig{Seed: ds.Seed, Users: ds.Users, Days: ds.DaysPerUser},
		Split:    pipeline.DefaultSplitConfig(),
		Encoder:  EncoderConfig{UnknownPolicy: string(vocab.UnknownZero)},
		Train:    model.DefaultTrainConfig(),
		Eval:     eval.DefaultEvalConfig(),
		Gate:     gate.DefaultGateConfig(),
		RPC:      RPCConfig{Addr: "localhost:50061", TimeoutMS: 5000},
		Logging:  logging.DefaultConfig(),
	}
}

// Dataset converts the synth section to generator parameters.
func (c Config) Dataset() synth.DatasetConfig {
	ds := synth.DefaultDatasetConfig()
	ds.Seed = c.Synth.Seed
	ds.Users = c.Synth.Users
	ds.DaysPerUser = c.Synth.Days
	ds.Workers = c.Synth.Workers
	return ds
}

// Options converts the training sections to pipeline options. Call Validate first.
func (c Config) Options() pipeline.Options {
	policy, _ := vocab.ParsePolicy(c.Encoder.UnknownPolicy)
	return pipeline.Options{Split: c.Split, Train: c.Train, Eval: c.Eval, Policy: policy}
}

// #endregion defaults

// #region load

// NewViper returns a viper instance with every default registered under its
// dotted key and environment overrides enabled.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal default config: %w", err)
	}
	registerDefaults(v, "", tree)
	return v, nil
}

func registerDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			registerDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load reads path (or DefaultFile when path is empty and the file exists) into v,
// applies environment overrides and validates the result.
func Load(v *viper.Viper, path string) (Config, error) {
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", DefaultFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes c as YAML, creating the parent directory.
func (c Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// #endregion load

// #region validate

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate rejects values no stage can run with.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Database.Path != "", "database.path is empty")
	check(c.Synth.Users > 0, "synth.users %d must be positive", c.Synth.Users)
	check(c.Synth.Days > 0, "synth.days %d must be positive", c.Synth.Days)
	check(c.Synth.Workers >= 0, "synth.workers %d must not be negative", c.Synth.Workers)
	check(inOpenUnit(c.Split.TestFraction), "split.test_fraction %g not in (0,1)", c.Split.TestFraction)
	check(inOpenUnit(c.Split.ValFraction), "split.val_fraction %g not in (0,1)", c.Split.ValFraction)
	_, err := vocab.ParsePolicy(c.Encoder.UnknownPolicy)
	check(err == nil, "encoder.unknown_policy %q is not zero or reject", c.Encoder.UnknownPolicy)
	check(c.Train.LearningRate > 0, "train.learning_rate %g must be positive", c.Train.LearningRate)
	check(c.Train.Epochs > 0, "train.epochs %d must be positive", c.Train.Epochs)
	check(c.Train.BatchSize > 0, "train.batch_size %d must be positive", c.Train.BatchSize)
	check(c.Train.L2 >= 0, "train.l2 %g must not be negative", c.Train.L2)
	check(c.Train.ClassWeights[0] > 0 && c.Train.ClassWeights[1] > 0, "train.class_weights %v must be positive", c.Train.ClassWeights)
	check(c.Train.PlateauFactor > 0 && c.Train.PlateauFactor <= 1, "train.plateau_factor %g not in (0,1]", c.Train.PlateauFactor)
	check(inOpenUnit(c.Eval.Threshold), "eval.threshold %g not in (0,1)", c.Eval.Threshold)
	check(c.Gate.MinAUC >= 0 && c.Gate.MinAUC <= 1, "gate.min_auc %g not in [0,1]", c.Gate.MinAUC)
	check(c.Gate.MinRecall >= 0 && c.Gate.MinRecall <= 1, "gate.min_recall %g not in [0,1]", c.Gate.MinRecall)
	check(c.RPC.TimeoutMS > 0, "rpc.timeout_ms %d must be positive", c.RPC.TimeoutMS)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func inOpenUnit(x float64) bool { return x > 0 && x < 1 }

// #endregion validate

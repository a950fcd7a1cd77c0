package logging

import "time"

// #region run-entry
// RunEntry is a single row in the run_log table.
type RunEntry struct {
	RunID       string
	VersionID   string
	Trigger     string // "train" | "activate" | "rollback"
	MetricsJSON string
	Decision    string // "commit" | "reject" | "rollback"
	Reason      string
	CreatedAt   time.Time
}

// #endregion run-entry

// #region train-record
// TrainRecord captures the complete inputs of one activation decision.
// Serialized as JSON into run_log.metrics_json.
type TrainRecord struct {
	Schema string `json:"schema"`
	Seed   uint64 `json:"seed"`

	// Split sizes
	TrainUsers   int `json:"train_users"`
	ValUsers     int `json:"val_users"`
	TestUsers    int `json:"test_users"`
	TrainSamples int `json:"train_samples"`
	TestSamples  int `json:"test_samples"`
	Positives    int `json:"test_positives"`

	// Test metrics
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`
	LogLoss   float64 `json:"log_loss"`

	// Training
	Epochs    int `json:"epochs"`
	BestEpoch int `json:"best_epoch"`

	// Gate thresholds active at decision time
	Thresholds TrainRecordThresholds `json:"thresholds"`

	// Gate output
	GateAction    string  `json:"gate_action"`
	GateSoftScore float64 `json:"gate_soft_score"`
	GateVetoed    bool    `json:"gate_vetoed"`
	GateReason    string  `json:"gate_reason"`
}

// TrainRecordThresholds captures the gate config active at decision time.
type TrainRecordThresholds struct {
	MinAUC            float64 `json:"min_auc"`
	MinRecall         float64 `json:"min_recall"`
	RequireSameSchema bool    `json:"require_same_schema"`
}

// #endregion train-record

// #region logger-config
// Config selects the zap logger level and encoding.
type Config struct {
	Level    string `json:"level" yaml:"level" mapstructure:"level"`          // debug | info | warn | error
	Encoding string `json:"encoding" yaml:"encoding" mapstructure:"encoding"` // json | console
}

// DefaultConfig returns info-level JSON logging.
func DefaultConfig() Config {
	return Config{Level: "info", Encoding: "json"}
}

// #endregion logger-config

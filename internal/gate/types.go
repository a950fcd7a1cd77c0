package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoSchema      VetoType = "schema_mismatch"
	VetoAUC         VetoType = "auc_below_floor"
	VetoRecall      VetoType = "recall_below_floor"
	VetoNoPositives VetoType = "no_positive_samples"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for activating a newly trained bundle.
type GateConfig struct {
	MinAUC            float64 `json:"min_auc" yaml:"min_auc" mapstructure:"min_auc"`
	MinRecall         float64 `json:"min_recall" yaml:"min_recall" mapstructure:"min_recall"`
	RequireSameSchema bool    `json:"require_same_schema" yaml:"require_same_schema" mapstructure:"require_same_schema"`
}

// DefaultGateConfig returns the activation defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinAUC:            0.6,
		MinRecall:         0.3,
		RequireSameSchema: true,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string       `json:"action"` // "commit" | "reject"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"`
	SoftScore   float64      `json:"soft_score"` // mean of AUC, recall and precision; logged only
}

// #endregion gate-decision

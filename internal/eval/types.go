package eval

// #region eval-config
// EvalConfig holds the decision threshold used to binarize probabilities.
type EvalConfig struct {
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// DefaultEvalConfig returns a 0.5 threshold.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{Threshold: 0.5}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric is one named evaluation value.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// #endregion eval-metric

// #region confusion
// Confusion is the binary confusion matrix.
type Confusion struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Total returns the number of scored samples.
func (c Confusion) Total() int { return c.TN + c.FP + c.FN + c.TP }

// Positives returns the number of actual positives.
func (c Confusion) Positives() int { return c.TP + c.FN }

// Negatives returns the number of actual negatives.
func (c Confusion) Negatives() int { return c.TN + c.FP }

// #endregion confusion

// #region eval-result
// EvalResult is the output of one evaluation run.
type EvalResult struct {
	Threshold float64      `json:"threshold"`
	Accuracy  float64      `json:"accuracy"`
	Precision float64      `json:"precision"`
	Recall    float64      `json:"recall"`
	F1        float64      `json:"f1"`
	AUC       float64      `json:"auc"`
	LogLoss   float64      `json:"log_loss"`
	Confusion Confusion    `json:"confusion"`
	Metrics   []EvalMetric `json:"-"`
}

// Metric looks a metric up by name.
func (r EvalResult) Metric(name string) (float64, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// #endregion eval-result

package gate

import (
	"fmt"

	"github.com/grounded-app/risk-engine/internal/eval"
)

// #region gate
// Gate decides whether a freshly trained bundle becomes the active one.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate checks hard vetoes first, then scores the test metrics.
// activeSchema is the fingerprint of the currently active bundle, "" if there is none.
func (g *Gate) Evaluate(candidateSchema, activeSchema string, result eval.EvalResult) GateDecision {
	var vetoes []VetoSignal

	if g.config.RequireSameSchema && activeSchema != "" && candidateSchema != activeSchema {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoSchema,
			Reason: fmt.Sprintf("schema %s differs from active %s", candidateSchema, activeSchema),
		})
	}

	if result.Confusion.Positives() == 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNoPositives,
			Reason: "test split has no high-risk windows",
		})
	}

	if result.AUC < g.config.MinAUC {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoAUC,
			Reason: fmt.Sprintf("auc %.4f below floor %.4f", result.AUC, g.config.MinAUC),
		})
	}

	if result.Recall < g.config.MinRecall {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoRecall,
			Reason: fmt.Sprintf("recall %.4f below floor %.4f", result.Recall, g.config.MinRecall),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	softScore := (result.AUC + result.Recall + result.Precision) / 3
	return GateDecision{
		Action:    "commit",
		Reason:    fmt.Sprintf("passed gate: soft_score=%.4f", softScore),
		SoftScore: softScore,
	}
}

// #endregion gate

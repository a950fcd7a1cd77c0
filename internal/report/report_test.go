package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/scenario"
)

func labeledHistory() record.History {
	high := record.UseDay(0, "alone", "night", "drinking", 6, 60)
	high.RiskLabel = 1
	return record.History{
		1: {high, record.NewDay(1), record.UseDay(2, "friends", "night", "vaping", 2, 20)},
		2: {record.UseDay(0, "alone", "evening", "smoking", 1, 5), record.NewDay(1)},
	}
}

func TestDatasetStats(t *testing.T) {
	s := Dataset(labeledHistory())
	assert.Equal(t, DatasetStats{
		Users:         2,
		TotalDays:     5,
		HighRiskDays:  1,
		LowRiskDays:   4,
		UseDays:       3,
		MeanUseAmount: 3,
		TopContext:    "alone",
		TopTime:       "night",
	}, s)
	assert.InDelta(t, 0.2, s.HighRiskRate(), 1e-12)
	assert.InDelta(t, 0.6, s.UseRate(), 1e-12)
	assert.InDelta(t, 2.5, s.DaysPerUser(), 1e-12)

	empty := Dataset(record.History{})
	assert.Zero(t, empty.HighRiskRate())
	assert.Empty(t, empty.TopContext)
}

func TestRenderDataset(t *testing.T) {
	out := RenderDataset(Dataset(labeledHistory()))
	for _, want := range []string{"Dataset", "total days", "20.0%", "alone", "night"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderScenarios(t *testing.T) {
	results := []scenario.Result{
		{Name: "Quiet", Prediction: 0.12, Level: scenario.LevelLow, Headline: "Low risk.", ExpectLevel: scenario.LevelLow},
		{Name: "Binge", Prediction: 0.91, Level: scenario.LevelHigh, Headline: "High risk.", ExpectLevel: scenario.LevelModerate},
	}
	out := RenderScenarios(results)
	assert.Contains(t, out, "1. Quiet")
	assert.Contains(t, out, "2. Binge")
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "MISMATCH")
	assert.Contains(t, out, "1/2 expectations met")

	assert.NotContains(t, RenderScenarios(nil), "expectations")
}

func TestRenderVersions(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	versions := []artifact.BundleWithRun{
		{Bundle: artifact.Bundle{VersionID: "v-new", CreatedAt: now.Add(-time.Hour)}, Active: true, Decision: "commit"},
		{Bundle: artifact.Bundle{VersionID: "v-old", CreatedAt: now.Add(-48 * time.Hour)}, Decision: "reject", Reason: "hard veto"},
	}
	out := RenderVersions(versions, now)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "* v-new"))
	assert.True(t, strings.HasPrefix(lines[2], "  v-old"))
	assert.Contains(t, out, "1 hour ago")
	assert.Contains(t, out, "hard veto")

	assert.Contains(t, RenderVersions(nil, now), "no bundle versions")
}

func TestRenderSamples(t *testing.T) {
	samples := []pipeline.SamplePrediction{
		{UserID: 1, Offset: 3, Probability: 0.8, Predicted: 1, Label: 1},
		{UserID: 2, Offset: 0, Probability: 0.2, Predicted: 0, Label: 1},
	}
	out := RenderSamples(samples)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "MISS")
	assert.Contains(t, lines[3], "1/2 correct (50.0%)")

	assert.Contains(t, RenderSamples(nil), "no sample windows")
}

func TestRenderPrediction(t *testing.T) {
	out := RenderPrediction(7, "v1", 0.65)
	assert.Contains(t, out, "User 7")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "concerning trends")
}

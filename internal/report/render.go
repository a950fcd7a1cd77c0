package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/scenario"
)

// #region styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA5B1")).Width(22)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7785"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2a3850")).Padding(0, 1)

	levelStyles = map[scenario.Level]lipgloss.Style{
		scenario.LevelHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5534B")),
		scenario.LevelModerate: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DAAA3F")),
		scenario.LevelLow:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#57AB5A")),
	}
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func pct(x float64) string { return humanize.FormatFloat("#,###.#", 100*x) + "%" }

func num(x float64) string { return humanize.FormatFloat("#,###.##", x) }

func count(n int) string { return humanize.Comma(int64(n)) }

// LevelBadge renders a risk level in its color.
func LevelBadge(l scenario.Level) string {
	if s, ok := levelStyles[l]; ok {
		return s.Render(string(l))
	}
	return string(l)
}

// #endregion styles

// #region dataset

// RenderDataset formats dataset statistics.
func RenderDataset(s DatasetStats) string {
	lines := []string{
		titleStyle.Render("Dataset"),
		row("users", count(s.Users)),
		row("total days", count(s.TotalDays)),
		row("days per user", num(s.DaysPerUser())),
		row("high-risk days", fmt.Sprintf("%s (%s)", count(s.HighRiskDays), pct(s.HighRiskRate()))),
		row("low-risk days", fmt.Sprintf("%s (%s)", count(s.LowRiskDays), pct(1-s.HighRiskRate()))),
		row("use days", fmt.Sprintf("%s (%s)", count(s.UseDays), pct(s.UseRate()))),
		row("mean amount (use days)", num(s.MeanUseAmount)),
		row("top context (use days)", orDash(s.TopContext)),
		row("top time (use days)", orDash(s.TopTime)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// #endregion dataset

// #region training

// RenderTraining formats a training run and its gate outcome.
func RenderTraining(res pipeline.TrainResult, pr pipeline.PromoteResult) string {
	e := res.Eval
	c := e.Confusion
	lines := []string{
		titleStyle.Render("Training"),
		row("version", pr.VersionID),
		row("users train/val/test", fmt.Sprintf("%d / %d / %d", len(res.Split.Train), len(res.Split.Val), len(res.Split.Test))),
		row("train windows", fmt.Sprintf("%s (%s high risk)", count(res.Stats.Train.Total), pct(res.Stats.Train.PositiveRate()))),
		row("test windows", fmt.Sprintf("%s (%s high risk)", count(res.Stats.Test.Total), pct(res.Stats.Test.PositiveRate()))),
		row("epochs", fmt.Sprintf("%d, best %s", len(res.Training.History), humanize.Ordinal(res.Training.BestEpoch))),
		"",
		titleStyle.Render("Test metrics"),
		row("accuracy", fmt.Sprintf("%.4f", e.Accuracy)),
		row("precision", fmt.Sprintf("%.4f", e.Precision)),
		row("recall", fmt.Sprintf("%.4f", e.Recall)),
		row("f1", fmt.Sprintf("%.4f", e.F1)),
		row("roc auc", fmt.Sprintf("%.4f", e.AUC)),
		row("log loss", fmt.Sprintf("%.4f", e.LogLoss)),
		row("confusion", fmt.Sprintf("TN=%d FP=%d FN=%d TP=%d", c.TN, c.FP, c.FN, c.TP)),
		"",
		titleStyle.Render("Gate"),
		row("decision", decision(pr)),
		row("reason", pr.Decision.Reason),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func decision(pr pipeline.PromoteResult) string {
	if pr.Activated {
		return levelStyles[scenario.LevelLow].Render("commit (active)")
	}
	return levelStyles[scenario.LevelHigh].Render(pr.Decision.Action)
}

// #endregion training

// #region prediction

// RenderPrediction formats one user's next-day prediction.
func RenderPrediction(user record.UserID, versionID string, p float64) string {
	level := scenario.LevelFor(p)
	headline, advice := scenario.Interpretation(level)
	lines := []string{
		titleStyle.Render(fmt.Sprintf("User %d", user)),
		row("next-day risk", fmt.Sprintf("%.3f %s", p, LevelBadge(level))),
		row("bundle", versionID),
		headline,
		mutedStyle.Render(advice),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderSamples formats sampled window predictions against their labels with an
// accuracy footer.
func RenderSamples(samples []pipeline.SamplePrediction) string {
	if len(samples) == 0 {
		return mutedStyle.Render("no sample windows") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sample predictions"))
	b.WriteString("\n")
	correct := 0
	for _, s := range samples {
		mark := "ok"
		if s.Correct() {
			correct++
		} else {
			mark = "MISS"
		}
		fmt.Fprintf(&b, "user %-4d day %-4d %.3f  predicted %d  actual %d  %s\n",
			s.UserID, s.Offset, s.Probability, s.Predicted, s.Label, mark)
	}
	fmt.Fprintf(&b, "%d/%d correct (%s)\n", correct, len(samples), pct(float64(correct)/float64(len(samples))))
	return b.String()
}

// #endregion prediction

// #region scenarios

// RenderScenarios formats scenario results in order, followed by a pass count
// when any scenario carries an expectation.
func RenderScenarios(results []scenario.Result) string {
	var b strings.Builder
	expected, passed := 0, 0
	for i, r := range results {
		w := r.Week
		lines := []string{
			titleStyle.Render(fmt.Sprintf("%d. %s", i+1, r.Name)),
			row("last week", fmt.Sprintf("used %d/%d days, total %s, mood %.1f, sleep %.1f", w.DaysUsed, w.Days, num(w.TotalAmount), w.AvgMood, w.AvgSleep)),
			row("prediction", fmt.Sprintf("%.3f %s", r.Prediction, LevelBadge(r.Level))),
			row("heuristic today", fmt.Sprintf("%.2f", r.HeuristicScore)),
			r.Headline,
			mutedStyle.Render(r.Advice),
		}
		if r.ExpectLevel != "" {
			expected++
			mark := "ok"
			if r.Matches() {
				passed++
			} else {
				mark = "MISMATCH"
			}
			lines = append(lines, row("expected", fmt.Sprintf("%s %s", r.ExpectLevel, mark)))
		}
		b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	if expected > 0 {
		fmt.Fprintf(&b, "%d/%d expectations met\n", passed, expected)
	}
	return b.String()
}

// #endregion scenarios

// #region versions

// RenderVersions formats the bundle version list, newest first.
func RenderVersions(versions []artifact.BundleWithRun, now time.Time) string {
	if len(versions) == 0 {
		return mutedStyle.Render("no bundle versions") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Bundle versions"))
	b.WriteString("\n")
	for _, v := range versions {
		marker := "  "
		if v.Active {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%s  %s  %s  %s\n",
			marker,
			v.VersionID,
			mutedStyle.Render(humanize.RelTime(v.CreatedAt, now, "ago", "from now")),
			orDash(v.Decision),
			mutedStyle.Render(v.Reason),
		)
	}
	return b.String()
}

// #endregion versions

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package synth

import (
	"math"
	"math/rand/v2"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region config

// GeneratorConfig holds the stochastic rules of the day simulator.
type GeneratorConfig struct {
	BaselineWeights     [6]float64 // P(baseline = 1..6 use days per week)
	WeekendSocialBoost  float64    // multiplier on weekend days for friends/party profiles
	MomentumBoost       float64    // multiplier after a use day
	PreferredContextP   float64
	PreferredTimeP      float64
	ReminderProbability float64
}

// DefaultGeneratorConfig returns the simulator rules used for the general model.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		BaselineWeights:     [6]float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03},
		WeekendSocialBoost:  1.5,
		MomentumBoost:       1.3,
		PreferredContextP:   0.6,
		PreferredTimeP:      0.7,
		ReminderProbability: 0.4,
	}
}

// #endregion config

// #region generator

// Generator draws profiles and days from an explicitly owned random source.
// A Generator is not safe for concurrent use; give each goroutine its own.
type Generator struct {
	rng    *rand.Rand
	config GeneratorConfig
}

// NewGenerator creates a Generator over rng with default rules.
func NewGenerator(rng *rand.Rand) *Generator {
	return NewGeneratorWithConfig(rng, DefaultGeneratorConfig())
}

// NewGeneratorWithConfig creates a Generator with custom rules.
func NewGeneratorWithConfig(rng *rand.Rand, config GeneratorConfig) *Generator {
	return &Generator{rng: rng, config: config}
}

// NewSource returns a PCG source for one user of a seeded run.
func NewSource(seed uint64, userID record.UserID) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(userID)+1))
}

// #endregion generator

// #region profile

// Profile draws one user's behavioural profile.
func (g *Generator) Profile() record.Profile {
	return record.Profile{
		BaselineFrequency: g.weightedBaseline(),
		PreferredContext:  g.pick(vocab.Contexts.Active()),
		PreferredTime:     g.pick(vocab.Times.Active()),
		StressSensitivity: g.uniform(0.5, 1.5),
		SocialInfluence:   g.uniform(0.3, 1.2),
	}
}

func (g *Generator) weightedBaseline() int {
	var total float64
	for _, w := range g.config.BaselineWeights {
		total += w
	}
	r := g.rng.Float64() * total
	for i, w := range g.config.BaselineWeights {
		if r < w {
			return i + 1
		}
		r -= w
	}
	return len(g.config.BaselineWeights)
}

// #endregion profile

// #region day

// Day simulates day dayNum given every earlier day of the same user.
func (g *Generator) Day(p record.Profile, dayNum int, prev []record.DailyRecord) record.DailyRecord {
	dow := dayNum % vocab.DaysOfWeek
	usedYesterday := len(prev) > 0 && prev[len(prev)-1].Used

	useProb := float64(p.BaselineFrequency) / 7.0
	if isWeekend(dow) && isSocial(p.PreferredContext) {
		useProb *= g.config.WeekendSocialBoost
	}
	if usedYesterday {
		useProb *= g.config.MomentumBoost
	}

	d := record.DailyRecord{
		DayNum:    dayNum,
		DayOfWeek: dow,
		Context:   vocab.None,
		TimeOfDay: vocab.None,
		Method:    vocab.None,
	}

	if g.rng.Float64() < useProb {
		d.Used = true
		d.Context = g.preferOr(p.PreferredContext, g.config.PreferredContextP, vocab.Contexts.Active())
		d.TimeOfDay = g.preferOr(p.PreferredTime, g.config.PreferredTimeP, vocab.Times.Active())

		amount := g.uniform(1, 5)
		if isSocial(d.Context) {
			amount *= g.uniform(1.2, 1.8)
		}
		d.Amount = amount
		d.Cost = amount * g.uniform(8, 15)
		d.Method = g.pick(vocab.Methods.Active())
	}

	d.SleepQuality = g.uniform(3, 9)
	d.Mood = clip(d.SleepQuality+g.uniform(-2, 2), 1, 10)

	craving := g.uniform(2, 6)
	if usedYesterday {
		craving += g.uniform(1, 3)
	}
	if d.Mood < 4 {
		craving += g.uniform(1, 2)
	}
	d.CravingIntensity = clip(craving, 1, 10)

	if g.rng.Float64() < g.config.ReminderProbability {
		d.ReminderOpens = g.poisson(1)
	}
	if d.ReminderOpens > 0 {
		d.MessagesRead = g.poisson(0.5)
	}
	return d
}

// User draws a profile and simulates days consecutive days for it.
func (g *Generator) User(days int) (record.Profile, []record.DailyRecord) {
	p := g.Profile()
	out := make([]record.DailyRecord, 0, days)
	for n := 0; n < days; n++ {
		out = append(out, g.Day(p, n, out))
	}
	return p, out
}

// #endregion day

// #region helpers

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rng.Float64()
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

func (g *Generator) preferOr(preferred string, p float64, values []string) string {
	if g.rng.Float64() < p {
		return preferred
	}
	return g.pick(values)
}

// poisson uses Knuth's multiplication method; fine for the small rates used here.
func (g *Generator) poisson(lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	prod := g.rng.Float64()
	for prod > limit {
		k++
		prod *= g.rng.Float64()
	}
	return k
}

func isWeekend(dow int) bool { return dow == 5 || dow == 6 }

func isSocial(context string) bool { return context == "friends" || context == "party" }

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion helpers

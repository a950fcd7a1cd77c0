package label

// #region factor

// Factor names one independent risk contribution.
type Factor string

const (
	FactorFrequencyHigh Factor = "frequency_high" // >= 5 of the last 7 days used
	FactorFrequencyMid  Factor = "frequency_mid"  // 3-4 of the last 7 days used
	FactorAloneLate     Factor = "alone_late"     // alone in the evening or at night
	FactorAmount        Factor = "amount"
	FactorLowMood       Factor = "low_mood"
	FactorPoorSleep     Factor = "poor_sleep"
	FactorCraving       Factor = "craving"
	FactorUsed          Factor = "used"
)

// factorOrder fixes the summation order so scores are bit-for-bit reproducible.
var factorOrder = []Factor{
	FactorFrequencyHigh,
	FactorFrequencyMid,
	FactorAloneLate,
	FactorAmount,
	FactorLowMood,
	FactorPoorSleep,
	FactorCraving,
	FactorUsed,
}

// #endregion factor

// #region config

// LabelConfig holds the weights and cut-offs of the heuristic.
type LabelConfig struct {
	LookbackDays      int
	HighFrequencyDays int
	MidFrequencyDays  int
	AmountThreshold   float64 // contribution when amount is strictly above
	MoodThreshold     float64 // contribution when mood is strictly below
	SleepThreshold    float64 // contribution when sleep is strictly below
	CravingThreshold  float64 // contribution when craving is strictly above
	LabelThreshold    float64 // label 1 when score is strictly above
	Weights           map[Factor]float64
}

// DefaultLabelConfig returns the ground-truth heuristic used for synthetic labels.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		LookbackDays:      7,
		HighFrequencyDays: 5,
		MidFrequencyDays:  3,
		AmountThreshold:   4,
		MoodThreshold:     4,
		SleepThreshold:    4,
		CravingThreshold:  7,
		LabelThreshold:    0.6,
		Weights: map[Factor]float64{
			FactorFrequencyHigh: 0.30,
			FactorFrequencyMid:  0.15,
			FactorAloneLate:     0.20,
			FactorAmount:        0.15,
			FactorLowMood:       0.15,
			FactorPoorSleep:     0.10,
			FactorCraving:       0.20,
			FactorUsed:          0.10,
		},
	}
}

// #endregion config

// #region assessment

// Assessment is the labeler output for one day.
type Assessment struct {
	Raw     float64            // unclipped sum of contributions
	Score   float64            // Raw clipped to [0, 1]
	Label   int                // 1 = high risk
	Factors map[Factor]float64 // contributions that fired
}

// #endregion assessment

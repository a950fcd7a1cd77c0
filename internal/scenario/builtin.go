package scenario

import (
	"github.com/grounded-app/risk-engine/internal/record"
)

// #region helpers

// dayFn builds the record for position i of a scenario.
type dayFn func(i int) record.DailyRecord

func build(n int, fn dayFn) []record.DailyRecord {
	days := make([]record.DailyRecord, n)
	for i := range days {
		days[i] = fn(i)
		days[i].DayNum = i
	}
	return days
}

func use(i int, context, timeOfDay, method string, amount, cost, mood, sleep, craving float64) record.DailyRecord {
	d := record.UseDay(i%7, context, timeOfDay, method, amount, cost)
	d.Mood, d.SleepQuality, d.CravingIntensity = mood, sleep, craving
	return d
}

func rest(i int, mood, sleep, craving float64) record.DailyRecord {
	d := record.NewDay(i % 7)
	d.Mood, d.SleepQuality, d.CravingIntensity = mood, sleep, craving
	return d
}

func engaged(d record.DailyRecord, opens, read int) record.DailyRecord {
	d.ReminderOpens, d.MessagesRead = opens, read
	return d
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// #endregion helpers

// #region builtin

// Builtin returns the ten reference scenarios, each exactly 14 days long.
func Builtin() []Scenario {
	return []Scenario{
		weekendSocialDrinker(),
		heavyRegularUser(),
		escalatingStressDrinker(),
		cuttingBack(),
		cannabisEscape(),
		partyDrugUser(),
		stimulantEscalation(),
		polydrugUser(),
		medicalCannabis(),
		recoveryRelapse(),
	}
}

func weekendSocialDrinker() Scenario {
	return Scenario{
		Name:        "Weekend Social Drinker",
		Description: "Drinks with friends on Friday and Saturday nights; good mood and sleep.",
		Days: build(14, func(i int) record.DailyRecord {
			if dow := i % 7; dow == 4 || dow == 5 {
				return use(i, "friends", "night", "drinking", 4, 40, 7, 6, 3)
			}
			return rest(i, 6, 7, 2)
		}),
	}
}

func heavyRegularUser() Scenario {
	return Scenario{
		Name:        "Heavy Regular User",
		Description: "Drinks heavily six nights a week, poor sleep, high cravings.",
		Days: build(14, func(i int) record.DailyRecord {
			if i%7 == 2 {
				return rest(i, 3, 5, 8)
			}
			return use(i, pick(i%3 == 0, "alone", "friends"), "night", "drinking", 6.5, 65, 4, 4, 7)
		}),
	}
}

func escalatingStressDrinker() Scenario {
	return Scenario{
		Name:        "Escalating Stress Drinker",
		Description: "Two moderate sessions in week one, four heavier solo sessions in week two.",
		Days: build(14, func(i int) record.DailyRecord {
			if i < 7 {
				if i == 2 || i == 5 {
					return use(i, pick(i == 5, "friends", "alone"), pick(i == 5, "evening", "night"), "drinking", 3, 30, 5, 6, 4)
				}
				return rest(i, 6, 7, 3)
			}
			if i%2 == 1 {
				return use(i, "alone", "night", "drinking", 5, 50, 3, 4, 6)
			}
			return rest(i, 4, 5, 5)
		}),
	}
}

func cuttingBack() Scenario {
	return Scenario{
		Name:        "User Cutting Back",
		Description: "Daily solo drinking in week one, every other day with app engagement in week two.",
		Days: build(14, func(i int) record.DailyRecord {
			if i < 7 {
				return use(i, "alone", "evening", "drinking", 5, 50, 4, 5, 7)
			}
			if i%2 == 0 {
				return engaged(use(i, "friends", "evening", "drinking", 3, 30, 6, 7, 5), 2, 1)
			}
			return engaged(rest(i, 7, 8, 4), 3, 2)
		}),
	}
}

func cannabisEscape() Scenario {
	return Scenario{
		Name:        "Cannabis User (Emotional Escape)",
		Description: "Solo night-time smoking five days then daily, declining mood.",
		Days: build(14, func(i int) record.DailyRecord {
			if i < 7 {
				if i == 1 || i == 3 {
					return rest(i, 2, 4, 7)
				}
				return use(i, "alone", "night", "smoking", 2, 20, 3, 5, 6)
			}
			return use(i, "alone", pick(i%2 == 0, "night", "evening"), "smoking", 3, 30, 2, 4, 8)
		}),
	}
}

func partyDrugUser() Scenario {
	return Scenario{
		Name:        "Party Drug User",
		Description: "Weekend party use spreading to midweek in week two; sleep and mood deteriorate.",
		Days: build(14, func(i int) record.DailyRecord {
			dow := i % 7
			weekend := dow >= 4
			late := i >= 7
			if weekend || (late && dow == 3) {
				return use(i, pick(weekend, "party", "friends"), "night", "edibles", 1, 50,
					pick(late, 4.0, 6.0), 3, pick(late, 7.0, 5.0))
			}
			return rest(i, pick(late, 3.0, 5.0), 6, pick(late, 6.0, 4.0))
		}),
	}
}

func stimulantEscalation() Scenario {
	return Scenario{
		Name:        "Stimulant User (Escalating)",
		Description: "Three sessions in week one, five heavier ones in week two, very poor sleep.",
		Days: build(14, func(i int) record.DailyRecord {
			if i < 7 {
				if i == 2 || i == 5 || i == 6 {
					return use(i, pick(i >= 5, "friends", "alone"), "night", "smoking", 2, 60, 7, 2, 5)
				}
				return rest(i, 3, 4, 6)
			}
			switch i {
			case 7, 9, 11, 12, 13:
				return use(i, pick(i%2 == 0, "alone", "friends"), "night", "smoking", 3, 90, 6, 2, 8)
			}
			return rest(i, 2, 3, 9)
		}),
	}
}

func polydrugUser() Scenario {
	methods := []string{"drinking", "smoking", "vaping", "edibles"}
	contexts := []string{"alone", "friends", "party", "alone"}
	return Scenario{
		Name:        "Polydrug User",
		Description: "Rotates four methods five days a week with unstable mood.",
		Days: build(14, func(i int) record.DailyRecord {
			if dow := i % 7; dow == 1 || dow == 3 {
				return rest(i, 3, 5, 8)
			}
			k := i % len(methods)
			return use(i, contexts[k], pick(i%2 == 0, "evening", "night"), methods[k],
				float64(3+i%3), float64(40+(i%4)*10), 4, 4, 7)
		}),
	}
}

func medicalCannabis() Scenario {
	return Scenario{
		Name:        "Medical Cannabis User",
		Description: "Consistent low evening dose, good sleep and mood, engaged with tracking.",
		Days: build(14, func(i int) record.DailyRecord {
			return engaged(use(i, "alone", "evening", "vaping", 1, 10, 7, 8, 2), 1, 1)
		}),
	}
}

func recoveryRelapse() Scenario {
	return Scenario{
		Name:        "Recovery Relapse",
		Description: "Ten clean days with rising cravings, then four days of heavy solo drinking.",
		Days: build(14, func(i int) record.DailyRecord {
			if i < 10 {
				early := i < 5
				return engaged(rest(i, pick(early, 6.0, 4.0), pick(early, 7.0, 5.0), pick(early, 4.0, 7.0)), 2, 1)
			}
			return use(i, "alone", "night", "drinking", 7, 70, 2, 3, 9)
		}),
	}
}

// #endregion builtin

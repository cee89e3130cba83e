// Package ledger folds a day's food entries into the DailyProgress figures the
// dashboard shows: total, remaining and percent of the daily target.
package ledger

import (
	"math"
	"slices"

	"lg/calorie-budget-api/internal/model"
)

// AggregateDay sums entries for one (user, date) against target. Remaining may
// go negative when the day is over budget. A non-positive target reports 0%.
func AggregateDay(userID string, date model.Date, entries []model.FoodEntry, target int) model.DailyProgress {
	p := model.DailyProgress{
		UserID:         userID,
		Date:           date,
		TargetCalories: target,
		HasData:        len(entries) > 0,
	}
	for _, e := range entries {
		p.TotalCalories += e.Calories
		if e.ProteinG != nil {
			p.ProteinG += *e.ProteinG
		}
		if e.CarbsG != nil {
			p.CarbsG += *e.CarbsG
		}
		if e.FatG != nil {
			p.FatG += *e.FatG
		}
	}
	return withDerived(p)
}

// withDerived fills Remaining and PercentComplete from the stored total and
// target. Used for both freshly aggregated and stored progress rows.
func withDerived(p model.DailyProgress) model.DailyProgress {
	p.Remaining = p.TargetCalories - p.TotalCalories
	p.PercentComplete = percent(p.TotalCalories, p.TargetCalories)
	return p
}

// Refresh recomputes the derived fields of a stored progress row.
func Refresh(p model.DailyProgress) model.DailyProgress {
	p.HasData = p.HasData || p.TotalCalories > 0
	return withDerived(p)
}

func percent(total, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := 100 * float64(total) / float64(target)
	return math.Max(0, math.Min(100, pct))
}

// AddEntry appends e to the day and re-aggregates. Identical entries are kept;
// logging the same food twice is deliberate. day is not modified.
func AddEntry(day []model.FoodEntry, e model.FoodEntry, target int) ([]model.FoodEntry, model.DailyProgress) {
	next := make([]model.FoodEntry, 0, len(day)+1)
	next = append(next, day...)
	next = append(next, e)
	return next, AggregateDay(e.UserID, e.Date, next, target)
}

// RemoveEntry drops the entry with id and re-aggregates. An absent id leaves
// the day unchanged. day is not modified.
func RemoveEntry(userID string, date model.Date, day []model.FoodEntry, id string, target int) ([]model.FoodEntry, model.DailyProgress) {
	next := slices.DeleteFunc(slices.Clone(day), func(e model.FoodEntry) bool { return e.ID == id })
	return next, AggregateDay(userID, date, next, target)
}

// TargetFor picks the target to aggregate date against. A day before today
// keeps the target stored in its snapshot; today and later follow the
// profile's current target.
func TargetFor(stored *model.DailyProgress, current int, date, today model.Date) int {
	if stored != nil && stored.TargetCalories > 0 && date.Before(today) {
		return stored.TargetCalories
	}
	return current
}

// AggregateWeek returns exactly seven days, today-6 through today in
// chronological order. Days missing from days report zero calories against
// currentTarget, and today is always measured against it. Days outside the
// window are ignored.
func AggregateWeek(userID string, days []model.DailyProgress, today model.Date, currentTarget int) []model.DailyProgress {
	byDate := make(map[string]model.DailyProgress, len(days))
	for _, d := range days {
		byDate[d.Date.String()] = d
	}

	week := make([]model.DailyProgress, 7)
	start := today.AddDays(-6)
	for i := range week {
		date := start.AddDays(i)
		if d, ok := byDate[date.String()]; ok {
			d.Date = date
			d.TargetCalories = TargetFor(&d, currentTarget, date, today)
			week[i] = Refresh(d)
			continue
		}
		week[i] = withDerived(model.DailyProgress{
			UserID:         userID,
			Date:           date,
			TargetCalories: currentTarget,
		})
	}
	return week
}

// WeekStats summarizes the tracked days of a week.
type WeekStats struct {
	DaysTracked    int `json:"days_tracked"`
	DaysOnBudget   int `json:"days_on_budget"`
	AvgCalories    int `json:"avg_calories"`
	TotalRemaining int `json:"total_remaining"`
}

// Summarize counts only days with data, like the progress view.
func Summarize(week []model.DailyProgress) WeekStats {
	var s WeekStats
	total := 0
	for _, d := range week {
		if !d.HasData {
			continue
		}
		s.DaysTracked++
		if d.TotalCalories <= d.TargetCalories {
			s.DaysOnBudget++
		}
		total += d.TotalCalories
		s.TotalRemaining += d.Remaining
	}
	if s.DaysTracked > 0 {
		s.AvgCalories = total / s.DaysTracked
	}
	return s
}

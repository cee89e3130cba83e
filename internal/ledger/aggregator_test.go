package ledger

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-budget-api/internal/model"
)

var day = model.MustParseDate("2024-06-15")

func entry(id string, kcal int) model.FoodEntry {
	return model.FoodEntry{ID: id, UserID: "u1", Date: day, MealType: model.MealLunch, FoodName: id, Calories: kcal}
}

func f(v float64) *float64 { return &v }

/* ─── AggregateDay ───────────────────────────────────────────────────── */

func TestAggregateDay_Empty(t *testing.T) {
	p := AggregateDay("u1", day, nil, 2000)
	assert.Equal(t, 0, p.TotalCalories)
	assert.Equal(t, 2000, p.Remaining)
	assert.Equal(t, 0.0, p.PercentComplete)
	assert.False(t, p.HasData)
}

func TestAggregateDay_Totals(t *testing.T) {
	e1 := entry("a", 350)
	e1.ProteinG, e1.CarbsG, e1.FatG = f(12), f(65), f(5)
	e2 := entry("b", 280)
	e2.ProteinG = f(45)

	p := AggregateDay("u1", day, []model.FoodEntry{e1, e2}, 2000)
	assert.Equal(t, 630, p.TotalCalories)
	assert.Equal(t, 1370, p.Remaining)
	assert.InDelta(t, 31.5, p.PercentComplete, 1e-9)
	assert.Equal(t, 57.0, p.ProteinG)
	assert.Equal(t, 65.0, p.CarbsG)
	assert.Equal(t, 5.0, p.FatG)
	assert.True(t, p.HasData)
}

func TestAggregateDay_OverBudget(t *testing.T) {
	p := AggregateDay("u1", day, []model.FoodEntry{entry("a", 1500), entry("b", 900)}, 2000)
	assert.Equal(t, -400, p.Remaining)
	assert.Equal(t, 100.0, p.PercentComplete)
}

func TestAggregateDay_ZeroTarget(t *testing.T) {
	p := AggregateDay("u1", day, []model.FoodEntry{entry("a", 500)}, 0)
	assert.Equal(t, 0.0, p.PercentComplete)
	assert.Equal(t, -500, p.Remaining)
}

// TestAggregateDay_OrderIndependent shuffles the same entries repeatedly and
// expects identical totals.
func TestAggregateDay_OrderIndependent(t *testing.T) {
	entries := []model.FoodEntry{entry("a", 80), entry("b", 450), entry("c", 520), entry("d", 180), entry("e", 680)}
	want := AggregateDay("u1", day, entries, 2200)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.FoodEntry(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := AggregateDay("u1", day, shuffled, 2200)
		require.Equal(t, want.TotalCalories, got.TotalCalories)
		require.Equal(t, want.Remaining, got.Remaining)
	}
}

/* ─── AddEntry / RemoveEntry ─────────────────────────────────────────── */

func TestAddEntry_KeepsDuplicates(t *testing.T) {
	var entries []model.FoodEntry
	var p model.DailyProgress
	entries, p = AddEntry(entries, entry("a", 300), 2000)
	entries, p = AddEntry(entries, entry("a", 300), 2000)

	assert.Len(t, entries, 2)
	assert.Equal(t, 600, p.TotalCalories)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, day.String(), p.Date.String())
}

func TestAddEntry_DoesNotModifyInput(t *testing.T) {
	base := make([]model.FoodEntry, 1, 4)
	base[0] = entry("a", 100)
	next, _ := AddEntry(base, entry("b", 200), 2000)
	next[0].Calories = 999

	assert.Equal(t, 100, base[0].Calories)
	assert.Len(t, base, 1)
}

func TestRemoveEntry(t *testing.T) {
	entries := []model.FoodEntry{entry("a", 100), entry("b", 200), entry("c", 300)}

	next, p := RemoveEntry("u1", day, entries, "b", 2000)
	assert.Equal(t, 400, p.TotalCalories)
	assert.Len(t, next, 2)
	assert.Len(t, entries, 3, "input untouched")
	assert.Equal(t, "b", entries[1].ID)

	same, p := RemoveEntry("u1", day, entries, "missing", 2000)
	assert.Len(t, same, 3)
	assert.Equal(t, 600, p.TotalCalories)
}

func TestTargetFor(t *testing.T) {
	yesterday := day.AddDays(-1)
	stored := &model.DailyProgress{TargetCalories: 1800}

	tests := []struct {
		name   string
		stored *model.DailyProgress
		date   model.Date
		want   int
	}{
		{"past day keeps its snapshot", stored, yesterday, 1800},
		{"today follows the profile", stored, day, 2100},
		{"future day follows the profile", stored, day.AddDays(1), 2100},
		{"past day without snapshot", nil, yesterday, 2100},
		{"past day with zero target", &model.DailyProgress{}, yesterday, 2100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetFor(tt.stored, 2100, tt.date, day))
		})
	}
}

/* ─── AggregateWeek ──────────────────────────────────────────────────── */

func TestAggregateWeek_FillsGaps(t *testing.T) {
	today := model.MustParseDate("2024-03-02") // crosses the Feb 29 boundary
	days := []model.DailyProgress{
		{UserID: "u1", Date: model.MustParseDate("2024-02-29"), TotalCalories: 1500, TargetCalories: 1800},
		{UserID: "u1", Date: model.MustParseDate("2024-03-02"), TotalCalories: 2500, TargetCalories: 2000},
		{UserID: "u1", Date: model.MustParseDate("2024-02-01"), TotalCalories: 999, TargetCalories: 2000}, // outside window
	}

	week := AggregateWeek("u1", days, today, 2200)

	gotDates := make([]string, len(week))
	for i, d := range week {
		gotDates[i] = d.Date.String()
	}
	wantDates := []string{"2024-02-25", "2024-02-26", "2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if diff := cmp.Diff(wantDates, gotDates); diff != "" {
		t.Errorf("week dates mismatch (-want +got):\n%s", diff)
	}

	want := model.DailyProgress{UserID: "u1", TotalCalories: 1500, TargetCalories: 1800, Remaining: 300, PercentComplete: 1500.0 / 1800 * 100, HasData: true}
	if diff := cmp.Diff(want, week[4], cmpopts.IgnoreFields(model.DailyProgress{}, "Date"), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("stored day mismatch (-want +got):\n%s", diff)
	}

	empty := week[0]
	assert.Equal(t, 0, empty.TotalCalories)
	assert.Equal(t, 2200, empty.TargetCalories)
	assert.Equal(t, 2200, empty.Remaining)
	assert.False(t, empty.HasData)

	// today's stored 2000 gives way to the current 2200
	assert.Equal(t, 2200, week[6].TargetCalories)
	assert.Equal(t, 100.0, week[6].PercentComplete)
	assert.Equal(t, -300, week[6].Remaining)
}

func TestSummarize(t *testing.T) {
	today := model.MustParseDate("2024-06-15")
	week := AggregateWeek("u1", []model.DailyProgress{
		{Date: today.AddDays(-1), TotalCalories: 1900, TargetCalories: 2000},
		{Date: today, TotalCalories: 2300, TargetCalories: 2000},
	}, today, 2000)

	s := Summarize(week)
	assert.Equal(t, WeekStats{DaysTracked: 2, DaysOnBudget: 1, AvgCalories: 2100, TotalRemaining: -200}, s)
}

// Package metabolic holds the pure calorie-budget formulas: BMR (Mifflin-St
// Jeor), TDEE, the goal-adjusted daily calorie target, and the projected
// number of weeks to reach a target weight. Nothing here reads the clock or a
// random source; callers pass every input explicitly.
package metabolic

import (
	"math"

	"lg/calorie-budget-api/internal/model"
)

const (
	// KcalPerKG is the energy content of one kilogram of adipose tissue.
	KcalPerKG = 7700.0

	MinDailyCalories = 1200
	MaxDailyCalories = 4000

	// SedentaryMultiplier applies when no workout bucket is known.
	SedentaryMultiplier = 1.2
)

// activityMultipliers maps each workout bucket to its TDEE multiplier.
var activityMultipliers = map[model.ActivityBucket]float64{
	model.ActivityLow:    1.375,
	model.ActivityMedium: 1.55,
	model.ActivityHigh:   1.725,
}

// sexOffset is the Mifflin-St Jeor constant. "other" uses the midpoint of the
// male and female constants.
func sexOffset(sex model.Sex) float64 {
	switch sex {
	case model.SexMale:
		return 5
	case model.SexFemale:
		return -161
	default:
		return -78
	}
}

// ComputeBMR returns basal metabolic rate in kcal/day. Inputs are not
// validated; out-of-range values go through the formula as-is.
func ComputeBMR(weightKG, heightCM float64, ageYears int, sex model.Sex) int {
	bmr := 10*weightKG + 6.25*heightCM - 5*float64(ageYears) + sexOffset(sex)
	return int(math.Round(bmr))
}

// ComputeBMRForProfile extracts biometrics from p and computes BMR with the
// age as of on. Returns ok=false when weight, height or birth date is missing.
func ComputeBMRForProfile(p model.Profile, on model.Date) (int, bool) {
	if p.WeightKG <= 0 || p.HeightCM <= 0 || p.BirthDate == nil {
		return 0, false
	}
	sex := p.Sex
	if sex == "" {
		sex = model.SexMale
	}
	return ComputeBMR(p.WeightKG, p.HeightCM, DeriveAge(*p.BirthDate, on), sex), true
}

// ComputeTDEE scales bmr by the multiplier for bucket.
func ComputeTDEE(bmr int, bucket model.ActivityBucket) int {
	return ComputeTDEEWithMultiplier(bmr, ResolveActivityMultiplier(bucket))
}

// ComputeTDEEWithMultiplier scales bmr by a caller-supplied multiplier. A
// non-positive multiplier falls back to sedentary.
func ComputeTDEEWithMultiplier(bmr int, multiplier float64) int {
	if multiplier <= 0 {
		multiplier = SedentaryMultiplier
	}
	return int(math.Round(float64(bmr) * multiplier))
}

// DailyAdjustment is the daily kcal deficit or surplus that yields
// weeklyRateKG of change per week.
func DailyAdjustment(weeklyRateKG float64) float64 {
	return KcalPerKG * weeklyRateKG / 7
}

// ComputeDailyCalorieTarget adjusts tdee for the goal and clamps the result
// to [MinDailyCalories, MaxDailyCalories] regardless of goal.
func ComputeDailyCalorieTarget(tdee int, goal model.Goal, weeklyRateKG float64) int {
	target := float64(tdee)
	switch goal {
	case model.GoalLose:
		target -= DailyAdjustment(weeklyRateKG)
	case model.GoalGain:
		target += DailyAdjustment(weeklyRateKG)
	}
	target = math.Max(MinDailyCalories, math.Min(MaxDailyCalories, target))
	return int(math.Round(target))
}

// EstimateWeeksToGoal returns the whole weeks needed to move from currentKG
// to targetKG at weeklyRateKG. ok=false means the projection is undefined
// (non-positive rate) and must be shown as unreachable, not as zero.
func EstimateWeeksToGoal(currentKG, targetKG, weeklyRateKG float64) (weeks int, ok bool) {
	if weeklyRateKG <= 0 || math.IsNaN(weeklyRateKG) {
		return 0, false
	}
	return int(math.Ceil(math.Abs(targetKG-currentKG) / weeklyRateKG)), true
}

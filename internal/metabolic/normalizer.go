package metabolic

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"lg/calorie-budget-api/internal/model"
)

// Defaults applied when an onboarding answer was never collected.
const (
	DefaultAgeYears     = 25
	DefaultWeightKG     = 70.0
	DefaultHeightCM     = 170.0
	DefaultWeeklyRateKG = 0.5
	DefaultBucket       = model.ActivityMedium
	DefaultSex          = model.SexMale
	DefaultGoal         = model.GoalMaintain
)

// Answers is a partially filled onboarding record. Nil pointers and empty
// strings mean "not collected".
type Answers struct {
	Sex             *model.Sex            `json:"sex,omitempty"`
	WorkoutsPerWeek *model.ActivityBucket `json:"workouts_per_week,omitempty"`
	ReferralSource  *string               `json:"referral_source,omitempty"`
	TriedOtherApps  *bool                 `json:"tried_other_apps,omitempty"`
	HeightCM        *float64              `json:"height_cm,omitempty"`
	WeightKG        *float64              `json:"weight_kg,omitempty"`
	BirthDate       *model.Date           `json:"birth_date,omitempty"`
	HasTrainer      *bool                 `json:"has_trainer,omitempty"`
	Goal            *model.Goal           `json:"goal,omitempty"`
	TargetWeightKG  *float64              `json:"target_weight_kg,omitempty"`
	WeeklyRateKG    *float64              `json:"weekly_rate_kg,omitempty"`
	DietType        *string               `json:"diet_type,omitempty"`
	Barriers        []string              `json:"barriers,omitempty"`
	Desires         []string              `json:"desires,omitempty"`
}

// DeriveAge returns the full years elapsed between birth and on. The month is
// compared first, then the day of month, so a 29 February birthday is reached
// on 1 March in non-leap years.
func DeriveAge(birth, on model.Date) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

// ResolveActivityMultiplier looks up the TDEE multiplier for a workout
// bucket. Unknown or empty buckets are treated as sedentary.
func ResolveActivityMultiplier(bucket model.ActivityBucket) float64 {
	if m, ok := activityMultipliers[bucket]; ok {
		return m
	}
	return SedentaryMultiplier
}

// Metrics bundles the three derived values stored on a completed profile.
type Metrics struct {
	BMR           int `json:"bmr"`
	TDEE          int `json:"tdee"`
	DailyCalories int `json:"daily_calories"`
}

// Derive runs BMR -> TDEE -> daily target from a profile's stored
// biometrics. Rebuilding from a stored profile reproduces the same values.
func Derive(p model.Profile, on model.Date) Metrics {
	age := DefaultAgeYears
	if p.BirthDate != nil {
		age = DeriveAge(*p.BirthDate, on)
	}
	bmr := ComputeBMR(p.WeightKG, p.HeightCM, age, p.Sex)
	tdee := ComputeTDEE(bmr, p.WorkoutsPerWeek)
	return Metrics{
		BMR:           bmr,
		TDEE:          tdee,
		DailyCalories: ComputeDailyCalorieTarget(tdee, p.Goal, p.WeeklyRateKG),
	}
}

// BuildCompletedProfile fills defaults for every missing answer, derives the
// metrics and returns a completed snapshot with a fresh id and CreatedAt=now.
func BuildCompletedProfile(a Answers, now time.Time) model.Profile {
	p := applyAnswers(model.Profile{}, a)
	if a.WeeklyRateKG == nil {
		p.WeeklyRateKG = DefaultWeeklyRateKG
	}
	p.ID = uuid.NewString()
	return complete(p, now)
}

// RebuildProfile applies changes on top of prev and recomputes every derived
// metric. prev is left untouched; the result keeps prev's id and owner.
func RebuildProfile(prev model.Profile, changes Answers, now time.Time) model.Profile {
	p := prev
	p.Barriers = slices.Clone(prev.Barriers)
	p.Desires = slices.Clone(prev.Desires)
	p = applyAnswers(p, changes)
	return complete(p, now)
}

func complete(p model.Profile, now time.Time) model.Profile {
	if p.Sex == "" {
		p.Sex = DefaultSex
	}
	if p.WorkoutsPerWeek == "" {
		p.WorkoutsPerWeek = DefaultBucket
	}
	if p.Goal == "" {
		p.Goal = DefaultGoal
	}
	if p.WeightKG == 0 {
		p.WeightKG = DefaultWeightKG
	}
	if p.HeightCM == 0 {
		p.HeightCM = DefaultHeightCM
	}
	if p.Barriers == nil {
		p.Barriers = []string{}
	}
	if p.Desires == nil {
		p.Desires = []string{}
	}

	m := Derive(p, model.NewDate(now))
	p.BMR, p.TDEE, p.DailyCalories = &m.BMR, &m.TDEE, &m.DailyCalories
	p.CompletedOnboarding = true
	p.CreatedAt = now
	return p
}

func applyAnswers(p model.Profile, a Answers) model.Profile {
	if a.Sex != nil {
		p.Sex = *a.Sex
	}
	if a.WorkoutsPerWeek != nil {
		p.WorkoutsPerWeek = *a.WorkoutsPerWeek
	}
	if a.ReferralSource != nil {
		p.ReferralSource = *a.ReferralSource
	}
	if a.TriedOtherApps != nil {
		v := *a.TriedOtherApps
		p.TriedOtherApps = &v
	}
	if a.HeightCM != nil {
		p.HeightCM = *a.HeightCM
	}
	if a.WeightKG != nil {
		p.WeightKG = *a.WeightKG
	}
	if a.BirthDate != nil {
		d := *a.BirthDate
		p.BirthDate = &d
	}
	if a.HasTrainer != nil {
		v := *a.HasTrainer
		p.HasTrainer = &v
	}
	if a.Goal != nil {
		p.Goal = *a.Goal
	}
	if a.TargetWeightKG != nil {
		v := *a.TargetWeightKG
		p.TargetWeightKG = &v
	}
	if a.WeeklyRateKG != nil {
		p.WeeklyRateKG = *a.WeeklyRateKG
	}
	if a.DietType != nil {
		p.DietType = *a.DietType
	}
	if a.Barriers != nil {
		p.Barriers = dedupe(a.Barriers)
	}
	if a.Desires != nil {
		p.Desires = dedupe(a.Desires)
	}
	return p
}

// dedupe keeps the first occurrence of each label.
func dedupe(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// Projection is the time-to-goal view shown at the end of onboarding.
type Projection struct {
	CurrentWeightKG float64 `json:"current_weight_kg"`
	TargetWeightKG  float64 `json:"target_weight_kg"`
	WeeklyRateKG    float64 `json:"weekly_rate_kg"`
	WeeksToGoal     *int    `json:"weeks_to_goal"`
	Reachable       bool    `json:"reachable"`
}

// Project estimates weeks to goal for p. A profile with no target weight is
// projected against its current weight (zero weeks).
func Project(p model.Profile) Projection {
	target := p.WeightKG
	if p.TargetWeightKG != nil {
		target = *p.TargetWeightKG
	}
	pr := Projection{CurrentWeightKG: p.WeightKG, TargetWeightKG: target, WeeklyRateKG: p.WeeklyRateKG}
	if weeks, ok := EstimateWeeksToGoal(p.WeightKG, target, p.WeeklyRateKG); ok {
		pr.WeeksToGoal = &weeks
		pr.Reachable = true
	}
	return pr
}

package model

import (
	"errors"
	"time"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ActivityBucket is the weekly-workout-frequency tier chosen during onboarding.
type ActivityBucket string

const (
	ActivityLow    ActivityBucket = "0-2"
	ActivityMedium ActivityBucket = "3-5"
	ActivityHigh   ActivityBucket = "6+"
)

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Valid reports whether m is one of the four known meal types.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

func (g Goal) Valid() bool {
	return g == GoalLose || g == GoalMaintain || g == GoalGain
}

func (b ActivityBucket) Valid() bool {
	return b == ActivityLow || b == ActivityMedium || b == ActivityHigh
}

// Profile is a user's onboarding answers plus the metrics derived from them.
// A completed Profile is an immutable snapshot: changed biometrics produce a
// new snapshot rather than an in-place edit.
type Profile struct {
	ID     string `json:"id"      db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Sex       Sex     `json:"sex"        db:"sex"`
	HeightCM  float64 `json:"height_cm"  db:"height_cm"`
	WeightKG  float64 `json:"weight_kg"  db:"weight_kg"`
	BirthDate *Date   `json:"birth_date" db:"birth_date"`

	WorkoutsPerWeek ActivityBucket `json:"workouts_per_week" db:"workouts_per_week"`
	TriedOtherApps  *bool          `json:"tried_other_apps"  db:"tried_other_apps"`
	HasTrainer      *bool          `json:"has_trainer"       db:"has_trainer"`
	ReferralSource  string         `json:"referral_source"   db:"referral_source"`
	DietType        string         `json:"diet_type"         db:"diet_type"`
	Barriers        []string       `json:"barriers"          db:"barriers"`
	Desires         []string       `json:"desires"           db:"desires"`

	Goal           Goal     `json:"goal"             db:"goal"`
	TargetWeightKG *float64 `json:"target_weight_kg" db:"target_weight_kg"`
	WeeklyRateKG   float64  `json:"weekly_rate_kg"   db:"weekly_rate_kg"`

	// Derived metrics. Present iff CompletedOnboarding.
	BMR           *int `json:"bmr,omitempty"            db:"bmr"`
	TDEE          *int `json:"tdee,omitempty"           db:"tdee"`
	DailyCalories *int `json:"daily_calories,omitempty" db:"daily_calories"`

	CompletedOnboarding bool      `json:"completed_onboarding" db:"completed_onboarding"`
	CreatedAt           time.Time `json:"created_at"           db:"created_at"`
}

var (
	ErrMetricsWithoutCompletion = errors.New("profile carries derived metrics but onboarding is not completed")
	ErrCompletionWithoutMetrics = errors.New("profile completed onboarding but derived metrics are missing")
)

// Validate checks the derived-metrics invariant on stored or received data.
func (p Profile) Validate() error {
	hasMetrics := p.BMR != nil && p.TDEE != nil && p.DailyCalories != nil
	anyMetric := p.BMR != nil || p.TDEE != nil || p.DailyCalories != nil
	if p.CompletedOnboarding && !hasMetrics {
		return ErrCompletionWithoutMetrics
	}
	if !p.CompletedOnboarding && anyMetric {
		return ErrMetricsWithoutCompletion
	}
	return nil
}

// Target returns the daily calorie target, or 0 when the profile is incomplete.
func (p Profile) Target() int {
	if p.DailyCalories == nil {
		return 0
	}
	return *p.DailyCalories
}

// FoodEntry is one logged food item. Entries are never mutated after creation;
// corrections are a delete followed by a new entry.
type FoodEntry struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Date      Date      `json:"date"       db:"date"`
	MealType  MealType  `json:"meal_type"  db:"meal_type"`
	FoodName  string    `json:"food_name"  db:"food_name"`
	Calories  int       `json:"calories"   db:"calories"`
	ProteinG  *float64  `json:"protein_g"  db:"protein_g"`
	CarbsG    *float64  `json:"carbs_g"    db:"carbs_g"`
	FatG      *float64  `json:"fat_g"      db:"fat_g"`
	ImageURL  *string   `json:"image_url"  db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DailyProgress is the derived, overwritable cache of one (user, date).
// TotalCalories is always recomputable from that day's entries.
type DailyProgress struct {
	UserID          string   `json:"user_id"          db:"user_id"`
	Date            Date     `json:"date"             db:"date"`
	TotalCalories   int      `json:"total_calories"   db:"total_calories"`
	TargetCalories  int      `json:"target_calories"  db:"target_calories"`
	Remaining       int      `json:"remaining"        db:"-"`
	PercentComplete float64  `json:"percent_complete" db:"-"`
	ProteinG        float64  `json:"protein_g"        db:"protein_g"`
	CarbsG          float64  `json:"carbs_g"          db:"carbs_g"`
	FatG            float64  `json:"fat_g"            db:"fat_g"`
	WeightKG        *float64 `json:"weight_kg"        db:"weight_kg"`
	HasData         bool     `json:"has_data"         db:"-"`
}

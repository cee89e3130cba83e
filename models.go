package main

import (
	"lg/calorie-budget-api/internal/ledger"
	"lg/calorie-budget-api/internal/metabolic"
	"lg/calorie-budget-api/internal/model"
	"lg/calorie-budget-api/internal/onboarding"
	"lg/calorie-budget-api/internal/recognition"
)

/* ─── Onboarding ─────────────────────────────────────────────────────── */

// onboardingResponse is the draft plus what the client needs to draw the
// current screen.
type onboardingResponse struct {
	Step       onboarding.Step      `json:"step"`
	StepName   string               `json:"step_name"`
	TotalSteps int                  `json:"total_steps"`
	Percent    float64              `json:"percent"`
	Answers    metabolic.Answers    `json:"answers"`
	Projection metabolic.Projection `json:"projection"`
	Options    onboardingOptions    `json:"options"`
}

type onboardingOptions struct {
	ReferralSources []string  `json:"referral_sources"`
	DietTypes       []string  `json:"diet_types"`
	WeeklyRates     []float64 `json:"weekly_rates"`
	Barriers        []string  `json:"barriers"`
	Desires         []string  `json:"desires"`
}

// patchOnboardingRequest merges answers and optionally moves the step.
// Navigation is applied after the answers so "pick and advance" is one call.
type patchOnboardingRequest struct {
	Answers metabolic.Answers `json:"answers"`
	Advance bool              `json:"advance"`
	Back    bool              `json:"back"`
	Step    *int              `json:"step"`
}

// toggleRequest flips one multi-select option.
type toggleRequest struct {
	Kind  string `json:"kind"` // "barrier" or "desire"
	Label string `json:"label"`
}

/* ─── Profile ────────────────────────────────────────────────────────── */

// patchProfileRequest is the subset of answers a user can change after
// onboarding. Only non-nil fields are applied.
type patchProfileRequest = metabolic.Answers

/* ─── Food log ───────────────────────────────────────────────────────── */

// dailySummary is the response shape for GET /food-log/daily.
type dailySummary struct {
	Date     model.Date          `json:"date"`
	Progress model.DailyProgress `json:"progress"`
	Entries  []model.FoodEntry   `json:"entries"`
}

// weekSummary is the response shape for GET /food-log/week.
type weekSummary struct {
	Days  []model.DailyProgress `json:"days"`
	Stats ledger.WeekStats      `json:"stats"`
}

// entryResponse returns the changed entry with the day's new progress.
type entryResponse struct {
	Entry    model.FoodEntry     `json:"entry"`
	Progress model.DailyProgress `json:"progress"`
}

// createFoodEntryRequest is the request body for POST /food-log/entries.
type createFoodEntryRequest struct {
	Date     string   `json:"date"`
	MealType string   `json:"meal_type"`
	FoodName string   `json:"food_name"`
	Calories int      `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
	ImageURL *string  `json:"image_url"`
}

// recognizeRequest is the multipart form for POST /food-log/recognize. The
// photo itself arrives as the "image" file part.
type recognizeRequest struct {
	Date     string `form:"date"`
	MealType string `form:"meal_type"`
	ImageURL string `form:"image_url"`
}

// recognizeResponse carries the estimate alongside the entry it produced.
type recognizeResponse struct {
	entryResponse
	Estimate recognition.FoodEstimate `json:"estimate"`
}

// putWeightRequest is the request body for PUT /food-log/weight.
type putWeightRequest struct {
	Date     string  `json:"date"`
	WeightKG float64 `json:"weight_kg"`
}

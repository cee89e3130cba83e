// Package onboarding runs the linear questionnaire that collects a user's
// answers before their first profile is built.
package onboarding

import (
	"errors"
	"fmt"
)

// Step is a 1-based position in the questionnaire.
type Step int

const (
	StepSex Step = iota + 1
	StepWorkouts
	StepReferral
	StepTriedOtherApps
	StepMotivation
	StepBody
	StepBirthDate
	StepTrainer
	StepGoal
	StepTargetWeight
	StepGoalEncouragement
	StepWeeklyRate
	StepRateInfo
	StepBarriers
	StepDiet
	StepDesires
	StepProjection
	StepMomentum
	StepComplete
)

// TotalSteps is the number of questionnaire screens.
const TotalSteps = int(StepComplete)

var (
	ErrInvalidStep    = errors.New("onboarding step out of range")
	ErrStepIncomplete = errors.New("current step needs at least one selection")
	ErrUnknownOption  = errors.New("unknown option")
)

var stepNames = [...]string{
	StepSex:               "sex",
	StepWorkouts:          "workouts",
	StepReferral:          "referral",
	StepTriedOtherApps:    "tried_other_apps",
	StepMotivation:        "motivation",
	StepBody:              "body",
	StepBirthDate:         "birth_date",
	StepTrainer:           "trainer",
	StepGoal:              "goal",
	StepTargetWeight:      "target_weight",
	StepGoalEncouragement: "goal_encouragement",
	StepWeeklyRate:        "weekly_rate",
	StepRateInfo:          "rate_info",
	StepBarriers:          "barriers",
	StepDiet:              "diet",
	StepDesires:           "desires",
	StepProjection:        "projection",
	StepMomentum:          "momentum",
	StepComplete:          "complete",
}

func (s Step) Valid() bool { return s >= StepSex && s <= StepComplete }

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Percent is the progress bar position for s.
func (s Step) Percent() float64 {
	return float64(s) / float64(TotalSteps) * 100
}

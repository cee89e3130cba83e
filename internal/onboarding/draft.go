package onboarding

import (
	"fmt"
	"slices"
	"time"

	"lg/calorie-budget-api/internal/metabolic"
	"lg/calorie-budget-api/internal/model"
)

// Draft is a user's in-progress questionnaire.
type Draft struct {
	UserID    string            `json:"user_id"`
	Step      Step              `json:"step"`
	Answers   metabolic.Answers `json:"answers"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewDraft(userID string, now time.Time) Draft {
	return Draft{
		UserID:    userID,
		Step:      StepSex,
		Answers:   metabolic.Answers{Barriers: []string{}, Desires: []string{}},
		UpdatedAt: now,
	}
}

// Apply merges the non-nil fields of patch into the draft. Enumerated answers
// are checked against their catalogs; biometric numbers are taken as given.
// Barrier and desire lists in a patch replace the current selection.
func (d *Draft) Apply(patch metabolic.Answers, now time.Time) error {
	if err := ValidateAnswers(patch); err != nil {
		return err
	}
	a := &d.Answers
	if patch.Sex != nil {
		a.Sex = patch.Sex
	}
	if patch.WorkoutsPerWeek != nil {
		a.WorkoutsPerWeek = patch.WorkoutsPerWeek
	}
	if patch.ReferralSource != nil {
		a.ReferralSource = patch.ReferralSource
	}
	if patch.TriedOtherApps != nil {
		a.TriedOtherApps = patch.TriedOtherApps
	}
	if patch.HeightCM != nil {
		a.HeightCM = patch.HeightCM
	}
	if patch.WeightKG != nil {
		a.WeightKG = patch.WeightKG
	}
	if patch.BirthDate != nil {
		a.BirthDate = patch.BirthDate
	}
	if patch.HasTrainer != nil {
		a.HasTrainer = patch.HasTrainer
	}
	if patch.Goal != nil {
		a.Goal = patch.Goal
	}
	if patch.TargetWeightKG != nil {
		a.TargetWeightKG = patch.TargetWeightKG
	}
	if patch.WeeklyRateKG != nil {
		a.WeeklyRateKG = patch.WeeklyRateKG
	}
	if patch.DietType != nil {
		a.DietType = patch.DietType
	}
	if patch.Barriers != nil {
		a.Barriers = uniq(patch.Barriers)
	}
	if patch.Desires != nil {
		a.Desires = uniq(patch.Desires)
	}
	d.UpdatedAt = now
	return nil
}

// ValidateAnswers checks every enumerated answer in a against its catalog.
// The error wraps ErrUnknownOption and names the offending field.
func ValidateAnswers(a metabolic.Answers) error {
	switch {
	case a.Sex != nil && !a.Sex.Valid():
		return fmt.Errorf("%w: sex %q", ErrUnknownOption, *a.Sex)
	case a.WorkoutsPerWeek != nil && !a.WorkoutsPerWeek.Valid():
		return fmt.Errorf("%w: workouts_per_week %q", ErrUnknownOption, *a.WorkoutsPerWeek)
	case a.Goal != nil && !a.Goal.Valid():
		return fmt.Errorf("%w: goal %q", ErrUnknownOption, *a.Goal)
	case a.ReferralSource != nil && !inCatalog(ReferralSources, *a.ReferralSource):
		return fmt.Errorf("%w: referral_source %q", ErrUnknownOption, *a.ReferralSource)
	case a.DietType != nil && !inCatalog(DietTypes, *a.DietType):
		return fmt.Errorf("%w: diet_type %q", ErrUnknownOption, *a.DietType)
	}
	for _, b := range a.Barriers {
		if !inCatalog(Barriers, b) {
			return fmt.Errorf("%w: barrier %q", ErrUnknownOption, b)
		}
	}
	for _, w := range a.Desires {
		if !inCatalog(Desires, w) {
			return fmt.Errorf("%w: desire %q", ErrUnknownOption, w)
		}
	}
	return nil
}

// Next advances one step. The multi-select screens need at least one
// selection; the final step does not advance further.
func (d *Draft) Next(now time.Time) error {
	switch {
	case d.Step == StepBarriers && len(d.Answers.Barriers) == 0,
		d.Step == StepDesires && len(d.Answers.Desires) == 0:
		return fmt.Errorf("%w: %s", ErrStepIncomplete, d.Step)
	}
	if int(d.Step) < TotalSteps {
		d.Step++
	}
	d.UpdatedAt = now
	return nil
}

// Back moves one step back, stopping at the first step.
func (d *Draft) Back(now time.Time) {
	if d.Step > StepSex {
		d.Step--
	}
	d.UpdatedAt = now
}

// GoTo jumps to an arbitrary step.
func (d *Draft) GoTo(s Step, now time.Time) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(s))
	}
	d.Step = s
	d.UpdatedAt = now
	return nil
}

// ToggleBarrier adds label when absent and removes it when present.
func (d *Draft) ToggleBarrier(label string, now time.Time) error {
	if !inCatalog(Barriers, label) {
		return fmt.Errorf("%w: barrier %q", ErrUnknownOption, label)
	}
	d.Answers.Barriers = toggle(d.Answers.Barriers, label)
	d.UpdatedAt = now
	return nil
}

// ToggleDesire adds label when absent and removes it when present.
func (d *Draft) ToggleDesire(label string, now time.Time) error {
	if !inCatalog(Desires, label) {
		return fmt.Errorf("%w: desire %q", ErrUnknownOption, label)
	}
	d.Answers.Desires = toggle(d.Answers.Desires, label)
	d.UpdatedAt = now
	return nil
}

func toggle(set []string, label string) []string {
	if i := slices.Index(set, label); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), label)
}

func uniq(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// Complete builds the user's first profile from whatever was collected.
// Missing answers fall back to the normalizer defaults.
func (d Draft) Complete(now time.Time) model.Profile {
	p := metabolic.BuildCompletedProfile(d.Answers, now)
	p.UserID = d.UserID
	return p
}

// Preview is the projection shown on the projection screen, using the same
// defaults the completed profile would.
func (d Draft) Preview(now time.Time) metabolic.Projection {
	return metabolic.Project(d.Complete(now))
}

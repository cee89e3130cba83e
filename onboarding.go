package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/onboarding"
)

// loadDraft returns the user's draft, starting a fresh one when none exists.
func (h *Handler) loadDraft(ctx context.Context, userID string) (onboarding.Draft, error) {
	d, err := h.drafts.Load(ctx, userID)
	if errors.Is(err, onboarding.ErrNoDraft) {
		return onboarding.NewDraft(userID, h.now()), nil
	}
	return d, err
}

func (h *Handler) onboardingView(d onboarding.Draft) onboardingResponse {
	return onboardingResponse{
		Step:       d.Step,
		StepName:   d.Step.String(),
		TotalSteps: onboarding.TotalSteps,
		Percent:    d.Step.Percent(),
		Answers:    d.Answers,
		Projection: d.Preview(h.now()),
		Options: onboardingOptions{
			ReferralSources: onboarding.ReferralSources,
			DietTypes:       onboarding.DietTypes,
			WeeklyRates:     onboarding.WeeklyRates,
			Barriers:        onboarding.Barriers,
			Desires:         onboarding.Desires,
		},
	}
}

// getOnboarding returns the current draft, creating it on first visit.
// GET /api/onboarding.
func (h *Handler) getOnboarding(c *gin.Context) {
	d, err := h.loadDraft(c, currentUser(c))
	if err != nil {
		h.log.Error("[getOnboarding] load draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load onboarding")
		return
	}
	c.JSON(http.StatusOK, h.onboardingView(d))
}

// patchOnboarding merges answers into the draft and then applies at most one
// navigation action (step, advance or back, in that precedence).
// PATCH /api/onboarding.
func (h *Handler) patchOnboarding(c *gin.Context) {
	var body patchOnboardingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.loadDraft(c, currentUser(c))
	if err != nil {
		h.log.Error("[patchOnboarding] load draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load onboarding")
		return
	}

	now := h.now()
	if err := d.Apply(body.Answers, now); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case body.Step != nil:
		err = d.GoTo(onboarding.Step(*body.Step), now)
	case body.Advance:
		err = d.Next(now)
	case body.Back:
		d.Back(now)
	}
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.drafts.Save(c, d); err != nil {
		h.log.Error("[patchOnboarding] save draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save onboarding")
		return
	}
	c.JSON(http.StatusOK, h.onboardingView(d))
}

// toggleOnboardingOption adds or removes one barrier or desire.
// POST /api/onboarding/toggle. Body: {"kind": "barrier"|"desire", "label": "..."}.
func (h *Handler) toggleOnboardingOption(c *gin.Context) {
	var body toggleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.loadDraft(c, currentUser(c))
	if err != nil {
		h.log.Error("[toggleOnboardingOption] load draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load onboarding")
		return
	}

	switch body.Kind {
	case "barrier":
		err = d.ToggleBarrier(body.Label, h.now())
	case "desire":
		err = d.ToggleDesire(body.Label, h.now())
	default:
		apiError(c, http.StatusBadRequest, "kind must be one of: barrier, desire")
		return
	}
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.drafts.Save(c, d); err != nil {
		h.log.Error("[toggleOnboardingOption] save draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save onboarding")
		return
	}
	c.JSON(http.StatusOK, h.onboardingView(d))
}

// completeOnboarding builds the first profile from the draft, saves it and
// discards the draft. Unanswered questions take their defaults.
// POST /api/onboarding/complete.
func (h *Handler) completeOnboarding(c *gin.Context) {
	userID := currentUser(c)
	d, err := h.loadDraft(c, userID)
	if err != nil {
		h.log.Error("[completeOnboarding] load draft", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load onboarding")
		return
	}

	profile, err := h.store.SaveProfile(c, d.Complete(h.now()))
	if err != nil {
		h.log.Error("[completeOnboarding] save profile", zap.String("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}
	metrics.IncProfileCompleted()

	if err := h.drafts.Clear(c, userID); err != nil {
		h.log.Warn("[completeOnboarding] clear draft", zap.String("user_id", userID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, profile)
}

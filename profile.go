package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/metabolic"
	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/onboarding"
	"lg/calorie-budget-api/internal/store"
)

// getProfile returns the user's current profile snapshot.
// GET /api/profile. 404 until onboarding is completed.
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.store.GetProfile(c, currentUser(c))
	if errors.Is(err, store.ErrNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Error("[getProfile] load", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	if err := p.Validate(); err != nil {
		h.log.Warn("[getProfile] stored profile is inconsistent", zap.String("user_id", p.UserID), zap.Error(err))
	}
	c.JSON(http.StatusOK, p)
}

// patchProfile applies changed answers and stores a rebuilt snapshot with
// freshly derived metrics. The previous snapshot is replaced, never edited.
// PATCH /api/profile. Only non-nil fields are applied.
func (h *Handler) patchProfile(c *gin.Context) {
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := onboarding.ValidateAnswers(body); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	userID := currentUser(c)
	prev, err := h.store.GetProfile(c, userID)
	if errors.Is(err, store.ErrNotFound) {
		apiError(c, http.StatusNotFound, "profile not found; complete onboarding first")
		return
	}
	if err != nil {
		h.log.Error("[patchProfile] load", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	next, err := h.store.SaveProfile(c, metabolic.RebuildProfile(prev, body, h.now()))
	if err != nil {
		h.log.Error("[patchProfile] save", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}
	metrics.IncProfileRebuilt()
	c.JSON(http.StatusOK, next)
}

// getProjection estimates weeks to the target weight. weeks_to_goal is null
// and reachable is false when the weekly rate is not positive.
// GET /api/profile/projection.
func (h *Handler) getProjection(c *gin.Context) {
	p, err := h.store.GetProfile(c, currentUser(c))
	if errors.Is(err, store.ErrNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Error("[getProjection] load", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, metabolic.Project(p))
}

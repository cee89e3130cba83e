package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/ledger"
	"lg/calorie-budget-api/internal/metabolic"
	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/model"
	"lg/calorie-budget-api/internal/store"
)

// weightResponse returns the day's progress and, when today's weight changed
// the profile, the rebuilt snapshot.
type weightResponse struct {
	Progress model.DailyProgress `json:"progress"`
	Profile  *model.Profile      `json:"profile,omitempty"`
}

// putWeight records the body weight for a day. Writing the same date again
// replaces the value. A weight for today also rebuilds the profile so the
// daily target follows the new weight.
// PUT /api/food-log/weight. Body: { "date"?: "YYYY-MM-DD", "weight_kg": 81.5 }.
func (h *Handler) putWeight(c *gin.Context) {
	userID := currentUser(c)

	var body putWeightRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.WeightKG <= 0 || body.WeightKG > 9999.9 {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 9999.9")
		return
	}
	date := h.today()
	if body.Date != "" {
		d, err := model.ParseDate(body.Date)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	var resp weightResponse
	if date.Equal(h.today()) {
		p, err := h.rebuildForWeight(c, userID, body.WeightKG)
		if err != nil {
			h.log.Error("[putWeight] rebuild profile", zap.Error(err))
			apiError(c, http.StatusInternalServerError, "failed to update profile")
			return
		}
		resp.Profile = p
	}

	st, err := h.loadDay(c, userID, date)
	if err != nil {
		h.log.Error("[putWeight] load day", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch daily log")
		return
	}
	progress := ledger.AggregateDay(userID, date, st.entries, st.target())
	w := body.WeightKG
	progress.WeightKG = &w

	if _, err := h.store.SaveDailyProgress(c, progress); err != nil {
		h.log.Error("[putWeight] save progress", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save weight")
		return
	}
	h.hub.Broadcast(userID, progressEvent, progress)

	resp.Progress = progress
	c.JSON(http.StatusOK, resp)
}

// rebuildForWeight stores a new profile snapshot carrying weightKG. Returns
// nil when the user has not completed onboarding.
func (h *Handler) rebuildForWeight(c *gin.Context, userID string, weightKG float64) (*model.Profile, error) {
	prev, err := h.store.GetProfile(c, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !prev.CompletedOnboarding || prev.WeightKG == weightKG {
		return nil, nil
	}
	next, err := h.store.SaveProfile(c, metabolic.RebuildProfile(prev, metabolic.Answers{WeightKG: &weightKG}, h.now()))
	if err != nil {
		return nil, err
	}
	metrics.IncProfileRebuilt()
	return &next, nil
}

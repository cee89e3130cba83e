package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/model"
	"lg/calorie-budget-api/internal/onboarding"
	"lg/calorie-budget-api/internal/realtime"
	"lg/calorie-budget-api/internal/recognition"
	"lg/calorie-budget-api/internal/store"
)

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	store         store.Store
	drafts        onboarding.DraftStore
	hub           *realtime.Hub
	recognizer    recognition.Recognizer
	log           *zap.Logger
	defaultTarget int              // daily target for users without a completed profile
	now           func() time.Time // overridable for tests
}

/* ─── Helpers ─────────────────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// currentUser returns the id set by authMiddleware.
func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}

func (h *Handler) today() model.Date {
	return model.NewDate(h.now())
}

// dateParam reads a YYYY-MM-DD query param, defaulting to today. Writes a
// 400 and returns ok=false when the value is malformed.
func (h *Handler) dateParam(c *gin.Context, name string) (model.Date, bool) {
	s := c.Query(name)
	if s == "" {
		return h.today(), true
	}
	d, err := model.ParseDate(s)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
		return model.Date{}, false
	}
	return d, true
}

// currentTarget is the user's profile target, or the configured default when
// onboarding has not been completed.
func (h *Handler) currentTarget(ctx context.Context, userID string) (int, error) {
	p, err := h.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return h.defaultTarget, nil
	}
	if err != nil {
		return 0, err
	}
	if t := p.Target(); t > 0 {
		return t, nil
	}
	return h.defaultTarget, nil
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/onboarding", h.getOnboarding)
	api.PATCH("/onboarding", h.patchOnboarding)
	api.POST("/onboarding/toggle", h.toggleOnboardingOption)
	api.POST("/onboarding/complete", h.completeOnboarding)
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/profile/projection", h.getProjection)
	api.GET("/food-log/daily", h.getDailySummary)
	api.GET("/food-log/week", h.getWeekSummary)
	api.POST("/food-log/entries", h.createFoodEntry)
	api.DELETE("/food-log/entries/:id", h.deleteFoodEntry)
	api.POST("/food-log/recognize", h.recognizeFood)
	api.PUT("/food-log/weight", h.putWeight)
	api.GET("/food-log/stream", h.streamProgress)
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger is gin's access log, written through zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

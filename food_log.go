package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lg/calorie-budget-api/internal/ledger"
	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/model"
	"lg/calorie-budget-api/internal/recognition"
	"lg/calorie-budget-api/internal/store"
)

// maxImageBytes caps recognition uploads.
const maxImageBytes = 10 << 20

const progressEvent = "progress.updated"

// dayState is everything needed to re-aggregate one (user, date).
type dayState struct {
	entries []model.FoodEntry
	stored  *model.DailyProgress // nil when the day has no snapshot yet
	current int                  // the profile's current target
	date    model.Date
	today   model.Date
}

func (s dayState) target() int { return ledger.TargetFor(s.stored, s.current, s.date, s.today) }

// withStoredWeight carries the day's recorded body weight into a freshly
// aggregated progress row.
func (s dayState) withStoredWeight(p model.DailyProgress) model.DailyProgress {
	if s.stored != nil {
		p.WeightKG = s.stored.WeightKG
	}
	return p
}

// loadDay reads the day's entries, its stored snapshot and the user's current
// target concurrently.
func (h *Handler) loadDay(ctx context.Context, userID string, date model.Date) (dayState, error) {
	st := dayState{date: date, today: h.today()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := h.store.EntriesByDate(gctx, userID, date)
		st.entries = entries
		return err
	})
	g.Go(func() error {
		p, err := h.store.GetDailyProgress(gctx, userID, date)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		st.stored = &p
		return nil
	})
	g.Go(func() error {
		t, err := h.currentTarget(gctx, userID)
		st.current = t
		return err
	})
	if err := g.Wait(); err != nil {
		return dayState{}, err
	}
	if st.entries == nil {
		st.entries = []model.FoodEntry{}
	}
	return st, nil
}

// getDailySummary returns the day's entries and progress against its target.
// GET /api/food-log/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := currentUser(c)
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	st, err := h.loadDay(c, userID, date)
	if err != nil {
		h.log.Error("[getDailySummary] load day", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch daily log")
		return
	}

	progress := st.withStoredWeight(ledger.AggregateDay(userID, date, st.entries, st.target()))
	c.JSON(http.StatusOK, dailySummary{Date: date, Progress: progress, Entries: st.entries})
}

// getWeekSummary returns exactly seven days ending at today, oldest first.
// Days without a snapshot report zero calories against the current target.
// GET /api/food-log/week?today=YYYY-MM-DD (defaults to today).
func (h *Handler) getWeekSummary(c *gin.Context) {
	userID := currentUser(c)
	today, ok := h.dateParam(c, "today")
	if !ok {
		return
	}

	var (
		days   []model.DailyProgress
		target int
	)
	g, gctx := errgroup.WithContext(c)
	g.Go(func() error {
		var err error
		days, err = h.store.DailyProgressRange(gctx, userID, today.AddDays(-6), today)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = h.currentTarget(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error("[getWeekSummary] load week", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}

	week := ledger.AggregateWeek(userID, days, today, target)
	c.JSON(http.StatusOK, weekSummary{Days: week, Stats: ledger.Summarize(week)})
}

// logEntry appends e to its day, persists the entry and the new snapshot, and
// notifies open dashboards.
func (h *Handler) logEntry(ctx context.Context, e model.FoodEntry) (model.FoodEntry, model.DailyProgress, error) {
	st, err := h.loadDay(ctx, e.UserID, e.Date)
	if err != nil {
		return model.FoodEntry{}, model.DailyProgress{}, err
	}
	_, progress := ledger.AddEntry(st.entries, e, st.target())
	progress = st.withStoredWeight(progress)

	saved, err := h.store.SaveEntry(ctx, e)
	if err != nil {
		return model.FoodEntry{}, model.DailyProgress{}, err
	}
	if _, err := h.store.SaveDailyProgress(ctx, progress); err != nil {
		return model.FoodEntry{}, model.DailyProgress{}, err
	}
	metrics.IncEntryLogged(string(e.MealType))
	h.hub.Broadcast(e.UserID, progressEvent, progress)
	return saved, progress, nil
}

// createFoodEntry logs a food item. Date defaults to today.
// POST /api/food-log/entries.
func (h *Handler) createFoodEntry(c *gin.Context) {
	var body createFoodEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.FoodName) == "" {
		apiError(c, http.StatusBadRequest, "food_name is required")
		return
	}
	mealType := model.MealType(body.MealType)
	if !mealType.Valid() {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}
	if body.Calories < 0 {
		apiError(c, http.StatusBadRequest, "calories must not be negative")
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

	entry, progress, err := h.logEntry(c, model.FoodEntry{
		ID:        uuid.NewString(),
		UserID:    currentUser(c),
		Date:      date,
		MealType:  mealType,
		FoodName:  strings.TrimSpace(body.FoodName),
		Calories:  body.Calories,
		ProteinG:  body.ProteinG,
		CarbsG:    body.CarbsG,
		FatG:      body.FatG,
		ImageURL:  body.ImageURL,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.log.Error("[createFoodEntry] log entry", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}
	c.JSON(http.StatusCreated, entryResponse{Entry: entry, Progress: progress})
}

// deleteFoodEntry removes an entry from a day and returns the day's new
// progress. DELETE /api/food-log/entries/:id?date=YYYY-MM-DD (defaults to
// today). 404 when the day holds no entry with that id.
func (h *Handler) deleteFoodEntry(c *gin.Context) {
	userID := currentUser(c)
	id := c.Param("id")
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}

	st, err := h.loadDay(c, userID, date)
	if err != nil {
		h.log.Error("[deleteFoodEntry] load day", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to fetch daily log")
		return
	}
	i := slices.IndexFunc(st.entries, func(e model.FoodEntry) bool { return e.ID == id })
	if i < 0 {
		apiError(c, http.StatusNotFound, "entry not found")
		return
	}
	removed := st.entries[i]

	_, progress := ledger.RemoveEntry(userID, date, st.entries, id, st.target())
	progress = st.withStoredWeight(progress)

	if err := h.store.DeleteEntry(c, userID, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("[deleteFoodEntry] delete", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	if _, err := h.store.SaveDailyProgress(c, progress); err != nil {
		h.log.Error("[deleteFoodEntry] save progress", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save progress")
		return
	}
	metrics.IncEntryDeleted()
	h.hub.Broadcast(userID, progressEvent, progress)

	c.JSON(http.StatusOK, entryResponse{Entry: removed, Progress: progress})
}

// recognizeFood estimates the dish in an uploaded photo and logs it as a new
// entry. Meal type defaults to lunch.
// POST /api/food-log/recognize (multipart: image file, date, meal_type, image_url).
func (h *Handler) recognizeFood(c *gin.Context) {
	var form recognizeRequest
	if err := c.ShouldBind(&form); err != nil {
		apiError(c, http.StatusBadRequest, "invalid form")
		return
	}
	mealType := model.MealLunch
	if form.MealType != "" {
		mealType = model.MealType(form.MealType)
		if !mealType.Valid() {
			apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
			return
		}
	}
	date := h.today()
	if form.Date != "" {
		d, err := model.ParseDate(form.Date)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	img := recognition.Image{URL: form.ImageURL}
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxImageBytes {
			apiError(c, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			apiError(c, http.StatusBadRequest, "unreadable image")
			return
		}
		img.Data, err = io.ReadAll(io.LimitReader(f, maxImageBytes))
		f.Close()
		if err != nil {
			apiError(c, http.StatusBadRequest, "unreadable image")
			return
		}
		img.ContentType = fh.Header.Get("Content-Type")
	}

	est, err := h.recognizer.Recognize(c, img)
	if errors.Is(err, recognition.ErrEmptyImage) {
		metrics.IncRecognition("rejected")
		apiError(c, http.StatusBadRequest, "image or image_url is required")
		return
	}
	if err != nil {
		metrics.IncRecognition("error")
		h.log.Warn("[recognizeFood] recognize", zap.Error(err))
		apiError(c, http.StatusBadGateway, "food recognition failed")
		return
	}
	metrics.IncRecognition("ok")

	var imageURL *string
	if form.ImageURL != "" {
		imageURL = &form.ImageURL
	}
	protein, carbs, fat := est.ProteinG, est.CarbsG, est.FatG
	entry, progress, err := h.logEntry(c, model.FoodEntry{
		ID:        uuid.NewString(),
		UserID:    currentUser(c),
		Date:      date,
		MealType:  mealType,
		FoodName:  est.FoodName,
		Calories:  est.Calories,
		ProteinG:  &protein,
		CarbsG:    &carbs,
		FatG:      &fat,
		ImageURL:  imageURL,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.log.Error("[recognizeFood] log entry", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}
	c.JSON(http.StatusCreated, recognizeResponse{
		entryResponse: entryResponse{Entry: entry, Progress: progress},
		Estimate:      est,
	})
}

// streamProgress upgrades to a websocket that receives progress.updated
// events for the authenticated user. GET /api/food-log/stream.
func (h *Handler) streamProgress(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request, currentUser(c)); err != nil {
		h.log.Debug("[streamProgress] upgrade", zap.Error(err))
	}
}

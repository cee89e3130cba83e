package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lg/calorie-budget-api/internal/ledger"
	"lg/calorie-budget-api/internal/model"
	"lg/calorie-budget-api/internal/onboarding"
	"lg/calorie-budget-api/internal/realtime"
	"lg/calorie-budget-api/internal/recognition"
	"lg/calorie-budget-api/internal/store"
)

const testToken = "tok-ana"

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fixedRecognizer always reports the same dish.
type fixedRecognizer struct{ est recognition.FoodEstimate }

func (f fixedRecognizer) Recognize(ctx context.Context, img recognition.Image) (recognition.FoodEstimate, error) {
	if len(img.Data) == 0 && img.URL == "" {
		return recognition.FoodEstimate{}, recognition.ErrEmptyImage
	}
	return f.est, nil
}

type testEnv struct {
	h      *Handler
	router *gin.Engine
	store  *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = mem.CreateUser(context.Background(), model.User{
		ID: "ana", Username: "ana", Email: "ana@example.com",
		Password: string(hash), AuthToken: testToken, CreatedAt: fixedNow,
	})
	require.NoError(t, err)

	h := &Handler{
		store:         mem,
		drafts:        onboarding.NewMemoryDrafts(),
		hub:           realtime.NewHub(zap.NewNop()),
		recognizer:    fixedRecognizer{est: recognition.Catalog[1]},
		log:           zap.NewNop(),
		defaultTarget: 2000,
		now:           func() time.Time { return fixedNow },
	}
	router := gin.New()
	h.registerRoutes(router)
	return &testEnv{h: h, router: router, store: mem}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// completeProfile stores a completed profile for ana: male, 170 cm, 70 kg,
// 25 years old on fixedNow, 3-5 workouts. BMR 1643, TDEE 2547.
func (e *testEnv) completeProfile(t *testing.T, goal model.Goal) {
	t.Helper()
	w := e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{
		"answers": map[string]any{
			"sex":               "male",
			"workouts_per_week": "3-5",
			"height_cm":         170,
			"weight_kg":         70,
			"birth_date":        "2001-03-10",
			"goal":              string(goal),
			"target_weight_kg":  65,
			"weekly_rate_kg":    0.5,
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = e.do(t, http.MethodPost, "/api/onboarding/complete", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

/* ─── Auth ────────────────────────────────────────────────────────────── */

func TestLogin(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
		want     int
	}{
		{"valid credentials", "ana", "hunter2", http.StatusOK},
		{"wrong password", "ana", "nope", http.StatusUnauthorized},
		{"unknown user", "zed", "hunter2", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"username": tt.username, "password": tt.password})
			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)

			require.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				got := decode[map[string]string](t, w)
				assert.Equal(t, testToken, got["token"])
				assert.Equal(t, "ana", got["user_id"])
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Query token is accepted; ana has no profile yet.
	req = httptest.NewRequest(http.MethodGet, "/api/profile?access_token="+testToken, nil)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

/* ─── Onboarding ──────────────────────────────────────────────────────── */

func TestOnboarding_FreshDraftStartsAtFirstStep(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/onboarding", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[onboardingResponse](t, w)
	assert.Equal(t, onboarding.StepSex, got.Step)
	assert.Equal(t, "sex", got.StepName)
	assert.Equal(t, onboarding.TotalSteps, got.TotalSteps)
	assert.Equal(t, onboarding.Barriers, got.Options.Barriers)
}

func TestOnboarding_AnswerAndAdvance(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{
		"answers": map[string]any{"sex": "female"},
		"advance": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[onboardingResponse](t, w)
	assert.Equal(t, onboarding.StepWorkouts, got.Step)
	require.NotNil(t, got.Answers.Sex)
	assert.Equal(t, model.SexFemale, *got.Answers.Sex)

	w = e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{"back": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, onboarding.StepSex, decode[onboardingResponse](t, w).Step)
}

func TestOnboarding_RejectsUnknownOption(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{
		"answers": map[string]any{"diet_type": "carnivore"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{"step": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboarding_BarrierStepNeedsSelection(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{"step": int(onboarding.StepBarriers)})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{"advance": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/onboarding/toggle", map[string]string{"kind": "barrier", "label": onboarding.Barriers[0]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{onboarding.Barriers[0]}, decode[onboardingResponse](t, w).Answers.Barriers)

	w = e.do(t, http.MethodPatch, "/api/onboarding", map[string]any{"advance": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, onboarding.StepDiet, decode[onboardingResponse](t, w).Step)
}

func TestOnboarding_ToggleRejectsBadKindAndLabel(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/onboarding/toggle", map[string]string{"kind": "hobby", "label": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/onboarding/toggle", map[string]string{"kind": "desire", "label": "Fly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboarding_CompleteBuildsProfileAndClearsDraft(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)

	p, err := e.store.GetProfile(context.Background(), "ana")
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.True(t, p.CompletedOnboarding)
	assert.Equal(t, 1643, *p.BMR)
	assert.Equal(t, 2547, *p.TDEE)
	assert.Equal(t, 2547, *p.DailyCalories)

	_, err = e.h.drafts.Load(context.Background(), "ana")
	assert.ErrorIs(t, err, onboarding.ErrNoDraft)
}

func TestOnboarding_CompleteWithNoAnswersUsesDefaults(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/onboarding/complete", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	p := decode[model.Profile](t, w)
	assert.Equal(t, model.SexMale, p.Sex)
	assert.Equal(t, model.ActivityMedium, p.WorkoutsPerWeek)
	assert.True(t, p.CompletedOnboarding)
	require.NotNil(t, p.DailyCalories)
}

/* ─── Profile ─────────────────────────────────────────────────────────── */

func TestProfile_PatchRebuildsMetrics(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)
	before, err := e.store.GetProfile(context.Background(), "ana")
	require.NoError(t, err)

	w := e.do(t, http.MethodPatch, "/api/profile", map[string]any{"goal": "lose", "weekly_rate_kg": 0.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[model.Profile](t, w)
	assert.Equal(t, before.ID, got.ID)
	assert.Equal(t, model.GoalLose, got.Goal)
	assert.Equal(t, 2547, *got.TDEE)
	assert.Equal(t, 1997, *got.DailyCalories)
}

func TestProfile_PatchValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPatch, "/api/profile", map[string]any{"goal": "lose"})
	assert.Equal(t, http.StatusNotFound, w.Code, "no profile before onboarding")

	e.completeProfile(t, model.GoalMaintain)
	before, err := e.store.GetProfile(context.Background(), "ana")
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"goal", map[string]any{"goal": "bulk"}, "goal"},
		{"sex", map[string]any{"sex": "robot"}, "sex"},
		{"diet", map[string]any{"diet_type": "carnivore"}, "diet_type"},
		{"barrier", map[string]any{"barriers": []string{"Fly"}}, "barrier"},
		{"desire", map[string]any{"desires": []string{"Teleport"}}, "desire"},
		{"referral", map[string]any{"referral_source": "Carrier pigeon"}, "referral_source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPatch, "/api/profile", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[map[string]string](t, w)["error"], tt.field)
		})
	}

	after, err := e.store.GetProfile(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected patches leave the snapshot alone")
}

func TestProfile_PatchZeroRateIsUnreachable(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalLose)

	w := e.do(t, http.MethodPatch, "/api/profile", map[string]any{"weekly_rate_kg": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Profile](t, w)
	assert.Equal(t, 0.0, got.WeeklyRateKG)
	assert.Equal(t, 2547, *got.DailyCalories)

	w = e.do(t, http.MethodGet, "/api/profile/projection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pr := decode[map[string]any](t, w)
	assert.Equal(t, false, pr["reachable"])
	assert.Nil(t, pr["weeks_to_goal"])
}

func TestProfile_Projection(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalLose)

	w := e.do(t, http.MethodGet, "/api/profile/projection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, true, got["reachable"])
	assert.EqualValues(t, 10, got["weeks_to_goal"])
}

/* ─── Food log ────────────────────────────────────────────────────────── */

func TestFoodLog_CreateEntryUpdatesProgress(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)

	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "breakfast", "food_name": "Oatmeal", "calories": 300, "protein_g": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decode[entryResponse](t, w)
	assert.NotEmpty(t, got.Entry.ID)
	assert.Equal(t, "2026-03-10", got.Entry.Date.String())
	assert.Equal(t, 300, got.Progress.TotalCalories)
	assert.Equal(t, 2547, got.Progress.TargetCalories)
	assert.Equal(t, 2247, got.Progress.Remaining)
	assert.InDelta(t, 10.0, got.Progress.ProteinG, 1e-9)

	stored, err := e.store.GetDailyProgress(context.Background(), "ana", model.MustParseDate("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 300, stored.TotalCalories)
}

func TestFoodLog_CreateEntryValidation(t *testing.T) {
	e := newTestEnv(t)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing food name", map[string]any{"meal_type": "lunch", "calories": 100}},
		{"unknown meal type", map[string]any{"meal_type": "brunch", "food_name": "Eggs", "calories": 100}},
		{"negative calories", map[string]any{"meal_type": "lunch", "food_name": "Eggs", "calories": -1}},
		{"bad date", map[string]any{"meal_type": "lunch", "food_name": "Eggs", "calories": 1, "date": "10/03/2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/food-log/entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestFoodLog_DailySummaryWithoutProfileUsesDefaultTarget(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/food-log/daily?date=2026-03-09", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[dailySummary](t, w)
	assert.Empty(t, got.Entries)
	assert.NotNil(t, got.Entries)
	assert.Equal(t, 2000, got.Progress.TargetCalories)
	assert.Equal(t, 0, got.Progress.TotalCalories)
	assert.False(t, got.Progress.HasData)

	w = e.do(t, http.MethodGet, "/api/food-log/daily?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFoodLog_TodayFollowsProfileTarget(t *testing.T) {
	e := newTestEnv(t)
	// Logged before onboarding against the default target.
	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "dinner", "food_name": "Soup", "calories": 200,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 2000, decode[entryResponse](t, w).Progress.TargetCalories)

	e.completeProfile(t, model.GoalMaintain)

	w = e.do(t, http.MethodGet, "/api/food-log/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dailySummary](t, w)
	assert.Equal(t, 2547, got.Progress.TargetCalories)
	assert.Equal(t, 2347, got.Progress.Remaining)
	assert.Len(t, got.Entries, 1)
}

func TestFoodLog_PastDayKeepsItsTarget(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"date": "2026-03-09", "meal_type": "dinner", "food_name": "Soup", "calories": 200,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	e.completeProfile(t, model.GoalMaintain)

	w = e.do(t, http.MethodGet, "/api/food-log/daily?date=2026-03-09", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dailySummary](t, w)
	assert.Equal(t, 2000, got.Progress.TargetCalories)
	assert.Len(t, got.Entries, 1)

	w = e.do(t, http.MethodGet, "/api/food-log/week?today=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	week := decode[weekSummary](t, w)
	assert.Equal(t, 2000, week.Days[5].TargetCalories)
	assert.Equal(t, 2547, week.Days[6].TargetCalories)
}

func TestFoodLog_DeleteEntry(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "lunch", "food_name": "Salad", "calories": 150,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[entryResponse](t, w).Entry.ID

	w = e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "lunch", "food_name": "Bread", "calories": 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodDelete, "/api/food-log/entries/"+id+"?date=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[entryResponse](t, w)
	assert.Equal(t, id, got.Entry.ID)
	assert.Equal(t, 100, got.Progress.TotalCalories)

	w = e.do(t, http.MethodDelete, "/api/food-log/entries/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoodLog_WeekSummary(t *testing.T) {
	e := newTestEnv(t)
	for _, day := range []string{"2026-03-04", "2026-03-08", "2026-03-10"} {
		w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
			"date": day, "meal_type": "snack", "food_name": "Apple", "calories": 2100,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	// Outside the window.
	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"date": "2026-03-03", "meal_type": "snack", "food_name": "Apple", "calories": 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/api/food-log/week?today=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[weekSummary](t, w)

	require.Len(t, got.Days, 7)
	assert.Equal(t, "2026-03-04", got.Days[0].Date.String())
	assert.Equal(t, "2026-03-10", got.Days[6].Date.String())
	assert.Equal(t, 0, got.Days[1].TotalCalories)
	assert.Equal(t, 2000, got.Days[1].TargetCalories)
	assert.Equal(t, ledger.WeekStats{DaysTracked: 3, DaysOnBudget: 0, AvgCalories: 2100, TotalRemaining: -300}, got.Stats)
}

func TestFoodLog_RecognizeCreatesEntry(t *testing.T) {
	e := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "plate.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("meal_type", "dinner"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/food-log/recognize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decode[recognizeResponse](t, w)
	assert.Equal(t, recognition.Catalog[1], got.Estimate)
	assert.Equal(t, "Grilled chicken", got.Entry.FoodName)
	assert.Equal(t, model.MealDinner, got.Entry.MealType)
	assert.Equal(t, 280, got.Progress.TotalCalories)
}

func TestFoodLog_RecognizeWithoutImage(t *testing.T) {
	e := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("meal_type", "lunch"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/food-log/recognize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

/* ─── Weight ──────────────────────────────────────────────────────────── */

func TestWeight_TodayRebuildsProfile(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)

	w := e.do(t, http.MethodPut, "/api/food-log/weight", map[string]any{"weight_kg": 80})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[weightResponse](t, w)
	require.NotNil(t, got.Progress.WeightKG)
	assert.InDelta(t, 80.0, *got.Progress.WeightKG, 1e-9)
	require.NotNil(t, got.Profile)
	assert.InDelta(t, 80.0, got.Profile.WeightKG, 1e-9)
	assert.Equal(t, 1743, *got.Profile.BMR)
	assert.Equal(t, 2702, got.Progress.TargetCalories)

	// A later entry keeps the recorded weight.
	w = e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "lunch", "food_name": "Rice", "calories": 400,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	progress := decode[entryResponse](t, w).Progress
	require.NotNil(t, progress.WeightKG)
	assert.InDelta(t, 80.0, *progress.WeightKG, 1e-9)
}

func TestWeight_TodayTargetFollowsRebuiltProfile(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)

	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "lunch", "food_name": "Rice", "calories": 400,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 2547, decode[entryResponse](t, w).Progress.TargetCalories)

	w = e.do(t, http.MethodPut, "/api/food-log/weight", map[string]any{"weight_kg": 80})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[weightResponse](t, w)
	require.NotNil(t, got.Profile)
	assert.Equal(t, 2702, *got.Profile.DailyCalories)
	assert.Equal(t, 2702, got.Progress.TargetCalories)
	assert.Equal(t, 2302, got.Progress.Remaining)

	w = e.do(t, http.MethodGet, "/api/food-log/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	daily := decode[dailySummary](t, w)
	assert.Equal(t, 2702, daily.Progress.TargetCalories)
	assert.Equal(t, 400, daily.Progress.TotalCalories)
}

func TestWeight_PastDayLeavesProfileAlone(t *testing.T) {
	e := newTestEnv(t)
	e.completeProfile(t, model.GoalMaintain)

	w := e.do(t, http.MethodPut, "/api/food-log/weight", map[string]any{"date": "2026-03-01", "weight_kg": 72.5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[weightResponse](t, w).Profile)

	p, err := e.store.GetProfile(context.Background(), "ana")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, p.WeightKG, 1e-9)
}

func TestWeight_Validation(t *testing.T) {
	e := newTestEnv(t)
	for _, v := range []float64{0, -3, 10000} {
		w := e.do(t, http.MethodPut, "/api/food-log/weight", map[string]any{"weight_kg": v})
		assert.Equal(t, http.StatusBadRequest, w.Code, "weight %v", v)
	}
}

/* ─── Stream ──────────────────────────────────────────────────────────── */

func TestStream_ReceivesProgressAfterNewEntry(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/food-log/stream?access_token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return e.h.hub.Connected("ana") == 1 }, time.Second, 5*time.Millisecond)

	w := e.do(t, http.MethodPost, "/api/food-log/entries", map[string]any{
		"meal_type": "snack", "food_name": "Yogurt", "calories": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev struct {
		Kind string              `json:"kind"`
		Data model.DailyProgress `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, progressEvent, ev.Kind)
	assert.Equal(t, 120, ev.Data.TotalCalories)
}

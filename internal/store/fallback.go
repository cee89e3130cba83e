package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/metrics"
	"lg/calorie-budget-api/internal/model"
)

const defaultDurableTimeout = 5 * time.Second

// Fallback composes a local Store with an optional durable one. Writes land
// locally first and the local result is returned whatever the durable store
// does; durable failures are logged, counted and dropped. Reads prefer local
// and backfill it from durable on a miss. Last write wins. An entry whose
// durable delete failed is remembered so a later backfill cannot restore it.
type Fallback struct {
	local   Store
	durable Store // nil means local-only
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	deleted map[string]struct{} // userID/entryID still present in durable
}

func NewFallback(local, durable Store, log *zap.Logger) *Fallback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fallback{
		local:   local,
		durable: durable,
		log:     log,
		timeout: defaultDurableTimeout,
		deleted: make(map[string]struct{}),
	}
}

// WithDurableTimeout bounds each durable call.
func (f *Fallback) WithDurableTimeout(d time.Duration) *Fallback {
	f.timeout = d
	return f
}

func (f *Fallback) mirror(ctx context.Context, op string, write func(ctx context.Context, s Store) error) {
	if f.durable == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := write(ctx, f.durable); err != nil {
		metrics.IncDurableWriteFailure(op)
		f.log.Warn("durable write failed; keeping local result", zap.String("op", op), zap.Error(err))
	}
}

func (f *Fallback) durableRead(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, f.timeout)
}

/* ─── Users ───────────────────────────────────────────────────────────── */

func (f *Fallback) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u, err := f.local.CreateUser(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	f.mirror(ctx, "create_user", func(ctx context.Context, s Store) error {
		_, err := s.CreateUser(ctx, u)
		return err
	})
	return u, nil
}

func (f *Fallback) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return f.readUser(ctx, func(ctx context.Context, s Store) (model.User, error) {
		return s.UserByUsername(ctx, username)
	})
}

func (f *Fallback) UserByToken(ctx context.Context, token string) (model.User, error) {
	return f.readUser(ctx, func(ctx context.Context, s Store) (model.User, error) {
		return s.UserByToken(ctx, token)
	})
}

func (f *Fallback) readUser(ctx context.Context, get func(context.Context, Store) (model.User, error)) (model.User, error) {
	u, err := get(ctx, f.local)
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return u, err
	}
	dctx, cancel := f.durableRead(ctx)
	defer cancel()
	u, err = get(dctx, f.durable)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			f.log.Warn("durable user lookup failed", zap.Error(err))
		}
		return model.User{}, ErrNotFound
	}
	if _, err := f.local.CreateUser(ctx, u); err != nil {
		f.log.Warn("backfill user failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

/* ─── Profiles ────────────────────────────────────────────────────────── */

func (f *Fallback) SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	saved, err := f.local.SaveProfile(ctx, p)
	if err != nil {
		return model.Profile{}, err
	}
	f.mirror(ctx, "save_profile", func(ctx context.Context, s Store) error {
		_, err := s.SaveProfile(ctx, saved)
		return err
	})
	return saved, nil
}

func (f *Fallback) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	p, err := f.local.GetProfile(ctx, userID)
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return p, err
	}
	dctx, cancel := f.durableRead(ctx)
	defer cancel()
	p, err = f.durable.GetProfile(dctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			f.log.Warn("durable profile read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return model.Profile{}, ErrNotFound
	}
	if _, err := f.local.SaveProfile(ctx, p); err != nil {
		f.log.Warn("backfill profile failed", zap.String("user_id", userID), zap.Error(err))
	}
	return p, nil
}

/* ─── Food entries ────────────────────────────────────────────────────── */

func (f *Fallback) SaveEntry(ctx context.Context, e model.FoodEntry) (model.FoodEntry, error) {
	saved, err := f.local.SaveEntry(ctx, e)
	if err != nil {
		return model.FoodEntry{}, err
	}
	f.mirror(ctx, "save_entry", func(ctx context.Context, s Store) error {
		_, err := s.SaveEntry(ctx, saved)
		return err
	})
	return saved, nil
}

// DeleteEntry removes the entry from both stores. An id unknown to the
// local store is a no-op rather than an error.
func (f *Fallback) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if err := f.local.DeleteEntry(ctx, userID, entryID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	f.mirror(ctx, "delete_entry", func(ctx context.Context, s Store) error {
		if err := s.DeleteEntry(ctx, userID, entryID); err != nil && !errors.Is(err, ErrNotFound) {
			f.tombstone(userID, entryID)
			return err
		}
		return nil
	})
	return nil
}

func tombstoneKey(userID, entryID string) string { return userID + "/" + entryID }

func (f *Fallback) tombstone(userID, entryID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[tombstoneKey(userID, entryID)] = struct{}{}
}

// withoutDeleted drops entries deleted locally but not yet from durable.
func (f *Fallback) withoutDeleted(userID string, entries []model.FoodEntry) []model.FoodEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deleted) == 0 {
		return entries
	}
	return slices.DeleteFunc(slices.Clone(entries), func(e model.FoodEntry) bool {
		_, gone := f.deleted[tombstoneKey(userID, e.ID)]
		return gone
	})
}

func (f *Fallback) EntriesByDate(ctx context.Context, userID string, date model.Date) ([]model.FoodEntry, error) {
	entries, err := f.local.EntriesByDate(ctx, userID, date)
	if err != nil || len(entries) > 0 || f.durable == nil {
		return entries, err
	}
	dctx, cancel := f.durableRead(ctx)
	defer cancel()
	remote, err := f.durable.EntriesByDate(dctx, userID, date)
	if err != nil {
		f.log.Warn("durable entries read failed", zap.String("user_id", userID), zap.Error(err))
		return entries, nil
	}
	remote = f.withoutDeleted(userID, remote)
	for _, e := range remote {
		if _, err := f.local.SaveEntry(ctx, e); err != nil {
			f.log.Warn("backfill entry failed", zap.String("entry_id", e.ID), zap.Error(err))
		}
	}
	return remote, nil
}

/* ─── Daily progress ──────────────────────────────────────────────────── */

func (f *Fallback) SaveDailyProgress(ctx context.Context, p model.DailyProgress) (model.DailyProgress, error) {
	saved, err := f.local.SaveDailyProgress(ctx, p)
	if err != nil {
		return model.DailyProgress{}, err
	}
	f.mirror(ctx, "save_daily_progress", func(ctx context.Context, s Store) error {
		_, err := s.SaveDailyProgress(ctx, saved)
		return err
	})
	return saved, nil
}

func (f *Fallback) GetDailyProgress(ctx context.Context, userID string, date model.Date) (model.DailyProgress, error) {
	p, err := f.local.GetDailyProgress(ctx, userID, date)
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return p, err
	}
	dctx, cancel := f.durableRead(ctx)
	defer cancel()
	p, err = f.durable.GetDailyProgress(dctx, userID, date)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			f.log.Warn("durable progress read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return model.DailyProgress{}, ErrNotFound
	}
	if _, err := f.local.SaveDailyProgress(ctx, p); err != nil {
		f.log.Warn("backfill progress failed", zap.String("user_id", userID), zap.Error(err))
	}
	return p, nil
}

// DailyProgressRange merges both stores by date; a local row wins over a
// durable one, and durable-only days are backfilled locally.
func (f *Fallback) DailyProgressRange(ctx context.Context, userID string, start, end model.Date) ([]model.DailyProgress, error) {
	local, err := f.local.DailyProgressRange(ctx, userID, start, end)
	if err != nil || f.durable == nil {
		return local, err
	}
	dctx, cancel := f.durableRead(ctx)
	defer cancel()
	remote, err := f.durable.DailyProgressRange(dctx, userID, start, end)
	if err != nil {
		f.log.Warn("durable progress range failed", zap.String("user_id", userID), zap.Error(err))
		return local, nil
	}

	seen := make(map[string]bool, len(local))
	for _, p := range local {
		seen[p.Date.String()] = true
	}
	merged := local
	for _, p := range remote {
		if seen[p.Date.String()] {
			continue
		}
		if _, err := f.local.SaveDailyProgress(ctx, p); err != nil {
			f.log.Warn("backfill progress failed", zap.String("user_id", userID), zap.Error(err))
		}
		merged = append(merged, p)
	}
	slices.SortFunc(merged, func(a, b model.DailyProgress) int { return a.Date.Compare(b.Date.Time) })
	return merged, nil
}

func (f *Fallback) Close() error {
	err := f.local.Close()
	if f.durable != nil {
		err = errors.Join(err, f.durable.Close())
	}
	return err
}

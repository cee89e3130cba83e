// Package store persists profiles, food entries and daily progress.
//
// Three implementations share the Store interface: Memory (in-process),
// SQLite (an on-device file) and Postgres (the durable remote table store).
// Fallback composes a local store with a durable one; the local write is the
// authoritative result and durable failures are logged and swallowed.
package store

import (
	"context"
	"errors"

	"lg/calorie-budget-api/internal/model"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("not found")

type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	UserByUsername(ctx context.Context, username string) (model.User, error)
	UserByToken(ctx context.Context, token string) (model.User, error)
}

type ProfileStore interface {
	// SaveProfile upserts the user's profile snapshot, keyed by UserID.
	SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
}

type EntryStore interface {
	SaveEntry(ctx context.Context, e model.FoodEntry) (model.FoodEntry, error)
	// DeleteEntry returns ErrNotFound when no entry matches (id, userID).
	DeleteEntry(ctx context.Context, userID, entryID string) error
	// EntriesByDate returns the day's entries ordered by creation time; an
	// empty day is an empty slice, not ErrNotFound.
	EntriesByDate(ctx context.Context, userID string, date model.Date) ([]model.FoodEntry, error)
}

type ProgressStore interface {
	// SaveDailyProgress upserts the cached aggregate for (UserID, Date).
	SaveDailyProgress(ctx context.Context, p model.DailyProgress) (model.DailyProgress, error)
	GetDailyProgress(ctx context.Context, userID string, date model.Date) (model.DailyProgress, error)
	// DailyProgressRange returns stored days within [start, end] ascending.
	DailyProgressRange(ctx context.Context, userID string, start, end model.Date) ([]model.DailyProgress, error)
}

// Store is the single persistence interface used by the API.
type Store interface {
	UserStore
	ProfileStore
	EntryStore
	ProgressStore
	Close() error
}

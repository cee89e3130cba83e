package store

import (
	"context"
	"slices"
	"sync"

	"lg/calorie-budget-api/internal/model"
)

// Memory is an ephemeral in-process Store. Values are copied on the way in
// and out so callers never share slices with the store.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]model.User
	profiles map[string]model.Profile
	entries  map[string]map[string][]model.FoodEntry // user -> date -> entries
	progress map[string]map[string]model.DailyProgress
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]model.User),
		profiles: make(map[string]model.Profile),
		entries:  make(map[string]map[string][]model.FoodEntry),
		progress: make(map[string]map[string]model.DailyProgress),
	}
}

func (m *Memory) CreateUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Username == username })
}

func (m *Memory) UserByToken(_ context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotFound
	}
	return m.findUser(func(u model.User) bool { return u.AuthToken == token })
}

func (m *Memory) findUser(match func(model.User) bool) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *Memory) SaveProfile(_ context.Context, p model.Profile) (model.Profile, error) {
	p = cloneProfile(p)
	m.mu.Lock()
	m.profiles[p.UserID] = p
	m.mu.Unlock()
	return cloneProfile(p), nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return model.Profile{}, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *Memory) SaveEntry(_ context.Context, e model.FoodEntry) (model.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.entries[e.UserID]
	if !ok {
		days = make(map[string][]model.FoodEntry)
		m.entries[e.UserID] = days
	}
	key := e.Date.String()
	days[key] = append(days[key], e)
	return e, nil
}

func (m *Memory) DeleteEntry(_ context.Context, userID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for date, list := range m.entries[userID] {
		i := slices.IndexFunc(list, func(e model.FoodEntry) bool { return e.ID == entryID })
		if i < 0 {
			continue
		}
		m.entries[userID][date] = slices.Delete(slices.Clone(list), i, i+1)
		return nil
	}
	return ErrNotFound
}

func (m *Memory) EntriesByDate(_ context.Context, userID string, date model.Date) ([]model.FoodEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := slices.Clone(m.entries[userID][date.String()])
	if list == nil {
		list = []model.FoodEntry{}
	}
	return list, nil
}

func (m *Memory) SaveDailyProgress(_ context.Context, p model.DailyProgress) (model.DailyProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.progress[p.UserID]
	if !ok {
		days = make(map[string]model.DailyProgress)
		m.progress[p.UserID] = days
	}
	days[p.Date.String()] = p
	return p, nil
}

func (m *Memory) GetDailyProgress(_ context.Context, userID string, date model.Date) (model.DailyProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[userID][date.String()]
	if !ok {
		return model.DailyProgress{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) DailyProgressRange(_ context.Context, userID string, start, end model.Date) ([]model.DailyProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.DailyProgress{}
	for _, p := range m.progress[userID] {
		if p.Date.Before(start) || end.Before(p.Date) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.DailyProgress) int { return a.Date.Compare(b.Date.Time) })
	return out, nil
}

func (m *Memory) Close() error { return nil }

func cloneProfile(p model.Profile) model.Profile {
	p.Barriers = slices.Clone(p.Barriers)
	p.Desires = slices.Clone(p.Desires)
	return p
}

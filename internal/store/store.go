// Package store provides record storage backends for CrisisSense.
//
// Every backend implements Store, which doubles as the risk engine's history source.
// The in-memory store is used when no database DSN is configured.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

// Store persists crisis resolutions and check-ins and hands a user's full history to
// the risk engine.
type Store interface {
	// AddCrisisResolution validates and stores r, assigning an ID when r.ID is empty.
	AddCrisisResolution(ctx context.Context, r models.CrisisResolution) (models.CrisisResolution, error)
	// AddCheckIn validates and stores c, assigning an ID when c.ID is empty.
	AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error)
	// FetchHistory returns all records of a user, each list ordered oldest first.
	FetchHistory(ctx context.Context, userID string) (models.History, error)
	Close() error
}

type userRecords struct {
	resolutions []models.CrisisResolution
	checkIns    []models.CheckIn
}

// InMemoryStore keeps records in process memory. It is safe for concurrent use.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userRecords
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*userRecords)}
}

func (s *InMemoryStore) recordsFor(userID string) *userRecords {
	u, ok := s.users[userID]
	if !ok {
		u = &userRecords{}
		s.users[userID] = u
	}
	return u
}

// AddCrisisResolution stores a crisis resolution.
func (s *InMemoryStore) AddCrisisResolution(ctx context.Context, r models.CrisisResolution) (models.CrisisResolution, error) {
	r, err := prepareResolution(r)
	if err != nil {
		return models.CrisisResolution{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.recordsFor(r.UserID)
	u.resolutions = append(u.resolutions, cloneResolution(r))
	return r, nil
}

// AddCheckIn stores a check-in.
func (s *InMemoryStore) AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	c, err := prepareCheckIn(c)
	if err != nil {
		return models.CheckIn{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.recordsFor(c.UserID)
	u.checkIns = append(u.checkIns, c)
	return c, nil
}

// FetchHistory returns copies of the user's records. Unknown users have an empty history.
func (s *InMemoryStore) FetchHistory(ctx context.Context, userID string) (models.History, error) {
	if err := ctx.Err(); err != nil {
		return models.History{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h models.History
	u, ok := s.users[userID]
	if !ok {
		return h, nil
	}
	h.Resolutions = make([]models.CrisisResolution, len(u.resolutions))
	for i, r := range u.resolutions {
		h.Resolutions[i] = cloneResolution(r)
	}
	h.CheckIns = append([]models.CheckIn(nil), u.checkIns...)

	sort.SliceStable(h.Resolutions, func(i, j int) bool {
		return h.Resolutions[i].CrisisStartTime.Before(h.Resolutions[j].CrisisStartTime)
	})
	sort.SliceStable(h.CheckIns, func(i, j int) bool {
		return h.CheckIns[i].Timestamp.Before(h.CheckIns[j].Timestamp)
	})
	return h, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"thyknow/models"
)

// MemoryProfileStore is a process-local ProfileStore for development and tests.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
	locks    map[string]*sync.Mutex
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]models.UserProfile),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemoryProfileStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[strings.Clone(userID)] = l
	}
	return l
}

func (s *MemoryProfileStore) Get(_ context.Context, userID string) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.UserProfile{}, ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryProfileStore) Ensure(_ context.Context, p models.UserProfile) (models.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		return existing.Clone(), false, nil
	}
	p = p.Clone()
	s.profiles[p.UserID] = p
	return p.Clone(), true, nil
}

// Update runs fn on a copy and stores it only when fn succeeds.
func (s *MemoryProfileStore) Update(ctx context.Context, userID string, fn Mutator) (models.UserProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return models.UserProfile{}, err
	}
	s.mu.Lock()
	current, ok := s.profiles[userID]
	s.mu.Unlock()
	if !ok {
		return models.UserProfile{}, ErrProfileNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return models.UserProfile{}, err
	}

	s.mu.Lock()
	s.profiles[current.UserID] = next.Clone()
	s.mu.Unlock()
	return next, nil
}

func (s *MemoryProfileStore) ListScheduled(_ context.Context) ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserProfile
	for _, p := range s.profiles {
		if p.Schedule.Enabled {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryProfileStore) Leaderboard(_ context.Context, limit int) ([]models.UserProfile, error) {
	s.mu.Lock()
	var out []models.UserProfile
	for _, p := range s.profiles {
		if p.CurrentStreak > 0 {
			out = append(out, p.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentStreak != out[j].CurrentStreak {
			return out[i].CurrentStreak > out[j].CurrentStreak
		}
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryProfileStore) Stats(_ context.Context) (StreakStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st StreakStats
	var sum int64
	for _, p := range s.profiles {
		st.TotalUsers++
		if p.CurrentStreak > 0 {
			st.ActiveStreaks++
			sum += int64(p.CurrentStreak)
		}
		if int64(p.CurrentStreak) > st.LongestCurrentStreak {
			st.LongestCurrentStreak = int64(p.CurrentStreak)
		}
	}
	if st.ActiveStreaks > 0 {
		st.AverageStreak = float64(sum) / float64(st.ActiveStreaks)
	}
	return st, nil
}

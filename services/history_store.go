package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"thyknow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryStore holds the append-only records next to a profile: the points ledger and the
// journal.
type HistoryStore interface {
	AppendPoints(ctx context.Context, rows ...models.PointsHistory) error
	PointsHistory(ctx context.Context, userID string, limit int) ([]models.PointsHistory, error)
	// PointsSince returns rows created after since, oldest first.
	PointsSince(ctx context.Context, userID string, since time.Time) ([]models.PointsHistory, error)
	AddEntry(ctx context.Context, e *models.JournalEntry) error
	Entries(ctx context.Context, userID string, page, size int) ([]models.JournalEntry, int64, error)
	AllEntries(ctx context.Context, userID string) ([]models.JournalEntry, error)
}

type GormHistoryStore struct {
	db    *gorm.DB
	retry RetryPolicy
}

func NewGormHistoryStore(db *gorm.DB, rp RetryPolicy) *GormHistoryStore {
	return &GormHistoryStore{db: db, retry: rp}
}

func (s *GormHistoryStore) AppendPoints(ctx context.Context, rows ...models.PointsHistory) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
	}
	return withRetry(ctx, s.retry, "append points", func() error {
		return s.db.WithContext(ctx).Create(&rows).Error
	})
}

func (s *GormHistoryStore) PointsHistory(ctx context.Context, userID string, limit int) ([]models.PointsHistory, error) {
	var out []models.PointsHistory
	err := withRetry(ctx, s.retry, "points history", func() error {
		return s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(limit).
			Find(&out).Error
	})
	return out, err
}

func (s *GormHistoryStore) PointsSince(ctx context.Context, userID string, since time.Time) ([]models.PointsHistory, error) {
	var out []models.PointsHistory
	err := withRetry(ctx, s.retry, "points since", func() error {
		return s.db.WithContext(ctx).
			Where("user_id = ? AND created_at > ?", userID, since).
			Order("created_at ASC").
			Find(&out).Error
	})
	return out, err
}

func (s *GormHistoryStore) AddEntry(ctx context.Context, e *models.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return withRetry(ctx, s.retry, "add journal entry", func() error {
		return s.db.WithContext(ctx).Create(e).Error
	})
}

func (s *GormHistoryStore) Entries(ctx context.Context, userID string, page, size int) ([]models.JournalEntry, int64, error) {
	var (
		out   []models.JournalEntry
		total int64
	)
	err := withRetry(ctx, s.retry, "journal entries", func() error {
		if err := s.db.WithContext(ctx).Model(&models.JournalEntry{}).
			Where("user_id = ?", userID).
			Count(&total).Error; err != nil {
			return err
		}
		return s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(size).Offset((page - 1) * size).
			Find(&out).Error
	})
	return out, total, err
}

func (s *GormHistoryStore) AllEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	err := withRetry(ctx, s.retry, "all journal entries", func() error {
		return s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Find(&out).Error
	})
	return out, err
}

// MemoryHistoryStore keeps history in slices.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	points  []models.PointsHistory
	entries []models.JournalEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) AppendPoints(_ context.Context, rows ...models.PointsHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		s.points = append(s.points, r)
	}
	return nil
}

// PointsHistory returns the newest rows first.
func (s *MemoryHistoryStore) PointsHistory(_ context.Context, userID string, limit int) ([]models.PointsHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PointsHistory
	for i := len(s.points) - 1; i >= 0; i-- {
		if s.points[i].UserID != userID {
			continue
		}
		out = append(out, s.points[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryHistoryStore) PointsSince(_ context.Context, userID string, since time.Time) ([]models.PointsHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PointsHistory
	for _, r := range s.points {
		if r.UserID == userID && r.CreatedAt.After(since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryHistoryStore) AddEntry(_ context.Context, e *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *MemoryHistoryStore) Entries(ctx context.Context, userID string, page, size int) ([]models.JournalEntry, int64, error) {
	all, _ := s.AllEntries(ctx, userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *MemoryHistoryStore) AllEntries(_ context.Context, userID string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"thyknow/models"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mutator changes a profile in place. Returning an error aborts the update and nothing is saved.
type Mutator func(p *models.UserProfile) error

// StreakStats is the aggregate behind /system/stats.
type StreakStats struct {
	TotalUsers           int64   `json:"total_users"`
	ActiveStreaks        int64   `json:"active_streaks"`
	AverageStreak        float64 `json:"average_streak"`
	LongestCurrentStreak int64   `json:"longest_current_streak"`
}

// ProfileStore persists one profile per user id. Update must serialize mutations of the same user.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (models.UserProfile, error)
	// Ensure stores p unless a profile for p.UserID exists. It returns the stored profile and
	// whether it was created.
	Ensure(ctx context.Context, p models.UserProfile) (models.UserProfile, bool, error)
	Update(ctx context.Context, userID string, fn Mutator) (models.UserProfile, error)
	ListScheduled(ctx context.Context) ([]models.UserProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]models.UserProfile, error)
	Stats(ctx context.Context) (StreakStats, error)
}

// RetryPolicy bounds the store's retries of transient failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Backoff: 50 * time.Millisecond}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var c Coded
	return !errors.As(err, &c)
}

// withRetry runs fn until it succeeds, fails with a non-transient error, or the policy is
// exhausted, in which case ErrStoreUnavailable is returned.
func withRetry(ctx context.Context, rp RetryPolicy, op string, fn func() error) error {
	tries := rp.MaxRetries + 1
	if tries < 1 {
		tries = 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = rp.Backoff
	eb.Multiplier = 2
	eb.RandomizationFactor = 0

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn()
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("⚠️ [STORE] %s failed (attempt %d/%d), retrying in %s: %v", op, attempt, tries, wait, err)
		}),
	)
	if err == nil || !retryable(err) {
		return err
	}
	log.Printf("❌ [STORE] %s gave up: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// GormProfileStore keeps profiles in Postgres.
type GormProfileStore struct {
	db    *gorm.DB
	retry RetryPolicy
}

func NewGormProfileStore(db *gorm.DB, rp RetryPolicy) *GormProfileStore {
	return &GormProfileStore{db: db, retry: rp}
}

func (s *GormProfileStore) Get(ctx context.Context, userID string) (models.UserProfile, error) {
	var p models.UserProfile
	err := withRetry(ctx, s.retry, "get "+userID, func() error {
		err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	})
	return p, err
}

func (s *GormProfileStore) Ensure(ctx context.Context, p models.UserProfile) (models.UserProfile, bool, error) {
	var (
		out     models.UserProfile
		created bool
	)
	err := withRetry(ctx, s.retry, "ensure "+p.UserID, func() error {
		row := p
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			out, created = row, true
			return nil
		}
		return s.db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&out).Error
	})
	return out, created, err
}

// Update locks the row with SELECT ... FOR UPDATE, so concurrent updates of one user queue up
// even across processes.
func (s *GormProfileStore) Update(ctx context.Context, userID string, fn Mutator) (models.UserProfile, error) {
	var out models.UserProfile
	err := withRetry(ctx, s.retry, "update "+userID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p models.UserProfile
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).
				First(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			if err != nil {
				return err
			}
			if err := fn(&p); err != nil {
				return err
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			out = p
			return nil
		})
	})
	return out, err
}

func (s *GormProfileStore) ListScheduled(ctx context.Context) ([]models.UserProfile, error) {
	var out []models.UserProfile
	err := withRetry(ctx, s.retry, "list scheduled", func() error {
		return s.db.WithContext(ctx).Where("schedule_enabled = ?", true).Find(&out).Error
	})
	return out, err
}

func (s *GormProfileStore) Leaderboard(ctx context.Context, limit int) ([]models.UserProfile, error) {
	var out []models.UserProfile
	err := withRetry(ctx, s.retry, "leaderboard", func() error {
		return s.db.WithContext(ctx).
			Where("current_streak > 0").
			Order("current_streak DESC, total_points DESC").
			Limit(limit).
			Find(&out).Error
	})
	return out, err
}

func (s *GormProfileStore) Stats(ctx context.Context) (StreakStats, error) {
	var st StreakStats
	err := withRetry(ctx, s.retry, "stats", func() error {
		return s.db.WithContext(ctx).Model(&models.UserProfile{}).Select(`
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE current_streak > 0) AS active_streaks,
			COALESCE(AVG(current_streak) FILTER (WHERE current_streak > 0), 0) AS average_streak,
			COALESCE(MAX(current_streak), 0) AS longest_current_streak
		`).Scan(&st).Error
	})
	return st, err
}

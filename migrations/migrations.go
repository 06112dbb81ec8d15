// Package migrations applies named schema changes in order, recording each in schema_migrations.
package migrations

import (
	"context"
	"fmt"
	"log"
	"time"

	"thyknow/models"

	"gorm.io/gorm"
)

// Migration is one named, versioned schema change.
type Migration struct {
	Name    string
	Version string
	Up      func(tx *gorm.DB) error
}

// All returns the registry in application order.
func All() []Migration {
	return []Migration{
		{
			Name:    "0001_enable_pgcrypto",
			Version: "1.0.0",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error
			},
		},
		{
			Name:    "0002_create_user_profiles",
			Version: "1.0.0",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.UserProfile{})
			},
		},
		{
			Name:    "0003_create_points_history",
			Version: "1.0.0",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.PointsHistory{})
			},
		},
		{
			Name:    "0004_create_journal_entries",
			Version: "1.1.0",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.JournalEntry{})
			},
		},
		{
			Name:    "0005_leaderboard_index",
			Version: "1.2.0",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_user_profiles_leaderboard
					ON user_profiles (current_streak DESC, total_points DESC)
					WHERE deleted_at IS NULL`).Error
			},
		},
		{
			Name:    "0006_scheduled_profiles_index",
			Version: "1.2.0",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_user_profiles_schedule
					ON user_profiles (schedule_day, schedule_hour)
					WHERE schedule_enabled AND deleted_at IS NULL`).Error
			},
		},
	}
}

// Validate checks that names are non-empty, unique and ascending.
func Validate(ms []Migration) error {
	seen := make(map[string]bool, len(ms))
	for i, m := range ms {
		if m.Name == "" || m.Up == nil {
			return fmt.Errorf("migration #%d is incomplete", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate migration %s", m.Name)
		}
		seen[m.Name] = true
		if i > 0 && ms[i-1].Name >= m.Name {
			return fmt.Errorf("migration %s is out of order", m.Name)
		}
	}
	return nil
}

type Status struct {
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

type Manager struct {
	db         *gorm.DB
	migrations []Migration
}

func NewManager(db *gorm.DB, ms []Migration) *Manager {
	return &Manager{db: db, migrations: ms}
}

func (m *Manager) applied(ctx context.Context) (map[string]models.SchemaMigration, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&models.SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	var rows []models.SchemaMigration
	if err := m.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.SchemaMigration, len(rows))
	for _, r := range rows {
		out[r.Name] = r
	}
	return out, nil
}

// Up applies every pending migration, each in its own transaction together with its record.
// It returns the names it applied.
func (m *Manager) Up(ctx context.Context) ([]string, error) {
	if err := Validate(m.migrations); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, mig := range m.migrations {
		if _, ok := done[mig.Name]; ok {
			continue
		}
		log.Printf("🔄 [MIGRATE] applying %s (v%s)", mig.Name, mig.Version)
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{Name: mig.Name, Version: mig.Version}).Error
		})
		if err != nil {
			log.Printf("❌ [MIGRATE] %s failed: %v", mig.Name, err)
			return ran, fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		ran = append(ran, mig.Name)
	}
	if len(ran) == 0 {
		log.Println("✅ [MIGRATE] schema is up to date")
	} else {
		log.Printf("✅ [MIGRATE] applied %d migration(s)", len(ran))
	}
	return ran, nil
}

// Status lists every registered migration with its applied state.
func (m *Manager) Status(ctx context.Context) ([]Status, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := Status{Name: mig.Name, Version: mig.Version}
		if row, ok := done[mig.Name]; ok {
			at := row.AppliedAt
			st.Applied, st.AppliedAt = true, &at
		}
		out = append(out, st)
	}
	return out, nil
}

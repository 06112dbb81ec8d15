package models

import "time"

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Name      string    `gorm:"primaryKey;type:varchar(128)"`
	Version   string    `gorm:"type:varchar(32);not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

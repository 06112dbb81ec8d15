package models

import "time"

// Ledger reasons.
const (
	ReasonWeeklyEntry        = "weekly_entry"
	ReasonStreakContinuation = "streak_continuation"
	ReasonStreakRestart      = "streak_restart"
	ReasonCarePrefix         = "care_"
	ReasonAccessoryPrefix    = "accessory_"
)

// PointsHistory is an append-only record of every point change (negative for spends).
type PointsHistory struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID         string    `gorm:"index;not null" json:"user_id"`
	Points         int64     `json:"points"`
	Reason         string    `gorm:"type:varchar(64);not null" json:"reason"`
	StreakWeek     int       `json:"streak_week"`
	WeekIdentifier string    `gorm:"type:varchar(10);index" json:"week_identifier"`
	EntryID        *string   `gorm:"type:uuid" json:"entry_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PointsHistory) TableName() string { return "points_history" }

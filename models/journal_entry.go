package models

import "time"

// JournalEntry is one submitted reflection. Counted marks the submission that advanced the week.
type JournalEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID         string    `gorm:"index:idx_journal_user_time,priority:1;not null" json:"user_id"`
	PromptType     string    `gorm:"type:varchar(32)" json:"prompt_type"`
	PromptText     string    `gorm:"type:text" json:"prompt_text"`
	Response       string    `gorm:"type:text;not null" json:"response"`
	WeekIdentifier string    `gorm:"type:varchar(10)" json:"week_identifier"`
	Counted        bool      `gorm:"not null" json:"counted"`
	CreatedAt      time.Time `gorm:"index:idx_journal_user_time,priority:2" json:"created_at"`
}

package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Accessory slot types. A slot holds at most one equipped accessory.
const (
	SlotHat      = "hat"
	SlotNecklace = "necklace"
	SlotGlasses  = "glasses"
)

// Slots lists every valid accessory slot.
var Slots = []string{SlotHat, SlotNecklace, SlotGlasses}

// Schedule is the user's weekly prompt preference. Day is 0 (Sunday) to 6, Hour is 0-23.
type Schedule struct {
	Day      int    `json:"day" gorm:"not null"`
	Hour     int    `json:"hour" gorm:"not null"`
	Enabled  bool   `json:"enabled" gorm:"not null"`
	Timezone string `json:"timezone" gorm:"type:varchar(64)"`
}

// UserProfile is the per-user progression record (one row per Telegram user). Columns carry no
// database defaults: NewProfile sets them, and zero values such as a pet at 0 health must be written.
type UserProfile struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string `gorm:"uniqueIndex;not null" json:"user_id"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `gorm:"type:varchar(16)" json:"language_code,omitempty"`

	// Streaks are counted in weeks.
	CurrentStreak int     `json:"current_streak" gorm:"not null;index"`
	LongestStreak int     `json:"longest_streak" gorm:"not null"`
	LastEntryWeek *string `json:"last_entry_week,omitempty" gorm:"type:varchar(10)"`

	TotalPoints      int64 `json:"total_points" gorm:"not null"`
	Level            int   `json:"level" gorm:"not null"`
	TotalReflections int64 `json:"total_reflections" gorm:"not null"`

	PetHealth    int `json:"pet_health" gorm:"not null"`
	PetHappiness int `json:"pet_happiness" gorm:"not null"`

	OwnedAccessories    datatypes.JSONSlice[string]              `json:"owned_accessories" gorm:"type:jsonb"`
	EquippedAccessories datatypes.JSONType[map[string]string]    `json:"equipped_accessories" gorm:"type:jsonb"`
	LastCareActionAt    datatypes.JSONType[map[string]time.Time] `json:"last_care_action_at" gorm:"type:jsonb"`

	Schedule         Schedule `gorm:"embedded;embeddedPrefix:schedule_" json:"schedule"`
	LastReminderWeek string   `gorm:"type:varchar(10)" json:"last_reminder_week,omitempty"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Equipped returns a copy of the slot → accessory mapping.
func (p *UserProfile) Equipped() map[string]string {
	out := make(map[string]string)
	for k, v := range p.EquippedAccessories.Data() {
		out[strings.Clone(k)] = strings.Clone(v)
	}
	return out
}

// SetEquipped replaces the slot mapping.
func (p *UserProfile) SetEquipped(m map[string]string) {
	p.EquippedAccessories = datatypes.NewJSONType(m)
}

// CareTimes returns a copy of the per-action last-performed timestamps.
func (p *UserProfile) CareTimes() map[string]time.Time {
	out := make(map[string]time.Time)
	for k, v := range p.LastCareActionAt.Data() {
		out[strings.Clone(k)] = v
	}
	return out
}

// SetCareTimes replaces the per-action timestamps.
func (p *UserProfile) SetCareTimes(m map[string]time.Time) {
	p.LastCareActionAt = datatypes.NewJSONType(m)
}

// Owns reports whether accessoryID is in the owned set.
func (p *UserProfile) Owns(accessoryID string) bool {
	for _, id := range p.OwnedAccessories {
		if id == accessoryID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so mutations on the copy never reach the original. String bytes
// are copied too, so the copy never aliases a request buffer.
func (p *UserProfile) Clone() UserProfile {
	out := *p
	out.UserID = strings.Clone(p.UserID)
	out.Username = strings.Clone(p.Username)
	out.LanguageCode = strings.Clone(p.LanguageCode)
	out.LastReminderWeek = strings.Clone(p.LastReminderWeek)
	out.Schedule.Timezone = strings.Clone(p.Schedule.Timezone)
	if p.LastEntryWeek != nil {
		w := strings.Clone(*p.LastEntryWeek)
		out.LastEntryWeek = &w
	}
	if p.LastLevelUpAt != nil {
		t := *p.LastLevelUpAt
		out.LastLevelUpAt = &t
	}
	if p.OwnedAccessories != nil {
		owned := make([]string, len(p.OwnedAccessories))
		for i, id := range p.OwnedAccessories {
			owned[i] = strings.Clone(id)
		}
		out.OwnedAccessories = owned
	}
	out.SetEquipped(p.Equipped())
	out.SetCareTimes(p.CareTimes())
	return out
}

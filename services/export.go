package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"thyknow/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

// ObjectStore is where exports are uploaded.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType, disposition string) (string, error)
}

type ExportResult struct {
	URL     string `json:"url"`
	Key     string `json:"key"`
	Entries int    `json:"entries"`
}

type journalExport struct {
	UserID        string                `json:"user_id"`
	Username      string                `json:"username,omitempty"`
	ExportedAt    time.Time             `json:"exported_at"`
	CurrentStreak int                   `json:"current_streak"`
	LongestStreak int                   `json:"longest_streak"`
	TotalPoints   int64                 `json:"total_points"`
	Level         int                   `json:"level"`
	Entries       []models.JournalEntry `json:"entries"`
}

// ExportService uploads a user's whole journal as one JSON document.
type ExportService struct {
	Profiles ProfileStore
	History  HistoryStore
	Store    ObjectStore // nil disables exports
}

func NewExportService(profiles ProfileStore, history HistoryStore, store ObjectStore) *ExportService {
	return &ExportService{Profiles: profiles, History: history, Store: store}
}

func (e *ExportService) Export(ctx context.Context, userID string, now time.Time) (ExportResult, error) {
	if e.Store == nil {
		return ExportResult{}, ErrExportDisabled
	}
	p, err := e.Profiles.Get(ctx, userID)
	if err != nil {
		return ExportResult{}, err
	}
	entries, err := e.History.AllEntries(ctx, userID)
	if err != nil {
		return ExportResult{}, err
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}

	body, err := json.MarshalIndent(journalExport{
		UserID:        p.UserID,
		Username:      p.Username,
		ExportedAt:    now.UTC(),
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		TotalPoints:   p.TotalPoints,
		Level:         p.Level,
		Entries:       entries,
	}, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := ExportKey(p.UserID, p.Username, now, uuid.NewString())
	url, err := e.Store.PutObject(ctx, key, body, "application/json", exportDisposition(p.Username))
	if err != nil {
		log.Printf("❌ [EXPORT] upload failed for %s: %v", userID, err)
		return ExportResult{}, err
	}
	log.Printf("📦 [EXPORT] %s → %s (%d entries)", userID, key, len(entries))
	return ExportResult{URL: url, Key: key, Entries: len(entries)}, nil
}

// ExportKey builds exports/<user>/<slug>-<yyyymmdd>-<id8>.json.
func ExportKey(userID, username string, now time.Time, id string) string {
	name := slug.Make(username)
	if name == "" {
		name = "journal"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("exports/%s/%s-%s-%s.json", userID, name, now.UTC().Format("20060102"), id)
}

// exportDisposition keeps the download filename ASCII, transliterating where possible.
func exportDisposition(username string) string {
	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, unidecode.Unidecode(username))
	name = strings.TrimSpace(name)
	if name == "" {
		name = "thyknow"
	}
	return fmt.Sprintf(`attachment; filename="%s-journal.json"`, name)
}

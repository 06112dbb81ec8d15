package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"thyknow/metrics"
	"thyknow/models"
)

// Reflection is the user's answer to a prompt.
type Reflection struct {
	PromptType string `json:"prompt_type"`
	PromptText string `json:"prompt_text"`
	Response   string `json:"response"`
}

type ReflectionResult struct {
	Profile        models.UserProfile        `json:"profile"`
	Achievements   []models.AchievementState `json:"achievements"`
	NewlyUnlocked  []models.AchievementState `json:"newly_unlocked"`
	EntryID        string                    `json:"entry_id"`
	WeekID         string                    `json:"week_id"`
	PointsAwarded  int64                     `json:"points_awarded"`
	StreakExtended bool                      `json:"streak_extended"`
	StreakBroken   bool                      `json:"streak_broken"`
	LeveledUp      bool                      `json:"leveled_up"`
	Duplicate      bool                      `json:"duplicate"`
}

// ActionResult is returned by care and accessory operations.
type ActionResult struct {
	Profile       models.UserProfile        `json:"profile"`
	Achievements  []models.AchievementState `json:"achievements"`
	NewlyUnlocked []models.AchievementState `json:"newly_unlocked"`
}

// ScheduleUpdate changes only the fields that are set.
type ScheduleUpdate struct {
	Day      *int    `json:"day"`
	Hour     *int    `json:"hour"`
	Enabled  *bool   `json:"enabled"`
	Timezone *string `json:"timezone"`
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalPoints   int64  `json:"total_points"`
	Level         int    `json:"level"`
}

type JournalPage struct {
	Entries    []models.JournalEntry `json:"entries"`
	Page       int                   `json:"page"`
	Size       int                   `json:"size"`
	TotalItems int64                 `json:"total_items"`
	TotalPages int                   `json:"total_pages"`
}

// ProgressionService ties the engine to the stores: it loads, mutates and persists profiles,
// keeps the ledger and journal, and evaluates achievements.
type ProgressionService struct {
	Engine          *Engine
	Profiles        ProfileStore
	History         HistoryStore
	Definitions     []models.AchievementDefinition
	DefaultTimezone string
}

func NewProgressionService(engine *Engine, profiles ProfileStore, history HistoryStore, defaultTZ string) *ProgressionService {
	return &ProgressionService{
		Engine:          engine,
		Profiles:        profiles,
		History:         history,
		Definitions:     models.AchievementDefinitions,
		DefaultTimezone: defaultTZ,
	}
}

// EnsureProfile creates the user's profile on first contact (idempotent). Username and language
// are refreshed when they changed.
func (s *ProgressionService) EnsureProfile(ctx context.Context, userID, username, lang string) (models.UserProfile, error) {
	p := s.Engine.NewProfile(userID, s.DefaultTimezone)
	p.Username = username
	p.LanguageCode = lang

	stored, created, err := s.Profiles.Ensure(ctx, p)
	if err != nil {
		return models.UserProfile{}, err
	}
	if created {
		log.Printf("🆕 [PROFILE] created profile for %s", userID)
		return stored, nil
	}
	if (username == "" || username == stored.Username) && (lang == "" || lang == stored.LanguageCode) {
		return stored, nil
	}
	return s.Profiles.Update(ctx, userID, func(p *models.UserProfile) error {
		if username != "" {
			p.Username = username
		}
		if lang != "" {
			p.LanguageCode = lang
		}
		return nil
	})
}

func (s *ProgressionService) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	return s.Profiles.Get(ctx, userID)
}

// SubmitReflection records a reflection. Only the first one of a week moves streak and points;
// later ones are still journaled.
func (s *ProgressionService) SubmitReflection(ctx context.Context, userID string, r Reflection, now time.Time) (ReflectionResult, error) {
	if strings.TrimSpace(r.Response) == "" {
		return ReflectionResult{}, ErrEmptyReflection
	}

	var (
		before []models.AchievementState
		tr     Transition
	)
	profile, err := s.Profiles.Update(ctx, userID, func(p *models.UserProfile) error {
		before = EvaluateAchievements(*p, s.Definitions)
		next, t := s.Engine.ApplyReflectionCompleted(*p, now)
		*p, tr = next, t
		return nil
	})
	if err != nil {
		return ReflectionResult{}, err
	}

	entry := models.JournalEntry{
		UserID:         userID,
		PromptType:     r.PromptType,
		PromptText:     r.PromptText,
		Response:       r.Response,
		WeekIdentifier: tr.WeekID,
		Counted:        !tr.Duplicate,
		CreatedAt:      now,
	}
	// The profile is committed at this point, so a journal failure must not report the
	// reflection as failed.
	if err := s.History.AddEntry(ctx, &entry); err != nil {
		log.Printf("❌ [JOURNAL] failed to record entry for %s (%s): %v", userID, tr.WeekID, err)
		entry.ID = ""
	}

	if tr.Duplicate {
		metrics.Reflections.WithLabelValues("duplicate").Inc()
	} else {
		metrics.Reflections.WithLabelValues("counted").Inc()
		metrics.PointsAwarded.Add(float64(tr.PointsAwarded))
		switch {
		case tr.StreakExtended:
			metrics.StreakEvents.WithLabelValues("extended").Inc()
		case tr.StreakBroken:
			metrics.StreakEvents.WithLabelValues("restarted").Inc()
		default:
			metrics.StreakEvents.WithLabelValues("started").Inc()
		}
		if tr.LeveledUp {
			metrics.LevelUps.Inc()
		}
		row := models.PointsHistory{
			UserID:         userID,
			Points:         tr.PointsAwarded,
			Reason:         tr.Reason(),
			StreakWeek:     profile.CurrentStreak,
			WeekIdentifier: tr.WeekID,
			CreatedAt:      now,
		}
		if entry.ID != "" {
			entryID := entry.ID
			row.EntryID = &entryID
		}
		s.appendLedger(ctx, row)
		log.Printf("📝 [REFLECTION] %s → week=%s streak=%d points=%d level=%d",
			userID, tr.WeekID, profile.CurrentStreak, profile.TotalPoints, profile.Level)
	}

	after := EvaluateAchievements(profile, s.Definitions)
	return ReflectionResult{
		Profile:        profile,
		Achievements:   after,
		NewlyUnlocked:  s.unlocked(before, after),
		EntryID:        entry.ID,
		WeekID:         tr.WeekID,
		PointsAwarded:  tr.PointsAwarded,
		StreakExtended: tr.StreakExtended,
		StreakBroken:   tr.StreakBroken,
		LeveledUp:      tr.LeveledUp,
		Duplicate:      tr.Duplicate,
	}, nil
}

// PerformCare applies a care action and charges its cost.
func (s *ProgressionService) PerformCare(ctx context.Context, userID, actionID string, now time.Time) (ActionResult, error) {
	action, ok := s.Engine.Balance().CareAction(actionID)
	if !ok {
		metrics.CareActions.WithLabelValues("unknown", ErrUnknownCareAction.Code()).Inc()
		return ActionResult{}, ErrUnknownCareAction
	}
	res, err := s.mutate(ctx, userID, func(p models.UserProfile) (models.UserProfile, error) {
		return s.Engine.ApplyCareAction(p, actionID, now)
	})
	metrics.CareActions.WithLabelValues(actionID, resultLabel(err)).Inc()
	if err != nil {
		return res, err
	}
	if action.Cost > 0 {
		metrics.PointsSpent.WithLabelValues("care").Add(float64(action.Cost))
		s.appendLedger(ctx, models.PointsHistory{
			UserID:         userID,
			Points:         -action.Cost,
			Reason:         models.ReasonCarePrefix + actionID,
			StreakWeek:     res.Profile.CurrentStreak,
			WeekIdentifier: CurrentWeekID(now, res.Profile.Schedule.Timezone),
			CreatedAt:      now,
		})
	}
	return res, nil
}

// PurchaseAccessory buys a catalog accessory at its catalog price.
func (s *ProgressionService) PurchaseAccessory(ctx context.Context, userID, accessoryID string, now time.Time) (ActionResult, error) {
	acc, ok := s.Engine.Balance().Accessory(accessoryID)
	if !ok {
		metrics.AccessoryOps.WithLabelValues("purchase", ErrUnknownAccessory.Code()).Inc()
		return ActionResult{}, ErrUnknownAccessory
	}
	res, err := s.mutate(ctx, userID, func(p models.UserProfile) (models.UserProfile, error) {
		return s.Engine.PurchaseAccessory(p, accessoryID, acc.Cost)
	})
	metrics.AccessoryOps.WithLabelValues("purchase", resultLabel(err)).Inc()
	if err != nil {
		return res, err
	}
	metrics.PointsSpent.WithLabelValues("accessory").Add(float64(acc.Cost))
	s.appendLedger(ctx, models.PointsHistory{
		UserID:         userID,
		Points:         -acc.Cost,
		Reason:         models.ReasonAccessoryPrefix + accessoryID,
		StreakWeek:     res.Profile.CurrentStreak,
		WeekIdentifier: CurrentWeekID(now, res.Profile.Schedule.Timezone),
		CreatedAt:      now,
	})
	log.Printf("🛍️ [SHOP] %s bought %s for %d", userID, accessoryID, acc.Cost)
	return res, nil
}

// EquipAccessory equips an owned accessory. An empty slot means the accessory's own slot;
// any other slot must match it.
func (s *ProgressionService) EquipAccessory(ctx context.Context, userID, accessoryID, slot string) (ActionResult, error) {
	acc, ok := s.Engine.Balance().Accessory(accessoryID)
	if !ok {
		metrics.AccessoryOps.WithLabelValues("equip", ErrUnknownAccessory.Code()).Inc()
		return ActionResult{}, ErrUnknownAccessory
	}
	if slot == "" {
		slot = acc.Slot
	}
	if slot != acc.Slot {
		metrics.AccessoryOps.WithLabelValues("equip", ErrSlotMismatch.Code()).Inc()
		return ActionResult{}, ErrSlotMismatch
	}
	res, err := s.mutate(ctx, userID, func(p models.UserProfile) (models.UserProfile, error) {
		return s.Engine.EquipAccessory(p, accessoryID, slot)
	})
	metrics.AccessoryOps.WithLabelValues("equip", resultLabel(err)).Inc()
	return res, err
}

func (s *ProgressionService) UnequipAccessory(ctx context.Context, userID, slot string) (ActionResult, error) {
	res, err := s.mutate(ctx, userID, func(p models.UserProfile) (models.UserProfile, error) {
		return s.Engine.UnequipAccessory(p, slot)
	})
	metrics.AccessoryOps.WithLabelValues("unequip", resultLabel(err)).Inc()
	return res, err
}

// UpdateSchedule validates and applies a partial schedule change.
func (s *ProgressionService) UpdateSchedule(ctx context.Context, userID string, u ScheduleUpdate) (models.UserProfile, error) {
	if u.Day != nil && (*u.Day < 0 || *u.Day > 6) {
		return models.UserProfile{}, fmt.Errorf("%w: day must be 0-6", ErrInvalidSchedule)
	}
	if u.Hour != nil && (*u.Hour < 0 || *u.Hour > 23) {
		return models.UserProfile{}, fmt.Errorf("%w: hour must be 0-23", ErrInvalidSchedule)
	}
	if u.Timezone != nil && !ValidTimezone(*u.Timezone) {
		return models.UserProfile{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, *u.Timezone)
	}
	return s.Profiles.Update(ctx, userID, func(p *models.UserProfile) error {
		if u.Day != nil {
			p.Schedule.Day = *u.Day
		}
		if u.Hour != nil {
			p.Schedule.Hour = *u.Hour
		}
		if u.Enabled != nil {
			p.Schedule.Enabled = *u.Enabled
		}
		if u.Timezone != nil {
			p.Schedule.Timezone = *u.Timezone
		}
		return nil
	})
}

// MarkReminded stores the week a reminder went out for.
func (s *ProgressionService) MarkReminded(ctx context.Context, userID, weekID string) error {
	_, err := s.Profiles.Update(ctx, userID, func(p *models.UserProfile) error {
		p.LastReminderWeek = weekID
		return nil
	})
	return err
}

func (s *ProgressionService) Achievements(ctx context.Context, userID string) ([]models.AchievementState, error) {
	p, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return EvaluateAchievements(p, s.Definitions), nil
}

func (s *ProgressionService) PointsHistory(ctx context.Context, userID string, limit int) ([]models.PointsHistory, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.History.PointsHistory(ctx, userID, limit)
}

// JournalHistory returns one page of entries, newest first.
func (s *ProgressionService) JournalHistory(ctx context.Context, userID string, page, size int) (JournalPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	entries, total, err := s.History.Entries(ctx, userID, page, size)
	if err != nil {
		return JournalPage{}, err
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return JournalPage{
		Entries:    entries,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// Leaderboard ranks active streaks, ties broken by points.
func (s *ProgressionService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	profiles, err := s.Profiles.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        p.UserID,
			Username:      p.Username,
			CurrentStreak: p.CurrentStreak,
			LongestStreak: p.LongestStreak,
			TotalPoints:   p.TotalPoints,
			Level:         p.Level,
		})
	}
	return out, nil
}

func (s *ProgressionService) Stats(ctx context.Context) (StreakStats, error) {
	return s.Profiles.Stats(ctx)
}

// mutate runs a pure engine step inside a store update and evaluates achievements around it.
func (s *ProgressionService) mutate(ctx context.Context, userID string, step func(models.UserProfile) (models.UserProfile, error)) (ActionResult, error) {
	var before []models.AchievementState
	profile, err := s.Profiles.Update(ctx, userID, func(p *models.UserProfile) error {
		before = EvaluateAchievements(*p, s.Definitions)
		next, err := step(*p)
		if err != nil {
			return err
		}
		*p = next
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	after := EvaluateAchievements(profile, s.Definitions)
	return ActionResult{
		Profile:       profile,
		Achievements:  after,
		NewlyUnlocked: s.unlocked(before, after),
	}, nil
}

func (s *ProgressionService) unlocked(before, after []models.AchievementState) []models.AchievementState {
	fresh := NewlyUnlocked(before, after)
	for _, a := range fresh {
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
	}
	if fresh == nil {
		fresh = []models.AchievementState{}
	}
	return fresh
}

// appendLedger never fails the caller: the profile is already committed.
func (s *ProgressionService) appendLedger(ctx context.Context, row models.PointsHistory) {
	if err := s.History.AppendPoints(ctx, row); err != nil {
		log.Printf("❌ [LEDGER] failed to record %s for %s: %v", row.Reason, row.UserID, err)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorCode(err)
}

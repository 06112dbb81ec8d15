package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"thyknow/models"
	"thyknow/services"
)

func newService(t *testing.T) (*services.ProgressionService, *services.MemoryHistoryStore) {
	t.Helper()
	history := services.NewMemoryHistoryStore()
	svc := services.NewProgressionService(newEngine(t), services.NewMemoryProfileStore(), history, "UTC")
	if _, err := svc.EnsureProfile(context.Background(), "u1", "ada", "en"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	return svc, history
}

func answer(text string) services.Reflection {
	return services.Reflection{PromptType: "gratitude", PromptText: "What are you grateful for?", Response: text}
}

func TestSubmitReflection_CountsOncePerWeek(t *testing.T) {
	ctx := context.Background()
	svc, history := newService(t)

	first, err := svc.SubmitReflection(ctx, "u1", answer("sunny walk"), week10)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Duplicate || first.PointsAwarded != 50 || first.Profile.CurrentStreak != 1 {
		t.Errorf("unexpected first result %+v", first)
	}
	if len(first.NewlyUnlocked) != 1 || first.NewlyUnlocked[0].ID != "first-reflection" {
		t.Errorf("expected first-reflection unlocked, got %+v", first.NewlyUnlocked)
	}

	second, err := svc.SubmitReflection(ctx, "u1", answer("more thoughts"), week10.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Duplicate || second.PointsAwarded != 0 || second.Profile.TotalPoints != 50 {
		t.Errorf("expected duplicate with no points, got %+v", second)
	}
	if len(second.NewlyUnlocked) != 0 {
		t.Errorf("expected nothing newly unlocked, got %+v", second.NewlyUnlocked)
	}

	rows, _ := history.PointsHistory(ctx, "u1", 0)
	if len(rows) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(rows))
	}
	if rows[0].Points != 50 || rows[0].Reason != models.ReasonWeeklyEntry || rows[0].WeekIdentifier != "2024-W10" {
		t.Errorf("unexpected ledger row %+v", rows[0])
	}
	if rows[0].EntryID == nil || *rows[0].EntryID != first.EntryID {
		t.Errorf("expected ledger row linked to entry %s, got %v", first.EntryID, rows[0].EntryID)
	}

	page, _ := svc.JournalHistory(ctx, "u1", 1, 10)
	if page.TotalItems != 2 {
		t.Fatalf("expected both reflections journaled, got %d", page.TotalItems)
	}
	counted := 0
	for _, e := range page.Entries {
		if e.Counted {
			counted++
		}
	}
	if counted != 1 {
		t.Errorf("expected exactly one counted entry, got %d", counted)
	}
}

func TestSubmitReflection_LevelUpAndContinuation(t *testing.T) {
	ctx := context.Background()
	svc, history := newService(t)

	_, _ = svc.SubmitReflection(ctx, "u1", answer("one"), week10)
	res, err := svc.SubmitReflection(ctx, "u1", answer("two"), week11)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.StreakExtended || !res.LeveledUp || res.Profile.Level != 2 || res.Profile.CurrentStreak != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	rows, _ := history.PointsHistory(ctx, "u1", 1)
	if rows[0].Reason != models.ReasonStreakContinuation || rows[0].StreakWeek != 2 {
		t.Errorf("unexpected latest ledger row %+v", rows[0])
	}
}

func TestSubmitReflection_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.SubmitReflection(ctx, "u1", answer("   "), week10); !errors.Is(err, services.ErrEmptyReflection) {
		t.Errorf("expected ErrEmptyReflection, got %v", err)
	}
	if _, err := svc.SubmitReflection(ctx, "ghost", answer("hi"), week10); !errors.Is(err, services.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestPerformCare_ChargesAndRecords(t *testing.T) {
	ctx := context.Background()
	svc, history := newService(t)
	_, _ = svc.SubmitReflection(ctx, "u1", answer("one"), week10)

	res, err := svc.PerformCare(ctx, "u1", "feed", week10)
	if err != nil {
		t.Fatalf("care: %v", err)
	}
	if res.Profile.PetHealth != 60 || res.Profile.TotalPoints != 49 {
		t.Errorf("expected health 60 and 49 points, got %d/%d", res.Profile.PetHealth, res.Profile.TotalPoints)
	}
	rows, _ := history.PointsHistory(ctx, "u1", 1)
	if rows[0].Points != -1 || rows[0].Reason != models.ReasonCarePrefix+"feed" {
		t.Errorf("unexpected care ledger row %+v", rows[0])
	}

	_, err = svc.PerformCare(ctx, "u1", "feed", week10)
	var cd *services.CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	p, _ := svc.GetProfile(ctx, "u1")
	if p.TotalPoints != 49 {
		t.Errorf("rejected care changed points to %d", p.TotalPoints)
	}

	if _, err := svc.PerformCare(ctx, "u1", "juggle", week10); !errors.Is(err, services.ErrUnknownCareAction) {
		t.Errorf("expected ErrUnknownCareAction, got %v", err)
	}
}

func TestAccessories_PurchaseAndEquip(t *testing.T) {
	ctx := context.Background()
	svc, history := newService(t)

	_, err := svc.PurchaseAccessory(ctx, "u1", "explorer-hat", week10)
	var ins *services.InsufficientPointsError
	if !errors.As(err, &ins) || ins.Required != 5 || ins.Available != 0 {
		t.Fatalf("expected insufficient points 5/0, got %v", err)
	}

	_, _ = svc.SubmitReflection(ctx, "u1", answer("one"), week10)
	res, err := svc.PurchaseAccessory(ctx, "u1", "explorer-hat", week10)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if res.Profile.TotalPoints != 45 || !res.Profile.Owns("explorer-hat") {
		t.Errorf("unexpected profile after purchase %+v", res.Profile)
	}
	if len(res.NewlyUnlocked) != 1 || res.NewlyUnlocked[0].ID != "first-accessory" {
		t.Errorf("expected first-accessory unlocked, got %+v", res.NewlyUnlocked)
	}
	rows, _ := history.PointsHistory(ctx, "u1", 1)
	if rows[0].Points != -5 || rows[0].Reason != models.ReasonAccessoryPrefix+"explorer-hat" {
		t.Errorf("unexpected purchase ledger row %+v", rows[0])
	}

	if _, err := svc.EquipAccessory(ctx, "u1", "explorer-hat", models.SlotGlasses); !errors.Is(err, services.ErrSlotMismatch) {
		t.Errorf("expected ErrSlotMismatch, got %v", err)
	}
	eq, err := svc.EquipAccessory(ctx, "u1", "explorer-hat", "")
	if err != nil {
		t.Fatalf("equip: %v", err)
	}
	if got := eq.Profile.Equipped()[models.SlotHat]; got != "explorer-hat" {
		t.Errorf("expected hat slot explorer-hat, got %q", got)
	}

	un, err := svc.UnequipAccessory(ctx, "u1", models.SlotHat)
	if err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if len(un.Profile.Equipped()) != 0 {
		t.Errorf("expected no equipped accessories, got %v", un.Profile.Equipped())
	}
}

func TestUpdateSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	day, hour, tz := 3, 19, "Asia/Singapore"
	p, err := svc.UpdateSchedule(ctx, "u1", services.ScheduleUpdate{Day: &day, Hour: &hour, Timezone: &tz})
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if p.Schedule.Day != 3 || p.Schedule.Hour != 19 || p.Schedule.Timezone != tz || !p.Schedule.Enabled {
		t.Errorf("unexpected schedule %+v", p.Schedule)
	}

	bad := 24
	if _, err := svc.UpdateSchedule(ctx, "u1", services.ScheduleUpdate{Hour: &bad}); !errors.Is(err, services.ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule for hour, got %v", err)
	}
	zone := "Mars/Olympus"
	if _, err := svc.UpdateSchedule(ctx, "u1", services.ScheduleUpdate{Timezone: &zone}); !errors.Is(err, services.ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule for timezone, got %v", err)
	}
}

func TestEnsureProfile_RefreshesUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p, err := svc.EnsureProfile(ctx, "u1", "ada_l", "")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if p.Username != "ada_l" || p.LanguageCode != "en" {
		t.Errorf("expected username refreshed and language kept, got %q/%q", p.Username, p.LanguageCode)
	}
}

func TestLeaderboard_RanksActiveStreaks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _ = svc.EnsureProfile(ctx, "u2", "grace", "en")
	_, _ = svc.EnsureProfile(ctx, "u3", "idle", "en")

	_, _ = svc.SubmitReflection(ctx, "u1", answer("a"), week10)
	_, _ = svc.SubmitReflection(ctx, "u2", answer("a"), week10)
	_, _ = svc.SubmitReflection(ctx, "u2", answer("b"), week11)

	board, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].UserID != "u2" || board[0].Rank != 1 || board[1].UserID != "u1" {
		t.Errorf("unexpected leaderboard %+v", board)
	}

	st, _ := svc.Stats(ctx)
	if st.TotalUsers != 3 || st.ActiveStreaks != 2 || st.LongestCurrentStreak != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

type brokenJournal struct {
	*services.MemoryHistoryStore
}

func (brokenJournal) AddEntry(context.Context, *models.JournalEntry) error {
	return errors.New("journal down")
}

func TestSubmitReflection_JournalFailureKeepsCommittedResult(t *testing.T) {
	ctx := context.Background()
	history := brokenJournal{services.NewMemoryHistoryStore()}
	svc := services.NewProgressionService(newEngine(t), services.NewMemoryProfileStore(), history, "UTC")
	if _, err := svc.EnsureProfile(ctx, "u1", "ada", "en"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	res, err := svc.SubmitReflection(ctx, "u1", answer("still counts"), week10)
	if err != nil {
		t.Fatalf("expected success once the profile is committed, got %v", err)
	}
	if res.Duplicate || res.PointsAwarded != 50 || res.EntryID != "" {
		t.Errorf("unexpected result %+v", res)
	}

	rows, _ := history.PointsHistory(ctx, "u1", 0)
	if len(rows) != 1 || rows[0].Points != 50 {
		t.Fatalf("expected the ledger row to be written, got %+v", rows)
	}
	if rows[0].EntryID != nil {
		t.Errorf("expected no entry link without a journal row, got %v", *rows[0].EntryID)
	}
}

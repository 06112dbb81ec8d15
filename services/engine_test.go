package services_test

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"thyknow/config"
	"thyknow/models"
	"thyknow/services"
)

var (
	week10 = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	week11 = week10.AddDate(0, 0, 7)
	week12 = week10.AddDate(0, 0, 14)
)

func newEngine(t *testing.T) *services.Engine {
	t.Helper()
	return services.NewEngine(config.DefaultBalance())
}

func newProfile(t *testing.T, e *services.Engine) models.UserProfile {
	t.Helper()
	return e.NewProfile("u1", "UTC")
}

func TestNewProfile_Defaults(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	if p.CurrentStreak != 0 || p.LongestStreak != 0 || p.TotalPoints != 0 || p.LastEntryWeek != nil {
		t.Errorf("expected zero counters, got %+v", p)
	}
	if p.Level != 1 || p.PetHealth != 50 || p.PetHappiness != 50 {
		t.Errorf("unexpected defaults: level=%d health=%d happiness=%d", p.Level, p.PetHealth, p.PetHappiness)
	}
	if p.Schedule.Day != 0 || p.Schedule.Hour != 10 || !p.Schedule.Enabled {
		t.Errorf("unexpected default schedule %+v", p.Schedule)
	}
}

func TestReflection_FirstEntry(t *testing.T) {
	e := newEngine(t)
	p, tr := e.ApplyReflectionCompleted(newProfile(t, e), week10)

	if p.CurrentStreak != 1 || p.LongestStreak != 1 {
		t.Errorf("expected streak 1/1, got %d/%d", p.CurrentStreak, p.LongestStreak)
	}
	if p.TotalPoints != 50 {
		t.Errorf("expected 50 points, got %d", p.TotalPoints)
	}
	if p.LastEntryWeek == nil || *p.LastEntryWeek != "2024-W10" {
		t.Errorf("expected last entry week 2024-W10, got %v", p.LastEntryWeek)
	}
	if !tr.FirstEntry || tr.Reason() != models.ReasonWeeklyEntry {
		t.Errorf("unexpected transition %+v", tr)
	}
}

func TestReflection_SameWeekIsNoOp(t *testing.T) {
	e := newEngine(t)
	once, _ := e.ApplyReflectionCompleted(newProfile(t, e), week10)
	twice, tr := e.ApplyReflectionCompleted(once, week10.Add(48*time.Hour))

	if !tr.Duplicate {
		t.Error("expected duplicate transition")
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected identical profiles\nfirst:  %+v\nsecond: %+v", once, twice)
	}
}

func TestReflection_ConsecutiveWeekIncrements(t *testing.T) {
	e := newEngine(t)
	p, _ := e.ApplyReflectionCompleted(newProfile(t, e), week10)
	p, tr := e.ApplyReflectionCompleted(p, week11)

	if p.CurrentStreak != 2 || p.LongestStreak != 2 {
		t.Errorf("expected streak 2/2, got %d/%d", p.CurrentStreak, p.LongestStreak)
	}
	if !tr.StreakExtended || tr.Reason() != models.ReasonStreakContinuation {
		t.Errorf("unexpected transition %+v", tr)
	}
}

func TestReflection_SkippedWeekResets(t *testing.T) {
	e := newEngine(t)
	p, _ := e.ApplyReflectionCompleted(newProfile(t, e), week10)
	p, _ = e.ApplyReflectionCompleted(p, week11)
	p, tr := e.ApplyReflectionCompleted(p, week11.AddDate(0, 0, 14))

	if p.CurrentStreak != 1 {
		t.Errorf("expected streak reset to 1, got %d", p.CurrentStreak)
	}
	if p.LongestStreak != 2 {
		t.Errorf("expected longest streak 2 kept, got %d", p.LongestStreak)
	}
	if !tr.StreakBroken || tr.Reason() != models.ReasonStreakRestart {
		t.Errorf("unexpected transition %+v", tr)
	}

	// W -> W+2 directly
	q, _ := e.ApplyReflectionCompleted(newProfile(t, e), week10)
	q, _ = e.ApplyReflectionCompleted(q, week12)
	if q.CurrentStreak != 1 {
		t.Errorf("expected streak 1 after skipping a week, got %d", q.CurrentStreak)
	}
}

func TestReflection_CrossesYearBoundary(t *testing.T) {
	e := newEngine(t)
	p, _ := e.ApplyReflectionCompleted(newProfile(t, e), time.Date(2020, 12, 31, 9, 0, 0, 0, time.UTC))
	p, _ = e.ApplyReflectionCompleted(p, time.Date(2021, 1, 6, 9, 0, 0, 0, time.UTC))
	if p.CurrentStreak != 2 {
		t.Errorf("expected 2020-W53 -> 2021-W01 to extend the streak, got %d", p.CurrentStreak)
	}
}

func TestReflection_LevelUpAndNeverDown(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 60

	p, tr := e.ApplyReflectionCompleted(p, week10)
	if p.Level != 2 || !tr.LeveledUp || p.LastLevelUpAt == nil {
		t.Errorf("expected level 2 with level-up stamp, got level=%d transition=%+v", p.Level, tr)
	}

	q := newProfile(t, e)
	q.Level = 3
	q, tr = e.ApplyReflectionCompleted(q, week10)
	if q.Level != 3 || tr.LeveledUp {
		t.Errorf("expected level to stay 3, got %d", q.Level)
	}
}

func TestReflection_StreakInvariantHolds(t *testing.T) {
	e := newEngine(t)
	rng := rand.New(rand.NewSource(7))
	p := newProfile(t, e)
	now := week10
	for i := 0; i < 200; i++ {
		now = now.Add(time.Duration(rng.Intn(21*24)) * time.Hour)
		p, _ = e.ApplyReflectionCompleted(p, now)
		if p.CurrentStreak < 0 || p.CurrentStreak > p.LongestStreak {
			t.Fatalf("step %d: invariant broken, current=%d longest=%d", i, p.CurrentStreak, p.LongestStreak)
		}
	}
}

func TestCare_AppliesDeltaAndCost(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 10

	out, err := e.ApplyCareAction(p, "clean", week10)
	if err != nil {
		t.Fatalf("ApplyCareAction: %v", err)
	}
	if out.PetHealth != 55 || out.PetHappiness != 55 || out.TotalPoints != 9 {
		t.Errorf("expected 55/55/9, got %d/%d/%d", out.PetHealth, out.PetHappiness, out.TotalPoints)
	}
	if !out.CareTimes()["clean"].Equal(week10) {
		t.Errorf("expected clean timestamp %v, got %v", week10, out.CareTimes()["clean"])
	}
	if len(p.CareTimes()) != 0 || p.TotalPoints != 10 {
		t.Error("input profile was modified")
	}
}

func TestCare_Cooldown(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 10

	p, err := e.ApplyCareAction(p, "feed", week10)
	if err != nil {
		t.Fatalf("first feed: %v", err)
	}
	_, err = e.ApplyCareAction(p, "feed", week10.Add(30*time.Minute))
	var cd *services.CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	if cd.Remaining != 30*time.Minute {
		t.Errorf("expected 30m remaining, got %s", cd.Remaining)
	}

	// other actions have their own cooldown
	if _, err := e.ApplyCareAction(p, "play", week10.Add(time.Minute)); err != nil {
		t.Errorf("play should not be on cooldown: %v", err)
	}
	if _, err := e.ApplyCareAction(p, "feed", week10.Add(time.Hour)); err != nil {
		t.Errorf("feed should be available after an hour: %v", err)
	}
}

func TestCare_InsufficientPointsLeavesProfile(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)

	out, err := e.ApplyCareAction(p, "feed", week10)
	var ip *services.InsufficientPointsError
	if !errors.As(err, &ip) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if !reflect.DeepEqual(out, p) {
		t.Error("profile changed on failure")
	}
}

func TestCare_UnknownAction(t *testing.T) {
	e := newEngine(t)
	if _, err := e.ApplyCareAction(newProfile(t, e), "juggle", week10); !errors.Is(err, services.ErrUnknownCareAction) {
		t.Errorf("expected ErrUnknownCareAction, got %v", err)
	}
}

func TestCare_StatsStayClamped(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 1000
	now := week10
	for i := 0; i < 30; i++ {
		for _, a := range []string{"feed", "play", "rest", "meditate", "clean"} {
			var err error
			p, err = e.ApplyCareAction(p, a, now)
			if err != nil {
				t.Fatalf("%s: %v", a, err)
			}
			if p.PetHealth < 0 || p.PetHealth > 100 || p.PetHappiness < 0 || p.PetHappiness > 100 {
				t.Fatalf("stats out of range: %d/%d", p.PetHealth, p.PetHappiness)
			}
		}
		now = now.Add(61 * time.Minute)
	}
	if p.PetHealth != 100 || p.PetHappiness != 100 {
		t.Errorf("expected stats capped at 100, got %d/%d", p.PetHealth, p.PetHappiness)
	}
}

func TestCare_NegativeDeltaClampsAtZero(t *testing.T) {
	b := config.DefaultBalance()
	b.CareActions = append(b.CareActions, models.CareAction{ID: "scare", HappinessDelta: -80, CooldownMinutes: 0})
	e := services.NewEngine(b)
	p := e.NewProfile("u1", "UTC")

	p, err := e.ApplyCareAction(p, "scare", week10)
	if err != nil {
		t.Fatalf("scare: %v", err)
	}
	if p.PetHappiness != 0 {
		t.Errorf("expected happiness clamped to 0, got %d", p.PetHappiness)
	}
}

func TestPurchase_InsufficientPoints(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 3

	out, err := e.PurchaseAccessory(p, "explorer-hat", 5)
	var ip *services.InsufficientPointsError
	if !errors.As(err, &ip) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if ip.Required != 5 || ip.Available != 3 {
		t.Errorf("unexpected error detail %+v", ip)
	}
	if !reflect.DeepEqual(out, p) || out.TotalPoints != 3 {
		t.Error("profile changed on failure")
	}
}

func TestPurchase_AlreadyOwnedNoDoubleCharge(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.TotalPoints = 20

	p, err := e.PurchaseAccessory(p, "explorer-hat", 5)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if p.TotalPoints != 15 || !p.Owns("explorer-hat") {
		t.Errorf("expected 15 points and ownership, got %d %v", p.TotalPoints, p.OwnedAccessories)
	}

	_, err = e.PurchaseAccessory(p, "explorer-hat", 5)
	var ao *services.AlreadyOwnedError
	if !errors.As(err, &ao) {
		t.Fatalf("expected AlreadyOwnedError, got %v", err)
	}
	if p.TotalPoints != 15 {
		t.Errorf("expected no second charge, got %d", p.TotalPoints)
	}
}

func TestEquip_SingleSlotReplace(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.OwnedAccessories = []string{"hat-a"}
	p.TotalPoints = 10

	p, err := e.EquipAccessory(p, "hat-a", models.SlotHat)
	if err != nil {
		t.Fatalf("equip hat-a: %v", err)
	}
	p, err = e.PurchaseAccessory(p, "hat-b", 5)
	if err != nil {
		t.Fatalf("purchase hat-b: %v", err)
	}
	p, err = e.EquipAccessory(p, "hat-b", models.SlotHat)
	if err != nil {
		t.Fatalf("equip hat-b: %v", err)
	}

	eq := p.Equipped()
	if eq[models.SlotHat] != "hat-b" {
		t.Errorf("expected hat-b equipped, got %q", eq[models.SlotHat])
	}
	for slot, id := range eq {
		if id == "hat-a" {
			t.Errorf("hat-a leaked into slot %s", slot)
		}
	}
}

func TestEquip_NotOwned(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	_, err := e.EquipAccessory(p, "safari-hat", models.SlotHat)
	var no *services.NotOwnedError
	if !errors.As(err, &no) || no.AccessoryID != "safari-hat" {
		t.Errorf("expected NotOwnedError for safari-hat, got %v", err)
	}
	if _, err := e.EquipAccessory(p, "safari-hat", "tail"); !errors.Is(err, services.ErrSlotMismatch) {
		t.Errorf("expected ErrSlotMismatch for unknown slot, got %v", err)
	}
}

func TestUnequip(t *testing.T) {
	e := newEngine(t)
	p := newProfile(t, e)
	p.OwnedAccessories = []string{"leaf-necklace"}
	p, _ = e.EquipAccessory(p, "leaf-necklace", models.SlotNecklace)

	p, err := e.UnequipAccessory(p, models.SlotNecklace)
	if err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if _, ok := p.Equipped()[models.SlotNecklace]; ok {
		t.Error("necklace still equipped")
	}
	if !p.Owns("leaf-necklace") {
		t.Error("unequip must keep ownership")
	}
	if _, err := e.UnequipAccessory(p, models.SlotNecklace); err != nil {
		t.Errorf("unequipping an empty slot should be a no-op, got %v", err)
	}
}

func TestEquipInvariant_RandomSequence(t *testing.T) {
	e := newEngine(t)
	rng := rand.New(rand.NewSource(42))
	p := newProfile(t, e)
	p.TotalPoints = 40
	catalog := e.Balance().Accessories

	for i := 0; i < 500; i++ {
		acc := catalog[rng.Intn(len(catalog))]
		var next models.UserProfile
		var err error
		switch rng.Intn(3) {
		case 0:
			next, err = e.PurchaseAccessory(p, acc.ID, acc.Cost)
		case 1:
			next, err = e.EquipAccessory(p, acc.ID, acc.Slot)
		default:
			next, err = e.UnequipAccessory(p, acc.Slot)
		}
		if err == nil {
			p = next
		}
		if p.TotalPoints < 0 {
			t.Fatalf("step %d: negative balance %d", i, p.TotalPoints)
		}
		for slot, id := range p.Equipped() {
			if !p.Owns(id) {
				t.Fatalf("step %d: %s equipped in %s but not owned", i, id, slot)
			}
		}
	}
}

package services

import (
	"time"

	"thyknow/config"
	"thyknow/models"

	"github.com/google/uuid"
)

// Transition describes what ApplyReflectionCompleted changed.
type Transition struct {
	WeekID         string
	Duplicate      bool
	FirstEntry     bool
	StreakExtended bool
	StreakBroken   bool
	PointsAwarded  int64
	PreviousLevel  int
	LeveledUp      bool
}

// Reason maps the transition to its points ledger reason.
func (t Transition) Reason() string {
	switch {
	case t.StreakExtended:
		return models.ReasonStreakContinuation
	case t.StreakBroken:
		return models.ReasonStreakRestart
	default:
		return models.ReasonWeeklyEntry
	}
}

// Engine holds the progression rules. Every method takes a profile by value and returns a
// new one; the input is never modified.
type Engine struct {
	balance config.Balance
}

func NewEngine(b config.Balance) *Engine {
	return &Engine{balance: b}
}

func (e *Engine) Balance() config.Balance { return e.balance }

// NewProfile builds a zero-valued profile with the default schedule.
func (e *Engine) NewProfile(userID, timezone string) models.UserProfile {
	p := models.UserProfile{
		ID:           uuid.NewString(),
		UserID:       userID,
		Level:        1,
		PetHealth:    e.balance.DefaultPetHealth,
		PetHappiness: e.balance.DefaultPetHappiness,
		Schedule: models.Schedule{
			Day:      0,
			Hour:     10,
			Enabled:  true,
			Timezone: timezone,
		},
	}
	p.SetEquipped(map[string]string{})
	p.SetCareTimes(map[string]time.Time{})
	return p
}

// LevelFor is the level implied by a point total.
func (e *Engine) LevelFor(points int64) int {
	if points < 0 {
		points = 0
	}
	return int(points/e.balance.LevelThreshold) + 1
}

// ApplyReflectionCompleted advances streak, points and level for a reflection at now.
// A second reflection in the same week returns the profile unchanged.
func (e *Engine) ApplyReflectionCompleted(p models.UserProfile, now time.Time) (models.UserProfile, Transition) {
	week := CurrentWeekID(now, p.Schedule.Timezone)
	t := Transition{WeekID: week, PreviousLevel: p.Level}

	if p.LastEntryWeek != nil && IsSameWeek(*p.LastEntryWeek, week) {
		t.Duplicate = true
		return p.Clone(), t
	}

	out := p.Clone()
	switch {
	case out.LastEntryWeek == nil:
		t.FirstEntry = true
		out.CurrentStreak = 1
	case IsFollowingWeek(*out.LastEntryWeek, week):
		t.StreakExtended = true
		out.CurrentStreak++
	default:
		t.StreakBroken = out.CurrentStreak > 0
		out.CurrentStreak = 1
	}
	if out.CurrentStreak > out.LongestStreak {
		out.LongestStreak = out.CurrentStreak
	}

	out.TotalPoints += e.balance.ReflectionPoints
	out.TotalReflections++
	out.LastEntryWeek = &week
	t.PointsAwarded = e.balance.ReflectionPoints

	e.relevel(&out, now)
	t.LeveledUp = out.Level > t.PreviousLevel
	return out, t
}

// ApplyCareAction performs a care action: cooldown and balance are checked first, then the
// stat deltas are applied and clamped to [0,100] and the cost is deducted.
func (e *Engine) ApplyCareAction(p models.UserProfile, actionID string, now time.Time) (models.UserProfile, error) {
	action, ok := e.balance.CareAction(actionID)
	if !ok {
		return p, ErrUnknownCareAction
	}

	cooldown := time.Duration(action.CooldownMinutes) * time.Minute
	if last, ok := p.CareTimes()[actionID]; ok && now.Sub(last) < cooldown {
		return p, &CooldownError{
			Action:      actionID,
			AvailableAt: last.Add(cooldown),
			Remaining:   last.Add(cooldown).Sub(now),
		}
	}
	if p.TotalPoints < action.Cost {
		return p, &InsufficientPointsError{Required: action.Cost, Available: p.TotalPoints}
	}

	out := p.Clone()
	out.PetHealth = clampStat(out.PetHealth + action.HealthDelta)
	out.PetHappiness = clampStat(out.PetHappiness + action.HappinessDelta)
	out.TotalPoints -= action.Cost

	times := out.CareTimes()
	times[actionID] = now
	out.SetCareTimes(times)
	return out, nil
}

// PurchaseAccessory deducts cost and adds the accessory to the owned set.
func (e *Engine) PurchaseAccessory(p models.UserProfile, accessoryID string, cost int64) (models.UserProfile, error) {
	if p.Owns(accessoryID) {
		return p, &AlreadyOwnedError{AccessoryID: accessoryID}
	}
	if cost < 0 {
		cost = 0
	}
	if p.TotalPoints < cost {
		return p, &InsufficientPointsError{Required: cost, Available: p.TotalPoints}
	}

	out := p.Clone()
	out.TotalPoints -= cost
	out.OwnedAccessories = append(out.OwnedAccessories, accessoryID)
	return out, nil
}

// EquipAccessory places an owned accessory in slot, replacing the current occupant.
func (e *Engine) EquipAccessory(p models.UserProfile, accessoryID, slot string) (models.UserProfile, error) {
	if !models.ValidSlot(slot) {
		return p, ErrSlotMismatch
	}
	if !p.Owns(accessoryID) {
		return p, &NotOwnedError{AccessoryID: accessoryID}
	}

	out := p.Clone()
	eq := out.Equipped()
	for s, id := range eq {
		if id == accessoryID {
			delete(eq, s)
		}
	}
	eq[slot] = accessoryID
	out.SetEquipped(eq)
	return out, nil
}

// UnequipAccessory empties slot. An empty slot is left as is.
func (e *Engine) UnequipAccessory(p models.UserProfile, slot string) (models.UserProfile, error) {
	if !models.ValidSlot(slot) {
		return p, ErrSlotMismatch
	}
	out := p.Clone()
	eq := out.Equipped()
	delete(eq, slot)
	out.SetEquipped(eq)
	return out, nil
}

// relevel never lowers the level, so spends keep the level already reached.
func (e *Engine) relevel(p *models.UserProfile, now time.Time) {
	if lvl := e.LevelFor(p.TotalPoints); lvl > p.Level {
		p.Level = lvl
		at := now
		p.LastLevelUpAt = &at
	}
}

func clampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

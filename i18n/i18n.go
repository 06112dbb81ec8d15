// Package i18n renders domain outcomes as user-facing text through an x/text catalog.
package i18n

import (
	"errors"
	"math"

	"thyknow/services"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	KeyCooldown           = "error.cooldown"
	KeyInsufficientPoints = "error.insufficient_points"
	KeyAlreadyOwned       = "error.already_owned"
	KeyNotOwned           = "error.not_owned"
	KeyNotFound           = "error.not_found"
	KeyUnavailable        = "error.unavailable"
	KeyUnknownCare        = "error.unknown_care_action"
	KeyUnknownAccessory   = "error.unknown_accessory"
	KeySlotMismatch       = "error.slot_mismatch"
	KeyInvalidSchedule    = "error.invalid_schedule"
	KeyEmptyReflection    = "error.empty_reflection"
	KeyExportDisabled     = "error.export_disabled"
	KeyGeneric            = "error.generic"

	KeyReflectionFirst     = "reflection.first"
	KeyReflectionExtended  = "reflection.extended"
	KeyReflectionRestarted = "reflection.restarted"
	KeyReflectionDuplicate = "reflection.duplicate"
	KeyLevelUp             = "reflection.level_up"
	KeyCareDone            = "care.done"
	KeyPurchased           = "accessory.purchased"
	KeyEquipped            = "accessory.equipped"
	KeyUnequipped          = "accessory.unequipped"
	KeyScheduleUpdated     = "schedule.updated"
	KeyWelcome             = "start.welcome"
)

var english = map[string]string{
	KeyCooldown:           "Your companion needs a break from %s. Try again in %d minute(s).",
	KeyInsufficientPoints: "You need %d points for that, but you have %d.",
	KeyAlreadyOwned:       "You already own %s.",
	KeyNotOwned:           "You don't own %s yet. Visit the shop first!",
	KeyNotFound:           "We couldn't find your profile. Send /start to begin.",
	KeyUnavailable:        "Something went wrong on our side. Please try again in a moment.",
	KeyUnknownCare:        "That care activity doesn't exist.",
	KeyUnknownAccessory:   "That accessory doesn't exist.",
	KeySlotMismatch:       "That accessory doesn't fit there.",
	KeyInvalidSchedule:    "That schedule isn't valid. Pick a day from 0-6, an hour from 0-23 and a known timezone.",
	KeyEmptyReflection:    "Your reflection is empty. Share a few thoughts first.",
	KeyExportDisabled:     "Journal export isn't available right now.",
	KeyGeneric:            "Something went wrong. Please try again.",

	KeyReflectionFirst:     "Thank you for your first reflection! +%d points.",
	KeyReflectionExtended:  "Reflection saved! Your streak is now %d weeks. +%d points.",
	KeyReflectionRestarted: "Reflection saved! A fresh streak starts today. +%d points.",
	KeyReflectionDuplicate: "Reflection saved! You've already earned this week's points.",
	KeyLevelUp:             "Your companion reached level %d!",
	KeyCareDone:            "Done! Health %d, happiness %d.",
	KeyPurchased:           "You bought %s! %d points left.",
	KeyEquipped:            "%s equipped.",
	KeyUnequipped:          "Slot cleared.",
	KeyScheduleUpdated:     "Your weekly prompt schedule has been updated.",
	KeyWelcome:             "Welcome to ThyKnow! Your weekly reflection journey starts now.",
}

var supported = []language.Tag{language.English}

var matcher = language.NewMatcher(supported)

func init() {
	for key, msg := range english {
		_ = message.SetString(language.English, key, msg)
	}
}

// Printer returns a printer for the closest supported language to lang (a BCP 47 code such
// as Telegram's language_code). Unknown or empty codes resolve to English.
func Printer(lang string) *message.Printer {
	tag := language.English
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			_, idx, _ := matcher.Match(t)
			tag = supported[idx]
		}
	}
	return message.NewPrinter(tag)
}

// Describe turns an error from the services package into text for the user.
func Describe(p *message.Printer, err error) string {
	var (
		cooldown     *services.CooldownError
		insufficient *services.InsufficientPointsError
		owned        *services.AlreadyOwnedError
		notOwned     *services.NotOwnedError
	)
	switch {
	case errors.As(err, &cooldown):
		mins := int(math.Ceil(cooldown.Remaining.Minutes()))
		if mins < 1 {
			mins = 1
		}
		return p.Sprintf(KeyCooldown, cooldown.Action, mins)
	case errors.As(err, &insufficient):
		return p.Sprintf(KeyInsufficientPoints, insufficient.Required, insufficient.Available)
	case errors.As(err, &owned):
		return p.Sprintf(KeyAlreadyOwned, owned.AccessoryID)
	case errors.As(err, &notOwned):
		return p.Sprintf(KeyNotOwned, notOwned.AccessoryID)
	case errors.Is(err, services.ErrProfileNotFound):
		return p.Sprintf(KeyNotFound)
	case errors.Is(err, services.ErrStoreUnavailable):
		return p.Sprintf(KeyUnavailable)
	case errors.Is(err, services.ErrUnknownCareAction):
		return p.Sprintf(KeyUnknownCare)
	case errors.Is(err, services.ErrUnknownAccessory):
		return p.Sprintf(KeyUnknownAccessory)
	case errors.Is(err, services.ErrSlotMismatch):
		return p.Sprintf(KeySlotMismatch)
	case errors.Is(err, services.ErrInvalidSchedule):
		return p.Sprintf(KeyInvalidSchedule)
	case errors.Is(err, services.ErrEmptyReflection):
		return p.Sprintf(KeyEmptyReflection)
	case errors.Is(err, services.ErrExportDisabled):
		return p.Sprintf(KeyExportDisabled)
	}
	return p.Sprintf(KeyGeneric)
}

// DescribeReflection summarizes a reflection outcome.
func DescribeReflection(p *message.Printer, r services.ReflectionResult) string {
	var msg string
	switch {
	case r.Duplicate:
		return p.Sprintf(KeyReflectionDuplicate)
	case r.StreakExtended:
		msg = p.Sprintf(KeyReflectionExtended, r.Profile.CurrentStreak, r.PointsAwarded)
	case r.StreakBroken:
		msg = p.Sprintf(KeyReflectionRestarted, r.PointsAwarded)
	default:
		msg = p.Sprintf(KeyReflectionFirst, r.PointsAwarded)
	}
	if r.LeveledUp {
		msg += " " + p.Sprintf(KeyLevelUp, r.Profile.Level)
	}
	return msg
}

package handlers

import (
	"encoding/json"
	"time"

	"thyknow/i18n"
	"thyknow/middleware"
	"thyknow/models"
	"thyknow/services"

	"github.com/gofiber/fiber/v2"
)

// Event types accepted on /s/events.
const (
	EventStart      = "start"
	EventReflection = "reflection"
	EventCare       = "care"
	EventPurchase   = "purchase"
	EventEquip      = "equip"
	EventUnequip    = "unequip"
)

// Event is what the messaging layer delivers for one user action.
type Event struct {
	UserID       string          `json:"user_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Timestamp    *time.Time      `json:"timestamp"`
	Username     string          `json:"username"`
	LanguageCode string          `json:"language_code"`
}

type carePayload struct {
	Action string `json:"action"`
}

type accessoryPayload struct {
	AccessoryID string `json:"accessory_id"`
	Slot        string `json:"slot"`
}

func reflectionMessage(c *fiber.Ctx, res services.ReflectionResult) string {
	return i18n.DescribeReflection(i18n.Printer(middleware.Language(c)), res)
}

// SetupEventRoutes exposes the messaging layer's single entry point. Every event first makes
// sure the user has a profile.
func SetupEventRoutes(app *fiber.App, d Deps) {
	svc := d.Progression

	app.Post("/s/events", d.GatewayAuth, func(c *fiber.Ctx) error {
		var ev Event
		if err := c.BodyParser(&ev); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if ev.UserID == "" {
			return badRequest(c, "user_id is required", nil)
		}
		c.Locals(middleware.LocalLanguage, ev.LanguageCode)

		now := d.now()
		if ev.Timestamp != nil && !ev.Timestamp.IsZero() {
			now = *ev.Timestamp
		}
		ctx := c.UserContext()
		printer := i18n.Printer(ev.LanguageCode)

		if _, err := svc.EnsureProfile(ctx, ev.UserID, ev.Username, ev.LanguageCode); err != nil {
			return respondError(c, err)
		}

		var (
			res services.ActionResult
			msg string
			err error
		)
		switch ev.EventType {
		case EventStart:
			res.Profile, err = svc.GetProfile(ctx, ev.UserID)
			if err == nil {
				res.Achievements = services.EvaluateAchievements(res.Profile, svc.Definitions)
				res.NewlyUnlocked = []models.AchievementState{}
				msg = printer.Sprintf(i18n.KeyWelcome)
			}
		case EventReflection:
			var r services.Reflection
			if err := decodePayload(ev.Payload, &r); err != nil {
				return badRequest(c, "invalid reflection payload", err)
			}
			var rr services.ReflectionResult
			rr, err = svc.SubmitReflection(ctx, ev.UserID, r, now)
			if err == nil {
				res = services.ActionResult{Profile: rr.Profile, Achievements: rr.Achievements, NewlyUnlocked: rr.NewlyUnlocked}
				msg = i18n.DescribeReflection(printer, rr)
			}
		case EventCare:
			var p carePayload
			if err := decodePayload(ev.Payload, &p); err != nil {
				return badRequest(c, "invalid care payload", err)
			}
			res, err = svc.PerformCare(ctx, ev.UserID, p.Action, now)
			if err == nil {
				msg = printer.Sprintf(i18n.KeyCareDone, res.Profile.PetHealth, res.Profile.PetHappiness)
			}
		case EventPurchase:
			var p accessoryPayload
			if err := decodePayload(ev.Payload, &p); err != nil {
				return badRequest(c, "invalid purchase payload", err)
			}
			res, err = svc.PurchaseAccessory(ctx, ev.UserID, p.AccessoryID, now)
			if err == nil {
				msg = printer.Sprintf(i18n.KeyPurchased, p.AccessoryID, res.Profile.TotalPoints)
			}
		case EventEquip:
			var p accessoryPayload
			if err := decodePayload(ev.Payload, &p); err != nil {
				return badRequest(c, "invalid equip payload", err)
			}
			res, err = svc.EquipAccessory(ctx, ev.UserID, p.AccessoryID, p.Slot)
			if err == nil {
				msg = printer.Sprintf(i18n.KeyEquipped, p.AccessoryID)
			}
		case EventUnequip:
			var p accessoryPayload
			if err := decodePayload(ev.Payload, &p); err != nil {
				return badRequest(c, "invalid unequip payload", err)
			}
			res, err = svc.UnequipAccessory(ctx, ev.UserID, p.Slot)
			if err == nil {
				msg = printer.Sprintf(i18n.KeyUnequipped)
			}
		default:
			return badRequest(c, "unknown event_type "+ev.EventType, nil)
		}
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"profile":        res.Profile,
			"achievements":   res.Achievements,
			"newly_unlocked": res.NewlyUnlocked,
			"message":        msg,
		})
	})
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

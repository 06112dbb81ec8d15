// handlers/progression_routes.go
package handlers

import (
	"strconv"
	"time"

	"thyknow/i18n"
	"thyknow/middleware"
	"thyknow/models"
	"thyknow/services"

	"github.com/gofiber/fiber/v2"
)

// Deps carries everything the route setup needs.
type Deps struct {
	Progression *services.ProgressionService
	Export      *services.ExportService
	UserAuth    fiber.Handler
	GatewayAuth fiber.Handler
	RateLimit   fiber.Handler // optional
	Now         func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// profileView is the mini-app's profile payload.
func profileView(engine *services.Engine, p models.UserProfile, achievements []models.AchievementState) fiber.Map {
	threshold := engine.Balance().LevelThreshold
	into := p.TotalPoints % threshold
	if engine.LevelFor(p.TotalPoints) < p.Level {
		// points were spent below the level already reached
		into = 0
	}
	return fiber.Map{
		"profile":      p,
		"achievements": achievements,
		"level_progress": fiber.Map{
			"level":            p.Level,
			"points_in_level":  into,
			"points_per_level": threshold,
		},
	}
}

func SetupProgressionRoutes(app *fiber.App, d Deps) {
	chain := []fiber.Handler{d.UserAuth}
	if d.RateLimit != nil {
		chain = append(chain, d.RateLimit)
	}
	user := app.Group("/user", chain...)
	svc := d.Progression

	// First read creates the profile.
	user.Get("/profile", func(c *fiber.Ctx) error {
		p, err := svc.EnsureProfile(c.UserContext(), middleware.UserID(c), middleware.Username(c), middleware.Language(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(profileView(svc.Engine, p, services.EvaluateAchievements(p, svc.Definitions)))
	})

	user.Get("/achievements", func(c *fiber.Ctx) error {
		states, err := svc.Achievements(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(states)
	})

	user.Get("/milestones", func(c *fiber.Ctx) error {
		p, err := svc.GetProfile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(services.MilestoneProgress(p, models.StreakMilestones))
	})

	user.Post("/reflections", func(c *fiber.Ctx) error {
		var req services.Reflection
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		res, err := svc.SubmitReflection(c.UserContext(), middleware.UserID(c), req, d.now())
		if err != nil {
			return respondError(c, err)
		}
		status := fiber.StatusCreated
		if res.Duplicate {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(fiber.Map{
			"result":  res,
			"message": reflectionMessage(c, res),
		})
	})

	user.Post("/care/:action", func(c *fiber.Ctx) error {
		res, err := svc.PerformCare(c.UserContext(), middleware.UserID(c), c.Params("action"), d.now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Post("/accessories/:id/purchase", func(c *fiber.Ctx) error {
		res, err := svc.PurchaseAccessory(c.UserContext(), middleware.UserID(c), c.Params("id"), d.now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Post("/accessories/:id/equip", func(c *fiber.Ctx) error {
		var req struct {
			Slot string `json:"slot"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid JSON", err)
			}
		}
		res, err := svc.EquipAccessory(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Slot)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Delete("/accessories/slots/:slot", func(c *fiber.Ctx) error {
		res, err := svc.UnequipAccessory(c.UserContext(), middleware.UserID(c), c.Params("slot"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Put("/schedule", func(c *fiber.Ctx) error {
		var req services.ScheduleUpdate
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		p, err := svc.UpdateSchedule(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"schedule": p.Schedule,
			"message":  i18n.Printer(middleware.Language(c)).Sprintf(i18n.KeyScheduleUpdated),
		})
	})

	user.Get("/points/history", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		rows, err := svc.PointsHistory(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		if rows == nil {
			rows = []models.PointsHistory{}
		}
		return c.JSON(rows)
	})

	user.Get("/points/stream", streamPoints(svc.History, d.now))

	user.Get("/journal", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		res, err := svc.JournalHistory(c.UserContext(), middleware.UserID(c), page, size)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Post("/journal/export", func(c *fiber.Ctx) error {
		if d.Export == nil {
			return respondError(c, services.ErrExportDisabled)
		}
		res, err := d.Export.Export(c.UserContext(), middleware.UserID(c), d.now())
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})
}

package handlers

import (
	"strconv"
	"time"

	"thyknow/metrics"
	"thyknow/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupPublicRoutes registers the unauthenticated catalog, leaderboard and system routes.
func SetupPublicRoutes(app *fiber.App, d Deps) {
	svc := d.Progression
	balance := svc.Engine.Balance()

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": d.now().UTC().Format(time.RFC3339)})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/catalog/accessories", func(c *fiber.Ctx) error {
		return c.JSON(balance.Accessories)
	})
	app.Get("/catalog/care-actions", func(c *fiber.Ctx) error {
		return c.JSON(balance.CareActions)
	})
	app.Get("/catalog/achievements", func(c *fiber.Ctx) error {
		return c.JSON(svc.Definitions)
	})
	app.Get("/catalog/milestones", func(c *fiber.Ctx) error {
		return c.JSON(models.StreakMilestones)
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		entries, err := svc.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	})

	app.Get("/system/stats", func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(st)
	})
}

// RequestMetrics records handler latency per matched route.
func RequestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.HTTPDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

package handlers

import (
	"net/http"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

type AppOptions struct {
	AllowedOrigins string
	MiniAppDir     string // served under /app when it exists
}

// NewApp builds the fiber app with CORS, request metrics and every route group.
func NewApp(o AppOptions, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
		// params and headers end up in stored profiles
		Immutable: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: o.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Telegram-Init-Data, X-User-ID, X-Username, X-Language-Code",
		MaxAge:       86400,
	}))
	app.Use(RequestMetrics())

	SetupPublicRoutes(app, d)
	SetupEventRoutes(app, d)
	SetupProgressionRoutes(app, d)

	if o.MiniAppDir != "" {
		if st, err := os.Stat(o.MiniAppDir); err == nil && st.IsDir() {
			app.Use("/app", filesystem.New(filesystem.Config{
				Root:         http.Dir(o.MiniAppDir),
				Index:        "index.html",
				MaxAge:       3600,
				NotFoundFile: "index.html",
			}))
		}
	}
	return app
}

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thyknow/config"
	"thyknow/handlers"
	"thyknow/middleware"
	"thyknow/migrations"
	"thyknow/services"
	"thyknow/utils"
	"thyknow/workers"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

var (
	servePort    string
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the reminder scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return fmt.Errorf("invalid balance: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, history, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	svc := services.NewProgressionService(services.NewEngine(balance), profiles, history, cfg.DefaultTimezone)

	var objects services.ObjectStore
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			return err
		}
		objects = r2
		log.Println("✅ R2 journal export enabled")
	} else {
		log.Println("⚠️  R2 not configured, journal export disabled")
	}

	deps := handlers.Deps{
		Progression: svc,
		Export:      services.NewExportService(profiles, history, objects),
		UserAuth: middleware.UserContextMiddleware(middleware.UserContextOptions{
			BotToken:     cfg.TelegramBotToken,
			MaxAge:       time.Duration(cfg.InitDataMaxAge) * time.Second,
			ServiceToken: cfg.ServiceToken,
		}),
		GatewayAuth: middleware.GatewayAuthMiddleware(cfg.ServiceToken),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️  Redis at %s unreachable, rate limiter fails open: %v", cfg.RedisAddr, err)
		}
		deps.RateLimit = middleware.NewRateLimiter(client).Limit("user", cfg.RateLimitPerMinute, time.Minute)
		log.Printf("✅ Rate limiting /user/* to %d req/min", cfg.RateLimitPerMinute)
	}

	if cfg.MessagingWebhookURL != "" {
		sched := services.NewReminderScheduler(svc, workers.NewReminderDispatcher(cfg.MessagingWebhookURL, cfg.ServiceToken))
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
		defer sched.Stop()
		log.Println("✅ Weekly reminder scheduler running (hourly)")
	} else {
		log.Println("⚠️  MESSAGING_WEBHOOK_URL not set, reminders disabled")
	}

	app := handlers.NewApp(handlers.AppOptions{
		AllowedOrigins: cfg.Origins(),
		MiniAppDir:     cfg.MiniAppDir,
	}, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Profile store: %s", cfg.ProfileStore)
	log.Printf("✅ CORS configured for origins: %s", cfg.Origins())

	<-ctx.Done()
	log.Println("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func openStores(ctx context.Context, cfg config.Config) (services.ProfileStore, services.HistoryStore, error) {
	switch cfg.ProfileStore {
	case "memory":
		log.Println("⚠️  Using in-memory profile store, data is lost on restart")
		return services.NewMemoryProfileStore(), services.NewMemoryHistoryStore(), nil
	case "postgres", "":
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if serveMigrate {
			if _, err := migrations.NewManager(db, migrations.All()).Up(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		rp := services.RetryPolicy{
			MaxRetries: cfg.StoreMaxRetries,
			Backoff:    time.Duration(cfg.StoreRetryBackoffMS) * time.Millisecond,
		}
		return services.NewGormProfileStore(db, rp), services.NewGormHistoryStore(db, rp), nil
	}
	return nil, nil, fmt.Errorf("unknown PROFILE_STORE %q (want postgres or memory)", cfg.ProfileStore)
}

package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/project-campus/campus/internal/auth"
	"github.com/project-campus/campus/internal/config"
	"github.com/project-campus/campus/internal/identity"
	"github.com/project-campus/campus/internal/middleware"
	"github.com/project-campus/campus/internal/notification"
	"github.com/project-campus/campus/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Notifier overrides the configured delivery channel. Tests use it to read codes.
	Notifier notification.Notifier
}

// Setup configures middlewares and all auth API routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if len(d.Cfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(d.Cfg.CORSOrigins, ","),
			AllowHeaders: "Content-Type, Authorization, Idempotency-Key, X-Request-ID",
		}))
	}
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)

	var codeStore verification.Store
	if d.Cache != nil {
		codeStore = verification.NewRedisStore(d.Cache)
	} else {
		codeStore = verification.NewMemoryStore()
	}
	codeSvc := verification.NewService(codeStore, notifierFor(d), identitySvc, verification.Options{
		TTL:             d.Cfg.CodeTTL,
		ResendCooldown:  d.Cfg.CodeResendCooldown,
		MaxAttempts:     d.Cfg.CodeMaxAttempts,
		AcademicDomains: d.Cfg.AcademicDomains,
		AppName:         d.Cfg.AppName,
	})

	authSvc := auth.NewService(d.Cfg, identitySvc, codeSvc)
	authHandler := auth.NewHandler(authSvc, codeSvc, d.Logger)
	identityHandler := identity.NewHandler(identitySvc)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterIdentityRoutes(api, identityHandler)
	RegisterAuthRoutes(api, authHandler,
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit),
		middleware.JWTAuth(authSvc),
	)

	return nil
}

func notifierFor(d Deps) notification.Notifier {
	if d.Notifier != nil {
		return d.Notifier
	}
	if d.Cfg.ResendAPIKey != "" {
		return notification.NewResendNotifier(d.Cfg.ResendAPIKey, d.Cfg.MailFrom, d.Cfg.AppName)
	}
	if !d.Cfg.IsDev() {
		d.Logger.Warn("RESEND_API_KEY not set; verification codes will only be logged")
	}
	return notification.NewLoggerNotifier(d.Logger)
}

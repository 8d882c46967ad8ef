package routes

import (
    "context"
    "fmt"
    "log/slog"
    "net/http"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/adaptor"
    "github.com/gofiber/fiber/v2/middleware/logger"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/congo-pay/wallet_service/internal/config"
    "github.com/congo-pay/wallet_service/internal/metrics"
    "github.com/congo-pay/wallet_service/internal/middleware"
    "github.com/congo-pay/wallet_service/internal/notification"
    "github.com/congo-pay/wallet_service/internal/wallet"
)

const schemaTimeout = 10 * time.Second

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
    Cfg      config.Config
    DB       *pgxpool.Pool
    Cache    *redis.Client
    Logger   *slog.Logger
    Registry *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
    // Enforce DB/Redis presence outside of dev, even though config also checks.
    if !d.Cfg.IsDev() {
        if d.DB == nil {
            return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
        if d.Cache == nil {
            return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
        }
    }
    if d.Registry == nil {
        d.Registry = prometheus.NewRegistry()
    }

    // Middlewares
    app.Use(recover.New())
    app.Use(middleware.CorrelationID())
    // Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
    app.Use(logger.New(logger.Config{
        Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
        TimeFormat: "15:04:05",
        TimeZone:   "Local",
    }))
    app.Use(middleware.Audit(d.Logger))
    if d.Cache != nil {
        app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
    }

    // Health and metrics
    RegisterHealthRoutes(app, d)
    app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

    // Services and handlers
    var store wallet.Store
    if d.DB != nil {
        pg := wallet.NewPostgresStore(d.DB)
        ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
        defer cancel()
        if err := pg.EnsureSchema(ctx); err != nil {
            return err
        }
        store = pg
    } else {
        d.Logger.Warn("no database configured, wallets are kept in memory")
        store = wallet.NewMemoryStore()
    }

    collector := metrics.NewPrometheusCollector(d.Cfg.MetricsNamespace)
    if err := collector.Register(d.Registry); err != nil {
        return fmt.Errorf("register metrics: %w", err)
    }

    walletSvc := wallet.NewService(store, d.Logger,
        wallet.WithMaxRetries(d.Cfg.MaxConflictRetries),
        wallet.WithMetrics(collector),
        wallet.WithNotifier(notification.NewLoggerNotifier(d.Logger)),
    )
    walletHandler := wallet.NewHandler(walletSvc)

    // API routes
    api := app.Group("/api/v1")
    api.Get("/ping", func(c *fiber.Ctx) error {
        return c.Status(http.StatusOK).JSON(fiber.Map{
            "status":         "ok",
            "correlation_id": middleware.CorrelationIDFrom(c),
            "timestamp":      time.Now().UTC().Format(time.RFC3339Nano),
        })
    })
    RegisterWalletRoutes(api, walletHandler)

    return nil
}

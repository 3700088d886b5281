// Package app builds and runs the HTTP application.
package app

import (
	contextPkg "context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/imap-mag/magvault/pkg/cache"
	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/jobs"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/storage"
	"github.com/imap-mag/magvault/pkg/log"
	"github.com/imap-mag/magvault/pkg/metrics"
	"github.com/imap-mag/magvault/pkg/middleware"
	"github.com/imap-mag/magvault/pkg/scheduler"
	"github.com/imap-mag/magvault/pkg/tracing"
)

type App struct {
	Engine    *gin.Engine
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()
	engine := gin.New()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// The index table is small and append-heavy; migrating at startup
	// keeps a fresh deployment usable without a separate migration step.
	if err := manager.GetDBClient().GetDB().AutoMigrate(&model.File{}); err != nil {
		fmt.Printf("Error migrating index schema: %v\n", err)
		os.Exit(1)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error creating scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.GzipMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	// Latest and history lookups repeat heavily between pipeline stages;
	// cache GET responses when a kv backend is configured. Health and
	// scheduler admin must always be live.
	if kvClient := manager.GetKVClient(); kvClient != nil {
		cacheCfg := middleware.DefaultCacheConfig(cache.NewCache(kvClient))
		cacheCfg.Skipper = func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/api/v1/health") ||
				strings.HasPrefix(c.Request.URL.Path, "/api/v1/scheduler")
		}
		engine.Use(middleware.CacheMiddleware(cacheCfg))
	}

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:    engine,
		Scheduler: sched,
		config:    config,
	}
}

func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

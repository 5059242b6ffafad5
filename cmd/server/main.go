package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/api"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/catalog"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/config"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/handler"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/middleware"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/repository"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/service"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.AuthDisabled {
		log.Warn("Identity binding is disabled; any caller may report for any person")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	positionRepo := repository.NewPositionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	rollupRepo := repository.NewRollupRepository(db)

	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load reference catalog")
		}
		if err := catalogRepo.Import(ctx, c); err != nil {
			log.WithError(err).Fatal("Failed to import reference catalog")
		}
		log.WithFields(log.Fields{
			"path":       cfg.CatalogPath,
			"facilities": len(c.Facilities),
			"persons":    len(c.Persons),
		}).Info("Reference catalog imported")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	positionService := service.NewPositionService(db, positionRepo, registrationRepo, catalogRepo, service.PositionOptions{
		Ordering:      cfg.OrderingPolicy,
		Events:        cfg.EventPolicy,
		Metrics:       m,
		Location:      cfg.Location,
		MaxWindowDays: cfg.MaxWindowDays,
	})
	rollupService := service.NewRollupService(rollupRepo, catalogRepo, cfg.Location, cfg.MaxWindowDays, m)
	monitoringService := service.NewMonitoringService(positionRepo, catalogRepo, cfg.Monitoring, cfg.GeohashPrecision)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx)

	// 初始化路由
	router := api.SetupRouter(api.Dependencies{
		DB:           db,
		Positions:    handler.NewPositionHandler(positionService, m),
		Rollups:      handler.NewRollupHandler(rollupService),
		Monitoring:   handler.NewMonitoringHandler(monitoringService),
		Metrics:      m,
		Gatherer:     registry,
		Limiter:      limiter,
		JWTSecret:    cfg.JWTSecret,
		AuthDisabled: cfg.AuthDisabled,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		log.WithFields(log.Fields{
			"addr":     cfg.Port,
			"driver":   cfg.Database.Driver,
			"timezone": cfg.Location.String(),
			"ordering": cfg.OrderingPolicy,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

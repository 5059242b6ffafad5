package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alan4CS/GeoAppHospital-sub001/internal/database"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/handler"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/metrics"
	"github.com/Alan4CS/GeoAppHospital-sub001/internal/middleware"
)

// Dependencies is everything the router mounts
type Dependencies struct {
	DB         *database.DB
	Positions  *handler.PositionHandler
	Rollups    *handler.RollupHandler
	Monitoring *handler.MonitoringHandler

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics; nil disables the endpoint
	Limiter  *middleware.RateLimiter

	JWTSecret    string
	AuthDisabled bool
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(deps.Metrics))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unavailable",
					"message": "database unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Perimeter tracking API is running",
		})
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	{
		// 上报接口
		ingest := api.Group("")
		ingest.Use(middleware.RequireIdentity(deps.JWTSecret, deps.AuthDisabled))
		if deps.Limiter != nil {
			ingest.Use(middleware.RateLimit(deps.Limiter))
		}
		{
			ingest.POST("/positions", deps.Positions.Report)
			ingest.POST("/events", deps.Positions.RecordEvent)
		}

		// 看板汇总接口
		rollups := api.Group("/rollups")
		{
			rollups.GET("/unit-detail/:id", deps.Rollups.UnitDetailByID)
			rollups.GET("/:level/:id/daily", deps.Rollups.Daily)
			rollups.GET("/:level/:id/events", deps.Rollups.Events)
			rollups.GET("/:level/:id/facility-ranking", deps.Rollups.FacilityRanking)
			rollups.GET("/:level/:id/children", deps.Rollups.Children)
		}
		api.GET("/units/:level/:id/detail", deps.Rollups.UnitDetail)

		// 人员接口
		persons := api.Group("/persons")
		{
			persons.GET("/:id/position", deps.Positions.Current)
			persons.GET("/:id/history", deps.Positions.History)
		}

		// 实时监控接口
		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/positions", deps.Monitoring.Positions)
			monitoring.GET("/facilities", deps.Monitoring.Facilities)
			monitoring.GET("/settings", deps.Monitoring.Settings)
		}
	}

	return r
}

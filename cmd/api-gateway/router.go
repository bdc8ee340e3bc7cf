package main

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gwd-records-api/api/swagger"
	"github.com/noah-isme/gwd-records-api/internal/app"
	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/handler"
	"github.com/noah-isme/gwd-records-api/internal/middleware"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/pkg/config"
	"github.com/noah-isme/gwd-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gwd-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gwd-records-api/pkg/middleware/requestid"
)

func newRouter(a *app.App) *gin.Engine {
	r := gin.New()
	// File numbers such as GWD/2026/001 arrive escaped inside path segments.
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return a.DB.PingContext(ctx) },
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(a.Metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	pendingHandler := handler.NewPendingUpdateHandler(a.PendingUpdates)
	fileHandler := handler.NewFileEntryHandler(a.FileEntries)
	userHandler := handler.NewUserHandler(a.Users)
	dashboardHandler := handler.NewDashboardHandler(a.Dashboard)
	exportHandler := handler.NewExportHandler(a.Exports)

	api := r.Group(a.Config.APIPrefix)

	// Signed export links carry their own credential.
	api.GET("/exports/download/:token",
		middleware.Audit(a.Audit, a.Logger, models.AuditActionExportDownload, "exports", ""),
		exportHandler.Download,
	)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.Sessions))

	secured.GET("/dashboard", dashboardHandler.Summary)

	files := secured.Group("/files")
	files.GET("", middleware.Authorize(a.Access, authz.ObjectFiles, authz.ActionRead), fileHandler.List)
	files.GET("/search", middleware.Authorize(a.Access, authz.ObjectFiles, authz.ActionRead), fileHandler.Search)
	files.POST("", middleware.Authorize(a.Access, authz.ObjectFiles, authz.ActionWrite), fileHandler.Create)
	files.GET("/:fileNo", middleware.Authorize(a.Access, authz.ObjectFiles, authz.ActionRead), fileHandler.Get)
	files.PUT("/:fileNo", middleware.Authorize(a.Access, authz.ObjectFiles, authz.ActionWrite), fileHandler.Update)
	files.PUT("/:fileNo/sites/:siteId/supervisor", middleware.Authorize(a.Access, authz.ObjectSites, authz.ActionAssign), fileHandler.AssignSupervisor)

	secured.GET("/sites/assigned", fileHandler.AssignedSites)

	pending := secured.Group("/pending-updates")
	pending.GET("", pendingHandler.List)
	pending.GET("/stream", pendingHandler.Stream)
	pending.GET("/actionable", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionReview), pendingHandler.Actionable)
	pending.GET("/reassign", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionReview), pendingHandler.Reassign)
	pending.POST("", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionSubmit), pendingHandler.Submit)
	pending.POST("/orphans/sweep", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionSweep), pendingHandler.SweepOrphans)
	pending.GET("/:id", pendingHandler.Get)
	pending.GET("/:id/diff", pendingHandler.Diff)
	pending.POST("/:id/approve", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionReview), pendingHandler.Approve)
	pending.POST("/:id/reject", middleware.Authorize(a.Access, authz.ObjectPendingUpdates, authz.ActionReview), pendingHandler.Reject)

	users := secured.Group("/users")
	users.Use(middleware.Authorize(a.Access, authz.ObjectUsers, authz.ActionRead))
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", middleware.Authorize(a.Access, authz.ObjectUsers, authz.ActionWrite), userHandler.Create)
	users.PUT("/:id/role", middleware.Authorize(a.Access, authz.ObjectUsers, authz.ActionWrite), userHandler.ChangeRole)

	secured.POST("/exports", middleware.Authorize(a.Access, authz.ObjectExports, authz.ActionCreate), exportHandler.Create)

	return r
}

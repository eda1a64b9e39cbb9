// Package api assembles the Echo router: middleware, health probes, the
// Prometheus endpoint, and both the echo-native and Huma-registered
// handler groups.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmarchal/autocote/api/openapi"
	"github.com/tmarchal/autocote/internal/api/handlers"
	"github.com/tmarchal/autocote/internal/api/middleware"
	"github.com/tmarchal/autocote/internal/engine"
	"github.com/tmarchal/autocote/internal/store"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(st store.Store, eng *engine.Engine, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	// Operational endpoints.
	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	openapi.RegisterRoutes(e)

	// Echo-native handlers.
	g := e.Group("/api/v1")

	sh := handlers.NewSearchHandler(st, eng)
	g.GET("/searches", sh.List)
	g.POST("/searches", sh.Create)
	g.GET("/searches/:id", sh.Get)
	g.PUT("/searches/:id", sh.Update)
	g.DELETE("/searches/:id", sh.Delete)
	g.PUT("/searches/:id/active", sh.SetActive)
	g.POST("/searches/:id/refresh-market", sh.RefreshMarket)

	la := handlers.NewListingActionsHandler(st)
	g.POST("/listings", la.Ingest)
	g.PUT("/listings/:id/user-status", la.SetUserStatus)
	g.PUT("/listings/:id/favorite", la.SetFavorite)
	g.POST("/listings/:id/sold", la.MarkSold)

	rescore := handlers.NewRescoreHandler(eng)
	g.POST("/rescore", rescore.Rescore)

	// Huma-registered handlers, sharing the same Echo instance. The built-in
	// docs page is disabled in favor of the Swagger UI above.
	humaCfg := huma.DefaultConfig("autocote API", "1.0.0")
	humaCfg.DocsPath = ""
	humaAPI := humaecho.New(e, humaCfg)
	handlers.RegisterListingRoutes(humaAPI, handlers.NewListingsHandler(st))
	handlers.RegisterScoreRoutes(humaAPI, handlers.NewScoreHandler(st, eng))
	handlers.RegisterJobRoutes(humaAPI, handlers.NewJobsHandler(st))
	handlers.RegisterTriggerRoutes(humaAPI,
		handlers.NewMarketRefreshHandler(eng),
		handlers.NewArchiveHandler(eng),
	)

	return e
}

package router

import (
	"salesWarehouse/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupPipelineRoutes(api *echo.Group, handler *rest.PipelineHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	pipeline := api.Group("/pipeline")

	pipeline.POST("/run", handler.TriggerRun, authRequired, adminOnly)
	pipeline.GET("/status", handler.GetStatus, authRequired)

	etl := api.Group("/etl")
	etl.POST("/validate", handler.ValidateOrderCounts, authRequired)
}

func SetupOpsRoutes(e *echo.Echo, healthHandler *rest.HealthHandler) {
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

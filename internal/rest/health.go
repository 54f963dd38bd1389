package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	appName    string
	appVersion string
}

func NewHealthHandler(appName, appVersion string) *HealthHandler {
	return &HealthHandler{
		appName:    appName,
		appVersion: appVersion,
	}
}

func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"app":     h.appName,
		"version": h.appVersion,
	})
}

// Package http provides the HTTP server implementation for agentdesk.
package http

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/xiaot623/agentdesk/internal/config"
	"github.com/xiaot623/agentdesk/internal/service"
	v1 "github.com/xiaot623/agentdesk/internal/transport/http/v1"
	"github.com/xiaot623/agentdesk/internal/ws"
)

// NewServer creates and configures the HTTP server: relay API, chat
// gateway and, for the disk backend, the public file route.
func NewServer(svc *service.Service, wsServer *ws.Server, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	if wsServer != nil {
		e.GET("/ws", wsServer.HandleWebSocket)
	}
	if cfg.StorageBackend == config.StorageDisk {
		e.Static("/files", cfg.StorageDir)
	}

	return e
}

func logLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

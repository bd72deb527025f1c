package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/navigation/internal/stream"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, hub *stream.Hub) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		nav := api.Group("/navigation")
		nav.Post("/route", handler.PlanRoute)
		nav.Get("/vehicle-times", handler.GetVehicleTimes)

		// Session lifecycle
		nav.Post("/sessions", handler.StartSession)
		nav.Get("/sessions/:id", handler.GetSession)
		nav.Post("/sessions/:id/select", handler.SelectRoute)
		nav.Post("/sessions/:id/fixes", handler.PushFix)
		nav.Delete("/sessions/:id", handler.StopSession)

		// Emergency alerts
		api.Post("/emergency", handler.TriggerEmergency)
		api.Get("/emergency/alerts", handler.GetRecentAlerts)

		// Live session feed
		stream.RegisterRoutes(api.Group("/stream"), hub)
	}
}

package http

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/navigation/internal/domain"
	"github.com/smartcity/navigation/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	navSvc     *service.NavigationService
	vehicleSvc *service.VehicleService
	alertSvc   *service.AlertService
	repo       service.DataRepository
	validate   *validator.Validate
}

// NewHandler creates a new handler
func NewHandler(
	navSvc *service.NavigationService,
	vehicleSvc *service.VehicleService,
	alertSvc *service.AlertService,
	repo service.DataRepository,
) *Handler {
	return &Handler{
		navSvc:     navSvc,
		vehicleSvc: vehicleSvc,
		alertSvc:   alertSvc,
		repo:       repo,
		validate:   validator.New(),
	}
}

type coordinateBody struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

func (b coordinateBody) coordinate() domain.Coordinate {
	return domain.Coordinate{Lat: *b.Lat, Lng: *b.Lng}
}

type routeBody struct {
	Start   coordinateBody `json:"start"`
	End     coordinateBody `json:"end"`
	Vehicle string         `json:"vehicle" validate:"omitempty,oneof=car truck bike walk"`
}

func (b routeBody) request() domain.RouteRequest {
	v := domain.Vehicle(b.Vehicle)
	if v == "" {
		v = domain.VehicleCar
	}
	return domain.RouteRequest{Start: b.Start.coordinate(), End: b.End.coordinate(), Vehicle: v}
}

type selectBody struct {
	Index *int `json:"index" validate:"required"`
}

type fixBody struct {
	coordinateBody
	TimestampMillis int64 `json:"timestamp_ms" validate:"gte=0"`
}

// parse decodes and validates the request body into dst
func (h *Handler) parse(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	database := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		database = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":          "ok",
		"service":         "smartcity-navigation",
		"version":         "1.0.0",
		"database":        database,
		"active_sessions": h.navSvc.ActiveSessions(),
	})
}

// PlanRoute returns route alternatives without starting a session
func (h *Handler) PlanRoute(c *fiber.Ctx) error {
	var body routeBody
	if err := h.parse(c, &body); err != nil {
		return err
	}

	routes, err := h.navSvc.PlanRoute(c.Context(), body.request())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    routes,
		"count":   len(routes),
	})
}

// GetVehicleTimes compares travel times for every vehicle
func (h *Handler) GetVehicleTimes(c *fiber.Ctx) error {
	start := domain.Coordinate{Lat: c.QueryFloat("startLat", math.NaN()), Lng: c.QueryFloat("startLng", math.NaN())}
	end := domain.Coordinate{Lat: c.QueryFloat("endLat", math.NaN()), Lng: c.QueryFloat("endLng", math.NaN())}
	if !start.Valid() || !end.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "startLat, startLng, endLat and endLng are required")
	}

	times, err := h.vehicleSvc.CompareVehicles(c.Context(), start, end)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    times,
	})
}

// StartSession opens a navigation session on the best route
func (h *Handler) StartSession(c *fiber.Ctx) error {
	var body routeBody
	if err := h.parse(c, &body); err != nil {
		return err
	}

	view, err := h.navSvc.StartSession(c.Context(), body.request())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// GetSession returns the session snapshot
func (h *Handler) GetSession(c *fiber.Ctx) error {
	view, err := h.navSvc.GetSession(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// SelectRoute activates another alternative
func (h *Handler) SelectRoute(c *fiber.Ctx) error {
	var body selectBody
	if err := h.parse(c, &body); err != nil {
		return err
	}

	view, err := h.navSvc.SelectRoute(c.Context(), c.Params("id"), *body.Index)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// PushFix consumes one position fix
func (h *Handler) PushFix(c *fiber.Ctx) error {
	var body fixBody
	if err := h.parse(c, &body); err != nil {
		return err
	}

	fix := domain.Fix{Coordinate: body.coordinate(), TimestampMillis: body.TimestampMillis}
	if fix.TimestampMillis == 0 {
		fix.TimestampMillis = time.Now().UnixMilli()
	}

	update, err := h.navSvc.PushFix(c.Context(), c.Params("id"), fix)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    update,
	})
}

// StopSession ends the session
func (h *Handler) StopSession(c *fiber.Ctx) error {
	if err := h.navSvc.StopSession(c.Context(), c.Params("id")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// TriggerEmergency raises a manual emergency alert
func (h *Handler) TriggerEmergency(c *fiber.Ctx) error {
	var req domain.EmergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	alert, err := h.alertSvc.RaiseEmergency(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    alert,
	})
}

// GetRecentAlerts returns alert history within a time range
func (h *Handler) GetRecentAlerts(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	alerts, err := h.alertSvc.RecentAlerts(c.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    alerts,
		"count":   len(alerts),
	})
}

package http

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/navigation/internal/navigation"
	"github.com/smartcity/navigation/internal/service"
)

// ErrorHandler maps domain errors to HTTP status codes
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := classify(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, f := range ve {
			fields = append(fields, f.Namespace()+" failed "+f.Tag())
		}
		return fiber.StatusBadRequest, "Invalid request: " + strings.Join(fields, "; ")
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound, "Navigation session not found"
	case errors.Is(err, navigation.ErrInvalidRoute):
		return fiber.StatusUnprocessableEntity, "Route cannot be used for navigation"
	case errors.Is(err, navigation.ErrNoActiveSession):
		return fiber.StatusConflict, "No active navigation session"
	case errors.Is(err, navigation.ErrInvalidFix):
		return fiber.StatusBadRequest, "Invalid position fix"
	case errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest, "Invalid route request"
	case errors.Is(err, service.ErrMissingLocation):
		return fiber.StatusBadRequest, "Location missing"
	case errors.Is(err, service.ErrInvalidLocation):
		return fiber.StatusBadRequest, "Invalid location"
	case errors.Is(err, service.ErrRoutingUnavailable):
		return fiber.StatusBadGateway, "Routing failed"
	case errors.Is(err, service.ErrAlertDelivery):
		return fiber.StatusBadGateway, "Alert stored but delivery failed"
	default:
		return fiber.StatusInternalServerError, "Internal Server Error"
	}
}

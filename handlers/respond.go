package handlers

import (
	"errors"
	"log"
	"math"
	"strconv"

	"thyknow/i18n"
	"thyknow/middleware"
	"thyknow/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var cooldown *services.CooldownError
	var insufficient *services.InsufficientPointsError
	var owned *services.AlreadyOwnedError
	var notOwned *services.NotOwnedError
	switch {
	case errors.As(err, &cooldown), errors.As(err, &owned), errors.As(err, &notOwned):
		return fiber.StatusConflict
	case errors.As(err, &insufficient):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrUnknownCareAction),
		errors.Is(err, services.ErrUnknownAccessory):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrSlotMismatch),
		errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrEmptyReflection):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrStoreUnavailable), errors.Is(err, services.ErrExportDisabled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"error": code, "message": text, "cause": detail}.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	var cooldown *services.CooldownError
	if errors.As(err, &cooldown) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(cooldown.Remaining.Seconds()))))
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   services.ErrorCode(err),
		"message": i18n.Describe(i18n.Printer(middleware.Language(c)), err),
		"cause":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	body := fiber.Map{"error": "invalid_request", "message": msg}
	if err != nil {
		body["cause"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

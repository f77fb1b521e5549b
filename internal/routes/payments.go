package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/payments"
)

// RegisterPaymentRoutes wires transfer and donation endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, rateLimit fiber.Handler) {
	r.Post("/transfers", rateLimit, h.Transfer)
	r.Post("/donations", rateLimit, h.Donate)
}

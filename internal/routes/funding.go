package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/funding"
)

// RegisterFundingRoutes wires deposit/withdrawal endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, rateLimit fiber.Handler) {
	r.Post("/accounts/:accountId/deposits", rateLimit, h.Deposit)
	r.Post("/accounts/:accountId/withdrawals", rateLimit, h.Withdraw)
}

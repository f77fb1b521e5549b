package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/wallet"
)

// RegisterWalletRoutes wires account provisioning and read-only projections.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/accounts", h.Provision)
	r.Get("/accounts/:accountId/balance", h.Balance)
	r.Get("/accounts/:accountId/history", h.History)
	r.Get("/accounts/:accountId/stats", h.Stats)
}

// RegisterAdminRoutes wires account freeze controls. Authorizing these calls
// is the deployment's concern (they sit behind the admin gateway).
func RegisterAdminRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/accounts/:accountId/freeze", h.Freeze)
	r.Post("/accounts/:accountId/unfreeze", h.Unfreeze)
}

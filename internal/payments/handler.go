package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/money"
)

// Handler exposes transfer and donation endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	SourceAccountID string `json:"source_account_id"`
	DestAccountID   string `json:"dest_account_id"`
	Amount          int64  `json:"amount"`
	ReferenceCode   string `json:"reference_code"`
	Note            string `json:"note"`
}

type donationRequest struct {
	SourceAccountID string `json:"source_account_id"`
	TargetType      string `json:"target_type"`
	TargetID        string `json:"target_id"`
	Amount          int64  `json:"amount"`
	ReferenceCode   string `json:"reference_code"`
	Message         string `json:"message"`
}

// Transfer processes a wallet-to-wallet movement.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Transfer(c.UserContext(), TransferInput{
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		Amount:          money.FromMinorUnits(req.Amount),
		ReferenceCode:   req.ReferenceCode,
		Note:            req.Note,
	})
	return respond(c, result, err)
}

// Donate processes a donation into a prize-pool sink.
func (h *Handler) Donate(c *fiber.Ctx) error {
	var req donationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Donate(c.UserContext(), DonationInput{
		SourceAccountID: req.SourceAccountID,
		TargetType:      req.TargetType,
		TargetID:        req.TargetID,
		Amount:          money.FromMinorUnits(req.Amount),
		ReferenceCode:   req.ReferenceCode,
		Message:         req.Message,
	})
	return respond(c, result, err)
}

func respond(c *fiber.Ctx, result Result, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateReference):
			return c.Status(http.StatusOK).JSON(toResponse(result))
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, "insufficient funds")
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidOperation):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountLocked):
			return fiber.NewError(http.StatusForbidden, "account locked")
		case errors.Is(err, ledger.ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, "account not found")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

func toResponse(result Result) fiber.Map {
	return fiber.Map{
		"reference_code": result.ReferenceCode,
		"source_balance": result.SourceBalance.MinorUnits(),
		"dest_balance":   result.DestBalance.MinorUnits(),
		"source_entry": fiber.Map{
			"id":     result.SourceEntry.ID,
			"type":   result.SourceEntry.Type,
			"amount": result.SourceEntry.Amount.MinorUnits(),
		},
		"dest_entry": fiber.Map{
			"id":     result.DestEntry.ID,
			"type":   result.DestEntry.Type,
			"amount": result.DestEntry.Amount.MinorUnits(),
		},
		"completed_at": result.CompletedAt,
	}
}

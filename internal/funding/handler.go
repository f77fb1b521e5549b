package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/ledger"
)

// Handler exposes HTTP endpoints for deposits and withdrawals.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Deposit credits the account in the URL with settled funds.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := req.ResolveAmount()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Deposit(c.UserContext(), DepositInput{
		AccountID:     accountID,
		Amount:        amount,
		ReferenceCode: req.ReferenceCode,
		Note:          req.Note,
	})
	return respond(c, result, err)
}

// Withdraw debits the account in the URL.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	var req MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := req.ResolveAmount()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		AccountID:     accountID,
		Amount:        amount,
		ReferenceCode: req.ReferenceCode,
		Note:          req.Note,
	})
	return respond(c, result, err)
}

func respond(c *fiber.Ctx, result Result, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateReference):
			// Replay of an already-applied operation returns the original outcome.
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

func toResponse(result Result) MovementResponse {
	return MovementResponse{
		EntryID:          result.Entry.ID,
		Type:             result.Entry.Type,
		Status:           result.Entry.Status,
		ReferenceCode:    result.Entry.ReferenceCode,
		Amount:           result.Entry.Amount.MinorUnits(),
		AmountFormatted:  result.Entry.Amount.String(),
		Balance:          result.Balance.MinorUnits(),
		BalanceFormatted: result.Balance.String(),
	}
}

package wallet

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arena-pay/arena_pay/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type provisionRequest struct {
	OwnerID string `json:"owner_id"`
}

type accountResponse struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	Kind             string `json:"kind"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		Kind:             a.Kind,
		Balance:          a.Balance.MinorUnits(),
		BalanceFormatted: a.Balance.String(),
		Status:           a.Status,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Provision creates (or returns) the wallet account for an owner.
func (h *Handler) Provision(c *fiber.Ctx) error {
	var req provisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.Provision(c.UserContext(), req.OwnerID)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidOperation) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}

// Balance returns the current account balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	balance, err := h.service.Balance(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":        accountID,
		"balance":           balance.Amount.MinorUnits(),
		"balance_formatted": balance.Amount.String(),
		"as_of":             balance.AsOf,
	})
}

type entryResponse struct {
	ID                string `json:"id"`
	AccountID         string `json:"account_id"`
	Type              string `json:"type"`
	Amount            int64  `json:"amount"`
	AmountFormatted   string `json:"amount_formatted"`
	BalanceAfter      int64  `json:"balance_after"`
	Status            string `json:"status"`
	ReferenceCode     string `json:"reference_code"`
	CounterpartyID    string `json:"counterparty_account_id,omitempty"`
	RelatedEntityType string `json:"related_entity_type,omitempty"`
	RelatedEntityID   string `json:"related_entity_id,omitempty"`
	Note              string `json:"note,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	return entryResponse{
		ID:                e.ID,
		AccountID:         e.AccountID,
		Type:              e.Type,
		Amount:            e.Amount.MinorUnits(),
		AmountFormatted:   e.Amount.String(),
		BalanceAfter:      e.BalanceAfter.MinorUnits(),
		Status:            e.Status,
		ReferenceCode:     e.ReferenceCode,
		CounterpartyID:    e.CounterpartyAccountID,
		RelatedEntityType: e.RelatedEntityType,
		RelatedEntityID:   e.RelatedEntityID,
		Note:              e.Note,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339Nano),
	}
}

// History pages through the account's entries, newest first. Supported query
// params: from, to (RFC3339), type, page, page_size, include_failed.
func (h *Handler) History(c *fiber.Ctx) error {
	accountID := c.Params("accountId")

	filter := ledger.EntryFilter{
		Type:          c.Query("type"),
		Page:          c.QueryInt("page", 1),
		PageSize:      c.QueryInt("page_size", 0),
		IncludeFailed: c.QueryBool("include_failed", false),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid from date")
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid to date")
		}
		filter.To = to
	}

	page, err := h.service.History(c.UserContext(), accountID, filter)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]entryResponse, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, toEntryResponse(e))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"entries":   entries,
		"page":      page.Page,
		"page_size": page.PageSize,
		"total":     page.Total,
	})
}

// Stats returns income/expense aggregates for the account.
func (h *Handler) Stats(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	summary, err := h.service.Stats(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	byType := make([]fiber.Map, 0, len(summary.ByType))
	for _, tb := range summary.ByType {
		byType = append(byType, fiber.Map{
			"type":  tb.Type,
			"count": tb.Count,
			"total": tb.Total.MinorUnits(),
		})
	}
	monthly := make([]fiber.Map, 0, len(summary.Monthly))
	for _, mb := range summary.Monthly {
		monthly = append(monthly, fiber.Map{
			"year":    mb.Year,
			"month":   int(mb.Month),
			"income":  mb.Income.MinorUnits(),
			"expense": mb.Expense.MinorUnits(),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": summary.AccountID,
		"income":     summary.Income.MinorUnits(),
		"expense":    summary.Expense.MinorUnits(),
		"net":        summary.Net.MinorUnits(),
		"by_type":    byType,
		"monthly":    monthly,
	})
}

// Freeze locks the account against mutations.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	return h.setStatus(c, h.service.Freeze)
}

// Unfreeze reactivates a locked account.
func (h *Handler) Unfreeze(c *fiber.Ctx) error {
	return h.setStatus(c, h.service.Unfreeze)
}

func (h *Handler) setStatus(c *fiber.Ctx, apply func(ctx context.Context, accountID string) error) error {
	accountID := c.Params("accountId")
	if err := apply(c.UserContext(), accountID); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	account, err := h.service.Get(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(account))
}

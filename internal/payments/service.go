package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/money"
	"github.com/arena-pay/arena_pay/internal/notification"
)

// Service wires two-leg ledger postings: P2P transfers between wallets and
// donations into prize-pool sinks.
type Service struct {
	ledger   *ledger.Service
	notifier notification.Notifier
}

// NewService constructs a payments service.
func NewService(ledgerSvc *ledger.Service, notifier notification.Notifier) *Service {
	return &Service{ledger: ledgerSvc, notifier: notifier}
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	SourceAccountID string
	DestAccountID   string
	Amount          money.Amount
	ReferenceCode   string
	Note            string
}

// DonationInput captures the data needed to donate into a prize pool.
type DonationInput struct {
	SourceAccountID string
	TargetType      string
	TargetID        string
	Amount          money.Amount
	ReferenceCode   string
	Message         string
}

// Result describes the ledger outcome of a two-leg operation.
type Result struct {
	ReferenceCode string
	SourceBalance money.Amount
	DestBalance   money.Amount
	SourceEntry   ledger.Entry
	DestEntry     ledger.Entry
	CompletedAt   time.Time
}

// Transfer posts a balanced two-leg entry between two wallets and notifies
// the receiving side.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Result, error) {
	outcome, err := s.ledger.Transfer(ctx, ledger.TransferInput{
		SourceAccountID: input.SourceAccountID,
		DestAccountID:   input.DestAccountID,
		Amount:          input.Amount,
		ReferenceCode:   input.ReferenceCode,
		Note:            input.Note,
	})
	if err != nil {
		return toResult(outcome), err
	}

	result := toResult(outcome)
	if s.notifier != nil {
		dest, derr := s.ledger.GetAccount(ctx, input.DestAccountID)
		if derr == nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindTransferReceived,
				Destination: dest.OwnerID,
				Body:        fmt.Sprintf("You received %s from account %s", input.Amount, input.SourceAccountID),
			})
		}
	}
	return result, nil
}

// Donate posts a donation from a wallet into the sink for the target entity.
func (s *Service) Donate(ctx context.Context, input DonationInput) (Result, error) {
	outcome, err := s.ledger.Donate(ctx, ledger.DonationInput{
		SourceAccountID: input.SourceAccountID,
		TargetType:      input.TargetType,
		TargetID:        input.TargetID,
		Amount:          input.Amount,
		ReferenceCode:   input.ReferenceCode,
		Message:         input.Message,
	})
	if err != nil {
		return toResult(outcome), err
	}

	result := toResult(outcome)
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindDonationReceived,
			Destination: ledger.SinkOwnerID(input.TargetType, input.TargetID),
			Body:        fmt.Sprintf("Donation of %s received for %s %s", input.Amount, input.TargetType, input.TargetID),
		})
	}
	return result, nil
}

func toResult(outcome ledger.TransferOutcome) Result {
	return Result{
		ReferenceCode: outcome.ReferenceCode,
		SourceBalance: outcome.SourceBalance,
		DestBalance:   outcome.DestBalance,
		SourceEntry:   outcome.SourceEntry,
		DestEntry:     outcome.DestEntry,
		CompletedAt:   time.Now().UTC(),
	}
}

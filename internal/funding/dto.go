package funding

import (
	"fmt"

	"github.com/arena-pay/arena_pay/internal/money"
)

// MovementRequest captures user-provided data for a deposit or withdrawal.
// The amount can be supplied either in minor units or as a decimal string;
// exactly one form is required.
type MovementRequest struct {
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	ReferenceCode string `json:"reference_code"`
	Note          string `json:"note"`
}

// ResolveAmount picks the supplied amount representation and converts it to
// minor units.
func (r MovementRequest) ResolveAmount() (money.Amount, error) {
	if r.AmountDecimal != "" {
		if r.Amount != 0 {
			return 0, fmt.Errorf("provide either amount or amount_decimal, not both")
		}
		return money.Parse(r.AmountDecimal)
	}
	return money.FromMinorUnits(r.Amount), nil
}

// MovementResponse represents the API response for funding actions.
type MovementResponse struct {
	EntryID          string `json:"entry_id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	ReferenceCode    string `json:"reference_code"`
	Amount           int64  `json:"amount"`
	AmountFormatted  string `json:"amount_formatted"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
}

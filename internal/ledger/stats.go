package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/arena-pay/arena_pay/internal/money"
)

// TypeBreakdown aggregates completed entries of one type.
type TypeBreakdown struct {
	Type  string
	Count int
	Total money.Amount
}

// MonthBreakdown aggregates income and expense for one calendar month.
type MonthBreakdown struct {
	Year    int
	Month   time.Month
	Income  money.Amount
	Expense money.Amount
}

// StatsSummary is the aggregate view over an account's completed entries.
// Income counts credits, expense counts the magnitude of debits.
type StatsSummary struct {
	AccountID string
	Income    money.Amount
	Expense   money.Amount
	Net       money.Amount
	ByType    []TypeBreakdown
	Monthly   []MonthBreakdown
}

// StatsReader derives aggregates by replaying the entry log. It never reads a
// separately maintained counter, so it cannot drift from the source of truth.
type StatsReader struct {
	store Store
}

// NewStatsReader builds a read-only stats view over the store.
func NewStatsReader(store Store) *StatsReader {
	return &StatsReader{store: store}
}

// Summary computes income/expense totals plus per-type and per-month
// breakdowns for the account.
func (r *StatsReader) Summary(ctx context.Context, accountID string) (StatsSummary, error) {
	if _, err := r.store.GetAccount(ctx, accountID); err != nil {
		return StatsSummary{}, err
	}

	// PageSize 0 disables pagination so the whole log is replayed.
	page, err := r.store.ListEntries(ctx, accountID, EntryFilter{})
	if err != nil {
		return StatsSummary{}, err
	}

	summary := StatsSummary{AccountID: accountID}
	byType := make(map[string]*TypeBreakdown)
	monthly := make(map[[2]int]*MonthBreakdown)

	for _, entry := range page.Entries {
		if entry.Status != EntryStatusCompleted {
			continue
		}
		if entry.Amount.IsNegative() {
			summary.Expense += entry.Amount.Abs()
		} else {
			summary.Income += entry.Amount
		}

		tb, ok := byType[entry.Type]
		if !ok {
			tb = &TypeBreakdown{Type: entry.Type}
			byType[entry.Type] = tb
		}
		tb.Count++
		tb.Total += entry.Amount

		key := [2]int{entry.CreatedAt.Year(), int(entry.CreatedAt.Month())}
		mb, ok := monthly[key]
		if !ok {
			mb = &MonthBreakdown{Year: key[0], Month: time.Month(key[1])}
			monthly[key] = mb
		}
		if entry.Amount.IsNegative() {
			mb.Expense += entry.Amount.Abs()
		} else {
			mb.Income += entry.Amount
		}
	}
	summary.Net = summary.Income - summary.Expense

	for _, tb := range byType {
		summary.ByType = append(summary.ByType, *tb)
	}
	sort.Slice(summary.ByType, func(i, j int) bool {
		return summary.ByType[i].Type < summary.ByType[j].Type
	})

	for _, mb := range monthly {
		summary.Monthly = append(summary.Monthly, *mb)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool {
		if summary.Monthly[i].Year != summary.Monthly[j].Year {
			return summary.Monthly[i].Year < summary.Monthly[j].Year
		}
		return summary.Monthly[i].Month < summary.Monthly[j].Month
	})

	return summary, nil
}

package engine

import (
	"sort"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

// CombinePortfolio merges the ledgers of several strategy runs into a single
// portfolio ledger. Trades are ordered by entry date (ties kept in input
// order) and CapitalAfter is rebased cumulatively from the shared initial
// capital, so the combined ledger satisfies the same capital-conservation
// invariant as a single run.
func CombinePortfolio(initialCapital decimal.Decimal, ledgers ...[]types.ClosedTrade) []types.ClosedTrade {
	var combined []types.ClosedTrade
	for _, ledger := range ledgers {
		combined = append(combined, ledger...)
	}
	if len(combined) == 0 {
		return nil
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].EntryDate.Before(combined[j].EntryDate)
	})

	capital := initialCapital
	for i := range combined {
		capital = capital.Add(combined[i].Profit)
		combined[i].CapitalAfter = capital
	}
	return combined
}

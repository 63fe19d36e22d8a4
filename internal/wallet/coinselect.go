package wallet

import (
	"fmt"
	"sort"

	"github.com/sunusav/sunusav-wallet/internal/explorer"
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []explorer.UTXO // Selected UTXOs to spend.
	Total  int64           // Sum of selected input values.
	Change int64           // Change = Total - target.
}

// SelectCoins chooses UTXOs to fund a transaction of the given target
// amount (amount + expected fee). CreateTransaction spends exactly the
// set it is handed, so callers use this to trim the candidate set
// first. Two strategies are tried:
//  1. Single UTXO: the smallest single UTXO that covers the target.
//  2. Largest-first accumulation: greedily adds the largest UTXOs
//     until the target is met.
//
// Returns the strategy that produces the least change (waste).
func SelectCoins(utxos []explorer.UTXO, target int64) (*CoinSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if target <= 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	// Filter out zero-value UTXOs and sort by value ascending.
	candidates := make([]explorer.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Value > 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Value < candidates[j].Value
	})

	// Strategy 1: Single UTXO — smallest one that covers the target.
	var single *CoinSelection
	for _, u := range candidates {
		if u.Value >= target {
			single = &CoinSelection{
				Inputs: []explorer.UTXO{u},
				Total:  u.Value,
				Change: u.Value - target,
			}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: Largest-first accumulation.
	var accum *CoinSelection
	var selected []explorer.UTXO
	var total int64
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total += candidates[i].Value
		if total >= target {
			accum = &CoinSelection{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	// Pick the best result.
	switch {
	case single != nil && accum != nil:
		// Prefer whichever produces less change (less waste).
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, totalValue(candidates), target)
	}
}

func totalValue(utxos []explorer.UTXO) int64 {
	var total int64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}

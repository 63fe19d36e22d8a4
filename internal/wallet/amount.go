package wallet

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
)

// SatoshisToBTC converts satoshis to a BTC amount.
func SatoshisToBTC(satoshis int64) float64 {
	return btcutil.Amount(satoshis).ToBTC()
}

// BTCToSatoshis converts a BTC amount to satoshis, rounding to the
// nearest satoshi. The round trip BTCToSatoshis(SatoshisToBTC(n)) == n
// holds for every satoshi-denominated integer within the supply bound.
func BTCToSatoshis(btc float64) (int64, error) {
	amount, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0, fmt.Errorf("convert %v BTC: %w", btc, err)
	}
	return int64(amount), nil
}

// FormatAmount renders an amount for display: satoshis below 1 BTC,
// BTC at or above it.
func FormatAmount(satoshis int64) string {
	if satoshis < btcutil.SatoshiPerBitcoin && satoshis > -btcutil.SatoshiPerBitcoin {
		return fmt.Sprintf("%d sats", satoshis)
	}
	return strconv.FormatFloat(SatoshisToBTC(satoshis), 'f', -1, 64) + " BTC"
}

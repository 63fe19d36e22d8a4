package wallet

import (
	"math"
	"testing"
)

func TestAmountRoundTrip(t *testing.T) {
	// Every satoshi-denominated value must survive the BTC round trip.
	values := []int64{
		0,
		1,
		546,
		99_999_999,
		100_000_000,
		2_100_000_000_000_000, // total supply
	}

	for _, sats := range values {
		btc := SatoshisToBTC(sats)
		back, err := BTCToSatoshis(btc)
		if err != nil {
			t.Fatalf("BTCToSatoshis(%v): %v", btc, err)
		}
		if back != sats {
			t.Errorf("round trip %d sats -> %v BTC -> %d sats", sats, btc, back)
		}
	}
}

func TestBTCToSatoshisRejectsNonFinite(t *testing.T) {
	for _, btc := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := BTCToSatoshis(btc); err == nil {
			t.Errorf("expected error for %v BTC", btc)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		sats int64
		want string
	}{
		{0, "0 sats"},
		{546, "546 sats"},
		{99_999_999, "99999999 sats"},
		{100_000_000, "1 BTC"},
		{150_000_000, "1.5 BTC"},
		{2_100_000_000_000_000, "21000000 BTC"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.sats); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.sats, got, tt.want)
		}
	}
}

package explorer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testAddress = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"

// testServer fakes an esplora API with a fixed tip and per-path handlers.
func testServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/tip/height", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("850000"))
	})
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUTXOs(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/address/" + testAddress + "/utxo": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[
				{"txid":"aa11","vout":0,"value":100000,"status":{"confirmed":true,"block_height":849995}},
				{"txid":"bb22","vout":1,"value":50000,"status":{"confirmed":false}}
			]`))
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	utxos, err := e.UTXOs(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("UTXOs() error: %v", err)
	}
	if len(utxos) != 2 {
		t.Fatalf("got %d utxos, want 2", len(utxos))
	}

	// Sorted most-confirmed first.
	if utxos[0].TxID != "aa11" || utxos[0].Confirmations != 6 {
		t.Errorf("utxo[0] = %+v, want txid aa11 with 6 confirmations", utxos[0])
	}
	if utxos[1].TxID != "bb22" || utxos[1].Confirmations != 0 {
		t.Errorf("utxo[1] = %+v, want txid bb22 unconfirmed", utxos[1])
	}
	if utxos[0].Value != 100000 || utxos[1].Value != 50000 {
		t.Errorf("values = %d, %d", utxos[0].Value, utxos[1].Value)
	}
	if !utxos[0].Confirmed() || utxos[1].Confirmed() {
		t.Error("Confirmed() partition wrong")
	}
}

func TestUTXOsServerError(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/address/" + testAddress + "/utxo": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	_, err := e.UTXOs(context.Background(), testAddress)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("UTXOs() error = %v, want ErrNetwork", err)
	}
	// The failing address is part of the error context.
	if err == nil || !strings.Contains(err.Error(), testAddress) {
		t.Errorf("error %q does not name the address", err)
	}
}

func TestUTXOsUnreachable(t *testing.T) {
	e := NewEsplora("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := e.UTXOs(context.Background(), testAddress)
	if !errors.Is(err, ErrNetwork) && !errors.Is(err, ErrTimeout) {
		t.Errorf("UTXOs() against dead endpoint error = %v, want ErrNetwork or ErrTimeout", err)
	}
}

func TestUTXOsContextTimeout(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/address/" + testAddress + "/utxo": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		},
	})

	e := NewEsplora(srv.URL, 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The tip call may or may not hit the deadline first; either way
	// the operation must fail with a typed error, not a silent empty.
	_, err := e.UTXOs(ctx, testAddress)
	if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrNetwork) {
		t.Errorf("UTXOs() with expired context error = %v, want ErrTimeout", err)
	}
}

func TestTransactions(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/address/" + testAddress + "/txs": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[
				{"txid":"cc33","fee":1420,"size":222,"status":{"confirmed":true,"block_height":849990,"block_time":1700000000}},
				{"txid":"dd44","fee":1100,"size":141,"status":{"confirmed":false}}
			]`))
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	txs, err := e.Transactions(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("Transactions() error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d txs, want 2", len(txs))
	}
	if txs[0].TxID != "cc33" || !txs[0].Confirmed || txs[0].Fee != 1420 {
		t.Errorf("txs[0] = %+v", txs[0])
	}
	if txs[1].TxID != "dd44" || txs[1].Confirmed {
		t.Errorf("txs[1] = %+v", txs[1])
	}
}

func TestTransaction(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/tx/cc33": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"txid":"cc33","fee":1420,"size":222,"status":{"confirmed":true,"block_height":849990}}`))
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	tx, err := e.Transaction(context.Background(), "cc33")
	if err != nil {
		t.Fatalf("Transaction() error: %v", err)
	}
	if tx.TxID != "cc33" || tx.BlockHeight != 849990 {
		t.Errorf("Transaction() = %+v", tx)
	}
}

func TestFeeEstimates(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/fee-estimates": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"1":32.0,"6":12.5,"144":1.2}`))
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	estimates, err := e.FeeEstimates(context.Background())
	if err != nil {
		t.Fatalf("FeeEstimates() error: %v", err)
	}
	if estimates[6] != 12.5 {
		t.Errorf("estimates[6] = %v, want 12.5", estimates[6])
	}
	if estimates[144] != 1.2 {
		t.Errorf("estimates[144] = %v, want 1.2", estimates[144])
	}
}

func TestBroadcast(t *testing.T) {
	var received string
	srv := testServer(t, map[string]http.HandlerFunc{
		"/tx": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			received = string(body)
			w.Write([]byte("deadbeef"))
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	txid, err := e.Broadcast(context.Background(), "02000000000101ab")
	if err != nil {
		t.Fatalf("Broadcast() error: %v", err)
	}
	if txid != "deadbeef" {
		t.Errorf("Broadcast() txid = %q, want deadbeef", txid)
	}
	if received != "02000000000101ab" {
		t.Errorf("relay received %q, want the raw hex", received)
	}
}

func TestBroadcastRejected(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/tx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "sendrawtransaction RPC error: min relay fee not met", http.StatusBadRequest)
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	_, err := e.Broadcast(context.Background(), "deadbeef")
	if !errors.Is(err, ErrBroadcast) {
		t.Fatalf("Broadcast() error = %v, want ErrBroadcast", err)
	}
	if !strings.Contains(err.Error(), "min relay fee") {
		t.Errorf("relay message lost: %v", err)
	}
}

func TestTipHeight(t *testing.T) {
	srv := testServer(t, nil)

	e := NewEsplora(srv.URL, time.Second)
	tip, err := e.TipHeight(context.Background())
	if err != nil {
		t.Fatalf("TipHeight() error: %v", err)
	}
	if tip != 850000 {
		t.Errorf("TipHeight() = %d, want 850000", tip)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	srv := testServer(t, map[string]http.HandlerFunc{
		"/fee-estimates": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		},
	})

	e := NewEsplora(srv.URL, time.Second)
	ctx := context.Background()

	// Non-2xx responses return typed errors but do not trip the
	// breaker by themselves (they complete at the HTTP level); kill
	// the server to generate transport failures.
	srv.Close()
	for i := 0; i < maxFailingRequests+5; i++ {
		e.FeeEstimates(ctx)
	}

	_, err := e.FeeEstimates(ctx)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error after repeated failures = %v, want ErrNetwork", err)
	}
}

func TestMockDeterministic(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	a, err := m.UTXOs(ctx, testAddress)
	if err != nil {
		t.Fatalf("UTXOs() error: %v", err)
	}
	b, _ := m.UTXOs(ctx, testAddress)
	if a[0].TxID != b[0].TxID {
		t.Error("mock UTXOs are not deterministic")
	}
	if a[0].Confirmations == 0 || a[1].Confirmations != 0 {
		t.Error("mock should serve one confirmed and one unconfirmed output")
	}

	txid, err := m.Broadcast(ctx, "cafe")
	if err != nil {
		t.Fatalf("Broadcast() error: %v", err)
	}
	if txid == "" {
		t.Error("mock Broadcast returned empty txid")
	}
	if got := m.Broadcasted(); len(got) != 1 || got[0] != "cafe" {
		t.Errorf("Broadcasted() = %v", got)
	}
}

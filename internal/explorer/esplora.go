package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sunusav/sunusav-wallet/internal/log"
)

// Circuit breaker tuning for the esplora client.
var (
	maxFailingRequests = 10
	failingRatio       = 0.6
)

// Esplora is a Service backed by an esplora-compatible HTTP API
// (blockstream.info, mempool.space, or a self-hosted electrs).
type Esplora struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewEsplora creates an esplora client for the given base URL.
// The timeout bounds each request; callers may shorten it further
// through the context.
func NewEsplora(baseURL string, timeout time.Duration) *Esplora {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Esplora{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "esplora",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return int(counts.Requests) > maxFailingRequests && ratio >= failingRatio
			},
		}),
	}
}

// esploraUTXO is the wire format of GET /address/{addr}/utxo entries.
type esploraUTXO struct {
	TxID   string        `json:"txid"`
	Vout   uint32        `json:"vout"`
	Value  int64         `json:"value"`
	Status esploraStatus `json:"status"`
}

// esploraTx is the wire format of GET /address/{addr}/txs entries.
type esploraTx struct {
	TxID   string        `json:"txid"`
	Fee    int64         `json:"fee"`
	Size   int           `json:"size"`
	Status esploraStatus `json:"status"`
}

type esploraStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

// UTXOs fetches the unspent outputs of an address. Confirmation counts
// are computed against the current tip.
func (e *Esplora) UTXOs(ctx context.Context, address string) ([]UTXO, error) {
	tip, err := e.TipHeight(ctx)
	if err != nil {
		return nil, err
	}

	body, err := e.get(ctx, fmt.Sprintf("/address/%s/utxo", address))
	if err != nil {
		return nil, fmt.Errorf("utxos for %s: %w", address, err)
	}

	var raw []esploraUTXO
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("utxos for %s: decode: %w", address, err)
	}

	utxos := make([]UTXO, 0, len(raw))
	for _, u := range raw {
		utxos = append(utxos, UTXO{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Value:         u.Value,
			Confirmations: confirmations(tip, u.Status),
		})
	}
	sortByConfirmations(utxos)
	return utxos, nil
}

// Transactions returns recent transactions touching an address.
func (e *Esplora) Transactions(ctx context.Context, address string) ([]Tx, error) {
	body, err := e.get(ctx, fmt.Sprintf("/address/%s/txs", address))
	if err != nil {
		return nil, fmt.Errorf("transactions for %s: %w", address, err)
	}

	var raw []esploraTx
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("transactions for %s: decode: %w", address, err)
	}

	txs := make([]Tx, 0, len(raw))
	for _, t := range raw {
		txs = append(txs, Tx{
			TxID:        t.TxID,
			Fee:         t.Fee,
			Size:        t.Size,
			Confirmed:   t.Status.Confirmed,
			BlockHeight: t.Status.BlockHeight,
			BlockTime:   t.Status.BlockTime,
		})
	}
	return txs, nil
}

// Transaction returns one transaction by id.
func (e *Esplora) Transaction(ctx context.Context, txid string) (*Tx, error) {
	body, err := e.get(ctx, fmt.Sprintf("/tx/%s", txid))
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txid, err)
	}

	var raw esploraTx
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("transaction %s: decode: %w", txid, err)
	}
	return &Tx{
		TxID:        raw.TxID,
		Fee:         raw.Fee,
		Size:        raw.Size,
		Confirmed:   raw.Status.Confirmed,
		BlockHeight: raw.Status.BlockHeight,
		BlockTime:   raw.Status.BlockTime,
	}, nil
}

// FeeEstimates returns sat/vB rates keyed by confirmation target.
func (e *Esplora) FeeEstimates(ctx context.Context) (map[int]float64, error) {
	body, err := e.get(ctx, "/fee-estimates")
	if err != nil {
		return nil, fmt.Errorf("fee estimates: %w", err)
	}

	var raw map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("fee estimates: decode: %w", err)
	}

	estimates := make(map[int]float64, len(raw))
	for target, rate := range raw {
		blocks, err := strconv.Atoi(target)
		if err != nil {
			continue // non-numeric keys are not targets
		}
		estimates[blocks] = rate
	}
	return estimates, nil
}

// Broadcast submits a raw transaction in hex. The relay's response body
// is the txid on success; on rejection it carries the reason, which is
// surfaced verbatim.
func (e *Esplora) Broadcast(ctx context.Context, rawHex string) (string, error) {
	status, body, err := e.do(ctx, http.MethodPost, "/tx", strings.NewReader(rawHex))
	if err != nil {
		return "", fmt.Errorf("broadcast: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrBroadcast, strings.TrimSpace(string(body)))
	}

	txid := strings.TrimSpace(string(body))
	log.Explorer.Info().Str("txid", txid).Msg("transaction broadcast")
	return txid, nil
}

// TipHeight returns the current chain tip height.
func (e *Esplora) TipHeight(ctx context.Context) (int64, error) {
	body, err := e.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, fmt.Errorf("tip height: %w", err)
	}
	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tip height: parse %q: %w", body, err)
	}
	return height, nil
}

// get performs a GET expecting a 200 response.
func (e *Esplora) get(ctx context.Context, path string) ([]byte, error) {
	status, body, err := e.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrNetwork, status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// do performs one HTTP request through the circuit breaker and maps
// transport failures to the package's typed errors.
func (e *Esplora) do(ctx context.Context, method, path string, reqBody io.Reader) (int, []byte, error) {
	type result struct {
		status int
		body   []byte
	}

	res, err := e.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		if method == http.MethodPost {
			req.Header.Set("Content-Type", "text/plain")
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return result{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return 0, nil, e.mapTransportErr(err)
	}

	r := res.(result)
	return r.status, r.body, nil
}

// mapTransportErr folds transport failures into ErrTimeout/ErrNetwork.
func (e *Esplora) mapTransportErr(err error) error {
	switch {
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		return fmt.Errorf("%w: circuit open: %v", ErrNetwork, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// sortByConfirmations orders UTXOs oldest-first (most confirmations
// first), with unconfirmed outputs last.
func sortByConfirmations(utxos []UTXO) {
	sort.SliceStable(utxos, func(i, j int) bool {
		return utxos[i].Confirmations > utxos[j].Confirmations
	})
}

// confirmations derives a confirmation count from the tip height and a
// status entry; unconfirmed outputs report 0.
func confirmations(tip int64, status esploraStatus) int64 {
	if !status.Confirmed || status.BlockHeight <= 0 || tip < status.BlockHeight {
		return 0
	}
	return tip - status.BlockHeight + 1
}

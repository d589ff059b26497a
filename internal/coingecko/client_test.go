package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gecko-watch/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(HTTPConfig{
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
		MaxAttempts: 1,
	}, zerolog.Nop())
	return client, server
}

func TestListCoins(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/list" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin"},
			{"id":"ethereum","symbol":"eth","name":"Ethereum"}
		]`))
	}))

	ids, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "bitcoin" || ids[1] != "ethereum" {
		t.Errorf("Unexpected ids: %v", ids)
	}
}

func TestListVsCurrencies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/supported_vs_currencies" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`["usd","eur","btc"]`))
	}))

	names, err := client.ListVsCurrencies(context.Background())
	if err != nil {
		t.Fatalf("ListVsCurrencies failed: %v", err)
	}
	if len(names) != 3 || names[0] != "usd" {
		t.Errorf("Unexpected names: %v", names)
	}
}

func TestSimplePrice(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin,ethereum" {
			t.Errorf("Unexpected ids param: %s", got)
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("Unexpected vs_currencies param: %s", got)
		}
		w.Write([]byte(`{"bitcoin":{"usd":50000.5},"ethereum":{"usd":3000}}`))
	}))

	prices, err := client.SimplePrice(context.Background(), []string{"bitcoin", "ethereum"}, []string{"usd"})
	if err != nil {
		t.Fatalf("SimplePrice failed: %v", err)
	}
	if prices["bitcoin"]["usd"] != 50000.5 {
		t.Errorf("Unexpected bitcoin price: %v", prices["bitcoin"]["usd"])
	}
}

func TestMarketChartRange(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart/range" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("vs_currency") != "usd" {
			t.Errorf("Unexpected vs_currency: %s", r.URL.Query().Get("vs_currency"))
		}
		w.Write([]byte(`{"prices":[[1700000000000,37000.5],[1700003600000,37100.25]]}`))
	}))

	from := time.Unix(1700000000, 0)
	to := time.Unix(1700007200, 0)
	points, err := client.MarketChartRange(context.Background(), "bitcoin", "usd", from, to)
	if err != nil {
		t.Fatalf("MarketChartRange failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[0].Price != 37000.5 {
		t.Errorf("Unexpected first price: %v", points[0].Price)
	}
	if points[0].Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("Unexpected first timestamp: %v", points[0].Timestamp)
	}
}

func TestServerErrorMapsToTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))

	_, err := client.ListCoins(context.Background())
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}
	var transportErr *errors.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %T", err)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Unexpected status code: %d", transportErr.StatusCode)
	}
	if !errors.Is(err, errors.ErrUpstreamUnavailable) {
		t.Error("TransportError must match ErrUpstreamUnavailable")
	}
}

func TestMalformedResponseMapsToTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))

	_, err := client.ListCoins(context.Background())
	if !errors.Is(err, errors.ErrUpstreamUnavailable) {
		t.Errorf("Expected upstream error for malformed body, got %v", err)
	}
}

func TestRetryOnTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`["usd"]`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
	}, zerolog.Nop())
	// Shrink backoff so the test stays fast.
	client.retryCfg.InitialDelay = time.Millisecond
	client.retryCfg.MaxDelay = 5 * time.Millisecond

	names, err := client.ListVsCurrencies(context.Background())
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if len(names) != 1 || names[0] != "usd" {
		t.Errorf("Unexpected names: %v", names)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

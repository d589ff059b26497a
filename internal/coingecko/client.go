// Package coingecko provides a thin client for the CoinGecko REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gecko-watch/internal/errors"
	"gecko-watch/internal/logging"
	"gecko-watch/internal/models"
	"gecko-watch/pkg/utils"
)

// Client defines the upstream price provider operations the rest of the
// system consumes. All methods return a TransportError on network, HTTP
// or decode failure.
type Client interface {
	// ListCoins returns the provider identifiers of all known coins.
	ListCoins(ctx context.Context) ([]string, error)
	// ListVsCurrencies returns the names of all supported quote currencies.
	ListVsCurrencies(ctx context.Context) ([]string, error)
	// SimplePrice returns current prices as coin id -> currency -> price.
	SimplePrice(ctx context.Context, coinIDs, vsCurrencies []string) (map[string]map[string]float64, error)
	// MarketChartRange returns historical prices for one pair between two
	// instants.
	MarketChartRange(ctx context.Context, coinID, vsCurrency string, from, to time.Time) ([]models.PricePoint, error)
}

// HTTPConfig holds configuration for the HTTP client.
type HTTPConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// HTTPClient implements Client against the CoinGecko v3 API.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	retryCfg utils.RetryConfig
	logger   zerolog.Logger
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(cfg HTTPConfig, logger zerolog.Logger) *HTTPClient {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	retryCfg := utils.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}

	return &HTTPClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		retryCfg: retryCfg,
		logger:   logging.WithComponent(logger, "coingecko"),
	}
}

// coinListEntry mirrors one element of the /coins/list response.
type coinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ListCoins returns the provider identifiers of all known coins.
func (c *HTTPClient) ListCoins(ctx context.Context) ([]string, error) {
	var entries []coinListEntry
	if err := c.get(ctx, "/coins/list", nil, &entries); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != "" {
			ids = append(ids, entry.ID)
		}
	}
	return ids, nil
}

// ListVsCurrencies returns the names of all supported quote currencies.
func (c *HTTPClient) ListVsCurrencies(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, "/simple/supported_vs_currencies", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// SimplePrice returns current prices for the given coin/currency sets.
func (c *HTTPClient) SimplePrice(ctx context.Context, coinIDs, vsCurrencies []string) (map[string]map[string]float64, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(coinIDs, ","))
	params.Set("vs_currencies", strings.Join(vsCurrencies, ","))

	var prices map[string]map[string]float64
	if err := c.get(ctx, "/simple/price", params, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// marketChartResponse mirrors the /coins/{id}/market_chart/range response.
// Each price entry is a [unix_ms, price] pair.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// MarketChartRange returns historical prices for one pair.
func (c *HTTPClient) MarketChartRange(ctx context.Context, coinID, vsCurrency string, from, to time.Time) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("from", fmt.Sprintf("%d", from.Unix()))
	params.Set("to", fmt.Sprintf("%d", to.Unix()))

	endpoint := fmt.Sprintf("/coins/%s/market_chart/range", url.PathEscape(coinID))

	var chart marketChartResponse
	if err := c.get(ctx, endpoint, params, &chart); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		points = append(points, models.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])),
			Price:     pair[1],
		})
	}
	return points, nil
}

// get issues a GET request with retry and decodes the JSON response into
// out. The last attempt's error is surfaced as a TransportError.
func (c *HTTPClient) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	start := time.Now()
	body, err := utils.RetryWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		return c.doOnce(ctx, fullURL, endpoint)
	})
	logging.LogAPICall(c.logger, endpoint, time.Since(start), err)
	if err != nil {
		if _, ok := err.(*errors.TransportError); ok {
			return err
		}
		return errors.NewTransportError(endpoint, 0, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewTransportError(endpoint, 0, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *HTTPClient) doOnce(ctx context.Context, fullURL, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.NewTransportError(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTransportError(endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(endpoint, 0, err)
	}
	return body, nil
}

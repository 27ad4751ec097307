// Package gemini wraps the subset of Gemini's REST surface this
// automation consumes: the public price feed and symbol metadata, plus
// the private signed endpoints for orders, fees and trade history.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wimmeldj/gemini-dca/internal/httputil"
	"github.com/wimmeldj/gemini-dca/internal/models"
)

const (
	BaseURL        = "https://api.gemini.com"
	SandboxBaseURL = "https://api.sandbox.gemini.com"

	apiVersion = "v1"

	// mytrades caps a page at 500 rows server-side. Older fills past a
	// full page are not fetched; pagination is a known limitation.
	tradePageLimit = 500
)

var (
	// ErrPriceNotFound means the price feed had no entry for the pair.
	ErrPriceNotFound = fmt.Errorf("pair not present in price feed")

	// ErrPriceUnavailable means the feed listed the pair with a
	// degenerate (zero) price, which sandbox venues do for unsupported
	// pairs. Never a valid quote.
	ErrPriceUnavailable = fmt.Errorf("price feed reports no usable price")
)

type Config struct {
	BaseURL string
	APIKey  string
	Secret  []byte
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	signer     *Signer
	httpClient *http.Client
	oneShot    httputil.RetryConfig
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		signer:     NewSigner(cfg.Secret),
		httpClient: &http.Client{Timeout: timeout},
		// Trading calls are never retried: a transient venue failure
		// surfaces immediately to the operator.
		oneShot: httputil.RetryConfig{MaxAttempts: 1},
	}
}

func (c *Client) route(suffix string) string {
	return fmt.Sprintf("/%s/%s", apiVersion, suffix)
}

// SymbolDetails fetches the public per-pair metadata.
func (c *Client) SymbolDetails(ctx context.Context, pair string) (SymbolDetails, error) {
	var details SymbolDetails
	url := c.baseURL + c.route("symbols/details") + "/" + pair
	if err := c.getJSON(ctx, url, &details); err != nil {
		return SymbolDetails{}, fmt.Errorf("symbol details %s: %w", pair, err)
	}
	return details, nil
}

// Price fetches the full price feed and scans it for the pair. A zero
// price is surfaced as ErrPriceUnavailable, an absent pair as
// ErrPriceNotFound.
func (c *Client) Price(ctx context.Context, pair string) (models.PriceQuote, error) {
	var feed []struct {
		Pair  string          `json:"pair"`
		Price decimal.Decimal `json:"price"`
	}
	if err := c.getJSON(ctx, c.baseURL+c.route("pricefeed"), &feed); err != nil {
		return models.PriceQuote{}, fmt.Errorf("price feed: %w", err)
	}

	for _, entry := range feed {
		if entry.Pair != pair {
			continue
		}
		if !entry.Price.IsPositive() {
			return models.PriceQuote{}, fmt.Errorf("%w: %s quoted at %s", ErrPriceUnavailable, pair, entry.Price)
		}
		return models.PriceQuote{Pair: pair, Price: entry.Price, FetchedAt: time.Now()}, nil
	}
	return models.PriceQuote{}, fmt.Errorf("%w: %s", ErrPriceNotFound, pair)
}

// NewOrder submits a limit order.
func (c *Client) NewOrder(ctx context.Context, req NewOrderRequest) (OrderResponse, error) {
	route := c.route("order/new")
	payload := map[string]any{
		"request": route,
		"nonce":   c.signer.Nonce(),
		"symbol":  req.Symbol,
		"amount":  req.Amount.String(),
		"price":   req.Price.String(),
		"side":    req.Side,
		"type":    req.Type,
		"options": req.Options,
	}

	var resp OrderResponse
	if err := c.postSigned(ctx, route, payload, &resp); err != nil {
		return OrderResponse{}, fmt.Errorf("new order %s: %w", req.Symbol, err)
	}
	return resp, nil
}

// OrderStatus reads back the venue's view of an order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (OrderResponse, error) {
	route := c.route("order/status")
	payload := map[string]any{
		"request":  route,
		"nonce":    c.signer.Nonce(),
		"order_id": orderID,
	}

	var resp OrderResponse
	if err := c.postSigned(ctx, route, payload, &resp); err != nil {
		return OrderResponse{}, fmt.Errorf("order status %s: %w", orderID, err)
	}
	return resp, nil
}

// NotionalVolume fetches the account's fee schedule and 30-day volume.
func (c *Client) NotionalVolume(ctx context.Context) (FeeSchedule, error) {
	route := c.route("notionalvolume")
	payload := map[string]any{
		"request": route,
		"nonce":   c.signer.Nonce(),
	}

	var fees FeeSchedule
	if err := c.postSigned(ctx, route, payload, &fees); err != nil {
		return FeeSchedule{}, fmt.Errorf("notional volume: %w", err)
	}
	return fees, nil
}

// TradesAfter returns the pair's fills executed at or after the given
// millisecond timestamp. The second return value reports whether a full
// page came back, meaning older fills may have been dropped.
func (c *Client) TradesAfter(ctx context.Context, pair string, timestampMS int64) ([]models.Fill, bool, error) {
	route := c.route("mytrades")
	payload := map[string]any{
		"request":      route,
		"nonce":        c.signer.Nonce(),
		"symbol":       pair,
		"timestamp":    timestampMS,
		"limit_trades": tradePageLimit,
	}

	var fills []models.Fill
	if err := c.postSigned(ctx, route, payload, &fills); err != nil {
		return nil, false, fmt.Errorf("my trades %s: %w", pair, err)
	}
	for i := range fills {
		fills[i].Pair = pair
	}
	return fills, len(fills) >= tradePageLimit, nil
}

// getJSON performs an unauthenticated GET and decodes the body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := httputil.Do(ctx, c.httpClient, c.oneShot, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("venue returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// postSigned signs the payload and POSTs it as headers with an empty
// body, per the venue's private-API envelope.
func (c *Client) postSigned(ctx context.Context, route string, payload map[string]any, out any) error {
	encoded, signature, err := c.signer.Sign(payload)
	if err != nil {
		return err
	}

	resp, err := httputil.Do(ctx, c.httpClient, c.oneShot, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Content-Length", "0")
		req.Header.Set("X-GEMINI-APIKEY", c.apiKey)
		req.Header.Set("X-GEMINI-PAYLOAD", encoded)
		req.Header.Set("X-GEMINI-SIGNATURE", signature)
		req.Header.Set("Cache-Control", "no-cache")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Result  string `json:"result"`
			Reason  string `json:"reason"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Reason != "" {
			return fmt.Errorf("venue rejected request (%d %s): %s", resp.StatusCode, apiErr.Reason, apiErr.Message)
		}
		return fmt.Errorf("venue returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

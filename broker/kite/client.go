// Package kite is a minimal Kite Connect REST client covering the three
// operations the service needs: place an order, query its status, and fetch
// current holdings.
package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradegate/broker"
	"github.com/rustyeddy/tradegate/portfolio"
)

type Client struct {
	cfg  Config
	HTTP *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	return &Client{cfg: cfg}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", "token "+c.cfg.APIKey+":"+c.cfg.AccessToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("kite %s %s: http %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return b, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	form := url.Values{}
	form.Set("tradingsymbol", req.Symbol)
	form.Set("exchange", c.cfg.Exchange)
	form.Set("quantity", strconv.FormatInt(req.Quantity, 10))
	form.Set("product", c.cfg.Product)
	form.Set("validity", "DAY")
	form.Set("transaction_type", strings.ToUpper(string(req.Side)))
	if req.OrderType == "" || strings.EqualFold(req.OrderType, "MARKET") {
		form.Set("order_type", "MARKET")
	} else {
		form.Set("order_type", "LIMIT")
		form.Set("price", req.Price.String())
	}

	b, err := c.do(ctx, http.MethodPost, "/orders/"+c.cfg.Variety, form)
	if err != nil {
		return "", err
	}

	var out struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if out.Data.OrderID == "" {
		return "", fmt.Errorf("kite: empty order id in response")
	}
	return out.Data.OrderID, nil
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (broker.Order, error) {
	b, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil)
	if err != nil {
		return broker.Order{}, err
	}

	// The history endpoint returns every state transition; the last entry is
	// the current one.
	var out struct {
		Data []struct {
			OrderID         string  `json:"order_id"`
			Status          string  `json:"status"`
			TradingSymbol   string  `json:"tradingsymbol"`
			TransactionType string  `json:"transaction_type"`
			Quantity        int64   `json:"quantity"`
			AveragePrice    float64 `json:"average_price"`
			OrderTimestamp  string  `json:"order_timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return broker.Order{}, fmt.Errorf("decode order status: %w", err)
	}
	if len(out.Data) == 0 {
		return broker.Order{}, fmt.Errorf("kite: no history for order %q", orderID)
	}

	last := out.Data[len(out.Data)-1]
	side, err := portfolio.ParseSide(last.TransactionType)
	if err != nil {
		return broker.Order{}, err
	}
	o := broker.Order{
		ID:       last.OrderID,
		Symbol:   last.TradingSymbol,
		Quantity: last.Quantity,
		Price:    decimal.NewFromFloat(last.AveragePrice),
		Side:     side,
		Status:   last.Status,
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", last.OrderTimestamp); err == nil {
		o.PlacedAt = ts
	}
	return o, nil
}

func (c *Client) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	b, err := c.do(ctx, http.MethodGet, "/portfolio/holdings", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []struct {
			TradingSymbol string  `json:"tradingsymbol"`
			Quantity      int64   `json:"quantity"`
			AveragePrice  float64 `json:"average_price"`
			LastPrice     float64 `json:"last_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}

	holdings := make([]portfolio.Holding, 0, len(out.Data))
	for _, h := range out.Data {
		holdings = append(holdings, portfolio.Holding{
			Symbol:          h.TradingSymbol,
			Quantity:        h.Quantity,
			AveragePrice:    decimal.NewFromFloat(h.AveragePrice),
			LastTradedPrice: decimal.NewFromFloat(h.LastPrice),
			LastUpdated:     time.Now().UTC(),
		})
	}
	return holdings, nil
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

var (
	ErrUnexpectedStatus = errors.New("payment backend returned unexpected status")
	ErrMissingKey       = errors.New("payment backend returned an empty key")
	ErrMissingOrder     = errors.New("payment backend returned no order")
)

// Config controls how the payment backend client behaves.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the payment backend that owns the provider credentials:
// it hands out the public key, creates orders and verifies completion
// signatures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a configured Client
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("payments: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

type keyResponse struct {
	Key string `json:"key"`
}

type checkoutRequest struct {
	Amount float64 `json:"amount"`
}

type checkoutResponse struct {
	Order *struct {
		ID       string  `json:"id"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"order"`
}

type verificationResponse struct {
	Success bool `json:"success"`
}

// GetKey handles GET /api/getkey
func (c *Client) GetKey(ctx context.Context) (string, error) {
	var resp keyResponse
	if err := c.invoke(ctx, http.MethodGet, "/api/getkey", nil, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", ErrMissingKey
	}
	return resp.Key, nil
}

// CreateOrder handles POST /api/checkout. The returned order always carries
// the requested amount and INR.
func (c *Client) CreateOrder(ctx context.Context, amount float64) (*models.PaymentOrder, error) {
	var resp checkoutResponse
	if err := c.invoke(ctx, http.MethodPost, "/api/checkout", checkoutRequest{Amount: amount}, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return nil, ErrMissingOrder
	}
	c.logger.Info("payment order created", zap.String("orderId", resp.Order.ID), zap.Float64("amount", amount))
	return &models.PaymentOrder{
		ID:       resp.Order.ID,
		Amount:   amount,
		Currency: models.CurrencyINR,
	}, nil
}

// VerifyPayment handles POST /api/paymentverification
func (c *Client) VerifyPayment(ctx context.Context, result models.PaymentResult) (bool, error) {
	var resp verificationResponse
	if err := c.invoke(ctx, http.MethodPost, "/api/paymentverification", result, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("payments: marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("payments: build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payments: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("payment backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payments: decode %s response: %w", path, err)
	}
	return nil
}

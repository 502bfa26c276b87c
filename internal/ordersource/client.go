// Package ordersource fetches attendee orders from the Tech Floripa API.
package ordersource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Retry defaults: three attempts, waiting 2s then 4s.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 2 * time.Second
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("order source returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client calls the order source over HTTP.
type Client struct {
	baseURL         string
	http            *http.Client
	validate        *validatorv10.Validate
	logger          *zap.Logger
	maxAttempts     int
	initialInterval time.Duration
}

// NewClient returns a Client for baseURL. A zero timeout leaves the
// request bounded only by ctx.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:         baseURL,
		http:            &http.Client{Timeout: timeout},
		validate:        validatorv10.New(),
		logger:          logger,
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: DefaultInitialInterval,
	}
}

// FetchOrders returns the orders of productID. Network errors, 429 and 5xx
// responses are retried with exponential backoff; other failures return at
// once. Records that fail validation are logged and left out.
func (c *Client) FetchOrders(ctx context.Context, productID int64) ([]TechOrder, error) {
	endpoint := c.baseURL + "/orders?product_id=" + strconv.FormatInt(productID, 10)

	var raw []TechOrder
	attempt := 0
	op := func() error {
		attempt++
		orders, err := c.get(ctx, endpoint)
		if err != nil {
			return err
		}
		raw = orders
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("order source request failed, retrying",
			zap.Int64("product_id", productID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, c.backOff(ctx), notify); err != nil {
		c.logger.Error("order source unavailable", zap.Int64("product_id", productID), zap.Int("attempts", attempt), zap.Error(err))
		return nil, fmt.Errorf("fetch orders for product %d: %w", productID, err)
	}

	out := make([]TechOrder, 0, len(raw))
	for _, o := range raw {
		if err := c.validate.Struct(o); err != nil {
			c.logger.Warn("dropping malformed order", zap.Int64("order_id", o.OrderID), zap.Error(err))
			continue
		}
		out = append(out, o)
	}

	c.logger.Info("orders fetched",
		zap.Int64("product_id", productID),
		zap.Int("received", len(raw)),
		zap.Int("valid", len(out)),
	)
	return out, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]TechOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var orders []TechOrder
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode orders: %w", err))
	}
	return orders, nil
}

// IsStatus reports whether err carries an HTTP status code from the order
// source equal to code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

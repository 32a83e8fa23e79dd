package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

// resourcePath is the catalog resource on the backend API.
const resourcePath = "/shouhin"

// Common errors returned by catalog lookups
var (
	// ErrNotFound means the backend answered but has no entry for the
	// code (response without a NAME field counts as no entry).
	ErrNotFound = errors.New("product not registered in master data")

	// ErrUnavailable wraps transport-level failures and non-OK statuses.
	ErrUnavailable = errors.New("catalog service unavailable")
)

// Client resolves a product code against the Catalog Lookup Service.
type Client interface {
	Lookup(ctx context.Context, code string) (domain.Product, error)
}

type productPayload struct {
	PrdID       string `json:"PRD_ID"`
	Code        string `json:"CODE"`
	Name        string `json:"NAME"`
	Price       int64  `json:"PRICE"`
	PriceIncTax int64  `json:"PRICE_INC_TAX"`
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[productPayload]
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, client *http.Client, logger *zap.Logger) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[productPayload](gobreaker.Settings{
		Name: "catalog",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Lookup issues one read request for the given code. Only transport
// failures and bad statuses count against the circuit breaker; a
// well-formed "no such product" response is a successful exchange.
func (c *HTTPClient) Lookup(ctx context.Context, code string) (domain.Product, error) {
	if code == "" {
		return domain.Product{}, fmt.Errorf("code is empty")
	}

	payload, err := c.cb.Execute(func() (productPayload, error) {
		return c.fetch(ctx, code)
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if payload.Name == "" {
		return domain.Product{}, ErrNotFound
	}

	return domain.Product{
		ID:          payload.PrdID,
		Code:        payload.Code,
		Name:        payload.Name,
		Price:       payload.Price,
		PriceIncTax: payload.PriceIncTax,
	}, nil
}

func (c *HTTPClient) fetch(ctx context.Context, code string) (productPayload, error) {
	u := c.baseURL + resourcePath + "?CODE=" + url.QueryEscape(code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return productPayload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	res, err := c.client.Do(req)
	if err != nil {
		return productPayload{}, fmt.Errorf("catalog request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return productPayload{}, fmt.Errorf("catalog returned status %d", res.StatusCode)
	}

	var payload productPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return productPayload{}, fmt.Errorf("decode catalog response: %w", err)
	}
	return payload, nil
}

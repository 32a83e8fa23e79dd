package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
)

// Resources on the backend API.
const (
	headerPath = "/torihiki"
	linePath   = "/torimei"
)

var (
	// ErrHeaderRejected means the header POST came back with a bad
	// status or without a transaction identifier. Nothing was recorded.
	ErrHeaderRejected = errors.New("transaction header rejected")
)

// PartialRecordError reports a line-item failure after the header was
// accepted: the first Recorded lines of the transaction TrdID exist on
// the backend, the rest do not.
type PartialRecordError struct {
	TrdID    string
	Recorded int
	Err      error
}

func (e *PartialRecordError) Error() string {
	return fmt.Sprintf("transaction %s partially recorded (%d lines): %v", e.TrdID, e.Recorded, e.Err)
}

func (e *PartialRecordError) Unwrap() error {
	return e.Err
}

// Header is the transaction-level record sent before any line items.
type Header struct {
	DateTime    string `json:"DATETIME"` // server format, seconds precision
	EmpCD       string `json:"EMP_CD"`
	StoreCD     string `json:"STORE_CD"`
	PosNo       string `json:"POS_NO"`
	TotalAmt    int64  `json:"TOTAL_AMT"`
	TotalExTax  int64  `json:"TTL_AMT_EX_TAX"`
	TotalIncTax int64  `json:"TTL_AMT_INC_TAX"`
}

type headerResponse struct {
	TrdID string `json:"TRD_ID"`
}

type linePayload struct {
	TrdID       string `json:"TRD_ID"`
	DtlID       int    `json:"DTL_ID"`
	PrdID       string `json:"PRD_ID"`
	PrdCode     string `json:"PRD_CODE"`
	PrdName     string `json:"PRD_NAME"`
	Price       int64  `json:"PRD_PRICE"`
	PriceIncTax int64  `json:"PRD_PRICE_INC_TAX"`
}

// Recorder submits a completed cart to the Transaction Recording Service.
type Recorder interface {
	Record(ctx context.Context, header Header, lines []domain.CartLine) (string, error)
}

type Client struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*headerResponse]
	logger  *zap.Logger
}

func NewClient(baseURL string, client *http.Client, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[*headerResponse](gobreaker.Settings{
		Name: "register",
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

// Record sends the header, then every line in cart order. The header
// must yield a transaction id before any line is sent. Lines are awaited
// one by one and the sequence aborts on the first failure, so DTL_ID
// order on the backend always matches cart order.
func (c *Client) Record(ctx context.Context, header Header, lines []domain.CartLine) (string, error) {
	res, err := c.cb.Execute(func() (*headerResponse, error) {
		return c.postHeader(ctx, header)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHeaderRejected, err)
	}

	trdID := res.TrdID
	c.logger.Info("transaction header recorded",
		zap.String("trd_id", trdID),
		zap.Int("lines", len(lines)))

	for i, line := range lines {
		if err := c.postLine(ctx, trdID, line); err != nil {
			return trdID, &PartialRecordError{TrdID: trdID, Recorded: i, Err: err}
		}
	}

	return trdID, nil
}

func (c *Client) postHeader(ctx context.Context, header Header) (*headerResponse, error) {
	body, err := c.post(ctx, headerPath, header)
	if err != nil {
		return nil, err
	}

	var res headerResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode header response: %w", err)
	}
	if res.TrdID == "" {
		return nil, errors.New("header response missing TRD_ID")
	}
	return &res, nil
}

func (c *Client) postLine(ctx context.Context, trdID string, line domain.CartLine) error {
	payload := linePayload{
		TrdID:       trdID,
		DtlID:       line.Seq,
		PrdID:       line.ProductID,
		PrdCode:     line.Code,
		PrdName:     line.Name,
		Price:       line.Price,
		PriceIncTax: line.PriceIncTax,
	}
	if _, err := c.post(ctx, linePath, payload); err != nil {
		return fmt.Errorf("line %d: %w", line.Seq, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("register returned status %d", res.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf.Bytes(), nil
}

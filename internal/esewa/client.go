package esewa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrServiceUnavailable is returned when the status endpoint times out,
// cannot be reached or answers with an HTTP error. It is never a success.
var ErrServiceUnavailable = errors.New("esewa: status service unavailable")

// Status values reported by the status endpoint after normalisation.
const (
	StatusComplete = "COMPLETE"
	StatusPending  = "PENDING"
	StatusFailed   = "FAILED"
	StatusNotFound = "NOT_FOUND"
	StatusCanceled = "CANCELED"
)

// StatusResult is the normalised answer of the status endpoint.
type StatusResult struct {
	TransactionUUID string
	Status          string
	RefID           string
	TotalAmount     string
	Message         string
	// Raw holds the decoded JSON body, or nil when the body was not JSON.
	Raw map[string]any
	// RawText is set when the endpoint answered with something other than JSON.
	RawText string
}

func (r *StatusResult) IsComplete() bool {
	return r != nil && r.Status == StatusComplete
}

// IsTerminalFailure reports a definitive negative answer from the gateway.
func (r *StatusResult) IsTerminalFailure() bool {
	if r == nil {
		return false
	}
	switch r.Status {
	case StatusFailed, StatusNotFound, StatusCanceled:
		return true
	}
	return false
}

// Client talks to the eSewa status-check endpoint.
type Client struct {
	http      *resty.Client
	statusURL string
}

func NewClient(statusURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		statusURL: statusURL,
	}
}

// CheckStatus asks eSewa for the state of a transaction.
func (c *Client) CheckStatus(ctx context.Context, transactionUUID, totalAmount, productCode string) (*StatusResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"product_code":     productCode,
			"total_amount":     totalAmount,
			"transaction_uuid": transactionUUID,
		}).
		Get(c.statusURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: http %d", ErrServiceUnavailable, resp.StatusCode())
	}

	result := ParseStatusBody(resp.Body())
	if result.TransactionUUID == "" {
		result.TransactionUUID = transactionUUID
	}
	return result, nil
}

// ParseStatusBody normalises a status response. JSON bodies are read field by
// field; anything else falls back to keyword matching on the raw text.
func ParseStatusBody(body []byte) *StatusResult {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		text := strings.TrimSpace(string(body))
		return &StatusResult{
			Status:  statusFromText(text),
			RawText: text,
		}
	}

	result := &StatusResult{
		TransactionUUID: firstString(raw, "transaction_uuid"),
		RefID:           firstString(raw, "ref_id", "refId", "reference_id"),
		TotalAmount:     firstString(raw, "total_amount"),
		Message:         firstString(raw, "message", "status_message", "error_message"),
		Raw:             raw,
	}

	switch {
	case firstString(raw, "status") != "":
		result.Status = normaliseStatus(firstString(raw, "status"))
	case firstString(raw, "response_code") != "":
		result.Status = statusFromResponseCode(firstString(raw, "response_code"))
	default:
		result.Status = StatusPending
	}
	return result
}

func normaliseStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "SUCCESS", "COMPLETED":
		return StatusComplete
	case "ERROR":
		return StatusFailed
	case "CANCELLED":
		return StatusCanceled
	}
	return s
}

func statusFromResponseCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case code == "SUCCESS" || code == "100":
		return StatusComplete
	case code == "FAILED" || strings.HasPrefix(code, "4") || strings.HasPrefix(code, "5"):
		return StatusFailed
	}
	return StatusPending
}

func statusFromText(text string) string {
	// negative keywords win so that ambiguous text is never read as success
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "FAIL"), strings.Contains(upper, "ERROR"):
		return StatusFailed
	case strings.Contains(upper, "INCOMPLETE"), strings.Contains(upper, "NOT COMPLETE"):
		return StatusPending
	case strings.Contains(upper, "COMPLETE"), strings.Contains(upper, "SUCCESS"):
		return StatusComplete
	}
	return StatusPending
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

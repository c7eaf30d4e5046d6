// Package chatapi queries the HTTP API of the submitted chat server.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const MessagePath = "/api/message"

// UnreachableError means no HTTP response was received at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("GET %s unreachable: %v", MessagePath, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unsuccessful response of GET %s: %d", MessagePath, e.Code)
}

// PayloadError means the body was not a JSON array of strings.
type PayloadError struct {
	Detail string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid JSON response for GET %s: %s", MessagePath, e.Detail)
}

// IsContractViolation reports whether the server answered but broke the
// response contract.
func IsContractViolation(err error) bool {
	var statusErr *StatusError
	var payloadErr *PayloadError
	return errors.As(err, &statusErr) || errors.As(err, &payloadErr)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(port int) *Client {
	return &Client{
		BaseURL: "http://localhost:" + strconv.Itoa(port),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchMessages returns the messages the server currently exposes, oldest
// first.
func (c *Client) FetchMessages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+MessagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	return decodeMessages(body)
}

func decodeMessages(body []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &PayloadError{Detail: excerpt(trimmed)}
	}
	var msgs []string
	if err := json.Unmarshal(trimmed, &msgs); err != nil {
		return nil, &PayloadError{Detail: err.Error()}
	}
	return msgs, nil
}

func excerpt(b []byte) string {
	const maxLen = 80
	if len(b) == 0 {
		return "empty body"
	}
	if len(b) > maxLen {
		return string(b[:maxLen]) + "..."
	}
	return string(b)
}

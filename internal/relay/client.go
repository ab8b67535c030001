package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"webrelay/internal/domain"
)

const (
	clientTimeout = 10 * time.Second
	maxErrorBody  = 512
)

// Client sends backend commands over HTTP. The base URL is immutable per
// instance; an endpoint change builds a fresh Client rather than mutating
// this one, so in-flight requests to the old backend cannot be redirected.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a command client for the given HTTP base URL.
func NewClient(base string, logger *slog.Logger) *Client {
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: clientTimeout},
		logger: logger,
	}
}

// Base returns the HTTP base URL the client targets.
func (c *Client) Base() string { return c.base }

// Do submits one command. Any 2xx status is success; the response body is
// never read on success — commands are fire-and-forget and carry no
// correlated response. Non-2xx statuses wrap domain.ErrBackendStatus with
// a truncated body excerpt.
func (c *Client) Do(ctx context.Context, cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	body, err := cmd.Body()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+cmd.Path(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: HTTP %d: %s", domain.ErrBackendStatus, cmd.Kind, resp.StatusCode, excerpt)
	}
	return nil
}

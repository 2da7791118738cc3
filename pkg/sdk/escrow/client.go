// Package escrow provides a thin HTTP client for the escrow engine API. It
// carries its own view types, so consumers outside this module can name every
// request and response.
package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Client talks to a running escrow API server on behalf of one principal.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client. token is the principal's bearer token; httpClient
// may be nil to use http.DefaultClient.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
	}
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("escrow api: %d %s: %s", e.Status, e.Type, e.Detail)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Detail = resp.Status
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// CreateSession escrows the payer's funds for a new session.
func (c *Client) CreateSession(ctx context.Context, sessionID, provider, asset, amount string, durationMinutes int64, payerNonce uint64) (*Session, error) {
	payload := createSessionRequest{
		SessionID:       sessionID,
		Provider:        provider,
		Asset:           asset,
		Amount:          amount,
		DurationMinutes: durationMinutes,
		PayerNonce:      payerNonce,
	}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/escrow/sessions", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) transition(ctx context.Context, sessionID, action string) (*Session, error) {
	var out Session
	path := "/api/v1/escrow/sessions/" + url.PathEscape(sessionID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start begins the session's active clock.
func (c *Client) Start(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "start")
}

// Heartbeat refreshes the session's liveness signal.
func (c *Client) Heartbeat(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "heartbeat")
}

// Pause suspends the active clock.
func (c *Client) Pause(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "pause")
}

// Resume restarts the active clock after a pause.
func (c *Client) Resume(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "resume")
}

// Release moves the currently releasable amount to the provider.
func (c *Client) Release(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "release")
}

// AutoComplete settles a session whose auto-release delay has elapsed.
func (c *Client) AutoComplete(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "auto-complete")
}

// Cancel aborts a session that never started.
func (c *Client) Cancel(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "cancel")
}

// Expire voids a session whose start window elapsed unused.
func (c *Client) Expire(ctx context.Context, sessionID string) (*Session, error) {
	return c.transition(ctx, sessionID, "expire")
}

// Complete finalizes a session with the payer's survey.
func (c *Client) Complete(ctx context.Context, sessionID string, rating int64, feedback string) (*Session, error) {
	payload := completeSessionRequest{
		Rating:   rating,
		Feedback: feedback,
	}
	var out Session
	path := "/api/v1/escrow/sessions/" + url.PathEscape(sessionID) + "/complete"
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	path := "/api/v1/escrow/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailablePayment reports what a release call would move now.
func (c *Client) AvailablePayment(ctx context.Context, sessionID string) (*AvailablePayment, error) {
	var out AvailablePayment
	path := "/api/v1/escrow/sessions/" + url.PathEscape(sessionID) + "/available-payment"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Liveness reports the heartbeat guard state of a session.
func (c *Client) Liveness(ctx context.Context, sessionID string) (*Liveness, error) {
	var out Liveness
	path := "/api/v1/escrow/sessions/" + url.PathEscape(sessionID) + "/liveness"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Nonce reports the caller's next expected creation nonce.
func (c *Client) Nonce(ctx context.Context) (*Nonce, error) {
	var out Nonce
	if err := c.do(ctx, http.MethodGet, "/api/v1/escrow/nonce", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssetSupported reports whether an asset is allowlisted.
func (c *Client) AssetSupported(ctx context.Context, asset string) (*AssetSupport, error) {
	var out AssetSupport
	path := "/api/v1/escrow/assets/" + url.PathEscape(asset)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

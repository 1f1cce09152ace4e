package membersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// SendMagicLink asks the service to email a login link. The service answers
// the same way whether or not it knows the address.
func (c *Client) SendMagicLink(ctx context.Context, email string) error {
	body, err := json.Marshal(SendMagicLinkRequest{Email: email})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/magic/send", bytes.NewReader(body), jsonHeaders())
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}

// VerifyMagicLink redeems secret. On success the session cookie is stored in
// the client's jar and the redirect destination is returned.
func (c *Client) VerifyMagicLink(ctx context.Context, secret string) (string, error) {
	path := "/v1/auth/magic/verify?token=" + url.QueryEscape(secret)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		return "", parseErrorResponse(resp, body)
	}
	return resp.Header.Get("Location"), nil
}

// Me returns the caller's session status.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// Logout ends the current session. Logging out without a session succeeds.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}

// GetOutbox lists messages captured by the development mail driver. The
// endpoint does not exist in production.
func (c *Client) GetOutbox(ctx context.Context) (*OutboxResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/dev/outbox", nil, nil)
	if err != nil {
		return nil, err
	}

	var out OutboxResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

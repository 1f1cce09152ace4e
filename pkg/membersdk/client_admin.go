package membersdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// HeaderAdminOTP carries the admin one-time code when TOTP is enabled.
const HeaderAdminOTP = "X-Admin-OTP"

// ListUsers returns one page of users with their memberships, newest first.
// Zero page or limit lets the server pick its defaults.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*UserPageResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/v1/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out UserPageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtendMembership sets the user active for another 30 days from now.
func (c *Client) ExtendMembership(ctx context.Context, email string) (*UserResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, userPath(email, "extend"), nil, nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser sets the user inactive.
func (c *Client) DeactivateUser(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, userPath(email, "deactivate"), nil, nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}

// ResendMagicLink emails a fresh login link to an existing user.
func (c *Client) ResendMagicLink(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, userPath(email, "resend-magic"), nil, nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}

func userPath(email, action string) string {
	return "/v1/admin/users/" + url.PathEscape(email) + "/" + action
}

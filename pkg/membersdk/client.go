package membersdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the signed session reference.
const SessionCookieName = "npfa_session"

// Client talks to the membership service. It keeps the session cookie in a
// cookie jar, so a Client represents one browser-like caller.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	admin *adminCredentials
}

type adminCredentials struct {
	username string
	password string
	otp      string
}

// NewClient creates a Client for baseURL with its own cookie jar. Redirects
// are not followed so that VerifyMagicLink can report the destination.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithAdmin returns a copy of c that authenticates admin requests with HTTP
// Basic credentials and, when otp is not empty, a one-time code.
func (c *Client) WithAdmin(username, password, otp string) *Client {
	cp := *c
	cp.admin = &adminCredentials{username: username, password: password, otp: otp}
	return &cp
}

package membersdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	// Error is a stable, machine readable code such as "invalid_token".
	Error string `json:"error"`

	// ErrorDescription is a human readable description. It never carries
	// internal identifiers.
	ErrorDescription string `json:"error_description,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ============================================================================
// Webhooks
// ============================================================================

// WebhookAck acknowledges an authenticated webhook. Outcome is "accepted"
// for qualifying orders and "ignored" otherwise; the sender only looks at
// the status code.
type WebhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
}

// WebhookConfigResponse reports which webhook settings are present without
// revealing any of them.
type WebhookConfigResponse struct {
	DomainConfigured bool   `json:"domain_configured"`
	SecretConfigured bool   `json:"secret_configured"`
	SKUConfigured    bool   `json:"sku_configured"`
	Topic            string `json:"topic"`
}

// ============================================================================
// Magic links and sessions
// ============================================================================

// SendMagicLinkRequest is the body of POST /v1/auth/magic/send.
type SendMagicLinkRequest struct {
	Email string `json:"email"`
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// MeResponse is the session status. A request without a valid session is a
// normal Authenticated=false result.
type MeResponse struct {
	Authenticated bool       `json:"authenticated"`
	Entitled      bool       `json:"entitled"`
	Email         string     `json:"email,omitempty"`
	Status        string     `json:"status,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ============================================================================
// Admin
// ============================================================================

type MembershipResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	SKU        string    `json:"sku"`
	ActiveFrom time.Time `json:"active_from"`
	ActiveTo   time.Time `json:"active_to"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserResponse struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	CustomerRef string               `json:"customer_ref,omitempty"`
	Status      string               `json:"status"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Memberships []MembershipResponse `json:"memberships,omitempty"`
}

// UserPageResponse is one page of GET /v1/admin/users.
type UserPageResponse struct {
	Users []UserResponse `json:"users"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
	Pages int            `json:"pages"`
}

// ============================================================================
// Dev outbox
// ============================================================================

// OutboxMessage is a message captured by the development mail driver.
type OutboxMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxResponse lists captured messages, newest first.
type OutboxResponse struct {
	Messages []OutboxMessage `json:"messages"`
}

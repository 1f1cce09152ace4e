package membersdk

import (
	"bytes"
	"context"
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
)

const (
	HeaderWebhookSignature = "X-Shopify-Hmac-Sha256"
	HeaderWebhookDomain    = "X-Shopify-Shop-Domain"
	HeaderWebhookTopic     = "X-Shopify-Topic"

	TopicOrdersPaid = "orders/paid"
)

// SignWebhook returns the signature header value for body.
func SignWebhook(secret string, body []byte) string {
	return cryptox.SignHMACSHA256([]byte(secret), body)
}

// PostOrderWebhook delivers body as an orders/paid webhook from domain,
// signed with secret. body is sent exactly as given.
func (c *Client) PostOrderWebhook(ctx context.Context, domain, secret string, body []byte) (*WebhookAck, error) {
	return c.PostRawWebhook(ctx, body, map[string]string{
		"Content-Type":         "application/json",
		HeaderWebhookSignature: SignWebhook(secret, body),
		HeaderWebhookDomain:    domain,
		HeaderWebhookTopic:     TopicOrdersPaid,
	})
}

// PostRawWebhook delivers body with caller supplied headers.
func (c *Client) PostRawWebhook(ctx context.Context, body []byte, headers map[string]string) (*WebhookAck, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/webhooks/shopify/orders", bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}

	var ack WebhookAck
	if err := decodeJSON(resp, &ack, http.StatusOK); err != nil {
		return nil, err
	}
	return &ack, nil
}

// GetWebhookConfig reports which webhook settings the service has.
func (c *Client) GetWebhookConfig(ctx context.Context) (*WebhookConfigResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/webhooks/shopify/test", nil, nil)
	if err != nil {
		return nil, err
	}

	var cfg WebhookConfigResponse
	if err := decodeJSON(resp, &cfg, http.StatusOK); err != nil {
		return nil, err
	}
	return &cfg, nil
}

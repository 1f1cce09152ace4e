package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
)

// TopicOrdersPaid is the only webhook topic accepted.
const TopicOrdersPaid = "orders/paid"

// Header names sent by the commerce platform.
const (
	HeaderHMAC   = "X-Shopify-Hmac-Sha256"
	HeaderDomain = "X-Shopify-Shop-Domain"
	HeaderTopic  = "X-Shopify-Topic"
)

// WebhookHeaders are the claims that travel with a webhook body.
type WebhookHeaders struct {
	Signature string
	Domain    string
	Topic     string
}

// WebhookVerifier authenticates and classifies inbound order webhooks. It
// has no side effects.
type WebhookVerifier struct {
	Domain     string
	Secret     []byte
	Classifier *Classifier
}

// Verify checks raw exactly as received. The HMAC is computed over raw before
// any JSON decoding; re-encoded JSON is not byte-identical to the original.
func (v *WebhookVerifier) Verify(raw []byte, h WebhookHeaders) (domain.VerifiedOrder, error) {
	// 1. Required headers and topic
	switch {
	case strings.TrimSpace(h.Signature) == "":
		return domain.VerifiedOrder{}, fmt.Errorf("%w: missing signature", ErrMalformedRequest)
	case strings.TrimSpace(h.Domain) == "":
		return domain.VerifiedOrder{}, fmt.Errorf("%w: missing shop domain", ErrMalformedRequest)
	case strings.TrimSpace(h.Topic) == "":
		return domain.VerifiedOrder{}, fmt.Errorf("%w: missing topic", ErrMalformedRequest)
	case h.Topic != TopicOrdersPaid:
		return domain.VerifiedOrder{}, fmt.Errorf("%w: unsupported topic %q", ErrMalformedRequest, h.Topic)
	}

	// 2. Source
	if h.Domain != v.Domain {
		return domain.VerifiedOrder{}, ErrUnknownSource
	}

	// 3. Signature over the raw bytes; an unset secret never verifies
	if len(v.Secret) == 0 || !cryptox.VerifyHMACSHA256(v.Secret, raw, strings.TrimSpace(h.Signature)) {
		return domain.VerifiedOrder{}, ErrInvalidSignature
	}

	// 4. Parse only after authentication
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: body is not a JSON order: %v", ErrMalformedRequest, err)
	}
	if order.ID == "" {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: order has no id", ErrMalformedRequest)
	}

	// 5. Classify
	return domain.VerifiedOrder{
		ID:             order.ID.String(),
		Email:          order.CustomerEmail(),
		CustomerRef:    order.CustomerRef(),
		Classification: v.Classifier.Classify(order),
	}, nil
}

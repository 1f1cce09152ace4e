package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/metrics"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

// Webhook outcomes reported to metrics and in the acknowledgement.
const (
	WebhookAccepted          = "accepted"
	WebhookIgnored           = "ignored"
	WebhookRejectedMalformed = "rejected_malformed"
	WebhookRejectedSource    = "rejected_source"
	WebhookRejectedSignature = "rejected_signature"
)

// WebhookHandler ingests orders/paid webhooks. Authentication failures are
// rejected; anything after authentication is acknowledged with 200 so the
// sender does not retry, and activation runs on the executor.
type WebhookHandler struct {
	Verifier  *service.WebhookVerifier
	Activator *service.Activator
	Executor  service.Executor
	Metrics   metrics.Recorder
}

// ServeHTTP handles POST /v1/webhooks/shopify/orders.
//
//	@Summary		Ingest an orders/paid webhook
//	@Description	Verifies the HMAC-SHA256 signature over the raw body, then activates a membership for qualifying orders.
//	@Description	Every authenticated request is acknowledged with 200 regardless of the business outcome.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Shopify-Hmac-Sha256	header		string					true	"base64 HMAC-SHA256 of the raw body"
//	@Param			X-Shopify-Shop-Domain	header		string					true	"shop domain"
//	@Param			X-Shopify-Topic			header		string					true	"must be orders/paid"
//	@Success		200						{object}	membersdk.WebhookAck	"authenticated"
//	@Failure		400						{object}	membersdk.ErrorResponse	"malformed request or wrong topic"
//	@Failure		401						{object}	membersdk.ErrorResponse	"unknown source or bad signature"
//	@Router			/v1/webhooks/shopify/orders [post].
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Raw bytes, exactly as received
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.metrics().RecordWebhook(WebhookRejectedMalformed)
		log.Warn("webhook body unreadable", "error", err)
		membersdk.NewAPIError(http.StatusBadRequest, membersdk.ErrorCodeInvalidRequest, "request body unreadable or too large").WriteError(w)
		return
	}

	order, err := h.Verifier.Verify(raw, service.WebhookHeaders{
		Signature: r.Header.Get(service.HeaderHMAC),
		Domain:    r.Header.Get(service.HeaderDomain),
		Topic:     r.Header.Get(service.HeaderTopic),
	})
	switch {
	case errors.Is(err, service.ErrMalformedRequest):
		h.metrics().RecordWebhook(WebhookRejectedMalformed)
		log.Warn("webhook rejected", "reason", err.Error())
		membersdk.ErrInvalidRequest.WriteError(w)
		return
	case errors.Is(err, service.ErrUnknownSource):
		h.metrics().RecordWebhook(WebhookRejectedSource)
		log.Warn("webhook rejected: unknown source", "domain", r.Header.Get(service.HeaderDomain))
		membersdk.ErrUnknownSource.WriteError(w)
		return
	case errors.Is(err, service.ErrInvalidSignature):
		h.metrics().RecordWebhook(WebhookRejectedSignature)
		log.Warn("webhook rejected: invalid signature")
		membersdk.ErrInvalidSignature.WriteError(w)
		return
	case err != nil:
		h.metrics().RecordWebhook(WebhookRejectedMalformed)
		log.Error("webhook verification failed", "error", err)
		membersdk.ErrInvalidRequest.WriteError(w)
		return
	}

	log = log.With(slog.String("order_id", order.ID))
	cls := order.Classification

	if !cls.Qualifies() {
		h.metrics().RecordWebhook(WebhookIgnored)
		log.Info("order does not qualify", "reason", cls.Reason, "advisories", cls.Advisories)
		h.ack(w, WebhookIgnored, cls.Reason)
		return
	}
	if len(cls.Advisories) > 0 {
		log.Info("classification advisories", "advisories", cls.Advisories)
	}

	if order.Email == "" {
		h.metrics().RecordWebhook(WebhookIgnored)
		log.Warn("qualifying order has no customer email; reconcile manually", "sku", cls.MatchedSKU)
		h.ack(w, WebhookIgnored, "order has no customer email")
		return
	}

	submitErr := h.Executor.Submit(ctx, "activate_membership", func(ctx context.Context) error {
		_, err := h.Activator.Activate(ctx, order)
		return err
	})
	if submitErr != nil {
		// Already authenticated; the sender must not retry. Logged for reconciliation.
		log.Error("activation not scheduled; reconcile manually",
			slogx.Email("email", order.Email),
			slog.Any("error", submitErr),
		)
	}

	h.metrics().RecordWebhook(WebhookAccepted)
	log.Info("membership order accepted", slogx.Email("email", order.Email), "sku", cls.MatchedSKU)
	h.ack(w, WebhookAccepted, cls.Reason)
}

func (h *WebhookHandler) ack(w http.ResponseWriter, outcome, reason string) {
	httpx.WriteJSON(w, http.StatusOK, membersdk.WebhookAck{
		Received: true,
		Outcome:  outcome,
		Reason:   reason,
	})
}

func (h *WebhookHandler) metrics() metrics.Recorder {
	if h.Metrics == nil {
		return metrics.Nop{}
	}
	return h.Metrics
}

// WebhookConfigHandler godoc
//
//	@Summary		Webhook configuration probe
//	@Description	Reports which webhook settings are present. Values are never returned.
//	@Tags			Webhooks
//	@Produce		json
//	@Success		200	{object}	membersdk.WebhookConfigResponse
//	@Router			/v1/webhooks/shopify/test [get].
func WebhookConfigHandler(v *service.WebhookVerifier, sku string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := membersdk.WebhookConfigResponse{
			Topic:         service.TopicOrdersPaid,
			SKUConfigured: sku != "",
		}
		if v != nil {
			resp.DomainConfigured = v.Domain != ""
			resp.SecretConfigured = len(v.Secret) > 0
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

package http

import (
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/mail"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
)

// OutboxHandler godoc
//
//	@Summary		Development outbox
//	@Description	Lists messages captured by the log mail driver, newest first. Only registered outside production.
//	@Tags			Dev
//	@Produce		json
//	@Success		200	{object}	membersdk.OutboxResponse
//	@Router			/v1/dev/outbox [get].
func OutboxHandler(o *mail.Outbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := o.Messages()
		out := membersdk.OutboxResponse{Messages: make([]membersdk.OutboxMessage, 0, len(msgs))}
		for _, m := range msgs {
			out.Messages = append(out.Messages, membersdk.OutboxMessage{
				To:        m.To,
				Subject:   m.Subject,
				ActionURL: m.ActionURL,
				CreatedAt: m.CreatedAt,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

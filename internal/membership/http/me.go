package http

import (
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

type MeHandler struct {
	Sessions *service.SessionService
	Cookie   CookieConfig
}

// ServeHTTP handles GET /v1/me.
//
//	@Summary		Session status
//	@Description	Reports whether the caller is signed in and entitled right now. A missing session is a normal authenticated=false answer.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	membersdk.MeResponse
//	@Failure		500	{object}	membersdk.ErrorResponse	"internal server error"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := h.Sessions.Status(ctx, h.Cookie.read(r))
	if err != nil {
		slogx.FromContext(ctx).Error("session status failed", "error", err)
		membersdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, membersdk.MeResponse{
		Authenticated: st.Authenticated,
		Entitled:      st.Entitled,
		Email:         st.Email,
		Status:        string(st.Status),
		ExpiresAt:     st.ExpiresAt,
	})
}

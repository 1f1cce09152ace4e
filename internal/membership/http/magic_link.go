package http

import (
	"errors"
	"net/http"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

const maxMagicLinkBody = 4 << 10

// MagicLinkHandler issues and redeems login links.
type MagicLinkHandler struct {
	Tokens       *service.TokenService
	Sessions     *service.SessionService
	Cookie       CookieConfig
	DashboardURL string
}

// HandleSend handles POST /v1/auth/magic/send
//
//	@Summary		Request a login link
//	@Description	Emails a single-use login link valid for 15 minutes. The answer is the same whether or not the address is known.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		membersdk.SendMagicLinkRequest	true	"email address"
//	@Success		200		{object}	membersdk.MessageResponse
//	@Failure		400		{object}	membersdk.ErrorResponse	"invalid email"
//	@Router			/v1/auth/magic/send [post].
func (h *MagicLinkHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req membersdk.SendMagicLinkRequest
	if err := httpx.DecodeJSON(r, &req, maxMagicLinkBody); err != nil {
		membersdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.Tokens.Send(ctx, req.Email)
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		membersdk.ErrInvalidEmail.WriteError(w)
		return
	case err != nil:
		// Same answer as success so the response never reveals anything.
		log.Error("magic link send failed", "error", err)
	}

	httpx.WriteJSON(w, http.StatusOK, membersdk.MessageResponse{
		Message: "If the address is registered, a login link is on its way.",
	})
}

// HandleVerify handles GET /v1/auth/magic/verify
//
//	@Summary		Redeem a login link
//	@Description	Redeems the link secret once, sets the session cookie and redirects to the dashboard.
//	@Tags			Auth
//	@Param			token	query	string	true	"link secret"
//	@Success		302		"redirect to the dashboard"
//	@Failure		400		{object}	membersdk.ErrorResponse	"invalid_token"
//	@Failure		500		{object}	membersdk.ErrorResponse	"internal server error"
//	@Router			/v1/auth/magic/verify [get].
func (h *MagicLinkHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email, err := h.Tokens.Redeem(ctx, r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		membersdk.ErrInvalidToken.WriteError(w)
		return
	case err != nil:
		log.Error("magic link redemption failed", "error", err)
		membersdk.ErrServerError.WriteError(w)
		return
	}

	sess, cookie, err := h.Sessions.Bind(ctx, email)
	if err != nil {
		log.Error("session bind failed", slogx.Email("email", email), "error", err)
		membersdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookie.set(w, cookie, sess.ExpiresAt)
	httpx.NoCache(w)
	http.Redirect(w, r, h.DashboardURL, http.StatusFound)
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		End the session
//	@Description	Deletes the session and clears the cookie. Succeeds without a session too.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	membersdk.MessageResponse
//	@Router			/v1/auth/logout [post].
func (h *MagicLinkHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Logout(ctx, h.Cookie.read(r)); err != nil {
		slogx.FromContext(ctx).Error("logout failed", "error", err)
	}

	h.Cookie.clear(w)
	httpx.WriteJSON(w, http.StatusOK, membersdk.MessageResponse{Message: "logged out"})
}

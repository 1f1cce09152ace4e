package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/service"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

// AdminHandler serves the operator endpoints under /v1/admin.
type AdminHandler struct {
	Admin *service.AdminService
}

// HandleList handles GET /v1/admin/users
//
//	@Summary		List users
//	@Description	Pages through users, newest first, with their memberships.
//	@Tags			Admin
//	@Security		AdminBasic
//	@Produce		json
//	@Param			page	query		int	false	"page, from 1"
//	@Param			limit	query		int	false	"page size, default 25, max 100"
//	@Success		200		{object}	membersdk.UserPageResponse
//	@Failure		401		{object}	membersdk.ErrorResponse
//	@Failure		500		{object}	membersdk.ErrorResponse
//	@Router			/v1/admin/users [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res, err := h.Admin.ListUsers(ctx, page, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("list users failed", "error", err)
		membersdk.ErrServerError.WriteError(w)
		return
	}

	out := membersdk.UserPageResponse{
		Users: make([]membersdk.UserResponse, 0, len(res.Users)),
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.Total,
		Pages: res.Pages,
	}
	for _, u := range res.Users {
		out.Users = append(out.Users, userResponse(u.User, u.Memberships))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleExtend handles POST /v1/admin/users/{email}/extend
//
//	@Summary		Extend a membership
//	@Description	Sets the user active until now + 30 days.
//	@Tags			Admin
//	@Security		AdminBasic
//	@Produce		json
//	@Param			email	path		string	true	"user email"
//	@Success		200		{object}	membersdk.UserResponse
//	@Failure		401		{object}	membersdk.ErrorResponse
//	@Failure		404		{object}	membersdk.ErrorResponse
//	@Router			/v1/admin/users/{email}/extend [post].
func (h *AdminHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	user, err := h.Admin.Extend(r.Context(), r.PathValue("email"))
	if h.writeErr(w, r, "extend", err) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(user, nil))
}

// HandleDeactivate handles POST /v1/admin/users/{email}/deactivate
//
//	@Summary		Deactivate a user
//	@Tags			Admin
//	@Security		AdminBasic
//	@Produce		json
//	@Param			email	path		string	true	"user email"
//	@Success		200		{object}	membersdk.MessageResponse
//	@Failure		401		{object}	membersdk.ErrorResponse
//	@Failure		404		{object}	membersdk.ErrorResponse
//	@Router			/v1/admin/users/{email}/deactivate [post].
func (h *AdminHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.Deactivate(r.Context(), r.PathValue("email"))
	if h.writeErr(w, r, "deactivate", err) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, membersdk.MessageResponse{Message: "user deactivated"})
}

// HandleResend handles POST /v1/admin/users/{email}/resend-magic
//
//	@Summary		Resend a login link
//	@Tags			Admin
//	@Security		AdminBasic
//	@Produce		json
//	@Param			email	path		string	true	"user email"
//	@Success		200		{object}	membersdk.MessageResponse
//	@Failure		401		{object}	membersdk.ErrorResponse
//	@Failure		404		{object}	membersdk.ErrorResponse
//	@Router			/v1/admin/users/{email}/resend-magic [post].
func (h *AdminHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.ResendMagicLink(r.Context(), r.PathValue("email"))
	if h.writeErr(w, r, "resend magic link", err) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, membersdk.MessageResponse{Message: "login link sent"})
}

// writeErr maps service errors and reports whether a response was written.
func (h *AdminHandler) writeErr(w http.ResponseWriter, r *http.Request, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrUserNotFound):
		membersdk.NewAPIError(http.StatusNotFound, membersdk.ErrorCodeNotFound, "user not found").WriteError(w)
	case errors.Is(err, service.ErrInvalidEmail):
		membersdk.ErrInvalidEmail.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("admin "+op+" failed", "error", err)
		membersdk.ErrServerError.WriteError(w)
	}
	return true
}

func userResponse(u domain.User, ms []domain.Membership) membersdk.UserResponse {
	out := membersdk.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		CustomerRef: u.CustomerRef,
		Status:      string(u.Status),
		ExpiresAt:   u.ExpiresAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	for _, m := range ms {
		out.Memberships = append(out.Memberships, membersdk.MembershipResponse{
			ID:         m.ID,
			OrderID:    m.OrderID,
			SKU:        m.SKU,
			ActiveFrom: m.ActiveFrom,
			ActiveTo:   m.ActiveTo,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out
}

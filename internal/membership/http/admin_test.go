package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func adminRequest(method, path, password, otp string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if password != "" {
		req.SetBasicAuth("ops", password)
	}
	if otp != "" {
		req.Header.Set(membersdk.HeaderAdminOTP, otp)
	}
	return req
}

func TestAdminRequiresCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(adminRequest(http.MethodGet, "/v1/admin/users", "", ""))
	requireErrorCode(t, rec, http.StatusUnauthorized, membersdk.ErrorCodeUnauthorized)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	rec = env.do(adminRequest(http.MethodGet, "/v1/admin/users", "wrong", ""))
	requireErrorCode(t, rec, http.StatusUnauthorized, membersdk.ErrorCodeUnauthorized)

	rec = env.do(adminRequest(http.MethodGet, "/v1/admin/users", testAdminPass, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminTOTP(t *testing.T) {
	env := newTestEnv(t, withTOTP())

	rec := env.do(adminRequest(http.MethodGet, "/v1/admin/users", testAdminPass, ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(adminRequest(http.MethodGet, "/v1/admin/users", testAdminPass, "000000"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	code, err := totp.GenerateCode(testTOTP, env.clock.Now())
	require.NoError(t, err)
	rec = env.do(adminRequest(http.MethodGet, "/v1/admin/users", testAdminPass, code))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminRoutesAbsentWithoutAuth(t *testing.T) {
	env := newTestEnv(t, func(r *Router) { r.AdminAuth = nil })

	rec := env.do(adminRequest(http.MethodGet, "/v1/admin/users", testAdminPass, ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(webhookRequest(orderBody(7007, "a@example.com", testSKU), nil)).Code)
	require.Equal(t, http.StatusOK, sendMagicLink(t, env, "b@example.com").Code)

	rec := env.do(adminRequest(http.MethodGet, "/v1/admin/users?page=1&limit=500", testAdminPass, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeBody[membersdk.UserPageResponse](t, rec)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 100, page.Limit)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Pages)
	require.Len(t, page.Users, 2)

	byEmail := map[string]membersdk.UserResponse{}
	for _, u := range page.Users {
		byEmail[u.Email] = u
	}
	require.Equal(t, "active", byEmail["a@example.com"].Status)
	require.Len(t, byEmail["a@example.com"].Memberships, 1)
	require.Equal(t, "7007", byEmail["a@example.com"].Memberships[0].OrderID)
	require.Equal(t, "inactive", byEmail["b@example.com"].Status)
	require.Empty(t, byEmail["b@example.com"].Memberships)
}

func TestAdminExtendDeactivateResend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.do(adminRequest(http.MethodPost, "/v1/admin/users/nobody@example.com/extend", testAdminPass, ""))
	requireErrorCode(t, rec, http.StatusNotFound, membersdk.ErrorCodeNotFound)

	require.Equal(t, http.StatusOK, sendMagicLink(t, env, "b@example.com").Code)

	rec = env.do(adminRequest(http.MethodPost, "/v1/admin/users/B@example.com/extend", testAdminPass, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decodeBody[membersdk.UserResponse](t, rec)
	require.Equal(t, "active", u.Status)
	require.Equal(t, t0.Add(domain.MembershipDuration), *u.ExpiresAt)

	rec = env.do(adminRequest(http.MethodPost, "/v1/admin/users/b@example.com/deactivate", testAdminPass, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err := env.store.Users().GetUserByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusInactive, stored.Status)

	before := len(env.outbox.Messages())
	rec = env.do(adminRequest(http.MethodPost, "/v1/admin/users/b@example.com/resend-magic", testAdminPass, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.outbox.Messages(), before+1)

	rec = env.do(adminRequest(http.MethodPost, "/v1/admin/users/nobody@example.com/resend-magic", testAdminPass, ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

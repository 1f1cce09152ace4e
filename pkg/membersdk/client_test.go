package membersdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestNewClientTrimsSlash(t *testing.T) {
	t.Parallel()

	c := NewClient("https://api.example.com/")
	require.Equal(t, "https://api.example.com", c.BaseURL)
	require.NotNil(t, c.HTTPClient.Jar)
}

func TestVerifyMagicLinkKeepsCookie(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/auth/magic/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "good+token" {
			ErrInvalidToken.WriteError(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "signed", Path: "/"})
		http.Redirect(w, r, "https://app.example.com/dashboard", http.StatusFound)
	})
	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			_ = json.NewEncoder(w).Encode(MeResponse{})
			return
		}
		require.Equal(t, "signed", cookie.Value)
		_ = json.NewEncoder(w).Encode(MeResponse{Authenticated: true, Email: "a@example.com", Status: "inactive"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.Authenticated)

	_, err = c.VerifyMagicLink(ctx, "bad")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, ErrorCodeInvalidToken, apiErr.Code)

	dest, err := c.VerifyMagicLink(ctx, "good+token")
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/dashboard", dest)

	me, err = c.Me(ctx)
	require.NoError(t, err)
	require.True(t, me.Authenticated)
	require.Equal(t, "a@example.com", me.Email)
}

func TestPostOrderWebhookSignsRawBody(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id": 1001,  "email":"a@example.com"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, body, raw)
		require.True(t, cryptox.VerifyHMACSHA256([]byte("shh"), raw, r.Header.Get(HeaderWebhookSignature)))
		require.Equal(t, "shop.example.com", r.Header.Get(HeaderWebhookDomain))
		require.Equal(t, TopicOrdersPaid, r.Header.Get(HeaderWebhookTopic))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(WebhookAck{Received: true, Outcome: "accepted"})
	}))
	defer srv.Close()

	ack, err := NewClient(srv.URL).PostOrderWebhook(context.Background(), "shop.example.com", "shh", body)
	require.NoError(t, err)
	require.True(t, ack.Received)
	require.Equal(t, "accepted", ack.Outcome)
}

func TestAdminCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "pw" || r.Header.Get(HeaderAdminOTP) != "123456" {
			ErrUnauthorized.WriteError(w)
			return
		}
		require.Equal(t, "/v1/admin/users", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UserPageResponse{Page: 2, Limit: 25, Total: 30, Pages: 2})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	_, err := c.ListUsers(context.Background(), 2, 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	page, err := c.WithAdmin("admin", "pw", "123456").ListUsers(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Equal(t, 2, page.Pages)
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadGateway}, []byte("<html>"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Contains(t, apiErr.Description, "502")
}

func TestUserPathEscapesEmail(t *testing.T) {
	t.Parallel()
	require.Equal(t, "/v1/admin/users/a+b@example.com/extend", userPath("a+b@example.com", "extend"))
}

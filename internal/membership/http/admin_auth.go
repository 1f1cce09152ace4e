package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/cryptox"
	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// AdminAuth checks HTTP Basic credentials against an Argon2id hash and,
// when TOTPSecret is set, a one-time code in the X-Admin-OTP header. Any
// username is accepted; it only names the principal in logs.
type AdminAuth struct {
	PasswordHash string
	Hasher       cryptox.PasswordHasher
	TOTPSecret   string
	Now          func() time.Time
}

func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		user, pass, ok := r.BasicAuth()
		if !ok || a.PasswordHash == "" {
			a.reject(w)
			return
		}
		if err := a.Hasher.Verify(pass, a.PasswordHash); err != nil {
			log.Warn("admin authentication failed", "user", user)
			a.reject(w)
			return
		}
		if a.TOTPSecret != "" && !a.validOTP(r.Header.Get(membersdk.HeaderAdminOTP)) {
			log.Warn("admin one-time code rejected", "user", user)
			a.reject(w)
			return
		}

		ctx := httpx.WithPrincipal(r.Context(), "admin:"+user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AdminAuth) validOTP(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	ok, err := totp.ValidateCustom(code, a.TOTPSecret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (a *AdminAuth) reject(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
	membersdk.ErrUnauthorized.WriteError(w)
}

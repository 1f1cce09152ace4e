package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWeakSecret  = errors.New("jwtx: secret must be at least 32 bytes")
)

// MinSecretLength is the smallest HMAC key accepted for session signing.
const MinSecretLength = 32

// Signer signs session claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a session token and returns its claims.
type Verifier interface {
	Verify(token string, now time.Time) (Claims, error)
}

// HS256 signs with the current secret and verifies against the current and
// any previous secrets, keyed by kid. Rotating SESSION_SECRET while keeping
// the old one as previous keeps existing cookies valid until they expire.
type HS256 struct {
	issuer  string
	kid     string
	secrets map[string][]byte
	leeway  time.Duration
}

// NewHS256 builds a signer/verifier. kid identifies current; previous maps
// retired kids to their secrets.
func NewHS256(issuer, kid string, current []byte, previous map[string][]byte) (*HS256, error) {
	if len(current) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	secrets := map[string][]byte{kid: current}
	for k, s := range previous {
		if k == kid {
			continue
		}
		if len(s) < MinSecretLength {
			return nil, fmt.Errorf("previous key %q: %w", k, ErrWeakSecret)
		}
		secrets[k] = s
	}

	return &HS256{
		issuer:  issuer,
		kid:     kid,
		secrets: secrets,
		leeway:  5 * time.Second,
	}, nil
}

func (h *HS256) Issuer() string { return h.issuer }

// Sign returns the compact JWS for c.
func (h *HS256) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token.Header["kid"] = h.kid
	return token.SignedString(h.secrets[h.kid])
}

// Verify checks signature, issuer, audience and validity window at now.
func (h *HS256) Verify(tokenStr string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		secret, ok := h.secrets[kid]
		if !ok {
			return nil, ErrUnknownKID
		}
		return secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownKID):
		return Claims{}, ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.SID == "" {
		return Claims{}, ErrMalformed
	}
	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience([]string{h.issuer}); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateTimes(now, h.leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

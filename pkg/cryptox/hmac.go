package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignHMACSHA256 returns the standard base64 encoding of HMAC-SHA256(secret, body).
// This is the format commerce webhooks carry in their signature header.
func SignHMACSHA256(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyHMACSHA256 reports whether signature is the base64 HMAC-SHA256 of body
// under secret. body must be the exact bytes received; the comparison runs in
// constant time over the decoded digests.
func VerifyHMACSHA256(secret, body []byte, signature string) bool {
	claimed, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), claimed)
}

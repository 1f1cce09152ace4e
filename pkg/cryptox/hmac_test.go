package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyHMACSHA256(t *testing.T) {
	secret := []byte("shpss_test_secret")
	body := []byte(`{"id":1001,"email":"a@example.com","line_items":[{"sku":"NPFA-MEMBER"}]}`)

	sig := SignHMACSHA256(secret, body)
	require.True(t, VerifyHMACSHA256(secret, body, sig))

	t.Run("wrong secret", func(t *testing.T) {
		require.False(t, VerifyHMACSHA256([]byte("other"), body, sig))
	})

	t.Run("not base64", func(t *testing.T) {
		require.False(t, VerifyHMACSHA256(secret, body, "%%%not-base64%%%"))
	})

	t.Run("empty signature", func(t *testing.T) {
		require.False(t, VerifyHMACSHA256(secret, body, ""))
	})
}

func TestVerifyHMACSHA256_SingleByteChange(t *testing.T) {
	secret := []byte("shpss_test_secret")
	body := []byte(`{"id":1001,"email":"a@example.com","total_price":"10.00"}`)
	sig := SignHMACSHA256(secret, body)

	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		require.False(t, VerifyHMACSHA256(secret, mutated, sig), "byte %d flipped", i)
	}
}

func TestVerifyHMACSHA256_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	sig := SignHMACSHA256([]byte("Jefe"), []byte("what do ya want for nothing?"))
	require.Equal(t, "W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM=", sig)
}

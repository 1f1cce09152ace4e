package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds its limit.
var ErrBodyTooLarge = errors.New("httpx: request body too large")

// WriteJSON writes v as JSON with the given status code. Responses are
// marked uncacheable since most of them carry session state.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// DecodeJSON decodes a single JSON object from the request body into v,
// reading at most maxBytes. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v any, maxBytes int64) error {
	body := io.LimitReader(r.Body, maxBytes+1)
	data, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrBodyTooLarge
		}
		return err
	}
	if int64(len(data)) > maxBytes {
		return ErrBodyTooLarge
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("httpx: decode json: %w", err)
	}
	return nil
}

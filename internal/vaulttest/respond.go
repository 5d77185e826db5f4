package vaulttest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// envelope mirrors the service's response wrapper on the wire.
type envelope struct {
	RequestID     string         `json:"request_id"`
	LeaseID       string         `json:"lease_id"`
	Renewable     bool           `json:"renewable"`
	LeaseDuration int64          `json:"lease_duration"`
	Data          map[string]any `json:"data,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	Auth          *authResult    `json:"auth,omitempty"`
}

type authResult struct {
	ClientToken   string            `json:"client_token"`
	Accessor      string            `json:"accessor"`
	Policies      []string          `json:"policies"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	LeaseDuration int64             `json:"lease_duration"`
	Renewable     bool              `json:"renewable"`
}

// writeEnvelope writes a success envelope, echoing the caller's request id
// when one was sent. Responses carry credentials, so caching is disabled.
func writeEnvelope(w http.ResponseWriter, r *http.Request, code int, env envelope) {
	if env.RequestID == "" {
		env.RequestID = r.Header.Get("X-Request-ID")
	}
	noCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

// writeErrors writes the service's error shape: a bare list of messages.
func writeErrors(w http.ResponseWriter, code int, messages ...string) {
	if messages == nil {
		messages = []string{}
	}
	noCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string][]string{"errors": messages})
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// decodeBody reads a JSON request body into v. An empty body is fine;
// several operations take no parameters.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

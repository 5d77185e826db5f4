package vaultsdk

import (
	"encoding/json"
)

// ============================================================================
// Response Envelope
// ============================================================================

// Envelope is the service's uniform response shape. Every operation returns
// the same top-level structure; which sections are populated depends on the
// operation (logins carry auth, secret reads carry data, and so on).
//
// Absent optional fields decode to their zero values. Numeric lease fields
// are 64-bit. The raw body is retained so callers can reach fields the SDK
// does not model explicitly.
type Envelope struct {
	RequestID     string         `json:"request_id"`
	LeaseID       string         `json:"lease_id"`
	LeaseDuration int64          `json:"lease_duration"`
	Renewable     bool           `json:"renewable"`
	Data          map[string]any `json:"data"`
	Warnings      []string       `json:"warnings"`
	Auth          *EnvelopeAuth  `json:"auth"`

	raw []byte
}

// EnvelopeAuth is the auth section of a response envelope, present on login
// and token-lifecycle responses.
type EnvelopeAuth struct {
	ClientToken   string            `json:"client_token"`
	Accessor      string            `json:"accessor"`
	Policies      []string          `json:"policies"`
	Metadata      map[string]string `json:"metadata"`
	LeaseDuration int64             `json:"lease_duration"`
	Renewable     bool              `json:"renewable"`
}

// ParseEnvelope decodes a raw response body. A body that is not well-formed
// JSON yields a *ParseError; shape requirements (such as a login demanding
// an auth section) are enforced by the operation, not here, because only
// the operation knows which sections it needs.
//
// An empty body is valid and decodes to an empty envelope, since the
// service answers some writes with 204 No Content.
func ParseEnvelope(body []byte) (*Envelope, error) {
	envelope := &Envelope{raw: body}
	if len(body) == 0 {
		return envelope, nil
	}

	if err := json.Unmarshal(body, envelope); err != nil {
		return nil, &ParseError{Err: err}
	}

	return envelope, nil
}

// Raw returns the undecoded response body. This is the escape hatch for
// fields the envelope does not model; it is always safe to re-decode.
func (e *Envelope) Raw() []byte { return e.raw }

// Get re-decodes the raw body and walks it by key, returning the value at
// the end of the path or nil when any step is absent. Intermediate values
// must be JSON objects.
//
//	renewable := envelope.Get("auth", "renewable")
func (e *Envelope) Get(path ...string) any {
	if len(e.raw) == 0 || len(path) == 0 {
		return nil
	}

	var node any
	if err := json.Unmarshal(e.raw, &node); err != nil {
		return nil
	}

	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return node
}

// AuthClientToken returns auth.client_token, or "" when the auth section
// is absent.
func (e *Envelope) AuthClientToken() string {
	if e.Auth == nil {
		return ""
	}
	return e.Auth.ClientToken
}

// AuthLeaseDuration returns auth.lease_duration in seconds, or 0 when the
// auth section is absent.
func (e *Envelope) AuthLeaseDuration() int64 {
	if e.Auth == nil {
		return 0
	}
	return e.Auth.LeaseDuration
}

// DataString returns the data-section value for key stringified, or ""
// when the key is absent. Non-string scalars are rendered the way the
// service sent them.
func (e *Envelope) DataString(key string) string {
	value, ok := e.Data[key]
	if !ok || value == nil {
		return ""
	}
	return stringifyScalar(value)
}

// DataInt64 returns the data-section value for key as an int64, or 0 when
// the key is absent or not numeric. JSON numbers decode as float64; lease
// and TTL values are well within exact integer range.
func (e *Envelope) DataInt64(key string) int64 {
	switch v := e.Data[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// stringifyScalar renders a decoded JSON scalar the way it appeared on the
// wire. Compound values marshal back to their JSON text.
func stringifyScalar(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	text, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(text)
}

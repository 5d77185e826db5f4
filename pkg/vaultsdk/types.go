package vaultsdk

// ============================================================================
// Request Types
// ============================================================================

// TokenRequest bundles the optional parameters of a token-create call.
// Every field is optional; zero-valued fields are omitted from the wire
// request entirely rather than sent as null or empty, so the service
// applies its own defaults.
//
//	resp, err := client.Auth().CreateToken(ctx, &vaultsdk.TokenRequest{
//		TTL:      "1h",
//		Policies: []string{"readonly"},
//	})
//
// A nil *TokenRequest is valid and sends an empty body.
type TokenRequest struct {
	// ID requests a specific token value instead of a generated one.
	// Requires root privileges on the service side.
	ID string `json:"id,omitempty"`

	// Policies to associate with the token. Absent means the parent
	// token's policies.
	Policies []string `json:"policies,omitempty"`

	// Metadata is attached to the token and surfaces in lookups and
	// audit logs.
	Metadata map[string]string `json:"meta,omitempty"`

	// NoParent creates a token with no parent, so it survives the
	// revocation of the token that created it.
	NoParent bool `json:"no_parent,omitempty"`

	// NoDefaultPolicy excludes the default policy from the token.
	NoDefaultPolicy bool `json:"no_default_policy,omitempty"`

	// TTL is the requested lifetime as a duration string, e.g. "1h".
	TTL string `json:"ttl,omitempty"`

	// DisplayName labels the token in lookups and audit logs.
	DisplayName string `json:"display_name,omitempty"`

	// NumUses limits how many times the token may be used. Zero means
	// unlimited.
	NumUses int `json:"num_uses,omitempty"`
}

// ============================================================================
// Result Types
// ============================================================================

// AuthResponse is the result of any successful login or token-create call.
// ClientToken is always non-empty: operations that would produce an empty
// token fail with an EnvelopeError instead.
//
// ClientToken is a live credential. Never log it.
type AuthResponse struct {
	ClientToken   string
	Accessor      string
	Policies      []string
	Metadata      map[string]string
	LeaseDuration int64
	Renewable     bool

	// Envelope is the full decoded response, for fields not modeled here.
	Envelope *Envelope
}

// LookupResponse describes a token as the service currently sees it.
//
// CreationTTL is the lifetime configured at issuance and is fixed for the
// token's life; TTL is the seconds remaining and only ever shrinks between
// renewals. TTL <= CreationTTL always holds.
type LookupResponse struct {
	ID          string
	Accessor    string
	CreationTTL int64
	TTL         int64
	Policies    []string
	Metadata    map[string]string
	DisplayName string
	NumUses     int64
	Renewable   bool

	// Envelope is the full decoded response.
	Envelope *Envelope
}

// LogicalResponse is the result of a secret read, write, or list. Keys are
// opaque to the SDK.
type LogicalResponse struct {
	LeaseID       string
	LeaseDuration int64
	Renewable     bool

	// Envelope is the full decoded response; Envelope.Data holds the
	// values with their wire types.
	Envelope *Envelope
}

// Data returns the secret's key/value pairs with scalar values rendered as
// strings. Use Envelope.Data for the typed form.
func (r *LogicalResponse) Data() map[string]string {
	if r.Envelope == nil || r.Envelope.Data == nil {
		return map[string]string{}
	}

	out := make(map[string]string, len(r.Envelope.Data))
	for key, value := range r.Envelope.Data {
		if value == nil {
			continue
		}
		out[key] = stringifyScalar(value)
	}
	return out
}

// ListKeys returns the keys field of a list response, or nil when absent.
func (r *LogicalResponse) ListKeys() []string {
	if r.Envelope == nil {
		return nil
	}

	raw, ok := r.Envelope.Data["keys"].([]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

// newAuthResponse builds an AuthResponse from an envelope, enforcing the
// shape every token-bearing operation requires.
func newAuthResponse(envelope *Envelope) (*AuthResponse, error) {
	if envelope.Auth == nil {
		return nil, &EnvelopeError{Field: "auth"}
	}
	if envelope.Auth.ClientToken == "" {
		return nil, &EnvelopeError{Field: "auth.client_token"}
	}

	return &AuthResponse{
		ClientToken:   envelope.Auth.ClientToken,
		Accessor:      envelope.Auth.Accessor,
		Policies:      envelope.Auth.Policies,
		Metadata:      envelope.Auth.Metadata,
		LeaseDuration: envelope.Auth.LeaseDuration,
		Renewable:     envelope.Auth.Renewable,
		Envelope:      envelope,
	}, nil
}

// newLookupResponse builds a LookupResponse from an envelope. Lookup data
// rides in the data section rather than the auth section.
func newLookupResponse(envelope *Envelope) (*LookupResponse, error) {
	if envelope.Data == nil {
		return nil, &EnvelopeError{Field: "data"}
	}

	resp := &LookupResponse{
		ID:          envelope.DataString("id"),
		Accessor:    envelope.DataString("accessor"),
		CreationTTL: envelope.DataInt64("creation_ttl"),
		TTL:         envelope.DataInt64("ttl"),
		DisplayName: envelope.DataString("display_name"),
		NumUses:     envelope.DataInt64("num_uses"),
		Envelope:    envelope,
	}

	if renewable, ok := envelope.Data["renewable"].(bool); ok {
		resp.Renewable = renewable
	}
	if policies, ok := envelope.Data["policies"].([]any); ok {
		for _, p := range policies {
			if s, ok := p.(string); ok {
				resp.Policies = append(resp.Policies, s)
			}
		}
	}
	if meta, ok := envelope.Data["meta"].(map[string]any); ok {
		resp.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			if s, ok := v.(string); ok {
				resp.Metadata[k] = s
			}
		}
	}

	return resp, nil
}

package vaultsdk

import (
	"context"
	"fmt"
	"net/http"
)

// TokenAuth is the token backend API. It covers the same self-token calls
// as Auth and adds lifecycle operations on tokens other than the client's
// own: renew and revoke by token value, revoke and lookup by accessor.
// An accessor names a token without being usable as one, which is what
// audit tooling should hold instead of the token itself.
type TokenAuth struct {
	client *Client
}

// Create creates a child token. Equivalent to Auth.CreateToken.
func (t *TokenAuth) Create(ctx context.Context, req *TokenRequest) (*AuthResponse, error) {
	return t.client.Auth().CreateToken(ctx, req)
}

// RenewSelf renews the configured token. Equivalent to Auth.RenewSelf.
func (t *TokenAuth) RenewSelf(ctx context.Context, increment int64) (*AuthResponse, error) {
	return t.client.Auth().RenewSelf(ctx, increment)
}

// LookupSelf looks up the configured token. Equivalent to Auth.LookupSelf.
func (t *TokenAuth) LookupSelf(ctx context.Context) (*LookupResponse, error) {
	return t.client.Auth().LookupSelf(ctx)
}

// RevokeSelf revokes the configured token. Equivalent to Auth.RevokeSelf.
func (t *TokenAuth) RevokeSelf(ctx context.Context) error {
	return t.client.Auth().RevokeSelf(ctx)
}

// Renew extends the lease of another token. The caller's configured token
// must be permitted to renew it. Increment semantics match RenewSelf.
func (t *TokenAuth) Renew(ctx context.Context, token string, increment int64) (*AuthResponse, error) {
	body := map[string]any{"token": token}
	if increment > 0 {
		body["increment"] = increment
	}

	envelope, err := t.client.requestEnvelope(ctx, http.MethodPost, "v1/auth/token/renew", body)
	if err != nil {
		return nil, err
	}
	return newAuthResponse(envelope)
}

// Lookup retrieves the service's view of another token.
func (t *TokenAuth) Lookup(ctx context.Context, token string) (*LookupResponse, error) {
	body := map[string]string{"token": token}

	envelope, err := t.client.requestEnvelope(ctx, http.MethodPost, "v1/auth/token/lookup", body)
	if err != nil {
		return nil, err
	}
	return newLookupResponse(envelope)
}

// LookupAccessor retrieves a token's properties by its accessor. The
// response never includes the token value itself.
func (t *TokenAuth) LookupAccessor(ctx context.Context, accessor string) (*LookupResponse, error) {
	body := map[string]string{"accessor": accessor}

	envelope, err := t.client.requestEnvelope(ctx, http.MethodPost, "v1/auth/token/lookup-accessor", body)
	if err != nil {
		return nil, err
	}
	return newLookupResponse(envelope)
}

// Revoke revokes a token and all of its children.
func (t *TokenAuth) Revoke(ctx context.Context, token string) error {
	body := map[string]string{"token": token}

	if _, err := t.client.request(ctx, http.MethodPost, "v1/auth/token/revoke", body); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// RevokeAccessor revokes the token a given accessor names. This is the
// path for retiring a credential found in an audit trail without ever
// handling the token value.
func (t *TokenAuth) RevokeAccessor(ctx context.Context, accessor string) error {
	body := map[string]string{"accessor": accessor}

	if _, err := t.client.request(ctx, http.MethodPost, "v1/auth/token/revoke-accessor", body); err != nil {
		return fmt.Errorf("revoking token by accessor: %w", err)
	}
	return nil
}

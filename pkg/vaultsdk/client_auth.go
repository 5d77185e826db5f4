package vaultsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Auth is the authentication API: backend logins plus lifecycle operations
// on the client's own token. Each method is a stateless request/response
// exchange; a successful login returns a token but does not rebind the
// client. Use Client.WithToken for that.
type Auth struct {
	client *Client
}

// ============================================================================
// Backend Logins
// ============================================================================
//
// Every login builds a backend-specific body, POSTs it to the backend's
// mount path, and requires the response to carry auth.client_token. A 2xx
// response without one is an EnvelopeError: the server contract should
// make that impossible, but the client must not crash if it isn't.

// LoginByAppID authenticates against the app-id backend. The path is
// caller-supplied because the backend may be mounted anywhere; the
// conventional value is "app-id/login".
func (a *Auth) LoginByAppID(ctx context.Context, path, appID, userID string) (*AuthResponse, error) {
	body := map[string]string{
		"app_id":  appID,
		"user_id": userID,
	}
	return a.login(ctx, "v1/auth/"+path, body)
}

// LoginByUserPass authenticates against the userpass backend with the
// conventional mount. The username rides in the path, the password in
// the body.
func (a *Auth) LoginByUserPass(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"password": password}
	return a.login(ctx, "v1/auth/userpass/login/"+url.PathEscape(username), body)
}

// LoginByAppRole authenticates against an approle backend mounted at path
// (conventionally "approle").
func (a *Auth) LoginByAppRole(ctx context.Context, path, roleID, secretID string) (*AuthResponse, error) {
	body := map[string]string{
		"role_id":   roleID,
		"secret_id": secretID,
	}
	return a.login(ctx, "v1/auth/"+path+"/login", body)
}

// LoginByJWT authenticates against a jwt backend mounted at path
// (conventionally "jwt") using a signed token for the named role.
func (a *Auth) LoginByJWT(ctx context.Context, path, role, jwt string) (*AuthResponse, error) {
	body := map[string]string{
		"role": role,
		"jwt":  jwt,
	}
	return a.login(ctx, "v1/auth/"+path+"/login", body)
}

func (a *Auth) login(ctx context.Context, fullPath string, body any) (*AuthResponse, error) {
	envelope, err := a.client.requestEnvelope(ctx, http.MethodPost, fullPath, body)
	if err != nil {
		return nil, err
	}
	return newAuthResponse(envelope)
}

// ============================================================================
// Self-Token Lifecycle
// ============================================================================

// CreateToken creates a child token of the configured token. A nil request
// accepts the service's defaults. Requires a token-creation-capable
// credential; insufficient privilege surfaces as an APIError carrying the
// server's permission-denied detail.
func (a *Auth) CreateToken(ctx context.Context, req *TokenRequest) (*AuthResponse, error) {
	var body any = struct{}{}
	if req != nil {
		body = req
	}

	envelope, err := a.client.requestEnvelope(ctx, http.MethodPost, "v1/auth/token/create", body)
	if err != nil {
		return nil, err
	}
	return newAuthResponse(envelope)
}

// RenewSelf renews the token the client is configured with, extending its
// lease. When increment is positive it is sent as the requested lease
// seconds and the service echoes it back verbatim as the new lease
// duration; pass 0 or a negative value to accept the token's default.
func (a *Auth) RenewSelf(ctx context.Context, increment int64) (*AuthResponse, error) {
	body := map[string]any{}
	if increment > 0 {
		body["increment"] = increment
	}

	envelope, err := a.client.requestEnvelope(ctx, http.MethodPost, "v1/auth/token/renew-self", body)
	if err != nil {
		return nil, err
	}
	return newAuthResponse(envelope)
}

// LookupSelf retrieves the service's view of the configured token. The
// result exposes the creation TTL (fixed at issuance) and the remaining
// TTL as independent fields.
func (a *Auth) LookupSelf(ctx context.Context) (*LookupResponse, error) {
	envelope, err := a.client.requestEnvelope(ctx, http.MethodGet, "v1/auth/token/lookup-self", nil)
	if err != nil {
		return nil, err
	}
	return newLookupResponse(envelope)
}

// RevokeSelf revokes the configured token and everything issued under it.
func (a *Auth) RevokeSelf(ctx context.Context) error {
	_, err := a.client.request(ctx, http.MethodPost, "v1/auth/token/revoke-self", struct{}{})
	if err != nil {
		return fmt.Errorf("revoking own token: %w", err)
	}
	return nil
}

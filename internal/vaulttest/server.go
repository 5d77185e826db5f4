// Package vaulttest runs an in-process fake of the secrets service for
// SDK tests. It speaks the same wire protocol over a real HTTP listener,
// backed by a sqlite store, so client behavior is exercised end to end
// without a network or a live deployment.
package vaulttest

import (
	"context"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest/store"
	"github.com/aussiebroadwan/vaultsdk/pkg/slogx"
)

// DefaultTTL is the lease duration granted when a request does not ask
// for one, in seconds.
const DefaultTTL int64 = 3600

// Server is the fake service. All methods are safe for concurrent use.
type Server struct {
	httpSrv *httptest.Server
	store   *store.Store

	rootToken string
	jwtKey    []byte

	// clockSkew shifts the server's notion of now, in nanoseconds, so
	// tests can age tokens without sleeping.
	clockSkew atomic.Int64
}

// New starts a fake service on a local listener and returns it. The
// server and its database are torn down via tb.Cleanup.
func New(tb testing.TB) *Server {
	tb.Helper()

	st, err := store.Open(filepath.Join(tb.TempDir(), "vaulttest.db"))
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}

	jwtKey := make([]byte, 32)
	if _, err := rand.Read(jwtKey); err != nil {
		tb.Fatalf("generate jwt key: %v", err)
	}

	s := &Server{
		store:     st,
		rootToken: newTokenID(),
		jwtKey:    jwtKey,
	}

	if err := st.CreateToken(context.Background(), store.Token{
		ID:          s.rootToken,
		Accessor:    newAccessor(),
		DisplayName: "root",
		Policies:    []string{"root"},
		Renewable:   false,
		CreatedAt:   s.now().Unix(),
	}); err != nil {
		tb.Fatalf("create root token: %v", err)
	}

	logger := slogx.New(slogx.Config{Service: "vaulttest", Level: "warn", Format: "text"})
	s.httpSrv = httptest.NewServer(slogx.HTTPMiddleware(logger)(s.routes()))

	tb.Cleanup(func() {
		s.httpSrv.Close()
		_ = st.Close()
	})
	return s
}

// URL is the base address of the fake service, e.g. "http://127.0.0.1:...".
func (s *Server) URL() string { return s.httpSrv.URL }

// RootToken returns the pre-created token with the root policy.
func (s *Server) RootToken() string { return s.rootToken }

// JWTKey returns the HS256 key the jwt backend verifies logins with.
// Tests mint their own assertions against it.
func (s *Server) JWTKey() []byte { return s.jwtKey }

// Advance moves the server's clock forward, aging every outstanding lease.
func (s *Server) Advance(d time.Duration) {
	s.clockSkew.Add(int64(d))
}

func (s *Server) now() time.Time {
	return time.Now().Add(time.Duration(s.clockSkew.Load()))
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Token backend. Everything here requires a valid token.
	mux.Handle("POST /v1/auth/token/create", s.authenticated(s.handleTokenCreate))
	mux.Handle("POST /v1/auth/token/renew-self", s.authenticated(s.handleRenewSelf))
	mux.Handle("GET /v1/auth/token/lookup-self", s.authenticated(s.handleLookupSelf))
	mux.Handle("POST /v1/auth/token/revoke-self", s.authenticated(s.handleRevokeSelf))
	mux.Handle("POST /v1/auth/token/renew", s.authenticated(s.handleRenew))
	mux.Handle("POST /v1/auth/token/lookup", s.authenticated(s.handleLookup))
	mux.Handle("POST /v1/auth/token/lookup-accessor", s.authenticated(s.handleLookupAccessor))
	mux.Handle("POST /v1/auth/token/revoke", s.authenticated(s.handleRevoke))
	mux.Handle("POST /v1/auth/token/revoke-accessor", s.authenticated(s.handleRevokeAccessor))

	// Login backends are unauthenticated by nature.
	mux.HandleFunc("POST /v1/auth/userpass/login/{username}", s.handleUserPassLogin)
	mux.HandleFunc("POST /v1/auth/app-id/login", s.handleAppIDLogin)
	mux.HandleFunc("POST /v1/auth/approle/login", s.handleAppRoleLogin)
	mux.HandleFunc("POST /v1/auth/jwt/login", s.handleJWTLogin)

	// Generic secret mount.
	mux.Handle("GET /v1/secret/{path...}", s.authenticated(s.handleSecretRead))
	mux.Handle("PUT /v1/secret/{path...}", s.authenticated(s.handleSecretWrite))
	mux.Handle("POST /v1/secret/{path...}", s.authenticated(s.handleSecretWrite))
	mux.Handle("DELETE /v1/secret/{path...}", s.authenticated(s.handleSecretDelete))

	// TOTP secret engine.
	mux.Handle("POST /v1/totp/keys/{name}", s.authenticated(s.handleTOTPKeyCreate))
	mux.Handle("PUT /v1/totp/keys/{name}", s.authenticated(s.handleTOTPKeyCreate))
	mux.Handle("GET /v1/totp/code/{name}", s.authenticated(s.handleTOTPCode))
	mux.Handle("POST /v1/totp/code/{name}", s.authenticated(s.handleTOTPValidate))
	mux.Handle("PUT /v1/totp/code/{name}", s.authenticated(s.handleTOTPValidate))

	return mux
}

// authenticated resolves the caller's token, rejects expired or unknown
// ones, and burns a use off use-limited tokens.
func (s *Server) authenticated(next func(w http.ResponseWriter, r *http.Request, caller store.Token)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := r.Header.Get("X-Vault-Token")
		if id == "" {
			writeErrors(w, http.StatusForbidden, "missing client token")
			return
		}

		token, err := s.store.GetToken(ctx, id)
		if err != nil {
			writeErrors(w, http.StatusForbidden, "permission denied")
			return
		}

		if token.ExpiresAt != 0 && token.ExpiresAt <= s.now().Unix() {
			_ = s.revokeTree(ctx, token.ID)
			writeErrors(w, http.StatusForbidden, "permission denied")
			return
		}

		if token.NumUses > 0 {
			remaining, err := s.store.DecrementTokenUses(ctx, token.ID)
			if err != nil {
				writeErrors(w, http.StatusInternalServerError, "internal error")
				return
			}
			token.NumUses = remaining
			defer func() {
				if remaining == 0 {
					_ = s.revokeTree(ctx, token.ID)
				}
			}()
		}

		next(w, r, token)
	})
}

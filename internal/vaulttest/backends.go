package vaulttest

import (
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest/store"

	"github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// Seeding
// ============================================================================

// SeedUserPass registers a username/password credential. The password is
// stored as an Argon2id hash, never in the clear.
func (s *Server) SeedUserPass(tb testing.TB, username, password string, policies ...string) {
	tb.Helper()

	hash, err := hashPassword(password)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	if err := s.store.CreateUser(tb.Context(), store.User{
		Username:     username,
		PasswordHash: hash,
		Policies:     policies,
	}); err != nil {
		tb.Fatalf("seed userpass %q: %v", username, err)
	}
}

// SeedAppID registers a legacy app-id/user-id credential pair.
func (s *Server) SeedAppID(tb testing.TB, appID, userID string, policies ...string) {
	tb.Helper()

	if err := s.store.CreateAppID(tb.Context(), store.AppID{
		AppID:       appID,
		UserID:      userID,
		DisplayName: appID,
		Policies:    policies,
	}); err != nil {
		tb.Fatalf("seed app-id %q: %v", appID, err)
	}
}

// SeedAppRole registers an approle role. Only a hash of the secret id is
// kept.
func (s *Server) SeedAppRole(tb testing.TB, roleID, secretID string, policies ...string) {
	tb.Helper()

	hash, err := hashPassword(secretID)
	if err != nil {
		tb.Fatalf("hash secret id: %v", err)
	}
	if err := s.store.CreateAppRole(tb.Context(), store.AppRole{
		RoleID:       roleID,
		SecretIDHash: hash,
		Policies:     policies,
	}); err != nil {
		tb.Fatalf("seed approle %q: %v", roleID, err)
	}
}

// SeedJWTRole registers a jwt backend role bound to a subject claim. Logins
// must present an HS256 assertion signed with s.JWTKey().
func (s *Server) SeedJWTRole(tb testing.TB, name, boundSubject string, policies ...string) {
	tb.Helper()

	if err := s.store.CreateJWTRole(tb.Context(), store.JWTRole{
		Name:         name,
		BoundSubject: boundSubject,
		Policies:     policies,
	}); err != nil {
		tb.Fatalf("seed jwt role %q: %v", name, err)
	}
}

// ============================================================================
// Login Handlers
// ============================================================================

func (s *Server) handleUserPassLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	username := r.PathValue("username")
	user, err := s.store.GetUser(r.Context(), username)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid username or password")
		return
	}
	if err := verifyPassword(req.Password, user.PasswordHash); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid username or password")
		return
	}

	s.issueLoginToken(w, r, "userpass-"+username, user.Policies, map[string]string{
		"username": username,
	})
}

func (s *Server) handleAppIDLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID  string `json:"app_id"`
		UserID string `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	app, err := s.store.GetAppID(r.Context(), req.AppID)
	if err != nil || app.UserID != req.UserID {
		writeErrors(w, http.StatusBadRequest, "invalid app id or user id")
		return
	}

	s.issueLoginToken(w, r, "app-id-"+app.DisplayName, app.Policies, map[string]string{
		"app-id":  req.AppID,
		"user-id": req.UserID,
	})
}

func (s *Server) handleAppRoleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleID   string `json:"role_id"`
		SecretID string `json:"secret_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	role, err := s.store.GetAppRole(r.Context(), req.RoleID)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid role or secret id")
		return
	}
	if err := verifyPassword(req.SecretID, role.SecretIDHash); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid role or secret id")
		return
	}

	s.issueLoginToken(w, r, "approle", role.Policies, map[string]string{
		"role_id": req.RoleID,
	})
}

func (s *Server) handleJWTLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
		JWT  string `json:"jwt"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	role, err := s.store.GetJWTRole(r.Context(), req.Role)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid role")
		return
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(req.JWT, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to verify jwt")
		return
	}

	subject, _ := claims.GetSubject()
	if role.BoundSubject != "" && subject != role.BoundSubject {
		writeErrors(w, http.StatusBadRequest, "subject not bound to role")
		return
	}

	s.issueLoginToken(w, r, "jwt-"+req.Role, role.Policies, map[string]string{
		"role": req.Role,
	})
}

// issueLoginToken mints an orphan token for a successful login and writes
// the auth envelope.
func (s *Server) issueLoginToken(w http.ResponseWriter, r *http.Request, displayName string, policies []string, meta map[string]string) {
	policies = slices.Clone(policies)
	if !slices.Contains(policies, "default") && !slices.Contains(policies, "root") {
		policies = append(policies, "default")
	}
	slices.Sort(policies)

	token := store.Token{
		ID:          newTokenID(),
		Accessor:    newAccessor(),
		DisplayName: displayName,
		Policies:    policies,
		Meta:        meta,
		CreationTTL: DefaultTTL,
		ExpiresAt:   s.now().Unix() + DefaultTTL,
		Renewable:   true,
		CreatedAt:   s.now().Unix(),
	}

	if err := s.store.CreateToken(r.Context(), token); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeAuthEnvelope(w, r, token, DefaultTTL)
}

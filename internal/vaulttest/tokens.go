package vaulttest

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest/store"
)

type tokenCreateRequest struct {
	ID              string            `json:"id"`
	Policies        []string          `json:"policies"`
	Meta            map[string]string `json:"meta"`
	NoParent        bool              `json:"no_parent"`
	NoDefaultPolicy bool              `json:"no_default_policy"`
	TTL             string            `json:"ttl"`
	DisplayName     string            `json:"display_name"`
	NumUses         int64             `json:"num_uses"`
}

func (s *Server) handleTokenCreate(w http.ResponseWriter, r *http.Request, caller store.Token) {
	ctx := r.Context()

	var req tokenCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	ttl, err := parseTTLSeconds(req.TTL)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid ttl: "+req.TTL)
		return
	}

	if req.ID != "" && !slices.Contains(caller.Policies, "root") {
		writeErrors(w, http.StatusForbidden, "root required to specify token id")
		return
	}

	policies := req.Policies
	if len(policies) == 0 {
		policies = slices.Clone(caller.Policies)
	}
	if !req.NoDefaultPolicy && !slices.Contains(policies, "default") && !slices.Contains(policies, "root") {
		policies = append(policies, "default")
	}
	slices.Sort(policies)

	displayName := "token"
	if req.DisplayName != "" {
		displayName += "-" + req.DisplayName
	}

	token := store.Token{
		ID:          req.ID,
		Accessor:    newAccessor(),
		DisplayName: displayName,
		Policies:    policies,
		Meta:        req.Meta,
		NumUses:     req.NumUses,
		CreationTTL: ttl,
		ExpiresAt:   s.now().Unix() + ttl,
		Renewable:   true,
		CreatedAt:   s.now().Unix(),
	}
	if token.ID == "" {
		token.ID = newTokenID()
	}
	if !req.NoParent {
		token.ParentID = caller.ID
	}

	if err := s.store.CreateToken(ctx, token); err != nil {
		writeErrors(w, http.StatusBadRequest, "cannot create a token with this id")
		return
	}

	s.writeAuthEnvelope(w, r, token, ttl)
}

type renewRequest struct {
	Token     string `json:"token"`
	Increment int64  `json:"increment"`
}

func (s *Server) handleRenewSelf(w http.ResponseWriter, r *http.Request, caller store.Token) {
	var req renewRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	s.renewToken(w, r, caller, req.Increment)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req renewRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	target, err := s.store.GetToken(r.Context(), req.Token)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "bad token")
		return
	}
	s.renewToken(w, r, target, req.Increment)
}

// renewToken extends a token's lease. The granted duration is exactly what
// the caller asked for; clamping to backend limits is out of scope here,
// so the response always reports the true grant.
func (s *Server) renewToken(w http.ResponseWriter, r *http.Request, token store.Token, increment int64) {
	if !token.Renewable {
		writeErrors(w, http.StatusBadRequest, "lease is not renewable")
		return
	}

	lease := increment
	if lease <= 0 {
		lease = token.CreationTTL
	}
	if lease <= 0 {
		lease = DefaultTTL
	}

	if err := s.store.SetTokenExpiry(r.Context(), token.ID, s.now().Unix()+lease); err != nil {
		writeErrors(w, http.StatusBadRequest, "bad token")
		return
	}

	s.writeAuthEnvelope(w, r, token, lease)
}

func (s *Server) handleLookupSelf(w http.ResponseWriter, r *http.Request, caller store.Token) {
	writeEnvelope(w, r, http.StatusOK, envelope{Data: s.tokenLookupData(caller)})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	target, err := s.store.GetToken(r.Context(), req.Token)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "bad token")
		return
	}
	writeEnvelope(w, r, http.StatusOK, envelope{Data: s.tokenLookupData(target)})
}

func (s *Server) handleLookupAccessor(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req struct {
		Accessor string `json:"accessor"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	target, err := s.store.GetTokenByAccessor(r.Context(), req.Accessor)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid accessor")
		return
	}

	// An accessor lookup never reveals the token value itself.
	data := s.tokenLookupData(target)
	data["id"] = ""
	writeEnvelope(w, r, http.StatusOK, envelope{Data: data})
}

func (s *Server) handleRevokeSelf(w http.ResponseWriter, r *http.Request, caller store.Token) {
	if err := s.revokeTree(r.Context(), caller.ID); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	// Revoking an unknown token is a no-op, matching the real service.
	if err := s.revokeTree(r.Context(), req.Token); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeAccessor(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req struct {
		Accessor string `json:"accessor"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	target, err := s.store.GetTokenByAccessor(r.Context(), req.Accessor)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid accessor")
		return
	}

	if err := s.revokeTree(r.Context(), target.ID); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// revokeTree removes a token and every descendant created under it.
func (s *Server) revokeTree(ctx context.Context, id string) error {
	children, err := s.store.ListTokenChildren(ctx, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.revokeTree(ctx, child); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return s.store.DeleteToken(ctx, id)
}

func (s *Server) tokenLookupData(t store.Token) map[string]any {
	var remaining int64
	if t.ExpiresAt != 0 {
		remaining = max(0, t.ExpiresAt-s.now().Unix())
	}

	data := map[string]any{
		"id":            t.ID,
		"accessor":      t.Accessor,
		"creation_ttl":  t.CreationTTL,
		"ttl":           remaining,
		"policies":      t.Policies,
		"display_name":  t.DisplayName,
		"num_uses":      t.NumUses,
		"renewable":     t.Renewable,
		"creation_time": t.CreatedAt,
		"path":          "auth/token/create",
	}
	if len(t.Meta) > 0 {
		data["meta"] = t.Meta
	}
	return data
}

func (s *Server) writeAuthEnvelope(w http.ResponseWriter, r *http.Request, t store.Token, lease int64) {
	writeEnvelope(w, r, http.StatusOK, envelope{
		Auth: &authResult{
			ClientToken:   t.ID,
			Accessor:      t.Accessor,
			Policies:      t.Policies,
			Metadata:      t.Meta,
			LeaseDuration: lease,
			Renewable:     t.Renewable,
		},
	})
}

// parseTTLSeconds accepts a duration string ("1h"), bare seconds ("90"),
// or empty for the default.
func parseTTLSeconds(ttl string) (int64, error) {
	if ttl == "" {
		return DefaultTTL, nil
	}
	if d, err := time.ParseDuration(ttl); err == nil {
		return int64(d / time.Second), nil
	}
	return strconv.ParseInt(ttl, 10, 64)
}

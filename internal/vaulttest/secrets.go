package vaulttest

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest/store"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ============================================================================
// Generic Secret Mount
// ============================================================================

func (s *Server) handleSecretRead(w http.ResponseWriter, r *http.Request, _ store.Token) {
	path := "secret/" + r.PathValue("path")

	if r.URL.Query().Get("list") == "true" {
		s.listSecrets(w, r, path)
		return
	}

	data, err := s.store.GetSecret(r.Context(), path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound)
			return
		}
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeEnvelope(w, r, http.StatusOK, envelope{
		LeaseDuration: DefaultTTL,
		Data:          data,
	})
}

func (s *Server) handleSecretWrite(w http.ResponseWriter, r *http.Request, _ store.Token) {
	path := "secret/" + r.PathValue("path")

	var data map[string]any
	if err := decodeBody(r, &data); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	if err := s.store.PutSecret(r.Context(), path, data, s.now().Unix()); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSecretDelete(w http.ResponseWriter, r *http.Request, _ store.Token) {
	path := "secret/" + r.PathValue("path")

	if err := s.store.DeleteSecret(r.Context(), path); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSecrets folds stored paths under the prefix into direct keys. A key
// ending in "/" marks a sub-path that can be listed in turn.
func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request, path string) {
	prefix := strings.TrimSuffix(path, "/") + "/"

	paths, err := s.store.ListSecretPaths(r.Context(), prefix)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(paths) == 0 {
		writeErrors(w, http.StatusNotFound)
		return
	}

	var keys []string
	for _, p := range paths {
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i+1]
		}
		if !slices.Contains(keys, rest) {
			keys = append(keys, rest)
		}
	}
	slices.Sort(keys)

	writeEnvelope(w, r, http.StatusOK, envelope{
		Data: map[string]any{"keys": keys},
	})
}

// ============================================================================
// TOTP Secret Engine
// ============================================================================

type totpKeyRequest struct {
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
	Period      uint   `json:"period"`
	Digits      int    `json:"digits"`
}

func (s *Server) handleTOTPKeyCreate(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req totpKeyRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Issuer == "" || req.AccountName == "" {
		writeErrors(w, http.StatusBadRequest, "issuer and account_name are required")
		return
	}
	if req.Period == 0 {
		req.Period = 30
	}
	if req.Digits == 0 {
		req.Digits = 6
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      req.Issuer,
		AccountName: req.AccountName,
		Period:      req.Period,
		Digits:      otp.Digits(req.Digits),
	})
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.store.PutTOTPKey(r.Context(), store.TOTPKey{
		Name:    r.PathValue("name"),
		Issuer:  req.Issuer,
		Account: req.AccountName,
		Secret:  key.Secret(),
		Period:  int64(req.Period),
		Digits:  int64(req.Digits),
	}); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeEnvelope(w, r, http.StatusOK, envelope{
		Data: map[string]any{"url": key.URL()},
	})
}

func (s *Server) handleTOTPCode(w http.ResponseWriter, r *http.Request, _ store.Token) {
	key, err := s.store.GetTOTPKey(r.Context(), r.PathValue("name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound)
			return
		}
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	code, err := totp.GenerateCodeCustom(key.Secret, s.now(), totp.ValidateOpts{
		Period: uint(key.Period),
		Digits: otp.Digits(key.Digits),
	})
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeEnvelope(w, r, http.StatusOK, envelope{
		Data: map[string]any{"code": code},
	})
}

func (s *Server) handleTOTPValidate(w http.ResponseWriter, r *http.Request, _ store.Token) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	key, err := s.store.GetTOTPKey(r.Context(), r.PathValue("name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound)
			return
		}
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	valid, err := totp.ValidateCustom(req.Code, key.Secret, s.now(), totp.ValidateOpts{
		Period: uint(key.Period),
		Digits: otp.Digits(key.Digits),
	})
	if err != nil {
		valid = false
	}

	writeEnvelope(w, r, http.StatusOK, envelope{
		Data: map[string]any{"valid": valid},
	})
}

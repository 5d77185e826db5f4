package store_test

import (
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest/store"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTokenLifecycle(t *testing.T) {
	s := newStore(t)

	token := store.Token{
		ID:          "s.token-1",
		Accessor:    "accessor-1",
		DisplayName: "token-test",
		Policies:    []string{"default", "readonly"},
		Meta:        map[string]string{"team": "payments"},
		NumUses:     3,
		CreationTTL: 3600,
		ExpiresAt:   1_700_003_600,
		Renewable:   true,
		CreatedAt:   1_700_000_000,
	}
	require.NoError(t, s.CreateToken(t.Context(), token))

	t.Run("round-trips all fields", func(t *testing.T) {
		got, err := s.GetToken(t.Context(), "s.token-1")
		require.NoError(t, err)
		require.Equal(t, token, got)
	})

	t.Run("fetches by accessor", func(t *testing.T) {
		got, err := s.GetTokenByAccessor(t.Context(), "accessor-1")
		require.NoError(t, err)
		require.Equal(t, "s.token-1", got.ID)
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		err := s.CreateToken(t.Context(), store.Token{ID: "s.token-1", Accessor: "other"})
		require.Error(t, err)
	})

	t.Run("expiry updates are visible", func(t *testing.T) {
		require.NoError(t, s.SetTokenExpiry(t.Context(), "s.token-1", 1_700_007_200))
		got, err := s.GetToken(t.Context(), "s.token-1")
		require.NoError(t, err)
		require.Equal(t, int64(1_700_007_200), got.ExpiresAt)
	})

	t.Run("uses count down but never below zero", func(t *testing.T) {
		for want := int64(2); want >= 0; want-- {
			remaining, err := s.DecrementTokenUses(t.Context(), "s.token-1")
			require.NoError(t, err)
			require.Equal(t, want, remaining)
		}

		// Exhausted: further decrements are a no-op.
		remaining, err := s.DecrementTokenUses(t.Context(), "s.token-1")
		require.NoError(t, err)
		require.Zero(t, remaining)
	})

	t.Run("unknown ids are ErrNotFound", func(t *testing.T) {
		_, err := s.GetToken(t.Context(), "s.ghost")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.SetTokenExpiry(t.Context(), "s.ghost", 1)
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.DeleteToken(t.Context(), "s.ghost")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("children are listed for cascade revocation", func(t *testing.T) {
		require.NoError(t, s.CreateToken(t.Context(), store.Token{
			ID: "s.child-1", Accessor: "a-child-1", ParentID: "s.token-1",
		}))
		require.NoError(t, s.CreateToken(t.Context(), store.Token{
			ID: "s.child-2", Accessor: "a-child-2", ParentID: "s.token-1",
		}))

		children, err := s.ListTokenChildren(t.Context(), "s.token-1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"s.child-1", "s.child-2"}, children)
	})

	t.Run("delete removes the token", func(t *testing.T) {
		require.NoError(t, s.DeleteToken(t.Context(), "s.token-1"))
		_, err := s.GetToken(t.Context(), "s.token-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSecretStorage(t *testing.T) {
	s := newStore(t)

	t.Run("put and get preserve wire types", func(t *testing.T) {
		data := map[string]any{"value": "world", "count": float64(42), "on": true}
		require.NoError(t, s.PutSecret(t.Context(), "secret/hello", data, 1_700_000_000))

		got, err := s.GetSecret(t.Context(), "secret/hello")
		require.NoError(t, err)
		require.Equal(t, data, got)
	})

	t.Run("put replaces the previous value", func(t *testing.T) {
		require.NoError(t, s.PutSecret(t.Context(), "secret/hello", map[string]any{"v": "new"}, 1))
		got, err := s.GetSecret(t.Context(), "secret/hello")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"v": "new"}, got)
	})

	t.Run("missing paths are ErrNotFound", func(t *testing.T) {
		_, err := s.GetSecret(t.Context(), "secret/nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list is prefix-scoped and does not over-match", func(t *testing.T) {
		require.NoError(t, s.PutSecret(t.Context(), "secret/app/a", map[string]any{}, 1))
		require.NoError(t, s.PutSecret(t.Context(), "secret/app/b", map[string]any{}, 1))
		require.NoError(t, s.PutSecret(t.Context(), "secret/app_other/c", map[string]any{}, 1))

		paths, err := s.ListSecretPaths(t.Context(), "secret/app/")
		require.NoError(t, err)
		require.Equal(t, []string{"secret/app/a", "secret/app/b"}, paths)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.DeleteSecret(t.Context(), "secret/hello"))
		require.NoError(t, s.DeleteSecret(t.Context(), "secret/hello"))
	})
}

func TestBackendCredentials(t *testing.T) {
	s := newStore(t)

	t.Run("users", func(t *testing.T) {
		user := store.User{Username: "alice", PasswordHash: "$argon2id$...", Policies: []string{"readonly"}}
		require.NoError(t, s.CreateUser(t.Context(), user))

		got, err := s.GetUser(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, user, got)

		_, err = s.GetUser(t.Context(), "mallory")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("approles", func(t *testing.T) {
		role := store.AppRole{RoleID: "role-1", SecretIDHash: "$argon2id$...", Policies: []string{"pipeline"}}
		require.NoError(t, s.CreateAppRole(t.Context(), role))

		got, err := s.GetAppRole(t.Context(), "role-1")
		require.NoError(t, err)
		require.Equal(t, role, got)
	})

	t.Run("app ids", func(t *testing.T) {
		app := store.AppID{AppID: "app-1", UserID: "user-1", DisplayName: "app-1", Policies: []string{"batch"}}
		require.NoError(t, s.CreateAppID(t.Context(), app))

		got, err := s.GetAppID(t.Context(), "app-1")
		require.NoError(t, err)
		require.Equal(t, app, got)
	})

	t.Run("jwt roles", func(t *testing.T) {
		role := store.JWTRole{Name: "ci", BoundSubject: "runner", Policies: []string{"deploy"}}
		require.NoError(t, s.CreateJWTRole(t.Context(), role))

		got, err := s.GetJWTRole(t.Context(), "ci")
		require.NoError(t, err)
		require.Equal(t, role, got)
	})

	t.Run("totp keys upsert", func(t *testing.T) {
		key := store.TOTPKey{Name: "deploy", Issuer: "x", Account: "y", Secret: "abc", Period: 30, Digits: 6}
		require.NoError(t, s.PutTOTPKey(t.Context(), key))

		key.Secret = "rotated"
		require.NoError(t, s.PutTOTPKey(t.Context(), key))

		got, err := s.GetTOTPKey(t.Context(), "deploy")
		require.NoError(t, err)
		require.Equal(t, "rotated", got.Secret)
	})
}

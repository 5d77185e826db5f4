package vaultsdk_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/vaultsdk/internal/vaulttest"
	"github.com/aussiebroadwan/vaultsdk/pkg/vaultsdk"
	"github.com/stretchr/testify/require"
)

func TestLogicalReadWrite(t *testing.T) {
	srv := vaulttest.New(t)
	client := newTestClient(t, srv, srv.RootToken())

	t.Run("write then read round-trips values", func(t *testing.T) {
		_, err := client.Logical().Write(t.Context(), "secret/hello", map[string]any{
			"value":   "world",
			"count":   42,
			"enabled": true,
		})
		require.NoError(t, err)

		resp, err := client.Logical().Read(t.Context(), "secret/hello")
		require.NoError(t, err)

		data := resp.Data()
		require.Equal(t, "world", data["value"])
		require.Equal(t, "42", data["count"])
		require.Equal(t, "true", data["enabled"])

		// The typed form stays available through the envelope.
		require.Equal(t, float64(42), resp.Envelope.Data["count"])
	})

	t.Run("rewriting a path replaces the previous value", func(t *testing.T) {
		_, err := client.Logical().Write(t.Context(), "secret/rotating", map[string]any{"v": "one"})
		require.NoError(t, err)
		_, err = client.Logical().Write(t.Context(), "secret/rotating", map[string]any{"v": "two"})
		require.NoError(t, err)

		resp, err := client.Logical().Read(t.Context(), "secret/rotating")
		require.NoError(t, err)
		require.Equal(t, "two", resp.Data()["v"])
	})

	t.Run("nil data is a valid write", func(t *testing.T) {
		resp, err := client.Logical().Write(t.Context(), "secret/empty", nil)
		require.NoError(t, err)
		require.Empty(t, resp.Data())

		read, err := client.Logical().Read(t.Context(), "secret/empty")
		require.NoError(t, err)
		require.Empty(t, read.Data())
	})

	t.Run("reading an absent path is a NotFoundError", func(t *testing.T) {
		_, err := client.Logical().Read(t.Context(), "secret/never-written")
		var notFound *vaultsdk.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("delete removes the secret", func(t *testing.T) {
		_, err := client.Logical().Write(t.Context(), "secret/doomed", map[string]any{"v": "x"})
		require.NoError(t, err)

		require.NoError(t, client.Logical().Delete(t.Context(), "secret/doomed"))

		_, err = client.Logical().Read(t.Context(), "secret/doomed")
		var notFound *vaultsdk.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("deleting an absent path is a no-op", func(t *testing.T) {
		require.NoError(t, client.Logical().Delete(t.Context(), "secret/never-written"))
	})

	t.Run("requests without a token are rejected", func(t *testing.T) {
		anon := newTestClient(t, srv, "")
		_, err := anon.Logical().Read(t.Context(), "secret/hello")
		requireAPIError(t, err, http.StatusForbidden)
	})
}

func TestLogicalList(t *testing.T) {
	srv := vaulttest.New(t)
	client := newTestClient(t, srv, srv.RootToken())

	for _, path := range []string{
		"secret/app/db",
		"secret/app/cache",
		"secret/app/nested/deep",
	} {
		_, err := client.Logical().Write(t.Context(), path, map[string]any{"v": "x"})
		require.NoError(t, err)
	}

	t.Run("lists direct keys and sub-paths", func(t *testing.T) {
		resp, err := client.Logical().List(t.Context(), "secret/app")
		require.NoError(t, err)
		require.Equal(t, []string{"cache", "db", "nested/"}, resp.ListKeys())
	})

	t.Run("sub-paths can be listed in turn", func(t *testing.T) {
		resp, err := client.Logical().List(t.Context(), "secret/app/nested")
		require.NoError(t, err)
		require.Equal(t, []string{"deep"}, resp.ListKeys())
	})

	t.Run("listing an empty prefix is a NotFoundError", func(t *testing.T) {
		_, err := client.Logical().List(t.Context(), "secret/nothing-here")
		var notFound *vaultsdk.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestTOTPEngine(t *testing.T) {
	srv := vaulttest.New(t)
	client := newTestClient(t, srv, srv.RootToken())

	t.Run("created key produces verifiable codes", func(t *testing.T) {
		created, err := client.Logical().Write(t.Context(), "totp/keys/deploy", map[string]any{
			"issuer":       "vaulttest",
			"account_name": "deploy@example.com",
		})
		require.NoError(t, err)
		require.Contains(t, created.Data()["url"], "otpauth://totp/")

		code, err := client.Logical().Read(t.Context(), "totp/code/deploy")
		require.NoError(t, err)
		require.Len(t, code.Data()["code"], 6)

		verified, err := client.Logical().Write(t.Context(), "totp/code/deploy", map[string]any{
			"code": code.Data()["code"],
		})
		require.NoError(t, err)
		require.Equal(t, "true", verified.Data()["valid"])
	})

	t.Run("stale codes fail verification", func(t *testing.T) {
		_, err := client.Logical().Write(t.Context(), "totp/keys/stale", map[string]any{
			"issuer":       "vaulttest",
			"account_name": "stale@example.com",
		})
		require.NoError(t, err)

		code, err := client.Logical().Read(t.Context(), "totp/code/stale")
		require.NoError(t, err)

		// Far outside the accept window for a 30 second period.
		srv.Advance(10 * time.Minute)

		verified, err := client.Logical().Write(t.Context(), "totp/code/stale", map[string]any{
			"code": code.Data()["code"],
		})
		require.NoError(t, err)
		require.Equal(t, "false", verified.Data()["valid"])
	})

	t.Run("key creation requires issuer and account", func(t *testing.T) {
		_, err := client.Logical().Write(t.Context(), "totp/keys/incomplete", map[string]any{
			"issuer": "vaulttest",
		})
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("code for an unknown key is a NotFoundError", func(t *testing.T) {
		_, err := client.Logical().Read(t.Context(), "totp/code/ghost")
		var notFound *vaultsdk.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

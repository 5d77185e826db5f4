package vault_test

import (
	"testing"

	"github.com/aussiebroadwan/vaultsdk/pkg/vaultsdk"
	"github.com/stretchr/testify/require"
)

func TestTokenLifecycleE2E(t *testing.T) {
	client, _ := setupVaultContainer(t)

	// Create a child token with explicit options.
	auth, err := client.Auth().CreateToken(t.Context(), &vaultsdk.TokenRequest{
		TTL:      "1h",
		Policies: []string{"default"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, auth.ClientToken)
	require.NotEmpty(t, auth.Accessor)

	session := client.WithToken(auth.ClientToken)

	// The service reports the configured creation TTL and a remaining TTL
	// that never exceeds it.
	lookup, err := session.Auth().LookupSelf(t.Context())
	require.NoError(t, err)
	require.Equal(t, auth.ClientToken, lookup.ID)
	require.Equal(t, int64(3600), lookup.CreationTTL)
	require.LessOrEqual(t, lookup.TTL, lookup.CreationTTL)
	require.Positive(t, lookup.TTL)

	// Renewal extends the lease.
	renewed, err := session.Auth().RenewSelf(t.Context(), 1800)
	require.NoError(t, err)
	require.Positive(t, renewed.LeaseDuration)

	// Lookup by accessor withholds the token value.
	byAccessor, err := client.Token().LookupAccessor(t.Context(), auth.Accessor)
	require.NoError(t, err)
	require.Empty(t, byAccessor.ID)
	require.Equal(t, auth.Accessor, byAccessor.Accessor)

	// Revocation by accessor cuts the token off.
	require.NoError(t, client.Token().RevokeAccessor(t.Context(), auth.Accessor))

	_, err = session.Auth().LookupSelf(t.Context())
	var apiErr *vaultsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.StatusCode)
}

func TestSecretsE2E(t *testing.T) {
	client, _ := setupVaultContainer(t)

	_, err := client.Logical().Write(t.Context(), "secret/e2e/hello", map[string]any{
		"value": "world",
		"count": 42,
	})
	require.NoError(t, err)

	read, err := client.Logical().Read(t.Context(), "secret/e2e/hello")
	require.NoError(t, err)
	require.Equal(t, "world", read.Data()["value"])
	require.Equal(t, "42", read.Data()["count"])

	list, err := client.Logical().List(t.Context(), "secret/e2e")
	require.NoError(t, err)
	require.Contains(t, list.ListKeys(), "hello")

	require.NoError(t, client.Logical().Delete(t.Context(), "secret/e2e/hello"))

	_, err = client.Logical().Read(t.Context(), "secret/e2e/hello")
	var notFound *vaultsdk.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUserPassLoginE2E(t *testing.T) {
	client, container := setupVaultContainer(t)

	execVault(t, container, "auth", "enable", "userpass")

	_, err := client.Logical().Write(t.Context(), "auth/userpass/users/alice", map[string]any{
		"password": "correct horse battery",
		"policies": "default",
	})
	require.NoError(t, err)

	auth, err := client.Auth().LoginByUserPass(t.Context(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, auth.ClientToken)
	require.Contains(t, auth.Policies, "default")

	// The minted token authenticates on its own.
	session := client.WithToken(auth.ClientToken)
	lookup, err := session.Auth().LookupSelf(t.Context())
	require.NoError(t, err)
	require.Equal(t, auth.ClientToken, lookup.ID)

	// Bad credentials are an APIError, never a panic or a retry storm.
	_, err = client.Auth().LoginByUserPass(t.Context(), "alice", "wrong")
	var apiErr *vaultsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.StatusCode)
}

func TestAppRoleLoginE2E(t *testing.T) {
	client, container := setupVaultContainer(t)

	execVault(t, container, "auth", "enable", "approle")

	_, err := client.Logical().Write(t.Context(), "auth/approle/role/e2e-role", map[string]any{
		"token_policies": "default",
		"token_ttl":      "1h",
	})
	require.NoError(t, err)

	roleID, err := client.Logical().Read(t.Context(), "auth/approle/role/e2e-role/role-id")
	require.NoError(t, err)
	require.NotEmpty(t, roleID.Data()["role_id"])

	secretID, err := client.Logical().Write(t.Context(), "auth/approle/role/e2e-role/secret-id", nil)
	require.NoError(t, err)
	require.NotEmpty(t, secretID.Data()["secret_id"])

	auth, err := client.Auth().LoginByAppRole(t.Context(),
		"approle",
		roleID.Data()["role_id"],
		secretID.Data()["secret_id"],
	)
	require.NoError(t, err)
	require.NotEmpty(t, auth.ClientToken)

	_, err = client.Auth().LoginByAppRole(t.Context(), "approle", roleID.Data()["role_id"], "bogus")
	var apiErr *vaultsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.StatusCode)
}

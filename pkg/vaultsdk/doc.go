/*
Package vaultsdk provides a client SDK for a Vault-compatible secrets
management service.

# Overview

The package wraps the service's HTTP API behind three small sub-APIs hung
off a shared Client:

  - Auth: login flows and operations on the client's own token
  - TokenAuth: administrative operations on other tokens, by value or accessor
  - Logical: generic secret reads, writes, deletes, and lists

Every call takes a context.Context and returns an explicit error. The
Client is safe for concurrent use; per-request state never leaks between
goroutines.

# Configuration

Config carries the service address, the token, timeouts, TLS material, and
the retry policy. Only Address is required:

	client, err := vaultsdk.NewClient(vaultsdk.Config{
		Address:    "https://vault.example.com",
		Token:      token,
		MaxRetries: 3,
	})

ConfigFromEnv builds a Config from VAULT_ADDR, VAULT_TOKEN, and the other
VAULT_* variables, for tooling that follows the conventional environment
contract.

# Authentication

Logins exchange backend credentials for a token. The returned token is not
installed on the client automatically; WithToken derives a client that
sends it:

	auth, err := client.Auth().LoginByUserPass(ctx, "alice", password)
	if err != nil {
		return err
	}
	client = client.WithToken(auth.ClientToken)

App ID, AppRole, and JWT logins work the same way through LoginByAppID,
LoginByAppRole, and LoginByJWT. Token self-operations (CreateToken,
RenewSelf, LookupSelf, RevokeSelf) act on whatever token the client
currently holds.

# Secrets

Logical addresses secrets by path. Keys and values are opaque to the SDK:

	if _, err := client.Logical().Write(ctx, "secret/hello", map[string]any{
		"value": "world",
	}); err != nil {
		return err
	}

	secret, err := client.Logical().Read(ctx, "secret/hello")
	if err != nil {
		return err
	}
	fmt.Println(secret.Data()["value"])

Reading an absent path fails with *NotFoundError, which callers typically
branch on rather than treat as a failure.

# Errors

Failures carry typed errors so callers can tell transport trouble from
server rejection:

  - NetworkError: the request never completed, after all retries
  - APIError: the service answered non-2xx with decoded error messages
  - NotFoundError: a read addressed a path with nothing at it
  - ParseError: a 2xx response body that was not valid JSON
  - EnvelopeError: a decoded response missing a section the operation requires
  - TransportError: a response that could not be read or decoded at all

Match with errors.As:

	var apiErr *vaultsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 403 {
		// permission denied
	}

Errors never contain token values.

# Retries

Requests that fail at the socket level or with a 5xx status are retried up
to Config.MaxRetries times, pausing Config.RetryInterval between attempts.
4xx responses, context cancellation, and malformed response bodies are
never retried. NetworkError and APIError report how many attempts were
made.
*/
package vaultsdk

// vaultctl is a small operational CLI over the SDK: read, write, and list
// secrets, and inspect or renew the current token. Connection settings come
// from the conventional VAULT_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/vaultsdk/pkg/slogx"
	"github.com/aussiebroadwan/vaultsdk/pkg/vaultsdk"
)

const usage = `usage: vaultctl <command> [args]

commands:
  read <path>                 read the secret at path
  write <path> k=v [k=v ...]  write key/value pairs to path
  delete <path>               delete the secret at path
  list <path>                 list keys under path
  login <username>            userpass login, password via VAULT_PASSWORD
  token-lookup                inspect the current token
  token-renew [seconds]       renew the current token

environment: VAULT_ADDR, VAULT_TOKEN, VAULT_MAX_RETRIES, VAULT_SSL_CERT, ...`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := vaultsdk.ConfigFromEnv()
	cfg.Logger = slogx.New(slogx.Config{
		Service: "vaultctl",
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  "text",
		Output:  os.Stderr,
	})

	client, err := vaultsdk.NewClient(cfg)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, client *vaultsdk.Client, command string, args []string) error {
	switch command {
	case "read":
		if len(args) != 1 {
			return fmt.Errorf("read takes exactly one path")
		}
		resp, err := client.Logical().Read(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(resp.Data())

	case "write":
		if len(args) < 1 {
			return fmt.Errorf("write takes a path and key=value pairs")
		}
		data, err := parsePairs(args[1:])
		if err != nil {
			return err
		}
		_, err = client.Logical().Write(ctx, args[0], data)
		return err

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("delete takes exactly one path")
		}
		return client.Logical().Delete(ctx, args[0])

	case "list":
		if len(args) != 1 {
			return fmt.Errorf("list takes exactly one path")
		}
		resp, err := client.Logical().List(ctx, args[0])
		if err != nil {
			return err
		}
		for _, key := range resp.ListKeys() {
			fmt.Println(key)
		}
		return nil

	case "login":
		if len(args) != 1 {
			return fmt.Errorf("login takes exactly one username")
		}
		password := os.Getenv("VAULT_PASSWORD")
		if password == "" {
			return fmt.Errorf("set VAULT_PASSWORD for userpass login")
		}
		auth, err := client.Auth().LoginByUserPass(ctx, args[0], password)
		if err != nil {
			return err
		}
		// The token goes to stdout for shell capture; everything else
		// stays on stderr.
		fmt.Println(auth.ClientToken)
		return nil

	case "token-lookup":
		lookup, err := client.Auth().LookupSelf(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"accessor":     lookup.Accessor,
			"display_name": lookup.DisplayName,
			"policies":     lookup.Policies,
			"creation_ttl": lookup.CreationTTL,
			"ttl":          lookup.TTL,
			"renewable":    lookup.Renewable,
		})

	case "token-renew":
		var increment int64
		if len(args) == 1 {
			parsed, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid increment %q", args[0])
			}
			increment = parsed
		}
		renewed, err := client.Auth().RenewSelf(ctx, increment)
		if err != nil {
			return err
		}
		fmt.Printf("lease_duration: %d\n", renewed.LeaseDuration)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func parsePairs(args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		data[key] = value
	}
	return data, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "vaultctl:", err)
	os.Exit(1)
}

// Package store is the sqlite persistence layer behind the in-process test
// service. It holds tokens, auth backend credentials, and secrets.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Token is a service token as persisted. TTL accounting is done by the
// server against ExpiresAt; ExpiresAt == 0 means the token never expires.
type Token struct {
	ID          string
	Accessor    string
	ParentID    string
	DisplayName string
	Policies    []string
	Meta        map[string]string
	NumUses     int64
	CreationTTL int64
	ExpiresAt   int64
	Renewable   bool
	CreatedAt   int64
}

// User is a username/password credential for the userpass backend.
type User struct {
	Username     string
	PasswordHash string
	Policies     []string
}

// AppID is a legacy app-id backend credential pair.
type AppID struct {
	AppID       string
	UserID      string
	DisplayName string
	Policies    []string
}

// AppRole is an approle backend role. Only the secret ID hash is stored.
type AppRole struct {
	RoleID       string
	SecretIDHash string
	Policies     []string
}

// JWTRole binds a JWT login role to an expected subject claim.
type JWTRole struct {
	Name         string
	BoundSubject string
	Policies     []string
}

// TOTPKey is a key held by the TOTP secret engine.
type TOTPKey struct {
	Name    string
	Issuer  string
	Account string
	Secret  string
	Period  int64
	Digits  int64
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at dsn and applies pending
// migrations. Tests normally pass a file under t.TempDir().
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func decodeStringMap(raw string) map[string]string {
	var out map[string]string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

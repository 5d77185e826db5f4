package store

import (
	"context"
	"encoding/json"
)

// PutSecret stores data at path, replacing any previous value. Data is
// kept as raw JSON so values round-trip with their wire types intact.
func (s *Store) PutSecret(ctx context.Context, path string, data map[string]any, now int64) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO secrets (path, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, string(raw), now,
	)
	return err
}

func (s *Store) GetSecret(ctx context.Context, path string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM secrets WHERE path = ?`, path).Scan(&raw)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteSecret removes the secret at path. Absent paths are a no-op.
func (s *Store) DeleteSecret(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE path = ?`, path)
	return err
}

// ListSecretPaths returns every stored path under prefix, ordered. The
// server folds these into direct keys and sub-path markers.
func (s *Store) ListSecretPaths(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM secrets
		WHERE path LIKE ? ESCAPE '\'
		ORDER BY path`, escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *Store) PutTOTPKey(ctx context.Context, k TOTPKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO totp_keys (name, issuer, account, secret, period, digits)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			issuer = excluded.issuer, account = excluded.account,
			secret = excluded.secret, period = excluded.period,
			digits = excluded.digits`,
		k.Name, k.Issuer, k.Account, k.Secret, k.Period, k.Digits,
	)
	return err
}

func (s *Store) GetTOTPKey(ctx context.Context, name string) (TOTPKey, error) {
	var k TOTPKey
	err := s.db.QueryRowContext(ctx, `
		SELECT name, issuer, account, secret, period, digits
		FROM totp_keys WHERE name = ?`, name,
	).Scan(&k.Name, &k.Issuer, &k.Account, &k.Secret, &k.Period, &k.Digits)
	if err != nil {
		return TOTPKey{}, mapNotFound(err)
	}
	return k, nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

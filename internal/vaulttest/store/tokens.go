package store

import (
	"context"
	"database/sql"
)

const tokenColumns = `id, accessor, parent_id, display_name, policies, meta,
	num_uses, creation_ttl, expires_at, renewable, created_at`

func (s *Store) CreateToken(ctx context.Context, t Token) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Accessor, nullableString(t.ParentID), t.DisplayName,
		encodeJSON(t.Policies), encodeJSON(t.Meta),
		t.NumUses, t.CreationTTL, t.ExpiresAt, t.Renewable, t.CreatedAt,
	)
	return err
}

func (s *Store) GetToken(ctx context.Context, id string) (Token, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE id = ?`, id)
	return scanToken(row)
}

func (s *Store) GetTokenByAccessor(ctx context.Context, accessor string) (Token, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE accessor = ?`, accessor)
	return scanToken(row)
}

// SetTokenExpiry updates when the token lapses. Renewals call this with
// now + the granted increment.
func (s *Store) SetTokenExpiry(ctx context.Context, id string, expiresAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tokens SET expires_at = ? WHERE id = ?`, expiresAt, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DecrementTokenUses burns one use off a use-limited token and returns the
// remaining count. Tokens with num_uses = 0 are unlimited and unaffected.
func (s *Store) DecrementTokenUses(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tokens SET num_uses = num_uses - 1
		WHERE id = ? AND num_uses > 0`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return 0, err
	}

	var remaining int64
	err = s.db.QueryRowContext(ctx,
		`SELECT num_uses FROM tokens WHERE id = ?`, id).Scan(&remaining)
	return remaining, mapNotFound(err)
}

func (s *Store) DeleteToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListTokenChildren returns the ids of tokens created under parentID, so
// revocation can cascade down the tree.
func (s *Store) ListTokenChildren(ctx context.Context, parentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM tokens WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanToken(row *sql.Row) (Token, error) {
	var (
		t        Token
		parent   sql.NullString
		policies string
		meta     string
	)
	err := row.Scan(
		&t.ID, &t.Accessor, &parent, &t.DisplayName, &policies, &meta,
		&t.NumUses, &t.CreationTTL, &t.ExpiresAt, &t.Renewable, &t.CreatedAt,
	)
	if err != nil {
		return Token{}, mapNotFound(err)
	}

	if parent.Valid {
		t.ParentID = parent.String
	}
	t.Policies = decodeStrings(policies)
	t.Meta = decodeStringMap(meta)
	return t, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import "context"

func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, policies)
		VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, encodeJSON(u.Policies),
	)
	return err
}

func (s *Store) GetUser(ctx context.Context, username string) (User, error) {
	var (
		u        User
		policies string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash, policies
		FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.PasswordHash, &policies)
	if err != nil {
		return User{}, mapNotFound(err)
	}
	u.Policies = decodeStrings(policies)
	return u, nil
}

func (s *Store) CreateAppID(ctx context.Context, a AppID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_ids (app_id, user_id, display_name, policies)
		VALUES (?, ?, ?, ?)`,
		a.AppID, a.UserID, a.DisplayName, encodeJSON(a.Policies),
	)
	return err
}

func (s *Store) GetAppID(ctx context.Context, appID string) (AppID, error) {
	var (
		a        AppID
		policies string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT app_id, user_id, display_name, policies
		FROM app_ids WHERE app_id = ?`, appID,
	).Scan(&a.AppID, &a.UserID, &a.DisplayName, &policies)
	if err != nil {
		return AppID{}, mapNotFound(err)
	}
	a.Policies = decodeStrings(policies)
	return a, nil
}

func (s *Store) CreateAppRole(ctx context.Context, r AppRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approles (role_id, secret_id_hash, policies)
		VALUES (?, ?, ?)`,
		r.RoleID, r.SecretIDHash, encodeJSON(r.Policies),
	)
	return err
}

func (s *Store) GetAppRole(ctx context.Context, roleID string) (AppRole, error) {
	var (
		r        AppRole
		policies string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT role_id, secret_id_hash, policies
		FROM approles WHERE role_id = ?`, roleID,
	).Scan(&r.RoleID, &r.SecretIDHash, &policies)
	if err != nil {
		return AppRole{}, mapNotFound(err)
	}
	r.Policies = decodeStrings(policies)
	return r, nil
}

func (s *Store) CreateJWTRole(ctx context.Context, r JWTRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jwt_roles (name, bound_subject, policies)
		VALUES (?, ?, ?)`,
		r.Name, r.BoundSubject, encodeJSON(r.Policies),
	)
	return err
}

func (s *Store) GetJWTRole(ctx context.Context, name string) (JWTRole, error) {
	var (
		r        JWTRole
		policies string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, bound_subject, policies
		FROM jwt_roles WHERE name = ?`, name,
	).Scan(&r.Name, &r.BoundSubject, &policies)
	if err != nil {
		return JWTRole{}, mapNotFound(err)
	}
	r.Policies = decodeStrings(policies)
	return r, nil
}

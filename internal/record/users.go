package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Authenticate checks a username/password pair against the users table.
// It reports false, rather than an error, when the pair does not match.
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var id int
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1 AND password = $2`,
		username, password).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authenticate: %w", err)
	}
	return true, nil
}

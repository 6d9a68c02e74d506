package sqlstore

import (
	"context"
	"fmt"

	"github.com/example/app-bouncer/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a user repository bound to pool.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `INSERT INTO users (id, name, surname, joined) VALUES (?, ?, ?, ?)`
	if _, err := r.helper.Exec(ctx, query, user.ID, user.Name, user.Surname, persistence.FormatTimestamp(user.Joined)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	const query = `SELECT id, name, surname, joined FROM users WHERE id = ?`
	var (
		user   persistence.User
		joined string
	)
	if err := r.helper.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Surname, &joined); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	t, err := persistence.ParseTimestamp(joined)
	if err != nil {
		return persistence.User{}, fmt.Errorf("sqlstore: parse joined for user %s: %w", id, err)
	}
	user.Joined = t
	return user, nil
}

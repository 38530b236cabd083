package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/google/uuid"
)

// constraintFields maps unique constraint names from the users migration to
// the user attribute they protect.
var constraintFields = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
}

const selectUser = `SELECT id, email, username, full_name, hashed_password, is_active, created_at, updated_at
		 FROM users`

// PostgresRepository implements Repository over dbx.DBTX, so it works both
// on *sql.DB and inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user, assigning a new id when user.ID is zero.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query :=
		`INSERT INTO users (id, email, username, full_name, hashed_password, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.FullName, user.PasswordHash, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`
		 WHERE email = $1`, email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, selectUser+`
		 WHERE id = $1`, id)
}

// GetUserByIDForUpdate locks the row until the surrounding transaction ends,
// so a concurrent read-modify-write of the same user waits for this one.
func (r *PostgresRepository) GetUserByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, selectUser+`
		 WHERE id = $1
		 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.UserName, &user.FullName,
		&user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Update writes every mutable column of user.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET email = $2, username = $3, full_name = $4, hashed_password = $5, is_active = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.FullName, user.PasswordHash, user.IsActive,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, translateError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// translateError turns a unique violation on a known constraint into a
// *common.UniqueViolationError naming the field.
func translateError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		if field, known := constraintFields[constraint]; known {
			return &common.UniqueViolationError{Field: field}
		}
	}
	return fmt.Errorf("db error: %w", err)
}

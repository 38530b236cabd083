// Package users provides the PostgreSQL-backed user store.
package users

import (
	"context"

	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the user store used by the auth services.
//
// Create and Update fail with *common.UniqueViolationError when the email or
// username is taken; lookups fail with common.ErrorNotFound.
// GetUserByIDForUpdate must run inside a transaction.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

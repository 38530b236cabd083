// Package services contains server-side business logic. AuthService owns
// registration, login, token issuance and profile updates; CurrentUserResolver
// turns an Authorization header into the calling user.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/logging"
	"github.com/dmitrijs2005/promptlazy/internal/server/auth"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ProfileUpdate lists the profile fields a caller wants to change. A nil or
// empty field is left as is.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	FullName        *string
	NewPassword     *string
	CurrentPassword *string
}

// AuthService provides the credential and token operations.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenCodec
	logger      logging.Logger

	// dummyHash is verified against on the unknown-email login path.
	dummyHash string
}

// NewAuthService wires an AuthService. logger may be nil. It hashes a random
// throwaway password up front and fails if the hasher cannot.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens *auth.TokenCodec, logger logging.Logger) (*AuthService, error) {
	if logger == nil {
		logger = logging.Nop{}
	}

	plain, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("component", "auth_service"),
		dummyHash:   dummy,
	}, nil
}

// Register creates an active user. A taken email or username is reported as
// *common.DuplicateIdentityError naming the field; the store constraint is the
// only uniqueness check.
func (s *AuthService) Register(ctx context.Context, email, password, username, fullName string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        normalizeEmail(email),
		UserName:     username,
		FullName:     fullName,
		PasswordHash: hash,
		IsActive:     true,
	}

	repo := s.repomanager.Users(s.db)
	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, translateUniqueViolation(err, "create user")
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID.String())
	return created, nil
}

// Login returns the user owning email when password matches. An unknown
// email and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the response time close to the wrong-password path
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// IssueTokenPair mints an access and a refresh token for userID.
func (s *AuthService) IssueTokenPair(userID uuid.UUID) (*TokenPair, error) {
	subject := userID.String()

	access, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access.Value, RefreshToken: refresh.Value}, nil
}

// Refresh exchanges a valid refresh token for a new access token with the
// same subject. The refresh token itself stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return "", err
	}

	s.logger.Debug(ctx, "access token refreshed", "user_id", subject)
	return access.Value, nil
}

// UpdateProfile applies upd to the user in a single transaction. Setting a
// new password requires the current one; both hashing steps run before the
// transaction opens. The row is locked for the read-modify-write, so
// concurrent updates of one user apply one after the other.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	changePassword := isSet(upd.NewPassword)
	if changePassword && !isSet(upd.CurrentPassword) {
		return nil, common.ErrMissingCurrentPassword
	}

	var verifiedHash, newHash string
	if changePassword {
		current, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
		if err != nil {
			return nil, userLoadError(err)
		}
		if !s.hasher.Verify(*upd.CurrentPassword, current.PasswordHash) {
			return nil, common.ErrIncorrectPassword
		}
		verifiedHash = current.PasswordHash

		newHash, err = s.hasher.Hash(*upd.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByIDForUpdate(ctx, userID)
		if err != nil {
			return userLoadError(err)
		}

		if changePassword {
			// the password changed between the check above and the lock
			if user.PasswordHash != verifiedHash && !s.hasher.Verify(*upd.CurrentPassword, user.PasswordHash) {
				return common.ErrIncorrectPassword
			}
			user.PasswordHash = newHash
		}
		if isSet(upd.Email) {
			user.Email = normalizeEmail(*upd.Email)
		}
		if isSet(upd.Username) {
			user.UserName = *upd.Username
		}
		if isSet(upd.FullName) {
			user.FullName = *upd.FullName
		}

		updated, err = repo.Update(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return translateUniqueViolation(err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "profile updated", "user_id", userID.String(), "password_changed", changePassword)
	return updated, nil
}

func userLoadError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrUserNotFound
	}
	return fmt.Errorf("load user: %w", err)
}

func translateUniqueViolation(err error, op string) error {
	var uv *common.UniqueViolationError
	if errors.As(err, &uv) {
		return &common.DuplicateIdentityError{Field: uv.Field}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isSet(v *string) bool {
	return v != nil && *v != ""
}

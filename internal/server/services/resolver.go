package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/server/auth"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenVerifier checks a token of the expected type and returns its subject.
// *auth.TokenCodec implements it.
type TokenVerifier interface {
	Verify(token string, expected auth.TokenType) (string, error)
}

// CurrentUserResolver maps an Authorization header to the user it belongs to.
// Every call hits the store; nothing is cached.
type CurrentUserResolver struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	tokens      TokenVerifier
}

func NewCurrentUserResolver(db dbx.DBTX, m repomanager.RepositoryManager, tokens TokenVerifier) *CurrentUserResolver {
	return &CurrentUserResolver{db: db, repomanager: m, tokens: tokens}
}

// Resolve expects "Bearer <access token>". Without the prefix no verification
// is attempted. Inactive users are returned as is.
func (r *CurrentUserResolver) Resolve(ctx context.Context, authorization string) (*models.User, error) {
	raw, ok := strings.CutPrefix(authorization, common.BearerPrefix)
	if !ok {
		return nil, common.ErrMissingBearerPrefix
	}

	subject, err := r.tokens.Verify(raw, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, common.ErrUserNotFound
	}

	user, err := r.repomanager.Users(r.db).GetUserByID(ctx, id)
	if err != nil {
		return nil, userLoadError(err)
	}

	return user, nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/strmhub/account-service/internal/domain/account/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	// GetUserByIdentity matches either the username or the email.
	GetUserByIdentity(ctx context.Context, username, email string) (model.User, error)

	// SetRefreshToken overwrites the stored refresh token, invalidating
	// whatever was there before.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error

	// RotateRefreshToken swaps old for new only while old is still the
	// stored token. Returns ErrInvalidToken when the stored token no
	// longer matches.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, new string) error

	ClearRefreshToken(ctx context.Context, id uuid.UUID) error

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) (model.User, error)

	UpdateAvatar(ctx context.Context, id uuid.UUID, m model.Media) (model.User, error)

	UpdateCoverImage(ctx context.Context, id uuid.UUID, m model.Media) (model.User, error)
}

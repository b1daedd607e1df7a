package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"gorm.io/gorm"
)

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByID")
	}

	return u, nil
}

func (p *PostgresUserRepo) GetUserByIdentity(ctx context.Context, username, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByIdentity")
	}

	return u, nil
}

func (p *PostgresUserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("current_refresh_token", token)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

// RotateRefreshToken only succeeds while old is still the stored token, so
// two concurrent refresh calls cannot both rotate.
func (p *PostgresUserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, new string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND current_refresh_token = ?", id, old).
		Update("current_refresh_token", new)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrInvalidToken
	}

	return nil
}

func (p *PostgresUserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("current_refresh_token", "")
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ClearRefreshToken")
	}

	return nil
}

func (p *PostgresUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdatePassword")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

func (p *PostgresUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) (model.User, error) {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"full_name": fullName, "email": email})
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "UpdateProfile")
	}
	if res.RowsAffected == 0 {
		return model.User{}, customErrors.ErrNotFound
	}

	return p.GetUserByID(ctx, id)
}

func (p *PostgresUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, m model.Media) (model.User, error) {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"avatar_url": m.URL, "avatar_key": m.Key})
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdateAvatar")
	}
	if res.RowsAffected == 0 {
		return model.User{}, customErrors.ErrNotFound
	}

	return p.GetUserByID(ctx, id)
}

func (p *PostgresUserRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, m model.Media) (model.User, error) {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"cover_image_url": m.URL, "cover_image_key": m.Key})
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdateCoverImage")
	}
	if res.RowsAffected == 0 {
		return model.User{}, customErrors.ErrNotFound
	}

	return p.GetUserByID(ctx, id)
}

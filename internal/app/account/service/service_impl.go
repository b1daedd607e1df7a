package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/strmhub/account-service/internal/adapters/transport/http/dto"
	accountJwt "github.com/strmhub/account-service/internal/app/account/jwt"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"github.com/strmhub/account-service/internal/infra/config"
	"github.com/strmhub/account-service/internal/repo"
	"go.uber.org/zap"
)

type accountService struct {
	userRepo   repo.UserRepo
	mediaStore repo.MediaStore
	tokens     accountJwt.TokenService
	cfg        *config.Config
	v          *validator.Validate
	log        *zap.Logger
}

func New(userRepo repo.UserRepo, mediaStore repo.MediaStore, tokens accountJwt.TokenService,
	cfg *config.Config, v *validator.Validate, log *zap.Logger) Service {
	return &accountService{
		userRepo:   userRepo,
		mediaStore: mediaStore,
		tokens:     tokens,
		cfg:        cfg,
		v:          v,
		log:        log,
	}
}

// discardMedia is cleanup after a failed flow: delete failures are logged
// and swallowed so they never mask the original error.
func (a *accountService) discardMedia(ctx context.Context, media ...model.Media) {
	for _, m := range media {
		if m.Key == "" {
			continue
		}
		if err := a.mediaStore.Delete(ctx, m.Key); err != nil {
			a.log.Warn("failed to delete uploaded media",
				zap.String("key", m.Key), zap.Error(err))
		}
	}
}

func (a *accountService) issueTokenPair(ctx context.Context, userID uuid.UUID) (model.TokenPair, error) {
	accessToken, atExp, err := a.tokens.GenerateAccessToken(userID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issueTokenPair")
	}
	refreshToken, rtExp, err := a.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issueTokenPair")
	}

	now := time.Now()

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       userID,
	}, nil
}

func (a *accountService) Register(ctx context.Context, d dto.RegisterDTO, avatar, cover *model.FileUpload) (model.PublicUser, error) {
	if err := a.v.Struct(d); err != nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}
	if avatar == nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument("avatar is required")
	}

	username := strings.ToLower(d.Username)

	_, err := a.userRepo.GetUserByIdentity(ctx, username, d.Email)
	if err == nil {
		return model.PublicUser{}, customErrors.ErrAlreadyExists
	}
	if !errors.Is(err, customErrors.ErrNotFound) {
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	avatarMedia, err := a.mediaStore.Upload(ctx, *avatar)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "upload avatar")
	}

	var coverMedia model.Media
	if cover != nil {
		coverMedia, err = a.mediaStore.Upload(ctx, *cover)
		if err != nil {
			a.discardMedia(ctx, avatarMedia)
			return model.PublicUser{}, customErrors.WrapInternal(err, "upload cover image")
		}
	}

	passwordHash, err := argon2id.CreateHash(d.Password+a.cfg.PasswordPepper, argon2id.DefaultParams)
	if err != nil {
		a.discardMedia(ctx, avatarMedia, coverMedia)
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:            uuid.New(),
		Username:      username,
		Email:         d.Email,
		FullName:      d.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarMedia.URL,
		AvatarKey:     avatarMedia.Key,
		CoverImageURL: coverMedia.URL,
		CoverImageKey: coverMedia.Key,
	}

	id, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		// compensating delete: the uploads must not outlive a failed
		// registration
		a.discardMedia(ctx, avatarMedia, coverMedia)
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.PublicUser{}, customErrors.ErrAlreadyExists
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	created, err := a.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	return created.Public(), nil
}

func (a *accountService) Login(ctx context.Context, d dto.LoginDTO) (model.PublicUser, model.TokenPair, error) {
	if err := a.v.Struct(d); err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByIdentity(ctx, strings.ToLower(d.Username), d.Email)
	if errors.Is(err, customErrors.ErrNotFound) {
		return model.PublicUser{}, model.TokenPair{}, customErrors.ErrNotFound
	}
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(d.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.PublicUser{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issueTokenPair(ctx, user.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	// overwrites any previous token: at most one live refresh token per
	// user, a second login invalidates the first session
	if err := a.userRepo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.PublicUser{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	return user.Public(), pair, nil
}

func (a *accountService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	claims, err := a.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	if errors.Is(err, customErrors.ErrNotFound) {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// a superseded token fails here even if its signature is still valid
	if user.CurrentRefreshToken != refreshToken {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	pair, err := a.issueTokenPair(ctx, uid)
	if err != nil {
		return model.TokenPair{}, err
	}

	// guarded rotation: a concurrent refresh that already rotated makes
	// this lose, and the loser's presented token is rejected
	if err := a.userRepo.RotateRefreshToken(ctx, uid, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, customErrors.ErrInvalidToken) {
			return model.TokenPair{}, customErrors.ErrInvalidToken
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	return pair, nil
}

func (a *accountService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := a.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, d dto.ChangePasswordDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, customErrors.ErrNotFound) {
		return customErrors.ErrNotFound
	}
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	ok, err := argon2id.ComparePasswordAndHash(d.OldPassword+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if !ok {
		return customErrors.ErrInvalidCredentials
	}

	newHash, err := argon2id.CreateHash(d.NewPassword+a.cfg.PasswordPepper, argon2id.DefaultParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	if err := a.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	return nil
}

func (a *accountService) CurrentUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error) {
	user, err := a.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, customErrors.ErrNotFound) {
		return model.PublicUser{}, customErrors.ErrNotFound
	}
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "CurrentUser")
	}
	return user.Public(), nil
}

func (a *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, d dto.UpdateProfileDTO) (model.PublicUser, error) {
	if err := a.v.Struct(d); err != nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.UpdateProfile(ctx, userID, d.FullName, d.Email)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) || errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.PublicUser{}, err
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "UpdateProfile")
	}

	return user.Public(), nil
}

func (a *accountService) UpdateAvatar(ctx context.Context, userID uuid.UUID, file *model.FileUpload) (model.PublicUser, error) {
	return a.updateImage(ctx, userID, file, a.userRepo.UpdateAvatar)
}

func (a *accountService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *model.FileUpload) (model.PublicUser, error) {
	return a.updateImage(ctx, userID, file, a.userRepo.UpdateCoverImage)
}

// updateImage is plain read-modify-write: the previous object is not
// cleaned up, and an upload that the field update never sees is left
// behind. Registration is the only flow with compensation.
func (a *accountService) updateImage(ctx context.Context, userID uuid.UUID, file *model.FileUpload,
	update func(context.Context, uuid.UUID, model.Media) (model.User, error)) (model.PublicUser, error) {

	if file == nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument("file is required")
	}

	media, err := a.mediaStore.Upload(ctx, *file)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "upload image")
	}

	user, err := update(ctx, userID, media)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.PublicUser{}, customErrors.ErrNotFound
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "updateImage")
	}

	return user.Public(), nil
}

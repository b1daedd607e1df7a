package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/strmhub/account-service/internal/adapters/transport/http/dto"
	"github.com/strmhub/account-service/internal/domain/account/model"
)

// Service is the session controller plus the peripheral account flows.
type Service interface {
	Register(ctx context.Context, d dto.RegisterDTO, avatar, cover *model.FileUpload) (model.PublicUser, error)
	Login(ctx context.Context, d dto.LoginDTO) (model.PublicUser, model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, d dto.ChangePasswordDTO) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, d dto.UpdateProfileDTO) (model.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, file *model.FileUpload) (model.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *model.FileUpload) (model.PublicUser, error)
}

// RegisterCustomValidations installs the notblank rule: required fields
// carrying only whitespace count as missing.
func RegisterCustomValidations(v *validator.Validate) error {
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

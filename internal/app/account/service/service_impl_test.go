package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/strmhub/account-service/internal/adapters/transport/http/dto"
	accountJwt "github.com/strmhub/account-service/internal/app/account/jwt"
	appsvc "github.com/strmhub/account-service/internal/app/account/service"
	accountErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"github.com/strmhub/account-service/internal/infra/config"
	"github.com/strmhub/account-service/internal/repo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	users     map[uuid.UUID]model.User
	createErr error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[uuid.UUID]model.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	if u.createErr != nil {
		return uuid.Nil, u.createErr
	}
	for _, v := range u.users {
		if v.Username == m.Username || v.Email == m.Email {
			return uuid.Nil, accountErrors.ErrAlreadyExists
		}
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, accountErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) GetUserByIdentity(_ context.Context, username, email string) (model.User, error) {
	for _, v := range u.users {
		if (username != "" && v.Username == username) || (email != "" && v.Email == email) {
			return v, nil
		}
	}
	return model.User{}, accountErrors.ErrNotFound
}

func (u *userRepoStub) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	v, ok := u.users[id]
	if !ok {
		return accountErrors.ErrNotFound
	}
	v.CurrentRefreshToken = token
	u.users[id] = v
	return nil
}

func (u *userRepoStub) RotateRefreshToken(_ context.Context, id uuid.UUID, old, new string) error {
	v, ok := u.users[id]
	if !ok || v.CurrentRefreshToken != old {
		return accountErrors.ErrInvalidToken
	}
	v.CurrentRefreshToken = new
	u.users[id] = v
	return nil
}

func (u *userRepoStub) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	if v, ok := u.users[id]; ok {
		v.CurrentRefreshToken = ""
		u.users[id] = v
	}
	return nil
}

func (u *userRepoStub) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	v, ok := u.users[id]
	if !ok {
		return accountErrors.ErrNotFound
	}
	v.PasswordHash = hash
	u.users[id] = v
	return nil
}

func (u *userRepoStub) UpdateProfile(_ context.Context, id uuid.UUID, fullName, email string) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, accountErrors.ErrNotFound
	}
	v.FullName = fullName
	v.Email = email
	u.users[id] = v
	return v, nil
}

func (u *userRepoStub) UpdateAvatar(_ context.Context, id uuid.UUID, m model.Media) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, accountErrors.ErrNotFound
	}
	v.AvatarURL, v.AvatarKey = m.URL, m.Key
	u.users[id] = v
	return v, nil
}

func (u *userRepoStub) UpdateCoverImage(_ context.Context, id uuid.UUID, m model.Media) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, accountErrors.ErrNotFound
	}
	v.CoverImageURL, v.CoverImageKey = m.URL, m.Key
	u.users[id] = v
	return v, nil
}

type mediaStoreStub struct {
	uploads   int
	deleted   []string
	uploadErr error
}

func (m *mediaStoreStub) Upload(_ context.Context, _ model.FileUpload) (model.Media, error) {
	if m.uploadErr != nil {
		return model.Media{}, m.uploadErr
	}
	m.uploads++
	key := fmt.Sprintf("users/test/%d", m.uploads)
	return model.Media{URL: "https://media.example.com/" + key, Key: key}, nil
}

func (m *mediaStoreStub) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

func newSvc(t *testing.T) (appsvc.Service, *userRepoStub, *mediaStoreStub) {
	t.Helper()

	ur := newUserRepoStub()
	ms := &mediaStoreStub{}

	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		PasswordPepper:     "pepper",
	}

	tokens, err := accountJwt.NewTokenService(cfg)
	require.NoError(t, err)

	v := validator.New()
	require.NoError(t, appsvc.RegisterCustomValidations(v))

	return appsvc.New(ur, ms, tokens, cfg, v, zap.NewNop()), ur, ms
}

func avatarFile() *model.FileUpload {
	return &model.FileUpload{
		Reader:      strings.NewReader("fake-image-bytes"),
		Size:        16,
		ContentType: "image/png",
	}
}

func register(t *testing.T, svc appsvc.Service) model.PublicUser {
	t.Helper()
	user, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
	}, avatarFile(), nil)
	require.NoError(t, err)
	return user
}

var _ repo.UserRepo = (*userRepoStub)(nil)
var _ repo.MediaStore = (*mediaStoreStub)(nil)

/* ───────────────────────────── tests ───────────────────────────── */

func TestRegisterLogin(t *testing.T) {
	svc, ur, _ := newSvc(t)
	ctx := context.Background()

	user := register(t, svc)
	require.Equal(t, "alice", user.Username)
	require.NotEmpty(t, user.AvatarURL)

	logged, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, user.ID, logged.ID)

	stored := ur.users[user.ID]
	require.Equal(t, pair.RefreshToken, stored.CurrentRefreshToken)
}

func TestRegister_BlankFields(t *testing.T) {
	svc, ur, _ := newSvc(t)
	ctx := context.Background()

	base := dto.RegisterDTO{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
	}

	for name, mutate := range map[string]func(*dto.RegisterDTO){
		"empty fullname":      func(d *dto.RegisterDTO) { d.FullName = "" },
		"whitespace fullname": func(d *dto.RegisterDTO) { d.FullName = "   " },
		"empty email":         func(d *dto.RegisterDTO) { d.Email = "" },
		"empty username":      func(d *dto.RegisterDTO) { d.Username = "" },
		"empty password":      func(d *dto.RegisterDTO) { d.Password = "" },
	} {
		d := base
		mutate(&d)
		_, err := svc.Register(ctx, d, avatarFile(), nil)
		require.Truef(t, accountErrors.IsInvalidArgument(err), "%s: got %v", name, err)
		require.Empty(t, ur.users, "%s: no record may be created", name)
	}
}

func TestRegister_MissingAvatar(t *testing.T) {
	svc, ur, _ := newSvc(t)

	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
	}, nil, nil)
	require.True(t, accountErrors.IsInvalidArgument(err))
	require.Empty(t, ur.users)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, ur, _ := newSvc(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName: "Other Alice",
		Email:    "other@example.com",
		Username: "alice",
		Password: "another-pass",
	}, avatarFile(), nil)
	require.True(t, accountErrors.IsAlreadyExists(err))
	require.Len(t, ur.users, 1)
}

func TestRegister_CompensatingDelete(t *testing.T) {
	svc, ur, ms := newSvc(t)
	ur.createErr = errors.New("storage down")

	cover := avatarFile()
	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
	}, avatarFile(), cover)

	require.True(t, accountErrors.IsInternal(err))
	// both uploads must be rolled back
	require.Len(t, ms.deleted, 2)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newSvc(t)

	_, _, err := svc.Login(context.Background(), dto.LoginDTO{Username: "ghost", Password: "whatever"})
	require.True(t, accountErrors.IsNotFound(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newSvc(t)
	register(t, svc)

	_, _, err := svc.Login(context.Background(), dto.LoginDTO{Username: "alice", Password: "wrong"})
	require.True(t, accountErrors.IsInvalidCredentials(err))
}

func TestLogin_SecondLoginInvalidatesFirst(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()
	register(t, svc)

	_, first, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)
	_, second, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.True(t, accountErrors.IsInvalidToken(err), "superseded token must not refresh")

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, ur, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	_, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.Equal(t, next.RefreshToken, ur.users[user.ID].CurrentRefreshToken)

	// the replaced token is now dead
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, accountErrors.IsInvalidToken(err))
}

func TestRefresh_BadTokens(t *testing.T) {
	svc, ur, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	_, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"missigned": pair.AccessToken, // signed with the access secret
	} {
		_, err := svc.Refresh(ctx, tok)
		require.Truef(t, accountErrors.IsInvalidToken(err), "%s: got %v", name, err)
		require.Equal(t, pair.RefreshToken, ur.users[user.ID].CurrentRefreshToken,
			"%s: stored token must be untouched", name)
	}
}

func TestRefresh_UnknownUser(t *testing.T) {
	svc, _, _ := newSvc(t)

	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
	tokens, err := accountJwt.NewTokenService(cfg)
	require.NoError(t, err)

	// validly signed token for a user that does not exist
	tok, _, err := tokens.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tok)
	require.True(t, accountErrors.IsInvalidToken(err))
}

func TestLogoutThenRefresh(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	_, pair, err := svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))
	// idempotent
	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, accountErrors.IsInvalidToken(err))
}

func TestChangePassword(t *testing.T) {
	svc, ur, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)
	before := ur.users[user.ID].PasswordHash

	err := svc.ChangePassword(ctx, user.ID, dto.ChangePasswordDTO{
		OldPassword: "wrong-old",
		NewPassword: "brand-new-pass",
	})
	require.True(t, accountErrors.IsInvalidCredentials(err))
	require.Equal(t, before, ur.users[user.ID].PasswordHash, "password must be unchanged")

	err = svc.ChangePassword(ctx, user.ID, dto.ChangePasswordDTO{
		OldPassword: "correct-horse",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, dto.LoginDTO{Username: "alice", Password: "brand-new-pass"})
	require.NoError(t, err)
}

func TestCurrentUser_Sanitized(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	got, err := svc.CurrentUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, got.Username)

	_, err = svc.CurrentUser(ctx, uuid.New())
	require.True(t, accountErrors.IsNotFound(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	_, err := svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileDTO{FullName: " ", Email: "alice@example.com"})
	require.True(t, accountErrors.IsInvalidArgument(err))

	got, err := svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileDTO{FullName: "Alice Renamed", Email: "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Alice Renamed", got.FullName)
	require.Equal(t, "new@example.com", got.Email)
}

func TestUpdateAvatar(t *testing.T) {
	svc, _, ms := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	_, err := svc.UpdateAvatar(ctx, user.ID, nil)
	require.True(t, accountErrors.IsInvalidArgument(err))

	got, err := svc.UpdateAvatar(ctx, user.ID, avatarFile())
	require.NoError(t, err)
	require.NotEmpty(t, got.AvatarURL)
	// old avatar is not cleaned up in this path
	require.Empty(t, ms.deleted)
}

func TestUpdateCoverImage(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()
	user := register(t, svc)

	got, err := svc.UpdateCoverImage(ctx, user.ID, avatarFile())
	require.NoError(t, err)
	require.NotEmpty(t, got.CoverImageURL)
}

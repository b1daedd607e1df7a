package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gin-gonic/gin"
	"github.com/strmhub/account-service/internal/adapters/transport/http/dto"
	"github.com/strmhub/account-service/internal/adapters/transport/http/middleware"
	"github.com/strmhub/account-service/internal/app/account/service"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"github.com/strmhub/account-service/internal/infra/config"
	"go.uber.org/zap"
)

type Handler struct {
	svc        service.Service
	cookies    *CookieBuilder
	production bool
	log        *zap.Logger
}

func NewHandler(svc service.Service, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		svc:        svc,
		cookies:    NewCookieBuilder(cfg),
		production: cfg.IsProduction(),
		log:        log,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter, authGuard gin.HandlerFunc) {
	users := r.Group("/api/v1/users")

	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	secured := users.Group("", authGuard)
	secured.POST("/logout", h.Logout)
	secured.POST("/change-password", h.ChangePassword)
	secured.GET("/current-user", h.CurrentUser)
	secured.PATCH("/update-account", h.UpdateAccount)
	secured.PATCH("/avatar", h.UpdateAvatar)
	secured.PATCH("/cover-image", h.UpdateCoverImage)
}

// formUpload pulls one multipart file out of the request. A missing file
// is not an error here; the service decides whether it was mandatory.
func formUpload(c *gin.Context, field string) (*model.FileUpload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return &model.FileUpload{
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBind(&body); err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	defer closeAvatar()

	cover, closeCover, err := formUpload(c, "coverImage")
	if err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	defer closeCover()

	h.log.Info("register attempt", zap.String("username", body.Username))

	user, err := h.svc.Register(c.Request.Context(), body, avatar, cover)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"user":    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	h.log.Info("login attempt", zap.String("username", body.Username))

	user, pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	h.cookies.Issue(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"message":      "user logged in successfully",
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	// cookie first, request body as fallback
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var body dto.RefreshDTO
		_ = c.ShouldBindJSON(&body)
		token = body.RefreshToken
	}
	if token == "" {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	h.cookies.Issue(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"message":      "access token refreshed successfully",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), uid); err != nil {
		writeError(c, h.production, err)
		return
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "user logged out successfully"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), uid, body); err != nil {
		writeError(c, h.production, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	var body dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), uid, body)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account details updated successfully", "user": user})
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.svc.UpdateAvatar)
}

func (h *Handler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.svc.UpdateCoverImage)
}

func (h *Handler) updateImage(c *gin.Context, field string,
	update func(ctx context.Context, uid uuid.UUID, file *model.FileUpload) (model.PublicUser, error)) {

	uid, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.production, customErrors.ErrInvalidToken)
		return
	}

	file, closeFile, err := formUpload(c, field)
	if err != nil {
		writeError(c, h.production, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	defer closeFile()

	user, err := update(c.Request.Context(), uid, file)
	if err != nil {
		writeError(c, h.production, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": field + " updated successfully", "user": user})
}

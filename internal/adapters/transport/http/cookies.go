package http

import (
	"github.com/gin-gonic/gin"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"github.com/strmhub/account-service/internal/infra/config"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieBuilder writes the session cookies. httpOnly always, secure only
// in production; no Max-Age or SameSite is set.
type CookieBuilder struct {
	domain string
	secure bool
}

func NewCookieBuilder(cfg *config.Config) *CookieBuilder {
	return &CookieBuilder{
		domain: cfg.CookieDomain,
		secure: cfg.IsProduction(),
	}
}

func (b *CookieBuilder) Issue(c *gin.Context, pair model.TokenPair) {
	c.SetCookie(AccessTokenCookie, pair.AccessToken, 0, "/", b.domain, b.secure, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, 0, "/", b.domain, b.secure, true)
}

func (b *CookieBuilder) Clear(c *gin.Context) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", b.domain, b.secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", b.domain, b.secure, true)
}

package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
}

func TestTokenService_GenerateValidate(t *testing.T) {
	svc, err := NewTokenService(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()
	token, exp, err := svc.GenerateAccessToken(uid)
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != uid.String() {
		t.Fatalf("want %s got %s", uid, claims.Subject)
	}
}

func TestTokenService_SeparateSecrets(t *testing.T) {
	svc, _ := NewTokenService(testConfig())
	uid := uuid.New()

	// a refresh token must not validate as an access token
	rTok, _, _ := svc.GenerateRefreshToken(uid)
	if _, err := svc.ValidateAccessToken(rTok); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	aTok, _, _ := svc.GenerateAccessToken(uid)
	if _, err := svc.ValidateRefreshToken(aTok); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestTokenService_ValidateErrors(t *testing.T) {
	svc, _ := NewTokenService(testConfig())

	if _, err := svc.ValidateAccessToken("bad"); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want invalid token, got %v", err)
	}

	other, _ := NewTokenService(&config.Config{
		AccessTokenSecret:  "other-access",
		RefreshTokenSecret: "other-refresh",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
	tok, _, _ := other.GenerateRefreshToken(uuid.New())
	if _, err := svc.ValidateRefreshToken(tok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want invalid token for foreign signature, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	short, _ := NewTokenService(&config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     -time.Minute,
		RefreshTokenTTL:    -time.Minute,
	})
	tok, _, _ := short.GenerateRefreshToken(uuid.New())
	if _, err := short.ValidateRefreshToken(tok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want invalid token for expired, got %v", err)
	}
}

func TestTokenService_InvalidAlg(t *testing.T) {
	svc, _ := NewTokenService(testConfig())
	token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expected invalid alg")
	}
}

func TestTokenService_RefreshCycle(t *testing.T) {
	svc, _ := NewTokenService(testConfig())
	uid := uuid.New()
	rTok, exp, err := svc.GenerateRefreshToken(uid)
	if err != nil || exp.IsZero() {
		t.Fatalf("bad generate: %v", err)
	}
	cl, err := svc.ValidateRefreshToken(rTok)
	if err != nil || cl.Subject != uid.String() {
		t.Fatalf("validate error: %v", err)
	}
}

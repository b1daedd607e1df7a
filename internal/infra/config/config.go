package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string
	HTTPAddress string
	Environment string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	PasswordPepper     string

	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3PublicURL string
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL", "HTTP_ADDRESS", "ENVIRONMENT",
		"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "PASSWORD_PEPPER",
		"COOKIE_DOMAIN", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_ENDPOINT", "S3_PUBLIC_URL",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "720h")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:        viper.GetString("DATABASE_URL"),
		HTTPAddress:        viper.GetString("HTTP_ADDRESS"),
		Environment:        viper.GetString("ENVIRONMENT"),
		AccessTokenSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		PasswordPepper:     viper.GetString("PASSWORD_PEPPER"),
		CookieDomain:       viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:     viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:   viper.GetBool("ALLOW_CREDENTIALS"),
		S3Region:           viper.GetString("S3_REGION"),
		S3Bucket:           viper.GetString("S3_BUCKET"),
		S3AccessKey:        viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:        viper.GetString("S3_SECRET_KEY"),
		S3Endpoint:         viper.GetString("S3_ENDPOINT"),
		S3PublicURL:        viper.GetString("S3_PUBLIC_URL"),
	}

	for name, val := range map[string]string{
		"DATABASE_URL":         cfg.DatabaseURL,
		"ACCESS_TOKEN_SECRET":  cfg.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": cfg.RefreshTokenSecret,
		"S3_BUCKET":            cfg.S3Bucket,
	} {
		if val == "" {
			return nil, fmt.Errorf("%s is not set", name)
		}
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTAccessSecret  string // アクセストークン署名シークレット
	JWTRefreshSecret string // リフレッシュトークン署名シークレット（アクセスとは別にする）

	AccessTokenTTL  time.Duration // アクセストークンの有効期間（短め）
	RefreshTokenTTL time.Duration // リフレッシュトークンの有効期間（長め）

	MaxSessionsPerUser int           // ユーザーあたりの同時セッション上限
	CleanupInterval    time.Duration // 期限切れトークンの掃除間隔

	GoEnv string // dev/prod
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		JWTAccessSecret:  os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	//必須チェック
	if cfg.JWTAccessSecret == "" {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	//同じシークレットだと種別分離の意味がなくなる
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	var err error

	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CleanupInterval, err = envDuration("CLEANUP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessionsPerUser, err = envInt("MAX_SESSIONS_PER_USER", 5); err != nil {
		return Config{}, err
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.MaxSessionsPerUser <= 0 {
		return Config{}, fmt.Errorf("MAX_SESSIONS_PER_USER must be positive")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 15m): %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

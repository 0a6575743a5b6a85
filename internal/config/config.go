package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL  string
	DatabaseName string // MongoDB使用時のデータベース名

	// Token
	JWTSecret string
	TokenTTL  time.Duration

	// Password
	BcryptCost int

	// OAuth
	GoogleClientID  string
	OutboundTimeout time.Duration

	// Mail
	MailSender   string
	MailUsername string
	MailPassword string
	MailSMTPHost string
	MailSMTPPort int
	MailTimeout  time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigins []string

	// X-Forwarded-Forを信頼するリバースプロキシ。空ならヘッダーを参照しない
	TrustedProxies []netip.Prefix
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env", slog.String("error", err.Error()))
		}
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("MONGO_URI")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("SECRET_KEY")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DatabaseName = getEnvString("DATABASE_NAME", "taskman")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.OutboundTimeout = getEnvDuration("OUTBOUND_TIMEOUT", 10*time.Second)
	cfg.MailSender = getEnvString("MAIL_SENDER", "")
	cfg.MailUsername = getEnvString("MAIL_USERNAME", cfg.MailSender)
	cfg.MailPassword = getEnvString("MAIL_PASSWORD", "")
	cfg.MailSMTPHost = getEnvString("MAIL_SMTP_HOST", "smtp.gmail.com")
	cfg.MailSMTPPort = getEnvInt("MAIL_SMTP_PORT", 587)
	cfg.MailTimeout = getEnvDuration("MAIL_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigins = splitOrigins(getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"))

	proxies, err := parsePrefixes(getEnvString("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	return cfg, nil
}

// UsesMongo はDATABASE_URLがMongoDBを指しているかどうかを返す。
func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}

// MailEnabled はメール送信に必要な設定が揃っているかどうかを返す。
func (c *Config) MailEnabled() bool {
	return c.MailSender != "" && c.MailPassword != ""
}

func splitOrigins(v string) []string {
	var origins []string
	for _, p := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// parsePrefixes はカンマ区切りのCIDRまたはIPアドレスを解析する。
// 単一のIPアドレスはそのアドレスだけを含むプレフィックスになる。
func parsePrefixes(v string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	OAuth     OAuthConfig
	Mail      MailConfig
	AI        AIConfig
	Referral  ReferralConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ClientURL is the frontend origin; used for CORS and for links embedded in emails.
	ClientURL string
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiry     time.Duration
	Issuer     string
	CookieName string
	// SecureCookie is false only in development so the cookie works over plain http.
	SecureCookie bool
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SendTimeout bounds a single fire-and-forget delivery.
	SendTimeout time.Duration
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ReferralConfig holds referral lifecycle knobs.
type ReferralConfig struct {
	// RewardSnapshot selects which campaign reward is copied onto a converted referral:
	// "customer" (historical behaviour) or "referred".
	RewardSnapshot string
	LoyalThreshold int
}

type SchedulerConfig struct {
	CloseExpiredSpec string
}

type LogConfig struct {
	Level string
}

func Load() *Config {
	env := getenv("APP_ENV", "development")
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8099"),
			Env:          env,
			ReadTimeout:  getenvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getenvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ClientURL:    strings.TrimRight(getenv("CLIENT_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			Driver:          getenv("DB_DRIVER", "mysql"),
			DSN:             getenv("DB_DSN", "referly:referly@tcp(localhost:3306)/referly?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getenvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getenvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret:       getenv("JWT_SECRET", "change-me-in-production"),
			Expiry:       24 * time.Hour,
			Issuer:       "referly",
			CookieName:   "jwt",
			SecureCookie: env != "development",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:8099/api/company/google/callback"),
		},
		Mail: MailConfig{
			Host:        getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:        getenvInt("SMTP_PORT", 465),
			Username:    os.Getenv("EMAIL"),
			Password:    os.Getenv("PASSWORD"),
			From:        getenv("SMTP_FROM", os.Getenv("EMAIL")),
			SendTimeout: getenvDuration("SMTP_SEND_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			BaseURL: getenv("AI_BASE_URL", "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.1"),
			APIKey:  os.Getenv("HUGGINGFACE_API_KEY"),
			Timeout: getenvDuration("AI_TIMEOUT", 30*time.Second),
		},
		Referral: ReferralConfig{
			RewardSnapshot: getenv("REFERRAL_REWARD_SNAPSHOT", "customer"),
			LoyalThreshold: getenvInt("LOYAL_REFERRAL_THRESHOLD", 10),
		},
		Scheduler: SchedulerConfig{
			CloseExpiredSpec: getenv("CLOSE_EXPIRED_SPEC", "@every 5m"),
		},
		Log: LogConfig{
			Level: getenv("LOG_LEVEL", "info"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

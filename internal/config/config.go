package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "ProjectCampus"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultWebPort         = "3000"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultCodeTTL         = 10 * time.Minute
	defaultResendCooldown  = 30 * time.Second
	defaultCodeMaxAttempts = 5
	defaultLoginRateLimit  = 5
	defaultAPIBaseURL      = "http://localhost:8080"
	defaultAPITimeout      = 10 * time.Second
	defaultAcademicDomains = "edu"
	defaultMailFrom        = "noreply@projectcampus.app"
	devJWTSecret           = "dev-access-secret-change-me"
	devRefreshSecret       = "dev-refresh-secret-change-me"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures runtime configuration for both the API and the web frontend.
type Config struct {
	AppName   string
	AppEnv    string
	Port      string
	WebPort   string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	RedisURL    string

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CodeTTL            time.Duration
	CodeResendCooldown time.Duration
	CodeMaxAttempts    int
	AcademicDomains    []string
	LoginRateLimit     int

	ResendAPIKey string
	MailFrom     string

	APIBaseURL  string
	APITimeout  time.Duration
	CORSOrigins []string
}

// Load reads configuration values from the environment (and an optional .env file).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		WebPort:            getEnv("WEB_PORT", defaultWebPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdempotencyTTL,
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RefreshSecret:      os.Getenv("REFRESH_SECRET"),
		AccessTokenTTL:     defaultAccessTokenTTL,
		RefreshTokenTTL:    defaultRefreshTokenTTL,
		CodeTTL:            defaultCodeTTL,
		CodeResendCooldown: defaultResendCooldown,
		CodeMaxAttempts:    defaultCodeMaxAttempts,
		AcademicDomains:    splitList(getEnv("ACADEMIC_DOMAINS", defaultAcademicDomains)),
		LoginRateLimit:     defaultLoginRateLimit,
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		MailFrom:           getEnv("MAIL_FROM", defaultMailFrom),
		APIBaseURL:         strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBaseURL), "/"),
		APITimeout:         defaultAPITimeout,
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.ShutdownPeriod, err = secondsOrDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = secondsOrDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = duration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.CodeTTL, err = duration("CODE_TTL", cfg.CodeTTL); err != nil {
		return Config{}, err
	}
	if cfg.CodeResendCooldown, err = duration("CODE_RESEND_COOLDOWN", cfg.CodeResendCooldown); err != nil {
		return Config{}, err
	}
	if cfg.APITimeout, err = duration("API_TIMEOUT", cfg.APITimeout); err != nil {
		return Config{}, err
	}
	if cfg.CodeMaxAttempts, err = integer("CODE_MAX_ATTEMPTS", cfg.CodeMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = integer("LOGIN_RATE_LIMIT", cfg.LoginRateLimit); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateAPI checks the settings only the auth API needs. Development runs fall back to
// in-memory stores and throwaway secrets.
func (c *Config) ValidateAPI() error {
	if c.IsDev() {
		if c.JWTSecret == "" {
			c.JWTSecret = devJWTSecret
		}
		if c.RefreshSecret == "" {
			c.RefreshSecret = devRefreshSecret
		}
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if c.JWTSecret == "" || c.RefreshSecret == "" {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
	}
	if c.JWTSecret == c.RefreshSecret {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must differ")
	}
	return nil
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the API listen address in the format Fiber expects.
func (c Config) Address() string {
	return listenAddr(c.Port)
}

// WebAddress returns the web frontend listen address.
func (c Config) WebAddress() string {
	return listenAddr(c.WebPort)
}

func listenAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func secondsOrDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return duration(durationKey, fallback)
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

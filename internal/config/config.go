package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const DefaultJoinURLBase = "https://stringify-chat.netlify.app/connect?chat-id="

type Config struct {
	Port           int           `env:"PORT,default=8080"`
	DBDriver       string        `env:"DB_DRIVER,default=postgres"`
	DatabaseURL    string        `env:"DATABASE_URL,required=true"`
	RedisURL       string        `env:"REDIS_URL"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	ConnectTTL     time.Duration `env:"CONNECT_TOKEN_TTL,default=12h"`
	JoinURLBase    string        `env:"JOIN_URL_BASE"`
	KeyAttempts    int           `env:"KEY_ATTEMPTS,default=5"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	SendGridAPIKey string        `env:"SENDGRID_API_KEY"`
	SendGridTmpl   string        `env:"SENDGRID_TEMPLATE_ID"`
	MailFrom       string        `env:"MAIL_FROM,default=no-reply@stringify.chat"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
}

// Load reads .env.local or .env when present, then decodes the environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.JoinURLBase == "" {
		cfg.JoinURLBase = DefaultJoinURLBase
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.KeyAttempts <= 0:
		return errors.New("KEY_ATTEMPTS must be positive")
	case c.ConnectTTL <= 0:
		return errors.New("CONNECT_TOKEN_TTL must be positive")
	case c.RequestTimeout <= 0:
		return errors.New("REQUEST_TIMEOUT must be positive")
	case len(c.JWTSecret) < 16:
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS; an empty result allows any origin.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// MailEnabled reports whether invitations can be sent.
func (c Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridTmpl != ""
}

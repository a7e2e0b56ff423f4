package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración del servicio (env + .env opcional).
type Config struct {
	Port      string `env:"PORT,default=8080"`
	AppName   string `env:"APP_NAME,default=pet-adoption"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// Vacío => repos in-memory (modo dev).
	DBDSN string `env:"DB_DSN"`

	// Vacío => sin cache de catálogo.
	RedisURL    string        `env:"REDIS_URL"`
	PetCacheTTL time.Duration `env:"PET_CACHE_TTL,default=60s"`

	// Vacío => modo dev (X-Debug-User-ID / X-Debug-Role).
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	FrontendURL  string `env:"FRONTEND_URL,default=http://localhost:5173"`

	// Lista separada por comas.
	CORSOrigins string `env:"CORS_ORIGINS,default=*"`

	AdminName     string `env:"ADMIN_NAME,default=Shelter Admin"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	ReconcileSchedule string `env:"RECONCILE_SCHEDULE,default=@every 10m"`

	AuthRateLimit int `env:"AUTH_RATE_LIMIT,default=5"`
	AuthRateBurst int `env:"AUTH_RATE_BURST,default=10"`

	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=1h"`
}

// Load lee .env (si existe) y decodifica el entorno.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("config: PORT required")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("config: AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD go together")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}

func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

func (c Config) AllowedOrigins() []string {
	out := make([]string, 0)
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Supabase
	SupabaseURL            string `envconfig:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string `envconfig:"SUPABASE_JWT_SECRET"`
	PrintsBucket           string `envconfig:"SUPABASE_PRINTS_BUCKET" default:"prints"`
	ReportsBucket          string `envconfig:"SUPABASE_REPORTS_BUCKET" default:"relatorios"`

	// Database. Empty means orders go through PostgREST instead of a direct connection.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Email
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"REAL 4D <noreply@real4d.me>"`
	ContactEmail string `envconfig:"CONTACT_EMAIL" default:"contato@real4d.me"`

	// Site
	SiteURL     string `envconfig:"SITE_URL" default:"https://real4d.me"`
	UploadPath  string `envconfig:"UPLOAD_PATH" default:"/enviar"`
	ResultsPath string `envconfig:"RESULTS_PATH" default:"/resultado"`
	SignInPath  string `envconfig:"SIGN_IN_PATH" default:"/entrar"`
	AdminEmail  string `envconfig:"ADMIN_EMAIL" default:"contato@real4d.me"`
	LogoURL     string `envconfig:"LOGO_URL" default:"https://real4d.me/assets/logo-without-name-back-black.png"`

	// Webhook
	HotmartHottok string `envconfig:"HOTMART_HOTTOK"`

	// Redis identity cache, disabled when RedisAddr is empty
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	RedisTLS         bool          `envconfig:"REDIS_TLS" default:"false"`
	IdentityCacheTTL time.Duration `envconfig:"IDENTITY_CACHE_TTL" default:"10m"`

	// Server
	Port             string `envconfig:"PORT" default:"8080"`
	Environment      string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"real4d"`
	DisplayTimezone  string `envconfig:"DISPLAY_TIMEZONE" default:"America/Sao_Paulo"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.SupabaseURL = strings.TrimRight(cfg.SupabaseURL, "/")
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required")
	}
	if c.PrintsBucket == "" || c.ReportsBucket == "" {
		return fmt.Errorf("storage bucket names must not be empty")
	}
	if c.IdentityCacheTTL < 0 {
		return fmt.Errorf("IDENTITY_CACHE_TTL must not be negative")
	}
	for name, p := range map[string]string{
		"UPLOAD_PATH":  c.UploadPath,
		"RESULTS_PATH": c.ResultsPath,
		"SIGN_IN_PATH": c.SignInPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with /", name)
		}
	}
	return nil
}

// SiteLink joins a site path onto SiteURL.
func (c *Config) SiteLink(path string) string {
	return c.SiteURL + path
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

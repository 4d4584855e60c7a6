package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Auth    AuthConfig
	Log     LogConfig
	BaseURL string

	AuditLogFile string
}

type HTTPConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	TrustProxyHeaders  bool
}

type StoreConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
}

type LogConfig struct {
	Level  string
	Format string
}

// envConfig is the flat koanf view of the process environment. Keys are the
// lowercased variable names.
type envConfig struct {
	Port                string `koanf:"port"`
	BaseURL             string `koanf:"base_url"`
	StoreURI            string `koanf:"store_uri"`
	StoreDatabase       string `koanf:"store_database"`
	StoreConnectTimeout int    `koanf:"store_connect_timeout_sec"`
	JWTSecret           string `koanf:"jwt_secret"`
	BcryptCost          int    `koanf:"auth_bcrypt_cost"`
	HTTPReadTimeoutSec  int    `koanf:"http_read_timeout_sec"`
	HTTPWriteTimeoutSec int    `koanf:"http_write_timeout_sec"`
	HTTPShutdownTimeout int    `koanf:"http_shutdown_timeout_sec"`
	CORSAllowedOrigins  string `koanf:"cors_allowed_origins"`
	TrustProxyHeaders   bool   `koanf:"trust_proxy_headers"`
	LogLevel            string `koanf:"log_level"`
	LogFormat           string `koanf:"log_format"`
	AuditLogFile        string `koanf:"audit_log_file"`
}

func defaults() envConfig {
	return envConfig{
		Port:                "3000",
		StoreDatabase:       "media_api",
		StoreConnectTimeout: 10,
		BcryptCost:          10,
		HTTPReadTimeoutSec:  10,
		HTTPWriteTimeoutSec: 15,
		HTTPShutdownTimeout: 20,
		CORSAllowedOrigins:  "*",
		LogLevel:            "info",
		LogFormat:           "json",
		AuditLogFile:        "./data/audit.log",
	}
}

var knownKeys = map[string]struct{}{
	"port": {}, "base_url": {},
	"store_uri": {}, "store_database": {}, "store_connect_timeout_sec": {},
	"jwt_secret": {}, "auth_bcrypt_cost": {},
	"http_read_timeout_sec": {}, "http_write_timeout_sec": {}, "http_shutdown_timeout_sec": {},
	"cors_allowed_origins": {}, "trust_proxy_headers": {},
	"log_level": {}, "log_format": {}, "audit_log_file": {},
}

func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load config defaults: %w", err)
	}
	// Empty variables fall back to defaults, same as unset ones.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if _, ok := knownKeys[key]; !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load config environment: %w", err)
	}

	var raw envConfig
	if err := k.Unmarshal("", &raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	auditFile := raw.AuditLogFile
	if strings.EqualFold(auditFile, "off") {
		auditFile = ""
	}

	baseURL := raw.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + raw.Port
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:               ":" + raw.Port,
			ReadTimeout:        time.Duration(raw.HTTPReadTimeoutSec) * time.Second,
			WriteTimeout:       time.Duration(raw.HTTPWriteTimeoutSec) * time.Second,
			ShutdownTimeout:    time.Duration(raw.HTTPShutdownTimeout) * time.Second,
			CORSAllowedOrigins: splitList(raw.CORSAllowedOrigins),
			TrustProxyHeaders:  raw.TrustProxyHeaders,
		},
		Store: StoreConfig{
			URI:            raw.StoreURI,
			Database:       raw.StoreDatabase,
			ConnectTimeout: time.Duration(raw.StoreConnectTimeout) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:  raw.JWTSecret,
			BcryptCost: raw.BcryptCost,
		},
		Log: LogConfig{
			Level:  strings.ToLower(raw.LogLevel),
			Format: strings.ToLower(raw.LogFormat),
		},
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AuditLogFile: auditFile,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Store.URI == "" {
		return fmt.Errorf("STORE_URI must not be empty")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.HTTP.Addr == ":" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	if cfg.Store.ConnectTimeout <= 0 {
		return fmt.Errorf("STORE_CONNECT_TIMEOUT_SEC must be > 0")
	}
	if cfg.Store.Database == "" {
		return fmt.Errorf("STORE_DATABASE must not be empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute URL")
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
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

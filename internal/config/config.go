package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "ORDERDESK_CONFIG"

// Config holds runtime configuration. Defaults are overridden by the YAML file,
// which is overridden by environment variables.
type Config struct {
	HTTPAddr        string        `validate:"required"`
	BaseURL         string        `validate:"required,url"`
	Token           string        `validate:"omitempty"`
	RemoteTimeout   time.Duration `validate:"gt=0"`
	PageLimit       int           `validate:"min=1,max=1000"`
	DefaultUnit     int           `validate:"min=1"`
	DBConnString    string        `validate:"omitempty"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	SessionTTL      time.Duration `validate:"gt=0"`
	CORSOrigins     []string      `validate:"dive,required"`
}

// fileConfig mirrors Config in the YAML file; absent keys keep the default.
type fileConfig struct {
	HTTPAddr               *string  `yaml:"http_addr"`
	BaseURL                *string  `yaml:"tablecrm_base_url"`
	Token                  *string  `yaml:"tablecrm_token"`
	TimeoutSeconds         *int     `yaml:"tablecrm_timeout_seconds"`
	PageLimit              *int     `yaml:"page_limit"`
	DefaultUnit            *int     `yaml:"default_unit_id"`
	DBConnString           *string  `yaml:"db_dsn"`
	ShutdownTimeoutSeconds *int     `yaml:"shutdown_timeout_seconds"`
	SessionTTLSeconds      *int     `yaml:"session_ttl_seconds"`
	CORSOrigins            []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		BaseURL:         "https://app.tablecrm.com/api/v1",
		RemoteTimeout:   10 * time.Second,
		PageLimit:       100,
		DefaultUnit:     116,
		ShutdownTimeout: 10 * time.Second,
		SessionTTL:      30 * time.Minute,
		CORSOrigins:     []string{"http://localhost:5173"},
	}
}

// FromEnv builds Config from defaults, the optional YAML file named by
// ORDERDESK_CONFIG and environment variables, then validates it.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.BaseURL = envOrDefault("TABLECRM_BASE_URL", cfg.BaseURL)
	cfg.Token = envOrDefault("TABLECRM_TOKEN", cfg.Token)
	cfg.RemoteTimeout = envDuration("TABLECRM_TIMEOUT_SECONDS", cfg.RemoteTimeout)
	cfg.PageLimit = envInt("PAGE_LIMIT", cfg.PageLimit)
	cfg.DefaultUnit = envInt("DEFAULT_UNIT_ID", cfg.DefaultUnit)
	cfg.DBConnString = envOrDefault("DB_DSN", cfg.DBConnString)
	cfg.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)
	cfg.SessionTTL = envDuration("SESSION_TTL_SECONDS", cfg.SessionTTL)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.Token, fc.Token)
	setString(&cfg.DBConnString, fc.DBConnString)
	setSeconds(&cfg.RemoteTimeout, fc.TimeoutSeconds)
	setSeconds(&cfg.ShutdownTimeout, fc.ShutdownTimeoutSeconds)
	setSeconds(&cfg.SessionTTL, fc.SessionTTLSeconds)
	if fc.PageLimit != nil {
		cfg.PageLimit = *fc.PageLimit
	}
	if fc.DefaultUnit != nil {
		cfg.DefaultUnit = *fc.DefaultUnit
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Second
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Source selects where report data is read from.
type Source string

const (
	SourcePortal Source = "portal"
	SourceSQL    Source = "sql"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`
	Source   Source `yaml:"source"`

	Portal PortalConfig `yaml:"portal"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	FetchConcurrency int           `yaml:"fetch_concurrency"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`

	CORSOrigins  []string `yaml:"cors_origins"`
	ExportPrefix string   `yaml:"export_prefix"`
	Timezone     string   `yaml:"timezone"`
	TemplateID   string   `yaml:"template_id"` // pins a rubric template; empty follows the active one
	LogLevel     string   `yaml:"log_level"`
}

type PortalConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	PageSize     int           `yaml:"page_size"`
}

func Defaults() Config {
	return Config{
		Mode:     ModeOffline,
		HTTPAddr: ":8080",
		Source:   SourcePortal,
		Portal: PortalConfig{
			BaseURL:  "http://localhost:3000/api",
			Timeout:  15 * time.Second,
			PageSize: 500,
		},
		DBDriver:         "sqlite",
		FetchConcurrency: 16,
		FetchTimeout:     10 * time.Second,
		CORSOrigins:      []string{"http://localhost:3000"},
		ExportPrefix:     "thesis",
		Timezone:         "Asia/Manila",
		LogLevel:         "info",
	}
}

// FromEnv returns the defaults overridden by environment variables.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads an optional YAML file over the defaults, then applies
// environment variables on top. ${VAR} references in the file are expanded.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Source {
	case SourcePortal:
		if c.Portal.BaseURL == "" {
			return fmt.Errorf("config: portal base url is required for source %q", c.Source)
		}
	case SourceSQL:
		if c.DBDriver == "" {
			return fmt.Errorf("config: db driver is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("config: unknown source %q (expected portal|sql)", c.Source)
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("config: fetch concurrency must not be negative")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to the host zone. Validate
// rejects names that do not resolve.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func applyEnv(c *Config) {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.Source = Source(strings.ToLower(envOr("SOURCE", string(c.Source))))

	c.Portal.BaseURL = envOr("PORTAL_BASE_URL", c.Portal.BaseURL)
	c.Portal.Token = envOr("PORTAL_TOKEN", c.Portal.Token)
	c.Portal.TokenURL = envOr("PORTAL_TOKEN_URL", c.Portal.TokenURL)
	c.Portal.ClientID = envOr("PORTAL_CLIENT_ID", c.Portal.ClientID)
	c.Portal.ClientSecret = envOr("PORTAL_CLIENT_SECRET", c.Portal.ClientSecret)
	c.Portal.Timeout = envDuration("PORTAL_TIMEOUT", c.Portal.Timeout)
	c.Portal.PageSize = envInt("PORTAL_PAGE_SIZE", c.Portal.PageSize)

	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)

	c.FetchConcurrency = envInt("FETCH_CONCURRENCY", c.FetchConcurrency)
	c.FetchTimeout = envDuration("FETCH_TIMEOUT", c.FetchTimeout)

	c.CORSOrigins = csvOr("CORS_ORIGINS", c.CORSOrigins)
	c.ExportPrefix = envOr("EXPORT_PREFIX", c.ExportPrefix)
	c.Timezone = envOr("REPORT_TIMEZONE", c.Timezone)
	c.TemplateID = envOr("TEMPLATE_ID", c.TemplateID)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

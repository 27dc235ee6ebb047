// Package hostconfig loads the slate-host configuration: built-in defaults,
// then the first readable YAML file, then SLATE_* environment overrides.
package hostconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"slate-workspace/go-backend/internal/platform/ratelimiter"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultLayoutEntry = "ContentEditVC"
)

type Config struct {
	Env                 string
	Window              string
	NotificationHistory int
	Log                 LogConfig
	RPC                 RPCConfig
	Metrics             MetricsConfig
	Storage             StorageConfig
	Layouts             LayoutConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type RPCConfig struct {
	Addr               string
	Token              string
	TokenFile          string
	RequireToken       *bool
	AllowNullOrigin    bool
	RateLimit          ratelimiter.Config
	StreamMaxGlobal    int
	StreamMaxPerClient int
	Heartbeat          time.Duration
}

// MetricsConfig: an empty Addr serves /metrics on the RPC listener.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// StorageConfig selects the draft source. SnapshotSecret seals the memory
// store's snapshot at rest and, like PostgresDSN, is read from the environment only.
type StorageConfig struct {
	Driver         string
	SnapshotPath   string
	SnapshotSecret string
	PostgresDSN    string
	SeedSamples    bool
}

// LayoutConfig declares the editor layouts the host can instantiate when no
// engine is linked in. Declared maps a layout identifier to a layout kind.
type LayoutConfig struct {
	Entry    string
	Declared map[string]string
}

func Default() Config {
	return Config{
		Env:                 "production",
		Window:              "main",
		NotificationHistory: 256,
		Log:                 LogConfig{Level: "info", Format: "text"},
		RPC: RPCConfig{
			Addr:               "127.0.0.1:8787",
			RateLimit:          ratelimiter.Config{Enabled: true, RPS: 30, Burst: 60, IdleTTL: 10 * time.Minute},
			StreamMaxGlobal:    128,
			StreamMaxPerClient: 8,
			Heartbeat:          20 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true},
		Storage: StorageConfig{Driver: StorageMemory, SeedSamples: true},
		Layouts: LayoutConfig{Entry: defaultLayoutEntry, Declared: map[string]string{}},
	}
}

type fileConfig struct {
	Env                 string  `yaml:"env"`
	Window              *string `yaml:"window"`
	NotificationHistory int     `yaml:"notificationHistory"`
	Log                 struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	RPC struct {
		Addr               string              `yaml:"addr"`
		TokenFile          string              `yaml:"tokenFile"`
		RequireToken       *bool               `yaml:"requireToken"`
		AllowNullOrigin    *bool               `yaml:"allowNullOrigin"`
		RateLimit          *ratelimiter.Config `yaml:"rateLimit"`
		StreamMaxGlobal    int                 `yaml:"streamMaxGlobal"`
		StreamMaxPerClient int                 `yaml:"streamMaxPerClient"`
		Heartbeat          time.Duration       `yaml:"heartbeat"`
	} `yaml:"rpc"`
	Metrics struct {
		Enabled *bool  `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
	Storage struct {
		Driver       string `yaml:"driver"`
		SnapshotPath string `yaml:"snapshotPath"`
		SeedSamples  *bool  `yaml:"seedSamples"`
	} `yaml:"storage"`
	Layouts struct {
		Entry    string            `yaml:"entry"`
		Declared map[string]string `yaml:"declared"`
	} `yaml:"layouts"`
}

// Load reads configuration the way the daemon does at start-up. An explicit
// path that cannot be read or parsed is an error; default candidates that are
// missing are skipped.
func Load(configPath string) (Config, error) {
	LoadDotEnv()
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/host.yaml",
			"configs/host.yaml",
		)
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		break
	}
	ApplyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env outside production. Variables already set win.
func LoadDotEnv(paths ...string) {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("SLATE_ENV")), "production") {
		return
	}
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func Merge(dst *Config, src fileConfig) {
	if src.Env != "" {
		dst.Env = src.Env
	}
	if src.Window != nil {
		dst.Window = strings.TrimSpace(*src.Window)
	}
	if src.NotificationHistory > 0 {
		dst.NotificationHistory = src.NotificationHistory
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
	if src.RPC.Addr != "" {
		dst.RPC.Addr = src.RPC.Addr
	}
	if src.RPC.TokenFile != "" {
		dst.RPC.TokenFile = src.RPC.TokenFile
	}
	if src.RPC.RequireToken != nil {
		v := *src.RPC.RequireToken
		dst.RPC.RequireToken = &v
	}
	if src.RPC.AllowNullOrigin != nil {
		dst.RPC.AllowNullOrigin = *src.RPC.AllowNullOrigin
	}
	if src.RPC.RateLimit != nil {
		dst.RPC.RateLimit = *src.RPC.RateLimit
	}
	if src.RPC.StreamMaxGlobal > 0 {
		dst.RPC.StreamMaxGlobal = src.RPC.StreamMaxGlobal
	}
	if src.RPC.StreamMaxPerClient > 0 {
		dst.RPC.StreamMaxPerClient = src.RPC.StreamMaxPerClient
	}
	if src.RPC.Heartbeat > 0 {
		dst.RPC.Heartbeat = src.RPC.Heartbeat
	}
	if src.Metrics.Enabled != nil {
		dst.Metrics.Enabled = *src.Metrics.Enabled
	}
	if src.Metrics.Addr != "" {
		dst.Metrics.Addr = src.Metrics.Addr
	}
	if src.Storage.Driver != "" {
		dst.Storage.Driver = strings.ToLower(src.Storage.Driver)
	}
	if src.Storage.SnapshotPath != "" {
		dst.Storage.SnapshotPath = src.Storage.SnapshotPath
	}
	if src.Storage.SeedSamples != nil {
		dst.Storage.SeedSamples = *src.Storage.SeedSamples
	}
	if src.Layouts.Entry != "" {
		dst.Layouts.Entry = src.Layouts.Entry
	}
	for id, kind := range src.Layouts.Declared {
		if dst.Layouts.Declared == nil {
			dst.Layouts.Declared = make(map[string]string)
		}
		dst.Layouts.Declared[strings.TrimSpace(id)] = strings.TrimSpace(kind)
	}
}

// ApplyEnvOverrides applies SLATE_* variables. Secrets such as the RPC token
// and the database DSN are only read from the environment.
func ApplyEnvOverrides(cfg *Config) {
	if v := envString("SLATE_ENV"); v != "" {
		cfg.Env = v
	}
	if v, ok := os.LookupEnv("SLATE_WINDOW"); ok {
		cfg.Window = strings.TrimSpace(v)
	}
	if v := envString("SLATE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := envString("SLATE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := envString("SLATE_RPC_ADDR"); v != "" {
		cfg.RPC.Addr = v
	}
	if v := envString("SLATE_RPC_TOKEN"); v != "" {
		cfg.RPC.Token = v
	}
	if v := envString("SLATE_RPC_TOKEN_FILE"); v != "" {
		cfg.RPC.TokenFile = v
	}
	if v, ok := envBool("SLATE_REQUIRE_RPC_TOKEN"); ok {
		cfg.RPC.RequireToken = &v
	}
	if v, ok := envBool("SLATE_ALLOW_NULL_ORIGIN"); ok {
		cfg.RPC.AllowNullOrigin = v
	}
	if v, ok := envBool("SLATE_RPC_RATE_LIMIT_ENABLED"); ok {
		cfg.RPC.RateLimit.Enabled = v
	} else if strings.EqualFold(cfg.Env, "test") || strings.EqualFold(cfg.Env, "testing") {
		cfg.RPC.RateLimit.Enabled = false
	}
	if raw := envString("SLATE_RPC_RATE_LIMIT_RPS"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			cfg.RPC.RateLimit.RPS = parsed
		}
	}
	cfg.RPC.RateLimit.Burst = envPositiveInt("SLATE_RPC_RATE_LIMIT_BURST", cfg.RPC.RateLimit.Burst)
	cfg.RPC.StreamMaxGlobal = envPositiveInt("SLATE_RPC_STREAM_MAX_GLOBAL", cfg.RPC.StreamMaxGlobal)
	cfg.RPC.StreamMaxPerClient = envPositiveInt("SLATE_RPC_STREAM_MAX_PER_CLIENT", cfg.RPC.StreamMaxPerClient)
	if v, ok := envBool("SLATE_METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = v
	}
	if v := envString("SLATE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := envString("SLATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := envString("SLATE_DRAFTS_SNAPSHOT"); v != "" {
		cfg.Storage.SnapshotPath = v
	}
	if v := envString("SLATE_DRAFTS_SNAPSHOT_SECRET"); v != "" {
		cfg.Storage.SnapshotSecret = v
	}
	if v := envString("SLATE_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	} else if v := envString("DATABASE_URL"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := envString("SLATE_LAYOUT_ENTRY"); v != "" {
		cfg.Layouts.Entry = v
	}
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory:
		if c.Storage.SnapshotSecret != "" && c.Storage.SnapshotPath == "" {
			return errors.New("SLATE_DRAFTS_SNAPSHOT_SECRET is set without a snapshot path")
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage driver postgres requires SLATE_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.NotificationHistory < 1 {
		return errors.New("notificationHistory must be positive")
	}
	return nil
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(envString(key)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envPositiveInt(key string, fallback int) int {
	raw := envString(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

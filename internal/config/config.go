// Package config loads service settings from defaults, an optional YAML
// file, an optional .env file and CATALOG_* environment variables, in that
// order of increasing priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix      = "CATALOG_"
	DefaultFile    = "config.yaml"
	DefaultEnvFile = ".env"

	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP struct {
		Addr            string        `koanf:"addr"`
		HeaderTimeout   time.Duration `koanf:"headertimeout"`
		ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
	} `koanf:"http"`

	Storage struct {
		Driver string `koanf:"driver"`
		Path   string `koanf:"path"`
		DSN    string `koanf:"dsn"`
	} `koanf:"storage"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	Metrics struct {
		Enabled bool   `koanf:"enabled"`
		Token   string `koanf:"token"`
	} `koanf:"metrics"`

	Auth struct {
		Secret string `koanf:"secret"`
	} `koanf:"auth"`

	RateLimit struct {
		Limit      int           `koanf:"limit"`
		Window     time.Duration `koanf:"window"`
		TrustProxy bool          `koanf:"trustproxy"`
	} `koanf:"ratelimit"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":            ":8082",
		"http.headertimeout":   "5s",
		"http.shutdowntimeout": "10s",
		"storage.driver":       DriverFile,
		"storage.path":         "products.json",
		"log.level":            "info",
		"metrics.enabled":      false,
		"ratelimit.limit":      60,
		"ratelimit.window":     "1m",
		"ratelimit.trustproxy": false,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("http.addr=%s, storage.driver=%s, storage.path=%s, storage.dsn=%s, log.level=%s, metrics.enabled=%t, auth=%t, ratelimit=%d/%v",
		c.HTTP.Addr,
		c.Storage.Driver,
		c.Storage.Path,
		maskDSN(c.Storage.DSN),
		c.Log.Level,
		c.Metrics.Enabled,
		c.Auth.Secret != "",
		c.RateLimit.Limit,
		c.RateLimit.Window,
	)
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "<not configured>"
	}
	if _, host, ok := strings.Cut(dsn, "@"); ok {
		return "****@" + host
	}
	return "****"
}

// Load reads configFile and envFile if they exist; either may be empty to
// skip it.
func Load(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if exists(configFile) {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load %s", configFile)
		}
	}

	if exists(envFile) {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", envFile)
		}
		m := make(map[string]any, len(vars))
		for key, value := range vars {
			if strings.HasPrefix(key, EnvPrefix) {
				m[keyTransformer(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			return nil, errors.Wrapf(err, "load %s", envFile)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", keyTransformer), nil); err != nil {
		return nil, errors.Wrap(err, "load env")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the file driver")
		}
	case DriverPostgres:
		if !isPostgresDSN(c.Storage.DSN) {
			return errors.Errorf("storage.dsn must start with postgres:// or postgresql://, got %s", maskDSN(c.Storage.DSN))
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.RateLimit.Limit < 0 {
		return errors.Errorf("invalid ratelimit.limit: %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Limit > 0 && c.RateLimit.Window <= 0 {
		return errors.Errorf("invalid ratelimit.window: %v", c.RateLimit.Window)
	}
	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return errors.New("metrics.token is required when metrics are enabled")
	}
	return nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// keyTransformer maps CATALOG_STORAGE_PATH to storage.path.
func keyTransformer(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

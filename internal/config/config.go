package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iksnae/darkscan/internal"
)

// ErrMissingBaseURL is returned when no analysis service URL is configured
var ErrMissingBaseURL = errors.New("analysis service base URL is not configured (set service.base_url, DARKSCAN_BASE_URL or EXPO_PUBLIC_BACKEND_URL)")

// EnvPrefix is the prefix for environment overrides, e.g. DARKSCAN_CACHE_DIR
const EnvPrefix = "DARKSCAN"

// Config is the application configuration
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Cache    CacheConfig    `mapstructure:"cache"`
	App      AppConfig      `mapstructure:"app"`
	Language LanguageConfig `mapstructure:"language"`

	// File is the config file that was read, if any
	File string `mapstructure:"-"`
}

// ServiceConfig locates the remote analysis service
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig locates the local cache
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// AppConfig holds process-wide settings
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// LanguageConfig holds the fallback request language
type LanguageConfig struct {
	Default string `mapstructure:"default"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; empty searches the default locations
	ConfigFile string
	// EnvFile is a dotenv file loaded before the environment is read
	EnvFile string
}

// Load reads configuration from defaults, an optional YAML file, an
// optional .env file and the environment, in increasing precedence
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("service.base_url", "DARKSCAN_SERVICE_BASE_URL", "DARKSCAN_BASE_URL", "EXPO_PUBLIC_BACKEND_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind base URL environment: %w", err)
	}

	var cfg Config
	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		cfg.File = v.ConfigFileUsed()
		internal.LogDebug("Loaded config file %s", cfg.File)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Service.BaseURL = strings.TrimSpace(cfg.Service.BaseURL)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.base_url", "")
	v.SetDefault("service.timeout", "0s")
	v.SetDefault("cache.dir", "~/.darkscan")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("language.default", string(internal.DefaultLanguage))
}

// findConfigFile returns the first existing default config file
func findConfigFile() string {
	candidates := []string{"darkscan.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".darkscan", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks settings needed by commands that talk to the service
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout must not be negative: %s", c.Service.Timeout)
	}
	if _, err := internal.ParseLanguage(c.Language.Default); err != nil {
		return fmt.Errorf("language.default: %w", err)
	}
	return nil
}

// DefaultLanguage returns the configured fallback language
func (c *Config) DefaultLanguage() internal.Language {
	if l, err := internal.ParseLanguage(c.Language.Default); err == nil {
		return l
	}
	return internal.DefaultLanguage
}

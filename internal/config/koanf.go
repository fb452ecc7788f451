package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// envMappings maps flat environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"app_addr":                "server.addr",
	"max_page_size":           "server.max_page_size",
	"db_dsn":                  "database.dsn",
	"db_max_conns":            "database.max_conns",
	"db_query_timeout":        "database.query_timeout",
	"openlibrary_base_url":    "openlibrary.base_url",
	"openlibrary_covers_url":  "openlibrary.covers_url",
	"openlibrary_user_agent":  "openlibrary.user_agent",
	"openlibrary_timeout":     "openlibrary.timeout",
	"openlibrary_rps":         "openlibrary.rps",
	"openlibrary_max_retries": "openlibrary.max_retries",
	"openlibrary_concurrency": "openlibrary.concurrency",
	"recommender_url":         "recommender.url",
	"recommender_timeout":     "recommender.timeout",
	"cors_origins":            "security.cors_origins",
	"rate_limit_rpm":          "security.rate_limit_rpm",
	"enable_hsts":             "security.enable_hsts",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
}

var sliceConfigPaths = []string{"security.cors_origins"}

// LoadEnvFiles loads .env and .env.local without overriding variables that
// are already set by the runtime.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration: defaults, then the YAML file (if any), then
// environment variables. The result is validated.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc returns "" for unknown variables so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// processSliceFields splits comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Package config loads the application configuration from an optional
// YAML file, ANKICHAT_-prefixed environment variables, and command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables. A double underscore
// nests, e.g. ANKICHAT_OPENAI__API_KEY maps to openai.api_key while
// ANKICHAT_DB_PATH maps to db_path.
const envPrefix = "ANKICHAT_"

// OpenAI configures the sentence generator used by cloze mode. An
// empty API key disables the generator; cloze sessions then fail with
// an explicit error instead of degrading.
type OpenAI struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// Config is the full application configuration.
type Config struct {
	DBPath   string `koanf:"db_path" validate:"required"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	MaxCards int    `koanf:"max_cards" validate:"gte=1,lte=500"`
	OpenAI   OpenAI `koanf:"openai"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DBPath:   "ankichat.db",
		ReposDir: "repos",
		MaxCards: 20,
		OpenAI: OpenAI{
			Model: "gpt-4o-mini",
		},
	}
}

// Load layers the YAML file at path (skipped when empty or absent),
// then the environment, then the flag set, over the defaults, and
// validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

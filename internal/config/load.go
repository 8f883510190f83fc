package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (PROMPTQ_ prefix, underscores for nesting) take
// precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROMPTQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the defaults for every key so viper picks up the
// matching environment variables even when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.api_key_hash", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("engine.channel", "http")
	v.SetDefault("engine.executor_url", "")
	v.SetDefault("engine.submit_settle_ms", 2000)
	v.SetDefault("engine.redirect_settle_ms", 3000)
	v.SetDefault("engine.delay_min_ms", 1000)
	v.SetDefault("engine.delay_max_ms", 4000)
	v.SetDefault("engine.poll_interval_ms", 1000)
	v.SetDefault("engine.completion_timeout_ms", 300000)
	v.SetDefault("engine.strict_completion", false)
	v.SetDefault("engine.max_redirect_retries", 0)
	v.SetDefault("engine.cdp_url", "http://127.0.0.1:9222")
	v.SetDefault("engine.agent_port", 8089)

	v.SetDefault("media_cache.driver", "local")
	v.SetDefault("media_cache.dir", "./media-cache")
	v.SetDefault("media_cache.bucket", "")
	v.SetDefault("media_cache.region", "")
	v.SetDefault("media_cache.endpoint", "")
	v.SetDefault("media_cache.access_key", "")
	v.SetDefault("media_cache.secret_key", "")
	v.SetDefault("media_cache.fetch_timeout_ms", 30000)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
}

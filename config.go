package integrations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCallbackPort is where the CLI listens for OAuth redirects.
const DefaultCallbackPort = 8085

// Config is the runtime configuration.
type Config struct {
	BaseURL          string        // backend root, e.g. https://api.example.com/api/v1
	APIToken         string        // overrides the saved token
	StaleTime        time.Duration // how long query results are served from cache
	HealthInterval   time.Duration // health re-poll interval
	OAuthStateMaxAge time.Duration // client-side staleness hint for callbacks
	CallbackPort     int           // local OAuth redirect listener
	RedisURL         string        // optional shared cache
	CacheTTL         time.Duration // TTL of shared cache entries
}

// getConfigDir returns ~/.config/integrations
func getConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appDirName), nil
}

// LoadConfig reads .env, then config.yaml from the config dir, then
// INTEGRATIONS_* environment variables, later sources winning.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("base_url", "")
	v.SetDefault("api_token", "")
	v.SetDefault("stale_time", "30s")
	v.SetDefault("health_interval", DefaultHealthInterval.String())
	v.SetDefault("oauth_state_max_age", DefaultOAuthStateMaxAge.String())
	v.SetDefault("callback_port", DefaultCallbackPort)
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "5m")

	v.SetEnvPrefix("INTEGRATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configDir, err := getConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("get config dir: %w", err)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		BaseURL:          strings.TrimSpace(v.GetString("base_url")),
		APIToken:         v.GetString("api_token"),
		StaleTime:        getDuration(v, "stale_time", 30*time.Second),
		HealthInterval:   getDuration(v, "health_interval", DefaultHealthInterval),
		OAuthStateMaxAge: getDuration(v, "oauth_state_max_age", DefaultOAuthStateMaxAge),
		CallbackPort:     v.GetInt("callback_port"),
		RedisURL:         v.GetString("redis_url"),
		CacheTTL:         getDuration(v, "cache_ttl", 5*time.Minute),
	}

	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("%s: INTEGRATIONS_BASE_URL is required", ErrNotConfigured)
	}
	if cfg.CallbackPort <= 0 || cfg.CallbackPort > 65535 {
		return Config{}, fmt.Errorf("invalid callback port %d", cfg.CallbackPort)
	}

	return cfg, nil
}

// getDuration accepts plain seconds or Go duration syntax.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, raw, def)
	return def
}

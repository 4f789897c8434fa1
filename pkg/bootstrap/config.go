package bootstrap

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	shared "github.com/fitglue/strava-ingest/pkg"
)

// Config holds configuration for the webhook service. Every key can be set
// through the environment variable of the same name in upper case.
type Config struct {
	ProjectID         string `mapstructure:"google_cloud_project"`
	EnablePublish     bool   `mapstructure:"enable_publish"`
	GCSArtifactBucket string `mapstructure:"gcs_artifact_bucket"`

	StravaClientID     string `mapstructure:"strava_client_id"`
	StravaClientSecret string `mapstructure:"strava_client_secret"`
	StravaVerifyToken  string `mapstructure:"strava_verify_token"`
	StravaAPIBaseURL   string `mapstructure:"strava_api_base_url"`
	// Strava's default budget is 100 requests per 15 minutes.
	StravaRateLimitRequests      int `mapstructure:"strava_rate_limit_requests"`
	StravaRateLimitWindowSeconds int `mapstructure:"strava_rate_limit_window_seconds"`

	DefaultFTP              int `mapstructure:"default_ftp"`
	IdentityCacheMB         int `mapstructure:"identity_cache_mb"`
	IdentityCacheTTLSeconds int `mapstructure:"identity_cache_ttl_seconds"`

	Port                   string `mapstructure:"port"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
	EnableMetrics          bool   `mapstructure:"enable_metrics"`

	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
	LogLevel    string `mapstructure:"log_level"`
}

var defaults = map[string]interface{}{
	"google_cloud_project":             shared.ProjectID,
	"enable_publish":                   false,
	"gcs_artifact_bucket":              "",
	"strava_client_id":                 "",
	"strava_client_secret":             "",
	"strava_verify_token":              "",
	"strava_api_base_url":              "https://www.strava.com",
	"strava_rate_limit_requests":       100,
	"strava_rate_limit_window_seconds": 900,
	"default_ftp":                      200,
	"identity_cache_mb":                8,
	"identity_cache_ttl_seconds":       300,
	"port":                             "8080",
	"shutdown_timeout_seconds":         25,
	"enable_metrics":                   true,
	"sentry_dsn":                       "",
	"environment":                      "development",
	"release":                          "",
	"log_level":                        "info",
}

// LoadConfig reads configuration from the environment, and from the YAML file
// named by CONFIG_FILE when set. Environment values win over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	v.SetDefault("config_file", "")
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return &cfg, nil
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.StravaRateLimitWindowSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                 = "ECHO"
	defaultHTTPAddress        = "0.0.0.0:8080"
	defaultDatabasePath       = "file:echo?mode=memory&cache=shared"
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultSessionTTLMinutes  = 1440
	defaultCORSOrigins        = "*"
	defaultAnonymousPerMinute = 10
	defaultAnonymousBurst     = 5
	defaultWebsocketPerMinute = 60
	defaultWebsocketBurst     = 20
	defaultRealtimeSendBuffer = 64
	defaultPresignTTLMinutes  = 15
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress    string
	DatabasePath   string
	SeedDemo       bool
	LogLevel       string
	LogFormat      string
	SigningSecret  string
	SessionTTL     time.Duration
	AllowedOrigins []string
	TrustedProxies []string
	AnonymousLimit RateLimit
	WebsocketLimit RateLimit
	SendBuffer     int
	Media          MediaConfig
}

// RateLimit is a per-client token bucket.
type RateLimit struct {
	PerMinute int
	Burst     int
}

// MediaConfig describes the S3-compatible bucket used for uploads. An empty bucket disables media.
type MediaConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	PresignTTL      time.Duration
}

// Enabled reports whether a bucket was configured.
func (m MediaConfig) Enabled() bool {
	return strings.TrimSpace(m.Bucket) != ""
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("database.seed_demo", false)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("auth.session_ttl_minutes", defaultSessionTTLMinutes)
	configViper.SetDefault("cors.allowed_origins", defaultCORSOrigins)
	configViper.SetDefault("http.trusted_proxies", "")
	configViper.SetDefault("ratelimit.anonymous_per_minute", defaultAnonymousPerMinute)
	configViper.SetDefault("ratelimit.anonymous_burst", defaultAnonymousBurst)
	configViper.SetDefault("ratelimit.websocket_per_minute", defaultWebsocketPerMinute)
	configViper.SetDefault("ratelimit.websocket_burst", defaultWebsocketBurst)
	configViper.SetDefault("realtime.send_buffer", defaultRealtimeSendBuffer)
	configViper.SetDefault("media.presign_ttl_minutes", defaultPresignTTLMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		DatabasePath:   configViper.GetString("database.path"),
		SeedDemo:       configViper.GetBool("database.seed_demo"),
		LogLevel:       configViper.GetString("log.level"),
		LogFormat:      configViper.GetString("log.format"),
		SigningSecret:  configViper.GetString("auth.signing_secret"),
		SessionTTL:     time.Duration(configViper.GetInt("auth.session_ttl_minutes")) * time.Minute,
		AllowedOrigins: splitList(configViper.GetString("cors.allowed_origins")),
		TrustedProxies: splitList(configViper.GetString("http.trusted_proxies")),
		AnonymousLimit: RateLimit{
			PerMinute: configViper.GetInt("ratelimit.anonymous_per_minute"),
			Burst:     configViper.GetInt("ratelimit.anonymous_burst"),
		},
		WebsocketLimit: RateLimit{
			PerMinute: configViper.GetInt("ratelimit.websocket_per_minute"),
			Burst:     configViper.GetInt("ratelimit.websocket_burst"),
		},
		SendBuffer: configViper.GetInt("realtime.send_buffer"),
		Media: MediaConfig{
			Bucket:          configViper.GetString("media.s3_bucket"),
			Endpoint:        configViper.GetString("media.s3_endpoint"),
			Region:          configViper.GetString("media.s3_region"),
			AccessKeyID:     configViper.GetString("media.s3_access_key_id"),
			SecretAccessKey: configViper.GetString("media.s3_secret_access_key"),
			PublicBaseURL:   configViper.GetString("media.public_base_url"),
			PresignTTL:      time.Duration(configViper.GetInt("media.presign_ttl_minutes")) * time.Minute,
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl_minutes must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console")
	}
	if c.AnonymousLimit.PerMinute <= 0 || c.AnonymousLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.anonymous_per_minute and ratelimit.anonymous_burst must be positive")
	}
	if c.WebsocketLimit.PerMinute <= 0 || c.WebsocketLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.websocket_per_minute and ratelimit.websocket_burst must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("realtime.send_buffer must be positive")
	}
	if c.Media.Enabled() {
		if strings.TrimSpace(c.Media.Endpoint) == "" {
			return fmt.Errorf("media.s3_endpoint is required when media.s3_bucket is set")
		}
		if strings.TrimSpace(c.Media.AccessKeyID) == "" || strings.TrimSpace(c.Media.SecretAccessKey) == "" {
			return fmt.Errorf("media.s3_access_key_id and media.s3_secret_access_key are required when media.s3_bucket is set")
		}
		if c.Media.PresignTTL <= 0 {
			return fmt.Errorf("media.presign_ttl_minutes must be positive")
		}
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

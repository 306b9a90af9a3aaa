package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a send run.
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Browser     BrowserConfig    `yaml:"browser"`
	Dispatch    DispatchConfig   `yaml:"dispatch"`
	Sender      SenderConfig     `yaml:"sender"`
	Tracking    TrackingConfig   `yaml:"tracking"`
	Native      NativeConfig     `yaml:"native"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
	LogLevel    string           `yaml:"log_level"`
}

// ServerConfig holds the tracking/file HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// BrowserConfig holds browser attachment settings. When DebuggerURL is set
// the controller attaches to a manually-authenticated Chrome; otherwise it
// launches a visible instance and waits for the human to log in.
type BrowserConfig struct {
	Provider          string `yaml:"provider"` // gmail | outlook | generic
	DebuggerURL       string `yaml:"debugger_url"`
	Bin               string `yaml:"bin"`
	NavTimeoutSeconds int    `yaml:"nav_timeout_seconds"`
	MailboxURL        string `yaml:"mailbox_url"` // required for the generic provider
}

// NavTimeout returns the navigation timeout as a duration.
func (c BrowserConfig) NavTimeout() time.Duration {
	if c.NavTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavTimeoutSeconds) * time.Second
}

// DispatchConfig holds worker pool settings.
type DispatchConfig struct {
	// Workers defaults to 1: all browser work serializes on one session,
	// so wider pools only pay off for the native-client path.
	Workers int    `yaml:"workers"`
	Subject string `yaml:"subject"`
}

// SenderConfig holds the identity substituted into message templates.
type SenderConfig struct {
	Name      string `yaml:"name"`
	ReviewURL string `yaml:"review_url"`
}

// TrackingConfig holds pixel endpoint and auto-reply settings.
type TrackingConfig struct {
	NgrokAPI        string `yaml:"ngrok_api"`
	RedisAddr       string `yaml:"redis_addr"`
	CooldownMinutes int    `yaml:"cooldown_minutes"`
	ReplySubject    string `yaml:"reply_subject"`
	ReplyBody       string `yaml:"reply_body"`
}

// Cooldown returns the auto-reply rate gate window.
func (c TrackingConfig) Cooldown() time.Duration {
	if c.CooldownMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// NativeConfig holds the optional native mail-client path. Mode selects the
// implementation: "ses" uses the AWS API sender, "command" execs an external
// helper, "" disables the native path entirely.
type NativeConfig struct {
	Mode      string `yaml:"mode"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Command   string `yaml:"command"`
}

// ScreenshotConfig holds diagnostic screenshot settings.
type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads YAML configuration from path and applies defaults. A missing
// file is not an error; every setting has a usable default.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Browser.Provider == "" {
		cfg.Browser.Provider = "gmail"
	}
	if cfg.Browser.NavTimeoutSeconds == 0 {
		cfg.Browser.NavTimeoutSeconds = 30
	}
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = 1
	}
	if cfg.Dispatch.Subject == "" {
		cfg.Dispatch.Subject = "Document review request"
	}
	if cfg.Tracking.NgrokAPI == "" {
		cfg.Tracking.NgrokAPI = "http://127.0.0.1:4040/api/tunnels"
	}
	if cfg.Tracking.CooldownMinutes == 0 {
		cfg.Tracking.CooldownMinutes = 60
	}
	if cfg.Tracking.ReplySubject == "" {
		cfg.Tracking.ReplySubject = "Re: %s"
	}
	if cfg.Tracking.ReplyBody == "" {
		cfg.Tracking.ReplyBody = "<p>Thanks for taking a look. Happy to answer any questions.</p>"
	}
	if cfg.Native.Region == "" {
		cfg.Native.Region = "us-east-1"
	}
	if cfg.Screenshots.Dir == "" {
		cfg.Screenshots.Dir = filepath.Join(os.TempDir(), "courier_screenshots")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("COURIER_DEBUGGER_URL"); v != "" {
		cfg.Browser.DebuggerURL = v
	}
	if v := os.Getenv("COURIER_REDIS_ADDR"); v != "" {
		cfg.Tracking.RedisAddr = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" && cfg.Native.AccessKey == "" {
		cfg.Native.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" && cfg.Native.SecretKey == "" {
		cfg.Native.SecretKey = v
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Browser.Provider {
	case "gmail", "outlook":
	case "generic":
		if c.Browser.MailboxURL == "" {
			return fmt.Errorf("browser.mailbox_url is required for the generic provider")
		}
	default:
		return fmt.Errorf("unknown browser provider %q", c.Browser.Provider)
	}
	switch c.Native.Mode {
	case "", "ses", "command":
	default:
		return fmt.Errorf("unknown native mode %q", c.Native.Mode)
	}
	return nil
}

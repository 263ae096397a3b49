package config

import "time"

// Config holds client configuration values.
type Config struct {
	User            string        `mapstructure:"user" yaml:"user"`
	RelayURL        string        `mapstructure:"relay_url" yaml:"relay_url"`
	APIBaseURL      string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	APIAddr         string        `mapstructure:"api_addr" yaml:"api_addr"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string        `mapstructure:"log_format" yaml:"log_format"`
	TypingTimeout   time.Duration `mapstructure:"typing_timeout" yaml:"typing_timeout"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		RelayURL:        "ws://localhost:5001/ws",
		APIBaseURL:      "http://localhost:5001",
		APIAddr:         "127.0.0.1:7070",
		LogLevel:        "info",
		LogFormat:       "console",
		TypingTimeout:   2 * time.Second,
		DialTimeout:     10 * time.Second,
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.User != "" {
		c.User = other.User
	}
	if other.RelayURL != "" {
		c.RelayURL = other.RelayURL
	}
	if other.APIBaseURL != "" {
		c.APIBaseURL = other.APIBaseURL
	}
	if other.APIAddr != "" {
		c.APIAddr = other.APIAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.TypingTimeout != 0 {
		c.TypingTimeout = other.TypingTimeout
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	if c.User == "" {
		return errMissing("user")
	}
	if c.RelayURL == "" {
		return errMissing("relay_url")
	}
	return nil
}

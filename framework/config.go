package framework

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// MountebankConfig locates the admin API.
type MountebankConfig struct {
	URL              string `koanf:"url" validate:"required,url"`
	AdminPort        int    `koanf:"adminPort" validate:"required,min=1,max=65535"`
	TimeoutInSeconds int    `koanf:"timeoutInSeconds" validate:"min=0"`
}

// AdminURL returns the base address of the admin API.
func (c MountebankConfig) AdminURL() string {
	return fmt.Sprintf("%s:%d", c.URL, c.AdminPort)
}

func (c MountebankConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutInSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"omitempty,oneof=text json"`
}

// EventsConfig enables lifecycle events on Kafka.
type EventsConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `koanf:"topic" validate:"required_if=Enabled true"`
}

// Config is the layout of config.yaml.
type Config struct {
	Mountebank MountebankConfig `koanf:"mountebank"`
	Logging    LoggingConfig    `koanf:"logging"`
	Events     EventsConfig     `koanf:"events"`
}

// DefaultConfig points at a local mb with events disabled.
func DefaultConfig() Config {
	return Config{
		Mountebank: MountebankConfig{URL: "http://localhost", AdminPort: 2525, TimeoutInSeconds: 30},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Events:     EventsConfig{Topic: "imposter-events"},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	config := DefaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

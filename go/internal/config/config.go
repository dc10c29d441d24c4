// Package config loads the waybar-timer settings: built-in defaults, then an
// optional YAML file, then WAYBAR_TIMER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/christianlegge/waybar-timer/go/internal/service"
	"github.com/christianlegge/waybar-timer/go/internal/shell"
	"github.com/christianlegge/waybar-timer/go/internal/timer"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "waybar-timer"
	configFileName = "config.yaml"
	envPrefix      = "WAYBAR_TIMER_"
)

type Config struct {
	UpdatesSocket  string
	CommandsSocket string
	// StatusSocket enables the HTTP status endpoint when set.
	StatusSocket string

	TickInterval   time.Duration
	WriteTimeout   time.Duration
	CommandTimeout time.Duration
	MaxSubscribers int

	FocusMinutes      int
	ShortBreakMinutes int
	LongBreakMinutes  int
	StrictStart       bool

	Notifications bool
	Shell         string
	LogLevel      string
}

// yamlConfig mirrors the file format. Pointers tell an explicit zero apart
// from an absent key.
type yamlConfig struct {
	UpdatesSocket     *string `yaml:"updates_socket"`
	CommandsSocket    *string `yaml:"commands_socket"`
	StatusSocket      *string `yaml:"status_socket"`
	TickInterval      *string `yaml:"tick_interval"`
	WriteTimeout      *string `yaml:"write_timeout"`
	CommandTimeout    *string `yaml:"command_timeout"`
	MaxSubscribers    *int    `yaml:"max_subscribers"`
	FocusMinutes      *int    `yaml:"focus_minutes"`
	ShortBreakMinutes *int    `yaml:"short_break_minutes"`
	LongBreakMinutes  *int    `yaml:"long_break_minutes"`
	StrictStart       *bool   `yaml:"strict_start"`
	Notifications     *bool   `yaml:"notifications"`
	Shell             *string `yaml:"shell"`
	LogLevel          *string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	svc := service.DefaultConfig()
	return Config{
		UpdatesSocket:     svc.UpdatesAddr,
		CommandsSocket:    svc.CommandsAddr,
		TickInterval:      svc.TickInterval,
		WriteTimeout:      svc.WriteTimeout,
		CommandTimeout:    svc.CommandTimeout,
		MaxSubscribers:    svc.MaxSubscribers,
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  25,
		Notifications:     true,
		Shell:             shell.DefaultShell,
		LogLevel:          "info",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/waybar-timer/config.yaml, or an empty
// string when no config directory can be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, configFileName)
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. A missing file is only an error when mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyYAML(data); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !mustExist:
		default:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyYAML(data []byte) error {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	setString(&c.UpdatesSocket, raw.UpdatesSocket)
	setString(&c.CommandsSocket, raw.CommandsSocket)
	setString(&c.StatusSocket, raw.StatusSocket)
	setString(&c.Shell, raw.Shell)
	setString(&c.LogLevel, raw.LogLevel)
	setValue(&c.MaxSubscribers, raw.MaxSubscribers)
	setValue(&c.FocusMinutes, raw.FocusMinutes)
	setValue(&c.ShortBreakMinutes, raw.ShortBreakMinutes)
	setValue(&c.LongBreakMinutes, raw.LongBreakMinutes)
	setValue(&c.StrictStart, raw.StrictStart)
	setValue(&c.Notifications, raw.Notifications)

	return errors.Join(
		setDuration("tick_interval", &c.TickInterval, raw.TickInterval),
		setDuration("write_timeout", &c.WriteTimeout, raw.WriteTimeout),
		setDuration("command_timeout", &c.CommandTimeout, raw.CommandTimeout),
	)
}

func (c *Config) applyEnv() error {
	c.UpdatesSocket = getEnv(envPrefix+"UPDATES_SOCKET", c.UpdatesSocket)
	c.CommandsSocket = getEnv(envPrefix+"COMMANDS_SOCKET", c.CommandsSocket)
	c.StatusSocket = getEnv(envPrefix+"STATUS_SOCKET", c.StatusSocket)
	c.Shell = getEnv(envPrefix+"SHELL", c.Shell)
	c.LogLevel = getEnv(envPrefix+"LOG_LEVEL", c.LogLevel)

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(getEnvAsDuration(envPrefix+"TICK_INTERVAL", &c.TickInterval))
	collect(getEnvAsDuration(envPrefix+"WRITE_TIMEOUT", &c.WriteTimeout))
	collect(getEnvAsDuration(envPrefix+"COMMAND_TIMEOUT", &c.CommandTimeout))
	collect(getEnvAsInt(envPrefix+"MAX_SUBSCRIBERS", &c.MaxSubscribers))
	collect(getEnvAsInt(envPrefix+"FOCUS_MINUTES", &c.FocusMinutes))
	collect(getEnvAsInt(envPrefix+"SHORT_BREAK_MINUTES", &c.ShortBreakMinutes))
	collect(getEnvAsInt(envPrefix+"LONG_BREAK_MINUTES", &c.LongBreakMinutes))
	collect(getEnvAsBool(envPrefix+"STRICT_START", &c.StrictStart))
	collect(getEnvAsBool(envPrefix+"NOTIFICATIONS", &c.Notifications))
	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.UpdatesSocket == "" {
		errs = append(errs, errors.New("updates_socket must not be empty"))
	}
	if c.CommandsSocket == "" {
		errs = append(errs, errors.New("commands_socket must not be empty"))
	}
	if c.UpdatesSocket != "" && c.UpdatesSocket == c.CommandsSocket {
		errs = append(errs, errors.New("updates_socket and commands_socket must differ"))
	}
	if c.StatusSocket != "" && (c.StatusSocket == c.UpdatesSocket || c.StatusSocket == c.CommandsSocket) {
		errs = append(errs, errors.New("status_socket must differ from the other sockets"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write_timeout must be positive, got %s", c.WriteTimeout))
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("command_timeout must not be negative, got %s", c.CommandTimeout))
	}
	if c.MaxSubscribers < 0 {
		errs = append(errs, fmt.Errorf("max_subscribers must not be negative, got %d", c.MaxSubscribers))
	}
	for name, minutes := range map[string]int{
		"focus_minutes":       c.FocusMinutes,
		"short_break_minutes": c.ShortBreakMinutes,
		"long_break_minutes":  c.LongBreakMinutes,
	} {
		if minutes <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, minutes))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Service returns the service settings.
func (c Config) Service() service.Config {
	return service.Config{
		UpdatesAddr:    c.UpdatesSocket,
		CommandsAddr:   c.CommandsSocket,
		TickInterval:   c.TickInterval,
		WriteTimeout:   c.WriteTimeout,
		CommandTimeout: c.CommandTimeout,
		MaxSubscribers: c.MaxSubscribers,
	}
}

// Timer returns the timer settings.
func (c Config) Timer() timer.Config {
	return timer.Config{
		Schedule: timer.Schedule{
			Focus:      time.Duration(c.FocusMinutes) * time.Minute,
			ShortBreak: time.Duration(c.ShortBreakMinutes) * time.Minute,
			LongBreak:  time.Duration(c.LongBreakMinutes) * time.Minute,
		},
		StrictStart: c.StrictStart,
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(key string, dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func getEnvAsBool(key string, dst *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func getEnvAsDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

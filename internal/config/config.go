package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/codetrek/workforce/internal/logging"
)

// Config represents the complete workforce configuration
type Config struct {
	Workforce WorkforceConfig `mapstructure:"workforce"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Run       RunConfig       `mapstructure:"run"`
}

// WorkforceConfig controls the scheduler and agent pool
type WorkforceConfig struct {
	// MaxAgents is the maximum number of concurrently processing tasks
	MaxAgents int `mapstructure:"max_agents"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// File is the log destination; empty logs to stderr
	File string `mapstructure:"file"`
}

// RunConfig controls workforce run behavior
type RunConfig struct {
	// TasksFile is the YAML file of task specs submitted at startup
	TasksFile string `mapstructure:"tasks_file"`
	// Watch re-reads the tasks file on change and submits new specs at runtime
	Watch bool `mapstructure:"watch"`
	// Filter is a glob over event types for console output (e.g. "task.*")
	Filter string `mapstructure:"filter"`
	// TUI launches the live dashboard instead of plain event printing
	TUI bool `mapstructure:"tui"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Workforce: WorkforceConfig{
			MaxAgents: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Run: RunConfig{
			TasksFile: "tasks.yaml",
			Watch:     false,
			Filter:    "*",
			TUI:       false,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("workforce.max_agents", defaults.Workforce.MaxAgents)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	viper.SetDefault("run.tasks_file", defaults.Run.TasksFile)
	viper.SetDefault("run.watch", defaults.Run.Watch)
	viper.SetDefault("run.filter", defaults.Run.Filter)
	viper.SetDefault("run.tui", defaults.Run.TUI)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "workforce")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".workforce"
	}
	return filepath.Join(home, ".config", "workforce")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// IsValidLogLevel checks if the given level names one of the known levels
func IsValidLogLevel(level string) bool {
	for _, valid := range logging.ValidLevels() {
		if strings.EqualFold(level, valid) {
			return true
		}
	}
	return false
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return logging.ValidLevels()
}

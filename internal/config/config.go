// Package config provides configuration management for Genesis, including
// loading configuration with precedence, environment variable overrides,
// and get/set/list operations for configuration values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aurakai/genesis/internal/core"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryCapacity  = 1000
	DefaultSubscriberBuffer = 64
	DefaultMaxRetries       = 3
	DefaultInitialDelayMs   = 1000
	DefaultPrimaryModel     = "ollama:qwen3:1.7b"
	DefaultSecondaryModel   = "echo:genesis"
	DefaultOllamaHost       = "http://localhost:11434"
	DefaultTimeoutSeconds   = 60
	DefaultServerPort       = 8080
	DefaultServerCaller     = "genesis"
	DefaultExternalTimeout  = 30

	projectConfigName = "genesis.yaml"
	userConfigName    = "config.yaml"
	homeDirName       = ".genesis"
	externalToolsDir  = "tools"
)

type GenesisLogLevel string

const (
	GenesisLogLevelDebug GenesisLogLevel = "debug"
	GenesisLogLevelInfo  GenesisLogLevel = "info"
	GenesisLogLevelWarn  GenesisLogLevel = "warn"
	GenesisLogLevelError GenesisLogLevel = "error"
	GenesisLogLevelFatal GenesisLogLevel = "fatal"
)

func ValidLogLevels() map[GenesisLogLevel]struct{} {
	return map[GenesisLogLevel]struct{}{
		GenesisLogLevelDebug: {},
		GenesisLogLevelInfo:  {},
		GenesisLogLevelWarn:  {},
		GenesisLogLevelError: {},
		GenesisLogLevelFatal: {},
	}
}

func IsValidLogLevel(level GenesisLogLevel) bool {
	_, ok := ValidLogLevels()[level]
	return ok
}

type GenesisLogFormat string

const (
	GenesisLogFormatPretty GenesisLogFormat = "pretty"
	GenesisLogFormatJSON   GenesisLogFormat = "json"
)

func ValidLogFormats() map[GenesisLogFormat]struct{} {
	return map[GenesisLogFormat]struct{}{
		GenesisLogFormatPretty: {},
		GenesisLogFormatJSON:   {},
	}
}

func IsValidLogFormat(format GenesisLogFormat) bool {
	_, ok := ValidLogFormats()[format]
	return ok
}

// ToolConfig configures the capability registry.
type ToolConfig struct {
	HistoryCapacity        int                 `yaml:"history_capacity,omitempty" mapstructure:"history_capacity" validate:"gte=1"`
	Authorizations         map[string][]string `yaml:"authorizations,omitempty" mapstructure:"authorizations"` // tool name to caller ids
	ExternalDir            string              `yaml:"external_dir,omitempty" mapstructure:"external_dir"`     // defaults to <home>/tools
	ExternalTimeoutSeconds int                 `yaml:"external_timeout_seconds,omitempty" mapstructure:"external_timeout_seconds" validate:"gte=1"`
	ExternalCallers        []string            `yaml:"external_callers,omitempty" mapstructure:"external_callers" validate:"dive,required"`
}

// BusConfig configures the message stream.
type BusConfig struct {
	SubscriberBuffer int `yaml:"subscriber_buffer,omitempty" mapstructure:"subscriber_buffer" validate:"gte=1"`
}

// DispatchConfig configures the primary/secondary text engines and backoff.
type DispatchConfig struct {
	MaxRetries     int    `yaml:"max_retries,omitempty" mapstructure:"max_retries" validate:"gte=1,lte=20"`
	InitialDelayMs int    `yaml:"initial_delay_ms,omitempty" mapstructure:"initial_delay_ms" validate:"gte=0"`
	PrimaryModel   string `yaml:"primary_model,omitempty" mapstructure:"primary_model" validate:"required"`
	SecondaryModel string `yaml:"secondary_model,omitempty" mapstructure:"secondary_model" validate:"required"`
	OllamaHost     string `yaml:"ollama_host,omitempty" mapstructure:"ollama_host" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" mapstructure:"timeout_seconds" validate:"gte=1"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Port   int    `yaml:"port,omitempty" mapstructure:"port" validate:"gte=0,lte=65535"`
	Caller string `yaml:"caller,omitempty" mapstructure:"caller" validate:"required"` // caller id the served tools are filtered for
}

// GenesisConfig represents the genesis configuration: logging, the tool
// registry, the message bus, engine dispatch and the MCP server.
type GenesisConfig struct {
	LogFormat GenesisLogFormat `yaml:"log_format,omitempty" mapstructure:"log_format"` // "pretty" or "json"
	LogLevel  string           `yaml:"log_level,omitempty" mapstructure:"log_level"`   // "debug", "info", "warn", "error", "fatal"
	LogFile   string           `yaml:"log_file,omitempty" mapstructure:"log_file"`     // optional rotating log file

	Tool     ToolConfig     `yaml:"tool,omitempty" mapstructure:"tool"`
	Bus      BusConfig      `yaml:"bus,omitempty" mapstructure:"bus"`
	Dispatch DispatchConfig `yaml:"dispatch,omitempty" mapstructure:"dispatch"`
	Server   ServerConfig   `yaml:"server,omitempty" mapstructure:"server"`
}

// ConfigValue represents a configuration value with its source
type ConfigValue struct {
	Value  any
	Source string // "env", "project", "user", or "default"
}

var validate = validator.New()

// GetHomeDirFunc returns the genesis home directory. Tests replace it.
var GetHomeDirFunc = defaultHomeDir

func defaultHomeDir() (string, error) {
	if home := os.Getenv(core.EnvPrefix + "_HOME"); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(userHome, homeDirName), nil
}

// GetUserConfigPath returns the path to the user-specific config file (~/.genesis/config.yaml)
func GetUserConfigPath() (string, error) {
	home, err := GetHomeDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get genesis home directory: %w", err)
	}
	return filepath.Join(home, userConfigName), nil
}

// ExternalToolsDir returns the directory scanned for executable tools:
// tool.external_dir when set, <home>/tools otherwise.
func ExternalToolsDir(cfg *GenesisConfig) (string, error) {
	if cfg.Tool.ExternalDir != "" {
		return cfg.Tool.ExternalDir, nil
	}
	home, err := GetHomeDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get genesis home directory: %w", err)
	}
	return filepath.Join(home, externalToolsDir), nil
}

// GetProjectConfigPath returns the path to the project-specific config file (./genesis.yaml)
// relative to the current working directory
func GetProjectConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return filepath.Join(cwd, projectConfigName), nil
}

// setupViper configures Viper with defaults, config file locations, and environment variables
// If configPath is provided (non-empty), loads from that specific path instead of using precedence
func setupViper(configPath string) error {
	viper.Reset()
	setViperDefaults()
	viper.SetEnvPrefix(core.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	// Otherwise use precedence: user config first, then project config merged over it
	if userPath, err := GetUserConfigPath(); err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			viper.SetConfigFile(userPath)
			if readErr := viper.ReadInConfig(); readErr != nil {
				zap.L().Debug("Failed to read user config file", zap.String("path", userPath), zap.Error(readErr))
			}
		}
	}

	if projectPath, err := GetProjectConfigPath(); err == nil {
		if _, statErr := os.Stat(projectPath); statErr == nil {
			viper.SetConfigFile(projectPath)
			if mergeErr := viper.MergeInConfig(); mergeErr != nil {
				zap.L().Debug("Failed to merge project config file", zap.String("path", projectPath), zap.Error(mergeErr))
			}
		}
	}

	return nil
}

// setViperDefaults sets default values in Viper
func setViperDefaults() {
	viper.SetDefault("log_format", string(GenesisLogFormatJSON))
	viper.SetDefault("log_level", string(GenesisLogLevelInfo))
	viper.SetDefault("log_file", "")

	viper.SetDefault("tool.history_capacity", DefaultHistoryCapacity)
	viper.SetDefault("tool.external_dir", "")
	viper.SetDefault("tool.external_timeout_seconds", DefaultExternalTimeout)
	viper.SetDefault("tool.external_callers", []string{DefaultServerCaller})
	viper.SetDefault("bus.subscriber_buffer", DefaultSubscriberBuffer)

	viper.SetDefault("dispatch.max_retries", DefaultMaxRetries)
	viper.SetDefault("dispatch.initial_delay_ms", DefaultInitialDelayMs)
	viper.SetDefault("dispatch.primary_model", DefaultPrimaryModel)
	viper.SetDefault("dispatch.secondary_model", DefaultSecondaryModel)
	viper.SetDefault("dispatch.ollama_host", DefaultOllamaHost)
	viper.SetDefault("dispatch.timeout_seconds", DefaultTimeoutSeconds)

	viper.SetDefault("server.port", DefaultServerPort)
	viper.SetDefault("server.caller", DefaultServerCaller)
}

// LoadConfig loads configuration with precedence: project config > user config > defaults
// Environment variables override config file values
// If configPath is provided, loads from that specific path instead
func LoadConfig(configPath string) (*GenesisConfig, error) {
	if err := setupViper(configPath); err != nil {
		return nil, err
	}

	cfg := &GenesisConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *GenesisConfig) error {
	if cfg.LogFormat != "" && !IsValidLogFormat(cfg.LogFormat) {
		return fmt.Errorf("log_format must be one of: %s, got '%s'", core.JoinMapKeys(ValidLogFormats()), cfg.LogFormat)
	}
	if cfg.LogLevel != "" && !IsValidLogLevel(GenesisLogLevel(cfg.LogLevel)) {
		return fmt.Errorf("log_level must be one of: %s, got '%s'", core.JoinMapKeys(ValidLogLevels()), cfg.LogLevel)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for toolName, callers := range cfg.Tool.Authorizations {
		if len(callers) == 0 {
			return fmt.Errorf("tool.authorizations.%s must list at least one caller", toolName)
		}
	}

	return nil
}

// envKey returns the environment variable that overrides key
func envKey(key string) string {
	return core.EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// fileSetsKey reports whether the config file at path sets key
func fileSetsKey(path, key string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return false
	}
	return v.IsSet(key)
}

// getValueSource determines the source of a config value
func getValueSource(key string) string {
	if os.Getenv(envKey(key)) != "" {
		return "env"
	}

	if projectPath, err := GetProjectConfigPath(); err == nil && fileSetsKey(projectPath, key) {
		return "project"
	}

	if userPath, err := GetUserConfigPath(); err == nil && fileSetsKey(userPath, key) {
		return "user"
	}

	return "default"
}

// GetConfigValue retrieves a configuration value by key, checking environment variables first
// Returns the value and its source ("env", "project", "user", or "default")
func GetConfigValue(key string) (*ConfigValue, error) {
	if err := setupViper(""); err != nil {
		return nil, err
	}
	return lookup(key)
}

func lookup(key string) (*ConfigValue, error) {
	value := viper.Get(key)
	if value == nil {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return &ConfigValue{Value: value, Source: getValueSource(key)}, nil
}

// SetConfigValue sets a configuration value and saves it to the appropriate config file
func SetConfigValue(key, value string) error {
	// Determine which config file to update: project if present, user otherwise
	var configPath string
	if projectPath, err := GetProjectConfigPath(); err == nil {
		if _, statErr := os.Stat(projectPath); statErr == nil {
			configPath = projectPath
		}
	}

	if configPath == "" {
		userPath, err := GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get user config path: %w", err)
		}
		// #nosec G301 -- config directory permissions 0755 are acceptable for user config directory
		if err := os.MkdirAll(filepath.Dir(userPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if _, statErr := os.Stat(userPath); os.IsNotExist(statErr) {
			// #nosec G306 -- config file permissions 0644 are acceptable for user config files
			if err := os.WriteFile(userPath, []byte{}, 0644); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
		}
		configPath = userPath
	}

	if err := setupViper(configPath); err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}

	if viper.Get(key) == nil {
		return fmt.Errorf("unknown config key: %s", key)
	}
	viper.Set(key, value)

	cfg := &GenesisConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- config file permissions 0644 are acceptable for user config files
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ListConfig returns all configuration keys and values with their sources
func ListConfig() (map[string]*ConfigValue, error) {
	if err := setupViper(""); err != nil {
		return nil, err
	}

	result := make(map[string]*ConfigValue)
	for _, key := range viper.AllKeys() {
		configVal, err := lookup(key)
		if err != nil {
			continue
		}
		result[key] = configVal
	}

	return result, nil
}

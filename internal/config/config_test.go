package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points the user config at a temp home and changes into a temp
// project directory. Returns the project dir and the user config path.
func isolate(t *testing.T) (projectDir, userConfigPath string) {
	t.Helper()

	home := t.TempDir()
	original := GetHomeDirFunc
	GetHomeDirFunc = func() (string, error) { return home, nil }
	t.Cleanup(func() { GetHomeDirFunc = original })

	projectDir = t.TempDir()
	t.Chdir(projectDir)

	return projectDir, filepath.Join(home, userConfigName)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	// #nosec G301 -- test directory permissions are acceptable for temporary test files
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	// #nosec G306 -- test file permissions are acceptable for temporary test files
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, GenesisLogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, DefaultHistoryCapacity, cfg.Tool.HistoryCapacity)
	assert.Empty(t, cfg.Tool.Authorizations)
	assert.Empty(t, cfg.Tool.ExternalDir)
	assert.Equal(t, DefaultExternalTimeout, cfg.Tool.ExternalTimeoutSeconds)
	assert.Equal(t, []string{DefaultServerCaller}, cfg.Tool.ExternalCallers)
	assert.Equal(t, DefaultSubscriberBuffer, cfg.Bus.SubscriberBuffer)
	assert.Equal(t, DefaultMaxRetries, cfg.Dispatch.MaxRetries)
	assert.Equal(t, DefaultInitialDelayMs, cfg.Dispatch.InitialDelayMs)
	assert.Equal(t, DefaultPrimaryModel, cfg.Dispatch.PrimaryModel)
	assert.Equal(t, DefaultSecondaryModel, cfg.Dispatch.SecondaryModel)
	assert.Equal(t, DefaultOllamaHost, cfg.Dispatch.OllamaHost)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Dispatch.TimeoutSeconds)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerCaller, cfg.Server.Caller)
}

func TestLoadConfig_WithSpecificPath(t *testing.T) {
	isolate(t)

	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, configPath, "dispatch:\n  max_retries: 5\nserver:\n  port: 9000\n")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Dispatch.MaxRetries)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultInitialDelayMs, cfg.Dispatch.InitialDelayMs, "unset keys keep defaults")
}

func TestLoadConfig_ProjectConfigPrecedence(t *testing.T) {
	projectDir, userPath := isolate(t)

	writeFile(t, userPath, "log_level: debug\nserver:\n  port: 7000\n  caller: kai\n")
	writeFile(t, filepath.Join(projectDir, projectConfigName), "server:\n  port: 9000\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port, "project config overrides user config")
	assert.Equal(t, "kai", cfg.Server.Caller, "user config fills keys the project leaves unset")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvironmentVariableOverride(t *testing.T) {
	projectDir, _ := isolate(t)
	writeFile(t, filepath.Join(projectDir, projectConfigName), "dispatch:\n  max_retries: 2\n")

	t.Setenv("GENESIS_DISPATCH_MAX_RETRIES", "7")
	t.Setenv("GENESIS_LOG_FORMAT", "pretty")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Dispatch.MaxRetries)
	assert.Equal(t, GenesisLogFormatPretty, cfg.LogFormat)
}

func TestLoadConfig_Authorizations(t *testing.T) {
	projectDir, _ := isolate(t)
	writeFile(t, filepath.Join(projectDir, projectConfigName), `tool:
  history_capacity: 10
  authorizations:
    flash_rom: [kai, genesis]
`)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Tool.HistoryCapacity)
	assert.Equal(t, map[string][]string{"flash_rom": {"kai", "genesis"}}, cfg.Tool.Authorizations)
}

func TestLoadConfig_InvalidConfigFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, badPath, "dispatch: [unclosed\n")
	_, err = LoadConfig(badPath)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	isolate(t)

	configPath := filepath.Join(t.TempDir(), "genesis.yaml")
	writeFile(t, configPath, "dispatch:\n  max_retries: 0\n")

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
}

func TestLoadConfig_RejectsUnboundedRetries(t *testing.T) {
	isolate(t)

	configPath := filepath.Join(t.TempDir(), "genesis.yaml")
	writeFile(t, configPath, "dispatch:\n  max_retries: 35\n")

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
}

func validConfig() *GenesisConfig {
	return &GenesisConfig{
		LogFormat: GenesisLogFormatJSON,
		LogLevel:  "info",
		Tool: ToolConfig{
			HistoryCapacity:        DefaultHistoryCapacity,
			ExternalTimeoutSeconds: DefaultExternalTimeout,
			ExternalCallers:        []string{DefaultServerCaller},
		},
		Bus: BusConfig{SubscriberBuffer: DefaultSubscriberBuffer},
		Dispatch: DispatchConfig{
			MaxRetries:     DefaultMaxRetries,
			InitialDelayMs: DefaultInitialDelayMs,
			PrimaryModel:   DefaultPrimaryModel,
			SecondaryModel: DefaultSecondaryModel,
			OllamaHost:     DefaultOllamaHost,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Server: ServerConfig{Port: DefaultServerPort, Caller: DefaultServerCaller},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GenesisConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*GenesisConfig) {}},
		{name: "empty log settings", mutate: func(c *GenesisConfig) { c.LogFormat = ""; c.LogLevel = "" }},
		{name: "bad log format", mutate: func(c *GenesisConfig) { c.LogFormat = "xml" }, wantErr: "log_format must be one of: json, pretty"},
		{name: "bad log level", mutate: func(c *GenesisConfig) { c.LogLevel = "loud" }, wantErr: "log_level must be one of"},
		{name: "zero history", mutate: func(c *GenesisConfig) { c.Tool.HistoryCapacity = 0 }, wantErr: "HistoryCapacity"},
		{name: "zero buffer", mutate: func(c *GenesisConfig) { c.Bus.SubscriberBuffer = 0 }, wantErr: "SubscriberBuffer"},
		{name: "negative delay", mutate: func(c *GenesisConfig) { c.Dispatch.InitialDelayMs = -1 }, wantErr: "InitialDelayMs"},
		{name: "no primary", mutate: func(c *GenesisConfig) { c.Dispatch.PrimaryModel = "" }, wantErr: "PrimaryModel"},
		{name: "bad host", mutate: func(c *GenesisConfig) { c.Dispatch.OllamaHost = "not a url" }, wantErr: "OllamaHost"},
		{name: "port too large", mutate: func(c *GenesisConfig) { c.Server.Port = 70000 }, wantErr: "Port"},
		{name: "empty caller", mutate: func(c *GenesisConfig) { c.Server.Caller = "" }, wantErr: "Caller"},
		{
			name:    "empty authorization",
			mutate:  func(c *GenesisConfig) { c.Tool.Authorizations = map[string][]string{"flash_rom": {}} },
			wantErr: "tool.authorizations.flash_rom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetConfigValue_Sources(t *testing.T) {
	projectDir, userPath := isolate(t)
	writeFile(t, userPath, "log_level: warn\n")
	writeFile(t, filepath.Join(projectDir, projectConfigName), "server:\n  port: 9100\n")
	t.Setenv("GENESIS_DISPATCH_PRIMARY_MODEL", "ollama:llama3")

	tests := []struct {
		key    string
		value  any
		source string
	}{
		{key: "server.port", value: 9100, source: "project"},
		{key: "log_level", value: "warn", source: "user"},
		{key: "dispatch.primary_model", value: "ollama:llama3", source: "env"},
		{key: "bus.subscriber_buffer", value: DefaultSubscriberBuffer, source: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, err := GetConfigValue(tt.key)
			require.NoError(t, err)
			assert.EqualValues(t, tt.value, val.Value)
			assert.Equal(t, tt.source, val.Source)
		})
	}
}

func TestGetConfigValue_UnknownKey(t *testing.T) {
	isolate(t)

	_, err := GetConfigValue("no.such.key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestSetConfigValue_ProjectConfig(t *testing.T) {
	projectDir, userPath := isolate(t)
	projectPath := filepath.Join(projectDir, projectConfigName)
	writeFile(t, projectPath, "log_level: debug\n")

	require.NoError(t, SetConfigValue("dispatch.max_retries", "4"))

	data, err := os.ReadFile(projectPath) // #nosec G304 -- test reads its own temp file
	require.NoError(t, err)
	var written GenesisConfig
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, 4, written.Dispatch.MaxRetries)
	assert.Equal(t, "debug", written.LogLevel, "other values are preserved")

	_, statErr := os.Stat(userPath)
	assert.True(t, os.IsNotExist(statErr), "user config is untouched when a project config exists")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Dispatch.MaxRetries)
}

func TestSetConfigValue_UserConfig(t *testing.T) {
	_, userPath := isolate(t)

	require.NoError(t, SetConfigValue("server.caller", "aura"))

	data, err := os.ReadFile(userPath) // #nosec G304 -- test reads its own temp file
	require.NoError(t, err)
	var written GenesisConfig
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, "aura", written.Server.Caller)

	val, err := GetConfigValue("server.caller")
	require.NoError(t, err)
	assert.Equal(t, "aura", val.Value)
	assert.Equal(t, "user", val.Source)
}

func TestSetConfigValue_Rejects(t *testing.T) {
	projectDir, _ := isolate(t)
	projectPath := filepath.Join(projectDir, projectConfigName)
	writeFile(t, projectPath, "log_level: debug\n")

	err := SetConfigValue("no_such_key", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	err = SetConfigValue("log_level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level must be one of")

	data, readErr := os.ReadFile(projectPath) // #nosec G304 -- test reads its own temp file
	require.NoError(t, readErr)
	assert.Equal(t, "log_level: debug\n", string(data), "rejected values are not written")
}

func TestListConfig(t *testing.T) {
	projectDir, _ := isolate(t)
	writeFile(t, filepath.Join(projectDir, projectConfigName), "server:\n  port: 9200\n")

	values, err := ListConfig()
	require.NoError(t, err)

	for _, key := range []string{
		"log_format", "log_level", "tool.history_capacity", "bus.subscriber_buffer",
		"dispatch.max_retries", "dispatch.initial_delay_ms", "server.port", "server.caller",
	} {
		assert.Contains(t, values, key)
	}
	assert.EqualValues(t, 9200, values["server.port"].Value)
	assert.Equal(t, "project", values["server.port"].Source)
	assert.Equal(t, "default", values["server.caller"].Source)
}

func TestExternalToolsDir(t *testing.T) {
	isolate(t)
	home, err := GetHomeDirFunc()
	require.NoError(t, err)

	dir, err := ExternalToolsDir(&GenesisConfig{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tools"), dir)

	dir, err = ExternalToolsDir(&GenesisConfig{Tool: ToolConfig{ExternalDir: "/opt/genesis/tools"}})
	require.NoError(t, err)
	assert.Equal(t, "/opt/genesis/tools", dir)
}

func TestLoadConfig_ExternalCallersFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GENESIS_TOOL_EXTERNAL_CALLERS", "kai,aura")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"kai", "aura"}, cfg.Tool.ExternalCallers)
}

func TestGetUserConfigPath(t *testing.T) {
	t.Setenv("GENESIS_HOME", "/tmp/genesis-home")

	path, err := GetUserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/genesis-home", "config.yaml"), path)
}

func TestGetProjectConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path, err := GetProjectConfigPath()
	require.NoError(t, err)

	expectedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	actualDir, err := filepath.EvalSymlinks(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, expectedDir, actualDir)
	assert.Equal(t, projectConfigName, filepath.Base(path))
}

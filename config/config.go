package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	KeyServerHost           = "server.host"
	KeyServerPort           = "server.port"
	KeyServerMaxUploadBytes = "server.max_upload_bytes"
	KeyDataDir              = "storage.data_dir"
	KeyMaxReadBytes         = "storage.max_read_bytes"
	KeyKVDBPath             = "database.kvdb_path"
	KeyChunkSentences       = "index.chunk_sentences"
	KeyChunkOverlap         = "index.chunk_overlap"
	KeyTopK                 = "index.top_k"
	KeyRebuildOnStart       = "index.rebuild_on_start"
	KeyLoaderConcurrency    = "index.loader_concurrency"
	KeyLLMProvider          = "llm.provider"
	KeyLLMAPIKey            = "llm.api_key"
	KeyLLMBaseURL           = "llm.base_url"
	KeyLLMModel             = "llm.model"
	KeyLLMTemperature       = "llm.temperature"
	KeyLLMMaxTokens         = "llm.max_tokens"
	KeyLLMTimeout           = "llm.timeout"
	KeyGraphQLEnabled       = "graphql.enabled"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"
)

// Environment variables take precedence over the yaml file.
var envBindings = map[string]string{
	KeyServerHost:     "HOST",
	KeyServerPort:     "PORT",
	KeyDataDir:        "DATA_DIR",
	KeyKVDBPath:       "KVDB_PATH",
	KeyLLMProvider:    "LLM_PROVIDER",
	KeyLLMAPIKey:      "OPENAI_API_KEY",
	KeyLLMBaseURL:     "LLM_BASE_URL",
	KeyLLMModel:       "LLM_MODEL",
	KeyGraphQLEnabled: "GRAPHQL_ENABLED",
	KeyLogLevel:       "LOG_LEVEL",
	KeyLogFormat:      "LOG_FORMAT",
}

type Config struct {
	config *viper.Viper
}

func Load() (*Config, error) {
	env := os.Getenv(keyEnv)
	if len(env) == 0 {
		env = envLocal
	}

	viperConfig := viper.New()
	setDefaults(viperConfig)

	for key, envVar := range envBindings {
		if err := viperConfig.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", envVar, err)
		}
	}

	if configPath, err := getConfigPath(env); err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}

	return &Config{config: viperConfig}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerHost, "127.0.0.1")
	v.SetDefault(KeyServerPort, "8000")
	v.SetDefault(KeyServerMaxUploadBytes, 32<<20)
	v.SetDefault(KeyDataDir, "data")
	v.SetDefault(KeyMaxReadBytes, 64<<20)
	v.SetDefault(KeyKVDBPath, ".docquery/catalog.db")
	v.SetDefault(KeyChunkSentences, 5)
	v.SetDefault(KeyChunkOverlap, 1)
	v.SetDefault(KeyTopK, 4)
	v.SetDefault(KeyRebuildOnStart, false)
	v.SetDefault(KeyLoaderConcurrency, 8)
	v.SetDefault(KeyLLMProvider, "openai")
	v.SetDefault(KeyLLMModel, "gpt-4o-mini")
	v.SetDefault(KeyLLMTemperature, 0.1)
	v.SetDefault(KeyLLMMaxTokens, 512)
	v.SetDefault(KeyLLMTimeout, 60*time.Second)
	v.SetDefault(KeyGraphQLEnabled, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// FileUsed is the yaml file the config was read from, empty when only defaults and env apply.
func (c *Config) FileUsed() string {
	return c.config.ConfigFileUsed()
}

// Set overrides a value for the lifetime of this config, e.g. from CLI flags.
func (c *Config) Set(key string, value any) {
	c.config.Set(key, value)
}

func (c *Config) GetHost() string {
	return c.config.GetString(KeyServerHost)
}

func (c *Config) GetPort() string {
	return c.config.GetString(KeyServerPort)
}

func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%s", c.GetHost(), c.GetPort())
}

func (c *Config) GetMaxUploadBytes() int64 {
	return c.config.GetInt64(KeyServerMaxUploadBytes)
}

// GetMaxReadBytes never goes below the upload cap, so an accepted upload is always read whole.
func (c *Config) GetMaxReadBytes() int64 {
	return max(c.config.GetInt64(KeyMaxReadBytes), c.GetMaxUploadBytes())
}

func (c *Config) GetDataDir() string {
	return c.config.GetString(KeyDataDir)
}

func (c *Config) GetKVDBPath() string {
	return c.config.GetString(KeyKVDBPath)
}

func (c *Config) GetChunkSentences() int {
	return c.config.GetInt(KeyChunkSentences)
}

func (c *Config) GetChunkOverlap() int {
	return c.config.GetInt(KeyChunkOverlap)
}

func (c *Config) GetTopK() int {
	return c.config.GetInt(KeyTopK)
}

func (c *Config) GetRebuildOnStart() bool {
	return c.config.GetBool(KeyRebuildOnStart)
}

func (c *Config) GetLoaderConcurrency() int {
	return c.config.GetInt(KeyLoaderConcurrency)
}

func (c *Config) GetLLMProvider() string {
	return c.config.GetString(KeyLLMProvider)
}

func (c *Config) GetLLMAPIKey() string {
	return c.config.GetString(KeyLLMAPIKey)
}

func (c *Config) GetLLMBaseURL() string {
	return c.config.GetString(KeyLLMBaseURL)
}

func (c *Config) GetLLMModel() string {
	return c.config.GetString(KeyLLMModel)
}

func (c *Config) GetLLMTemperature() float32 {
	return float32(c.config.GetFloat64(KeyLLMTemperature))
}

func (c *Config) GetLLMMaxTokens() int {
	return c.config.GetInt(KeyLLMMaxTokens)
}

func (c *Config) GetLLMTimeout() time.Duration {
	return c.config.GetDuration(KeyLLMTimeout)
}

func (c *Config) GetGraphQLEnabled() bool {
	return c.config.GetBool(KeyGraphQLEnabled)
}

func (c *Config) GetLogLevel() string {
	return c.config.GetString(KeyLogLevel)
}

func (c *Config) GetLogFormat() string {
	return c.config.GetString(KeyLogFormat)
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Debug("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Debug("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}

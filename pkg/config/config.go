package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Blocklist  BlocklistConfig  `mapstructure:"blocklist"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BlocklistConfig struct {
	RulesFile       string   `mapstructure:"rules_file"`
	PoliciesFile    string   `mapstructure:"policies_file"`
	DomainListURLs  []string `mapstructure:"domain_list_urls"`
	FetchTimeoutSec int      `mapstructure:"fetch_timeout_seconds"`
	RefreshMinutes  int      `mapstructure:"refresh_minutes"`
	CacheTTLMinutes int      `mapstructure:"cache_ttl_minutes"`
}

func (b BlocklistConfig) FetchTimeout() time.Duration {
	if b.FetchTimeoutSec <= 0 {
		return 45 * time.Second
	}
	return time.Duration(b.FetchTimeoutSec) * time.Second
}

func (b BlocklistConfig) RefreshInterval() time.Duration {
	if b.RefreshMinutes <= 0 {
		return 0
	}
	return time.Duration(b.RefreshMinutes) * time.Minute
}

func (b BlocklistConfig) CacheTTL() time.Duration {
	if b.CacheTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.CacheTTLMinutes) * time.Minute
}

type ClassifierConfig struct {
	Provider  string        `mapstructure:"provider"`
	OpenAIKey string        `mapstructure:"openai_key"`
	Model     string        `mapstructure:"model"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type BreakerConfig struct {
	MaxFailures     uint32 `mapstructure:"max_failures"`
	ResetTimeoutSec int    `mapstructure:"reset_timeout_seconds"`
}

func (b BreakerConfig) ResetTimeout() time.Duration {
	if b.ResetTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.ResetTimeoutSec) * time.Second
}

type PipelineConfig struct {
	ResultConcurrency       int     `mapstructure:"result_concurrency"`
	MinClassifierConfidence float64 `mapstructure:"min_classifier_confidence"`
	EducationalReduction    int     `mapstructure:"educational_reduction"`
	MaxEditDistance         int     `mapstructure:"max_edit_distance"`
}

var globalConfig Config

func Load(configPath string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("contentguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("config file config.yaml not found, using only environment variables")
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaultValues()
	return nil
}

func setDefaultValues() {
	if globalConfig.Server.Port == 0 {
		globalConfig.Server.Port = 8080
	}
	if globalConfig.Server.LogLevel == "" {
		globalConfig.Server.LogLevel = "info"
	}
	if globalConfig.Blocklist.RulesFile == "" {
		globalConfig.Blocklist.RulesFile = "config/rules.yaml"
	}
	if globalConfig.Blocklist.PoliciesFile == "" {
		globalConfig.Blocklist.PoliciesFile = "config/policies.yaml"
	}
}

func GetConfig() *Config {
	return &globalConfig
}

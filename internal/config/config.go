package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookmark-organizer/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the tool reads
const EnvPrefix = "BOOKMARK_ORGANIZER"

// Config holds all configuration for the application
type Config struct {
	// Completion endpoint settings
	API struct {
		Key     string        `mapstructure:"key"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`

	// Model sampling settings
	AI struct {
		Model            string  `mapstructure:"model"`
		Temperature      float64 `mapstructure:"temperature"`
		MaxTokens        int64   `mapstructure:"max_tokens"`
		TopP             float64 `mapstructure:"top_p"`
		PresencePenalty  float64 `mapstructure:"presence_penalty"`
		FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	} `mapstructure:"ai"`

	// HTTP settings for metadata fetching
	Network struct {
		MaxConcurrency int           `mapstructure:"max_concurrency"`
		Timeout        time.Duration `mapstructure:"timeout"`
		MaxRetries     int           `mapstructure:"max_retries"`
		MaxRedirects   int           `mapstructure:"max_redirects"`
		UserAgent      string        `mapstructure:"user_agent"`
		RetryWaitMin   time.Duration `mapstructure:"retry_wait_min"`
		RetryWaitMax   time.Duration `mapstructure:"retry_wait_max"`
	} `mapstructure:"network"`

	// Delay range for the delayed fetch strategy
	Fetch struct {
		DelayMin time.Duration `mapstructure:"delay_min"`
		DelayMax time.Duration `mapstructure:"delay_max"`
	} `mapstructure:"fetch"`

	// Outer per-item retry
	Retry struct {
		Attempts int           `mapstructure:"attempts"`
		Delay    time.Duration `mapstructure:"delay"`
	} `mapstructure:"retry"`

	Categories      []string `mapstructure:"categories"`
	DefaultCategory string   `mapstructure:"default_category"`

	// Output settings
	Output string `mapstructure:"output"`

	// Logging settings
	Verbose bool   `mapstructure:"verbose"`
	Debug   bool   `mapstructure:"debug"`
	Quiet   bool   `mapstructure:"quiet"`
	LogFile string `mapstructure:"log_file"`
}

// LoadConfig loads configuration from file and merges with command-line flags
func LoadConfig(configFile string) (*Config, error) {
	// Set defaults
	viper.SetDefault("api.key", "")
	viper.SetDefault("api.base_url", "https://api.deepseek.com/v1")
	viper.SetDefault("api.timeout", "60s")
	viper.SetDefault("ai.model", "deepseek-chat")
	viper.SetDefault("ai.temperature", 0.3)
	viper.SetDefault("ai.max_tokens", 1024)
	viper.SetDefault("ai.top_p", 0.9)
	viper.SetDefault("ai.presence_penalty", 0.0)
	viper.SetDefault("ai.frequency_penalty", 0.0)
	viper.SetDefault("network.max_concurrency", 100)
	viper.SetDefault("network.timeout", "8s")
	viper.SetDefault("network.max_retries", 2)
	viper.SetDefault("network.max_redirects", 10)
	viper.SetDefault("network.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("network.retry_wait_min", "500ms")
	viper.SetDefault("network.retry_wait_max", "4s")
	viper.SetDefault("fetch.delay_min", "500ms")
	viper.SetDefault("fetch.delay_max", "2s")
	viper.SetDefault("retry.attempts", 2)
	viper.SetDefault("retry.delay", "1s")
	viper.SetDefault("categories", model.DefaultCategories)
	viper.SetDefault("default_category", model.DefaultCategory)
	viper.SetDefault("output", "sorted_bookmarks.html")
	viper.SetDefault("log_file", "")

	// Set config file
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("bookmark-organizer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logrus.Debug("No config file found, using defaults and command-line flags")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Bind environment variables with prefix; nested keys use underscores
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("api.key", EnvPrefix+"_API_KEY", "DEEPSEEK_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding API key environment: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("API key is required (set via --api-key flag, api.key in config, or DEEPSEEK_API_KEY)")
	}

	if c.AI.Model == "" {
		return fmt.Errorf("model is required (set via --model flag or ai.model in config)")
	}

	if c.Network.MaxConcurrency < 1 {
		return fmt.Errorf("network.max_concurrency must be at least 1, got %d", c.Network.MaxConcurrency)
	}

	if c.Fetch.DelayMin < 0 || c.Fetch.DelayMax < c.Fetch.DelayMin {
		return fmt.Errorf("fetch delay range is invalid: %s..%s", c.Fetch.DelayMin, c.Fetch.DelayMax)
	}

	if _, err := c.CategorySet(); err != nil {
		return err
	}

	return nil
}

// ValidateNetwork checks only the settings needed for metadata fetching
func (c *Config) ValidateNetwork() error {
	if c.Network.MaxConcurrency < 1 {
		return fmt.Errorf("network.max_concurrency must be at least 1, got %d", c.Network.MaxConcurrency)
	}
	return nil
}

// CategorySet builds the category set from the configured labels
func (c *Config) CategorySet() (model.CategorySet, error) {
	set, err := model.NewCategorySet(c.Categories, c.DefaultCategory)
	if err != nil {
		return model.CategorySet{}, fmt.Errorf("invalid categories: %w", err)
	}
	return set, nil
}

// SetupLogging configures logrus based on the logging settings. When a log
// file is configured, entries go to both stdout and the file.
func (c *Config) SetupLogging() error {
	var out io.Writer = os.Stdout
	if c.LogFile != "" {
		if dir := filepath.Dir(c.LogFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		file, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if c.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else if c.Verbose {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	return nil
}

package cmd

import (
	"fmt"

	"bookmark-organizer/internal/classifier"
	"bookmark-organizer/internal/config"
	"bookmark-organizer/internal/fetcher"
	"bookmark-organizer/internal/llm"
	"bookmark-organizer/internal/retry"
	"bookmark-organizer/internal/stats"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// loadConfig loads the configuration and sets up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.SetupLogging(); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
	}
}

func newFetcher(cfg *config.Config, tracker *stats.StatTracker) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		MaxConcurrency: cfg.Network.MaxConcurrency,
		UserAgent:      cfg.Network.UserAgent,
		DelayMin:       cfg.Fetch.DelayMin,
		DelayMax:       cfg.Fetch.DelayMax,
		Retry:          retryPolicy(cfg),
		HTTP: fetcher.HTTPConfig{
			Timeout:      cfg.Network.Timeout,
			MaxRedirects: cfg.Network.MaxRedirects,
			MaxRetries:   cfg.Network.MaxRetries,
			RetryWaitMin: cfg.Network.RetryWaitMin,
			RetryWaitMax: cfg.Network.RetryWaitMax,
		},
	}, tracker)
}

func newClassifier(cfg *config.Config, tracker *stats.StatTracker) (*classifier.Classifier, error) {
	categories, err := cfg.CategorySet()
	if err != nil {
		return nil, err
	}

	completer, err := llm.NewOpenAIClient(llm.Config{
		APIKey:           cfg.API.Key,
		BaseURL:          cfg.API.BaseURL,
		Model:            cfg.AI.Model,
		Temperature:      cfg.AI.Temperature,
		MaxTokens:        cfg.AI.MaxTokens,
		TopP:             cfg.AI.TopP,
		PresencePenalty:  cfg.AI.PresencePenalty,
		FrequencyPenalty: cfg.AI.FrequencyPenalty,
		Timeout:          cfg.API.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"model":      cfg.AI.Model,
		"categories": categories.String(),
	}).Debug("Created classifier")

	return classifier.New(classifier.Config{
		MaxConcurrency: cfg.Network.MaxConcurrency,
		Retry:          retryPolicy(cfg),
		Categories:     categories,
	}, completer, tracker), nil
}

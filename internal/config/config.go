package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Endpoint.RequestTimeout == 0 {
		cfg.Endpoint.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Batch.MaxSize == 0 {
		cfg.Batch.MaxSize = DefaultBatchMaxSize
	}
	if cfg.Batch.MaxWait == 0 {
		cfg.Batch.MaxWait = DefaultBatchMaxWait
	}
	if cfg.Batch.CallTimeout == 0 {
		cfg.Batch.CallTimeout = DefaultCallTimeout
	}
	if cfg.Batch.MaxConcurrent == 0 {
		cfg.Batch.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Cache != nil {
		if cfg.Cache.Size == 0 {
			cfg.Cache.Size = DefaultCacheSize
		}
		if cfg.Cache.TTL == 0 {
			cfg.Cache.TTL = DefaultCacheTTL
		}
	}
	if cfg.Retry != nil && cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryAttempts
	}
}

func validate(cfg *Config) error {
	if cfg.Endpoint.RPCURL == "" && cfg.Endpoint.WSURL == "" {
		return errors.New("endpoint requires rpcUrl or wsUrl")
	}
	if cfg.Endpoint.PreferWS && cfg.Endpoint.WSURL == "" {
		return errors.New("preferWs requires wsUrl")
	}
	if cfg.Batch.MaxSize < 0 {
		return fmt.Errorf("batch.maxSize must not be negative, got %d", cfg.Batch.MaxSize)
	}
	if cfg.Batch.MaxWait < 0 {
		return fmt.Errorf("batch.maxWait must not be negative, got %d", cfg.Batch.MaxWait)
	}
	if cfg.Batch.CallTimeout < -1 {
		return fmt.Errorf("batch.callTimeout must be -1, 0 or positive, got %d", cfg.Batch.CallTimeout)
	}
	return nil
}

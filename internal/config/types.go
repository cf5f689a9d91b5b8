// Package config loads the CLI configuration file.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	LogLevel string         `json:"logLevel"`
	Endpoint EndpointConfig `json:"endpoint"`
	Batch    BatchConfig    `json:"batch,omitempty"`
	Cache    *CacheConfig   `json:"cache,omitempty"`
	Retry    *RetryConfig   `json:"retry,omitempty"`
	Breaker  *BreakerConfig `json:"breaker,omitempty"`
}

// EndpointConfig describes the JSON-RPC endpoint.
type EndpointConfig struct {
	RPCURL         string `json:"rpcUrl"`
	WSURL          string `json:"wsUrl"`
	PreferWS       bool   `json:"preferWs"`
	RequestTimeout int    `json:"requestTimeout"` // ms
}

// BatchConfig holds the coalescing knobs.
type BatchConfig struct {
	MaxSize       int `json:"maxSize"`
	MaxWait       int `json:"maxWait"`       // ms
	CallTimeout   int `json:"callTimeout"`   // ms, -1 disables
	MaxConcurrent int `json:"maxConcurrent"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled         bool     `json:"enabled"`
	Size            int      `json:"size"`
	TTL             int      `json:"ttl"` // seconds
	DisabledMethods []string `json:"disabledMethods"`
}

// RetryConfig holds transport retry settings.
type RetryConfig struct {
	Enabled     bool `json:"enabled"`
	MaxAttempts int  `json:"maxAttempts"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Enabled             bool `json:"enabled"`
	FailureThreshold    int  `json:"failureThreshold"`
	RecoveryTimeout     int  `json:"recoveryTimeout"` // ms
	HalfOpenMaxRequests int  `json:"halfOpenMaxRequests"`
}

// Default values.
const (
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 5000 // ms
	DefaultBatchMaxSize   = 20
	DefaultBatchMaxWait   = 100   // ms
	DefaultCallTimeout    = 60000 // ms
	DefaultMaxConcurrent  = 3
	DefaultCacheSize      = 10000
	DefaultCacheTTL       = 10 // s
	DefaultRetryAttempts  = 3
)

// GetRequestTimeoutDuration returns the endpoint request timeout.
func (c *EndpointConfig) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetMaxWaitDuration returns the batch wait threshold.
func (c *BatchConfig) GetMaxWaitDuration() time.Duration {
	return time.Duration(c.MaxWait) * time.Millisecond
}

// GetCallTimeoutDuration returns the per-call timeout. A configured
// -1 maps to a negative duration, which disables the timeout.
func (c *BatchConfig) GetCallTimeoutDuration() time.Duration {
	return time.Duration(c.CallTimeout) * time.Millisecond
}

// GetTTLDuration returns the cache TTL.
func (c *CacheConfig) GetTTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetRecoveryTimeoutDuration returns the breaker recovery timeout.
func (c *BreakerConfig) GetRecoveryTimeoutDuration() time.Duration {
	return time.Duration(c.RecoveryTimeout) * time.Millisecond
}

// IsCacheEnabled reports whether the response cache is on.
func (c *Config) IsCacheEnabled() bool {
	return c.Cache != nil && c.Cache.Enabled
}

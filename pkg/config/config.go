// Package config provides the unified configuration system for the connector.
// A single BaseConfig structure is shared by the source and every destination,
// so the CLI can load, validate and override them the same way.
//
// The configuration is organized into logical sections:
//   - Performance: Batch sizes, buffer sizes, concurrency
//   - Timeouts: Request and connection timeouts
//   - Reliability: Circuit breaker and rate limiting
//   - Security: TLS, authentication, credentials
//   - Observability: Metrics, tracing, logging
//   - Advanced: Output compression
//
// Connector-specific settings (base URL, start page, bucket names, DSNs)
// live in Security.Credentials and are extracted by the connector itself.
//
// Example usage:
//
//	cfg := config.NewBaseConfig("rickmorty", "rickmorty")
//	cfg.Security.Credentials["start_page"] = "1"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"
	"time"
)

// BaseConfig is the single unified configuration structure that all connectors use.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name"`
	// Type selects the registered connector (e.g., "rickmorty", "json", "s3")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Advanced      AdvancedConfig      `yaml:"advanced" json:"advanced"`
}

// PerformanceConfig contains throughput and resource settings.
type PerformanceConfig struct {
	// BatchSize controls the number of records written together by destinations
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// BufferSize sets the capacity of record channels and write buffers
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// Workers defines the number of concurrent transform workers
	Workers int `yaml:"workers" json:"workers"`
	// MaxConcurrency limits concurrent uploads in destinations
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
	// FlushInterval triggers periodic batch flushes
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for an individual HTTP request (0 = none)
	Request time.Duration `yaml:"request" json:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle"`
	// KeepAlive interval for TCP keep-alive probes
	KeepAlive time.Duration `yaml:"keep_alive" json:"keep_alive"`
}

// ReliabilityConfig contains transport protection settings.
type ReliabilityConfig struct {
	// CircuitBreaker enables the HTTP circuit breaker
	CircuitBreaker bool `yaml:"circuit_breaker" json:"circuit_breaker"`
	// FailureThreshold opens the breaker after this many consecutive failures
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"`
	// RateLimitPerSec limits outbound requests per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// FailFast stops the pipeline on the first destination error
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	// EnableTLS enables TLS/SSL encryption
	EnableTLS bool `yaml:"enable_tls" json:"enable_tls"`
	// TLSSkipVerify disables certificate verification (insecure)
	TLSSkipVerify bool `yaml:"tls_skip_verify" json:"tls_skip_verify"`
	// AuthType specifies authentication method (none, bearer)
	AuthType string `yaml:"auth_type" json:"auth_type"`
	// Credentials stores connector settings and secrets (use ${ENV} in files)
	Credentials map[string]string `yaml:"credentials" json:"credentials"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// AdvancedConfig contains optional output features.
type AdvancedConfig struct {
	// EnableCompression activates output compression in file/object destinations
	EnableCompression bool `yaml:"enable_compression" json:"enable_compression"`
	// CompressionAlgorithm selects compression type (gzip, snappy, s2, lz4, zstd)
	CompressionAlgorithm string `yaml:"compression_algorithm" json:"compression_algorithm"`
	// CompressionLevel sets compression ratio vs speed (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
	// Debug enables detailed debug output
	Debug bool `yaml:"debug" json:"debug"`
}

// NewBaseConfig creates a new BaseConfig with sensible defaults.
//
// Example:
//
//	cfg := config.NewBaseConfig("characters-to-s3", "s3")
//	cfg.Performance.BatchSize = 500
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Performance: PerformanceConfig{
			BatchSize:      100,
			BufferSize:     1000,
			Workers:        runtime.NumCPU(),
			MaxConcurrency: 4,
			FlushInterval:  5 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Request:    30 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
			KeepAlive:  30 * time.Second,
		},
		Reliability: ReliabilityConfig{
			CircuitBreaker:   false,
			FailureThreshold: 5,
			RateLimitPerSec:  0,
			FailFast:         true,
		},
		Security: SecurityConfig{
			EnableTLS:   true,
			AuthType:    "none",
			Credentials: make(map[string]string),
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			LogLevel:          "info",
			TracingSampleRate: 1.0,
		},
		Advanced: AdvancedConfig{
			EnableCompression:    false,
			CompressionAlgorithm: "gzip",
			CompressionLevel:     5,
		},
	}
}

// Validate validates the configuration for correctness.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Type == "" {
		return fmt.Errorf("type is required")
	}
	if bc.Performance.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if bc.Performance.BufferSize < 0 {
		return fmt.Errorf("buffer_size cannot be negative")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	if bc.Reliability.CircuitBreaker && bc.Reliability.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive when circuit_breaker is enabled")
	}
	if bc.Observability.TracingSampleRate < 0 || bc.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing_sample_rate must be between 0 and 1")
	}
	return nil
}

// Credential returns a credential value or the fallback when it is unset.
func (bc *BaseConfig) Credential(key, fallback string) string {
	if bc.Security.Credentials == nil {
		return fallback
	}
	if v, ok := bc.Security.Credentials[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns a deep copy so callers can derive configs without sharing
// the credentials map.
func (bc *BaseConfig) Clone() *BaseConfig {
	c := *bc
	c.Security.Credentials = make(map[string]string, len(bc.Security.Credentials))
	for k, v := range bc.Security.Credentials {
		c.Security.Credentials[k] = v
	}
	return &c
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// IsCompressionEnabled returns true if compression should be used
func (a *AdvancedConfig) IsCompressionEnabled() bool {
	return a.EnableCompression && a.CompressionAlgorithm != "" && a.CompressionAlgorithm != "none"
}

// Package config loads and validates RedNet Core's configuration using
// Viper, following the same priority order and environment variable
// binding convention the teacher HydraDNS project used: command-line flag
// > REDNET_-prefixed environment variable > YAML file > hardcoded default.
// All configuration is validated once, during Load(), so a misconfigured
// node fails fast at startup instead of misbehaving later.
package config

import (
	"os"
	"strings"
)

// NodeConfig identifies this node on the broadcast network.
type NodeConfig struct {
	ID          int    `yaml:"id"           mapstructure:"id"`
	Name        string `yaml:"name"         mapstructure:"name"`
	ContentRoot string `yaml:"content_root" mapstructure:"content_root"`
}

// DNSConfig controls DNS Core (spec.md C3): parsing limits, cache sizing,
// and the broadcast query/verification timing.
type DNSConfig struct {
	CacheTimeoutSeconds    int `yaml:"cache_timeout_seconds"    mapstructure:"cache_timeout_seconds"`
	MaxCacheEntries        int `yaml:"max_cache_entries"        mapstructure:"max_cache_entries"`
	QueryTimeoutSeconds    int `yaml:"query_timeout_seconds"    mapstructure:"query_timeout_seconds"`
	MaxRetries             int `yaml:"max_retries"              mapstructure:"max_retries"`
	PropagationDelayMillis int `yaml:"propagation_delay_millis" mapstructure:"propagation_delay_millis"`
	VerificationTimeoutSec int `yaml:"verification_timeout_sec" mapstructure:"verification_timeout_sec"`
	MaxDomainLength        int `yaml:"max_domain_length"        mapstructure:"max_domain_length"`
}

// ResolverConfig controls the DNS dispute resolver (spec.md C4).
type ResolverConfig struct {
	MinVoters            int     `yaml:"min_voters"              mapstructure:"min_voters"`
	VotingTimeoutSeconds int     `yaml:"voting_timeout_seconds"  mapstructure:"voting_timeout_seconds"`
	MajorityThreshold    float64 `yaml:"majority_threshold"      mapstructure:"majority_threshold"`
	DisputeTimeoutSecond int     `yaml:"dispute_timeout_seconds" mapstructure:"dispute_timeout_seconds"`
	MaxDisputesPerHour   int     `yaml:"max_disputes_per_hour"   mapstructure:"max_disputes_per_hour"`
	BlacklistDurationSec int     `yaml:"blacklist_duration_secs" mapstructure:"blacklist_duration_secs"`
	TrustDecayRate       float64 `yaml:"trust_decay_rate"        mapstructure:"trust_decay_rate"`
	MinTrustLevel        float64 `yaml:"min_trust_level"         mapstructure:"min_trust_level"`
	InitialTrust         float64 `yaml:"initial_trust"           mapstructure:"initial_trust"`
}

// LoaderConfig controls the concurrent page loader (spec.md C7).
type LoaderConfig struct {
	MaxConcurrent      int `yaml:"max_concurrent"       mapstructure:"max_concurrent"`
	LoadTimeoutSeconds int `yaml:"load_timeout_seconds" mapstructure:"load_timeout_seconds"`
	MaxRetries         int `yaml:"max_retries"          mapstructure:"max_retries"`
}

// SharedConfig controls the cross-tab shared resources (spec.md C5).
type SharedConfig struct {
	PageCacheMaxBytes     int    `yaml:"page_cache_max_bytes"    mapstructure:"page_cache_max_bytes"`
	PageCacheTTLSeconds   int    `yaml:"page_cache_ttl_seconds"  mapstructure:"page_cache_ttl_seconds"`
	MaxPerDomainConns     int    `yaml:"max_per_domain_conns"    mapstructure:"max_per_domain_conns"`
	ConnectionTimeoutSecs int    `yaml:"connection_timeout_secs" mapstructure:"connection_timeout_secs"`
	CompletedDownloadsCap int    `yaml:"completed_downloads_cap" mapstructure:"completed_downloads_cap"`
	DownloadDirectory     string `yaml:"download_directory"      mapstructure:"download_directory"`
	CookiesPath           string `yaml:"cookies_path"            mapstructure:"cookies_path"`
}

// NetOptConfig controls the network optimizer (spec.md C2).
type NetOptConfig struct {
	CompressionThresholdBytes int `yaml:"compression_threshold_bytes" mapstructure:"compression_threshold_bytes"`
	BatchSize                 int `yaml:"batch_size"                  mapstructure:"batch_size"`
	BatchTimeoutMillis        int `yaml:"batch_timeout_millis"        mapstructure:"batch_timeout_millis"`
	MaxBatchSizeBytes         int `yaml:"max_batch_size_bytes"        mapstructure:"max_batch_size_bytes"`
	DedupeWindowMillis        int `yaml:"dedupe_window_millis"        mapstructure:"dedupe_window_millis"`
	MaxDedupeCache            int `yaml:"max_dedupe_cache"            mapstructure:"max_dedupe_cache"`
}

// SearchConfig controls the search index and engine (spec.md C10/C11).
type SearchConfig struct {
	CacheMaxEntries     int    `yaml:"cache_max_entries"      mapstructure:"cache_max_entries"`
	CacheTTLSeconds     int    `yaml:"cache_ttl_seconds"      mapstructure:"cache_ttl_seconds"`
	MaxResultsPerQuery  int    `yaml:"max_results_per_query"  mapstructure:"max_results_per_query"`
	CacheMaxMemoryBytes int    `yaml:"cache_max_memory_bytes" mapstructure:"cache_max_memory_bytes"`
	IndexPath           string `yaml:"index_path"             mapstructure:"index_path"`
}

// LoggingConfig controls structured logging, unchanged in shape from the
// teacher's own logging configuration.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"`
}

// DatabaseConfig controls the persistence layer backing the DNS
// registry/cache snapshot, dispute history, shared cookies, download
// ledger and search index export.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// APIConfig controls the admin/introspection HTTP surface (SPEC_FULL §6).
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// Config is the root configuration record for a RedNet Core node.
type Config struct {
	Node     NodeConfig     `yaml:"node"     mapstructure:"node"`
	DNS      DNSConfig      `yaml:"dns"      mapstructure:"dns"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Loader   LoaderConfig   `yaml:"loader"   mapstructure:"loader"`
	Shared   SharedConfig   `yaml:"shared"   mapstructure:"shared"`
	NetOpt   NetOptConfig   `yaml:"net_opt"  mapstructure:"net_opt"`
	Search   SearchConfig   `yaml:"search"   mapstructure:"search"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	API      APIConfig      `yaml:"api"      mapstructure:"api"`
}

// ResolveConfigPath determines the config file path from a flag value or
// the REDNET_CONFIG environment variable.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("REDNET_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable
// overrides. This is the main entry point for loading configuration.
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}

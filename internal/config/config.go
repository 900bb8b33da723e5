package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variable binding: REDNET_DNS_MAX_RETRIES -> dns.max_retries
	v.SetEnvPrefix("REDNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Every valid key has a default, so any other key is unknown.
		known := viper.New()
		setDefaults(known)
		knownKeys := map[string]bool{}
		for _, k := range known.AllKeys() {
			knownKeys[k] = true
		}
		for _, k := range v.AllKeys() {
			if !knownKeys[k] && !strings.HasPrefix(k, "logging.extra_fields.") {
				return nil, fmt.Errorf("unknown config key %q", k)
			}
		}
	}

	return v, nil
}

// setDefaults configures all default values, taken from spec.md §6.
func setDefaults(v *viper.Viper) {
	v.SetDefault("node.id", 0)
	v.SetDefault("node.name", "")
	v.SetDefault("node.content_root", "/pages")

	v.SetDefault("dns.cache_timeout_seconds", 300)
	v.SetDefault("dns.max_cache_entries", 1000)
	v.SetDefault("dns.query_timeout_seconds", 5)
	v.SetDefault("dns.max_retries", 3)
	v.SetDefault("dns.propagation_delay_millis", 2000)
	v.SetDefault("dns.verification_timeout_sec", 10)
	v.SetDefault("dns.max_domain_length", 32)

	v.SetDefault("resolver.min_voters", 3)
	v.SetDefault("resolver.voting_timeout_seconds", 30)
	v.SetDefault("resolver.majority_threshold", 0.66)
	v.SetDefault("resolver.dispute_timeout_seconds", 300)
	v.SetDefault("resolver.max_disputes_per_hour", 5)
	v.SetDefault("resolver.blacklist_duration_secs", 3600)
	v.SetDefault("resolver.trust_decay_rate", 0.1)
	v.SetDefault("resolver.min_trust_level", 0.1)
	v.SetDefault("resolver.initial_trust", 1.0)

	v.SetDefault("loader.max_concurrent", 3)
	v.SetDefault("loader.load_timeout_seconds", 10)
	v.SetDefault("loader.max_retries", 2)

	v.SetDefault("shared.page_cache_max_bytes", 1<<20) // 1 MiB
	v.SetDefault("shared.page_cache_ttl_seconds", 300)
	v.SetDefault("shared.max_per_domain_conns", 2)
	v.SetDefault("shared.connection_timeout_secs", 30)
	v.SetDefault("shared.completed_downloads_cap", 20)
	v.SetDefault("shared.download_directory", "/downloads")
	v.SetDefault("shared.cookies_path", "/cookies.json")

	v.SetDefault("net_opt.compression_threshold_bytes", 512)
	v.SetDefault("net_opt.batch_size", 10)
	v.SetDefault("net_opt.batch_timeout_millis", 100)
	v.SetDefault("net_opt.max_batch_size_bytes", 4096)
	v.SetDefault("net_opt.dedupe_window_millis", 1000)
	v.SetDefault("net_opt.max_dedupe_cache", 100)

	v.SetDefault("search.cache_max_entries", 500)
	v.SetDefault("search.cache_ttl_seconds", 300)
	v.SetDefault("search.max_results_per_query", 100)
	v.SetDefault("search.cache_max_memory_bytes", 512*1024)
	v.SetDefault("search.index_path", "/search-index.db")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	v.SetDefault("database.path", "/rednet.db")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.Node.ID = v.GetInt("node.id")
	cfg.Node.Name = v.GetString("node.name")
	cfg.Node.ContentRoot = v.GetString("node.content_root")

	loadDNSConfig(v, cfg)
	loadResolverConfig(v, cfg)
	loadLoaderConfig(v, cfg)
	loadSharedConfig(v, cfg)
	loadNetOptConfig(v, cfg)
	loadSearchConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	cfg.Database.Path = v.GetString("database.path")
	loadAPIConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDNSConfig(v *viper.Viper, cfg *Config) {
	cfg.DNS.CacheTimeoutSeconds = v.GetInt("dns.cache_timeout_seconds")
	cfg.DNS.MaxCacheEntries = v.GetInt("dns.max_cache_entries")
	cfg.DNS.QueryTimeoutSeconds = v.GetInt("dns.query_timeout_seconds")
	cfg.DNS.MaxRetries = v.GetInt("dns.max_retries")
	cfg.DNS.PropagationDelayMillis = v.GetInt("dns.propagation_delay_millis")
	cfg.DNS.VerificationTimeoutSec = v.GetInt("dns.verification_timeout_sec")
	cfg.DNS.MaxDomainLength = v.GetInt("dns.max_domain_length")
}

func loadResolverConfig(v *viper.Viper, cfg *Config) {
	cfg.Resolver.MinVoters = v.GetInt("resolver.min_voters")
	cfg.Resolver.VotingTimeoutSeconds = v.GetInt("resolver.voting_timeout_seconds")
	cfg.Resolver.MajorityThreshold = v.GetFloat64("resolver.majority_threshold")
	cfg.Resolver.DisputeTimeoutSecond = v.GetInt("resolver.dispute_timeout_seconds")
	cfg.Resolver.MaxDisputesPerHour = v.GetInt("resolver.max_disputes_per_hour")
	cfg.Resolver.BlacklistDurationSec = v.GetInt("resolver.blacklist_duration_secs")
	cfg.Resolver.TrustDecayRate = v.GetFloat64("resolver.trust_decay_rate")
	cfg.Resolver.MinTrustLevel = v.GetFloat64("resolver.min_trust_level")
	cfg.Resolver.InitialTrust = v.GetFloat64("resolver.initial_trust")
}

func loadLoaderConfig(v *viper.Viper, cfg *Config) {
	cfg.Loader.MaxConcurrent = v.GetInt("loader.max_concurrent")
	cfg.Loader.LoadTimeoutSeconds = v.GetInt("loader.load_timeout_seconds")
	cfg.Loader.MaxRetries = v.GetInt("loader.max_retries")
}

func loadSharedConfig(v *viper.Viper, cfg *Config) {
	cfg.Shared.PageCacheMaxBytes = v.GetInt("shared.page_cache_max_bytes")
	cfg.Shared.PageCacheTTLSeconds = v.GetInt("shared.page_cache_ttl_seconds")
	cfg.Shared.MaxPerDomainConns = v.GetInt("shared.max_per_domain_conns")
	cfg.Shared.ConnectionTimeoutSecs = v.GetInt("shared.connection_timeout_secs")
	cfg.Shared.CompletedDownloadsCap = v.GetInt("shared.completed_downloads_cap")
	cfg.Shared.DownloadDirectory = v.GetString("shared.download_directory")
	cfg.Shared.CookiesPath = v.GetString("shared.cookies_path")
}

func loadNetOptConfig(v *viper.Viper, cfg *Config) {
	cfg.NetOpt.CompressionThresholdBytes = v.GetInt("net_opt.compression_threshold_bytes")
	cfg.NetOpt.BatchSize = v.GetInt("net_opt.batch_size")
	cfg.NetOpt.BatchTimeoutMillis = v.GetInt("net_opt.batch_timeout_millis")
	cfg.NetOpt.MaxBatchSizeBytes = v.GetInt("net_opt.max_batch_size_bytes")
	cfg.NetOpt.DedupeWindowMillis = v.GetInt("net_opt.dedupe_window_millis")
	cfg.NetOpt.MaxDedupeCache = v.GetInt("net_opt.max_dedupe_cache")
}

func loadSearchConfig(v *viper.Viper, cfg *Config) {
	cfg.Search.CacheMaxEntries = v.GetInt("search.cache_max_entries")
	cfg.Search.CacheTTLSeconds = v.GetInt("search.cache_ttl_seconds")
	cfg.Search.MaxResultsPerQuery = v.GetInt("search.max_results_per_query")
	cfg.Search.CacheMaxMemoryBytes = v.GetInt("search.cache_max_memory_bytes")
	cfg.Search.IndexPath = v.GetString("search.index_path")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.API.Enabled = v.GetBool("api.enabled")
	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.APIKey = v.GetString("api.api_key")
}

// normalizeConfig validates configuration, rejecting out-of-range values
// rather than silently clamping them (REDESIGN FLAGS, spec.md §9).
func normalizeConfig(cfg *Config) error {
	if cfg.DNS.MaxDomainLength <= 0 {
		return errors.New("dns.max_domain_length must be positive")
	}
	if cfg.DNS.MaxCacheEntries <= 0 {
		return errors.New("dns.max_cache_entries must be positive")
	}

	if cfg.Resolver.MajorityThreshold <= 0 || cfg.Resolver.MajorityThreshold >= 1 {
		return errors.New("resolver.majority_threshold must be in (0,1)")
	}
	if cfg.Resolver.MinVoters < 1 {
		return errors.New("resolver.min_voters must be >= 1")
	}
	if cfg.Resolver.InitialTrust < 0 || cfg.Resolver.InitialTrust > 1 {
		return errors.New("resolver.initial_trust must be in [0,1]")
	}

	if cfg.Loader.MaxConcurrent < 1 || cfg.Loader.MaxConcurrent > 10 {
		return errors.New("loader.max_concurrent must be in [1,10]")
	}
	if cfg.Loader.LoadTimeoutSeconds < 1 || cfg.Loader.LoadTimeoutSeconds > 60 {
		return errors.New("loader.load_timeout_seconds must be in [1,60]")
	}

	if cfg.Shared.PageCacheMaxBytes <= 0 {
		return errors.New("shared.page_cache_max_bytes must be positive")
	}
	if cfg.Shared.MaxPerDomainConns < 1 {
		return errors.New("shared.max_per_domain_conns must be >= 1")
	}

	if cfg.NetOpt.CompressionThresholdBytes < 0 {
		return errors.New("net_opt.compression_threshold_bytes must be >= 0")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	return nil
}

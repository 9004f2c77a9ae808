package model

import "time"

// Config is the complete Fourmi configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Feed        FeedConfig        `yaml:"feed" mapstructure:"feed"`
	Reliability ReliabilityConfig `yaml:"reliability" mapstructure:"reliability"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig configures the page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures fetch workers and rate limiting
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	MaxDepth          int     `yaml:"max_depth" mapstructure:"max_depth"`
}

// PipelineConfig configures the item pipeline
type PipelineConfig struct {
	Stages             []string `yaml:"stages" mapstructure:"stages"`
	SelectedAttributes []string `yaml:"selected_attributes" mapstructure:"selected_attributes"`
	Matcher            string   `yaml:"matcher" mapstructure:"matcher"`
	IgnoreCase         bool     `yaml:"ignore_case" mapstructure:"ignore_case"`
	Strict             bool     `yaml:"strict" mapstructure:"strict"`
}

// FeedConfig configures result export
type FeedConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	URI    string `yaml:"uri" mapstructure:"uri"`
}

// ReliabilityConfig configures how result sources are ranked
type ReliabilityConfig struct {
	Enabled       bool              `yaml:"enabled" mapstructure:"enabled"`
	HighDomains   []string          `yaml:"high_domains" mapstructure:"high_domains"`
	MediumDomains []string          `yaml:"medium_domains" mapstructure:"medium_domains"`
	DomainMap     map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns  []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern assigns a tier to URLs whose path matches Pattern
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Fourmi/0.1 (+https://github.com/ppiankov/fourmi)",
			MaxBodyBytes:  2_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".fourmi-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			BurstSize:         4,
			MaxDepth:          2,
		},
		Pipeline: PipelineConfig{
			Stages:  []string{"remove_none", "duplicate", "attribute_selection"},
			Matcher: "wildcard",
		},
		Feed: FeedConfig{
			Format: "jsonlines",
		},
		Reliability: ReliabilityConfig{
			Enabled: true,
			HighDomains: []string{
				"pubchem.ncbi.nlm.nih.gov",
				"webbook.nist.gov",
				"chemspider.com",
			},
			MediumDomains: []string{
				"wikipedia.org",
			},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

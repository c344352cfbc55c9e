package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Upstream accepts at most this many page ids per metadata request
const maxMetadataBatchSize = 50

// Config holds all runtime configuration parameters
type Config struct {
	ListenAddr          string   `json:"listen_addr" yaml:"listen_addr"`
	DBPath              string   `json:"db_path" yaml:"db_path"`
	SearchesDBPath      string   `json:"searches_db_path" yaml:"searches_db_path"`
	WikipediaAPIURL     string   `json:"wikipedia_api_url" yaml:"wikipedia_api_url"`
	UserAgent           string   `json:"user_agent" yaml:"user_agent"`
	ThumbnailSize       int      `json:"thumbnail_size" yaml:"thumbnail_size"`
	MetadataBatchSize   int      `json:"metadata_batch_size" yaml:"metadata_batch_size"`
	MetadataConcurrency int      `json:"metadata_concurrency" yaml:"metadata_concurrency"`
	RequestTimeoutMs    int      `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	AllowedOrigins      []string `json:"allowed_origins" yaml:"allowed_origins"`
	SearchBackend       string   `json:"search_backend" yaml:"search_backend"`
	MaxSearchDepth      int      `json:"max_search_depth" yaml:"max_search_depth"`
	Neo4jURI            string   `json:"neo4j_uri" yaml:"neo4j_uri"`
	Neo4jUsername       string   `json:"neo4j_username" yaml:"neo4j_username"`
	Neo4jPassword       string   `json:"neo4j_password" yaml:"neo4j_password"`
	Neo4jDatabase       string   `json:"neo4j_database" yaml:"neo4j_database"`
	RedisAddr           string   `json:"redis_addr" yaml:"redis_addr"`
	CacheTTLSeconds     int      `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	LogLevel            string   `json:"log_level" yaml:"log_level"`
	MetricsPath         string   `json:"metrics_path" yaml:"metrics_path"`
}

// LoadConfig reads and validates configuration from a JSON or YAML file
// An empty path skips the file and uses defaults plus the environment
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return nil, err
		}
	}

	loadDotEnv()
	applyEnv(&cfg)

	// Apply defaults for missing values
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}
}

// applyEnv overrides file values with DEGREES_* variables
func applyEnv(cfg *Config) {
	textFields := map[string]*string{
		"DEGREES_LISTEN_ADDR":       &cfg.ListenAddr,
		"DEGREES_DB_PATH":           &cfg.DBPath,
		"DEGREES_SEARCHES_DB_PATH":  &cfg.SearchesDBPath,
		"DEGREES_WIKIPEDIA_API_URL": &cfg.WikipediaAPIURL,
		"DEGREES_SEARCH_BACKEND":    &cfg.SearchBackend,
		"DEGREES_NEO4J_URI":         &cfg.Neo4jURI,
		"DEGREES_NEO4J_USERNAME":    &cfg.Neo4jUsername,
		"DEGREES_NEO4J_PASSWORD":    &cfg.Neo4jPassword,
		"DEGREES_NEO4J_DATABASE":    &cfg.Neo4jDatabase,
		"DEGREES_REDIS_ADDR":        &cfg.RedisAddr,
		"DEGREES_LOG_LEVEL":         &cfg.LogLevel,
	}
	for key, field := range textFields {
		if value, ok := os.LookupEnv(key); ok {
			*field = value
		}
	}

	numberFields := map[string]*int{
		"DEGREES_METADATA_CONCURRENCY": &cfg.MetadataConcurrency,
		"DEGREES_MAX_SEARCH_DEPTH":     &cfg.MaxSearchDepth,
		"DEGREES_CACHE_TTL_SECONDS":    &cfg.CacheTTLSeconds,
	}
	for key, field := range numberFields {
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			logrus.Warnf("Ignoring %s: %q is not a number", key, value)
			continue
		}
		*field = n
	}
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "sdow.sqlite"
	}
	if cfg.SearchesDBPath == "" {
		cfg.SearchesDBPath = "searches.sqlite"
	}
	if cfg.WikipediaAPIURL == "" {
		cfg.WikipediaAPIURL = "https://en.wikipedia.org/w/api.php"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "degrees/1.0 (path search; metadata enrichment)"
	}
	if cfg.ThumbnailSize == 0 {
		cfg.ThumbnailSize = 160
	}
	if cfg.MetadataBatchSize == 0 {
		cfg.MetadataBatchSize = maxMetadataBatchSize
	}
	if cfg.MetadataConcurrency == 0 {
		cfg.MetadataConcurrency = 4
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 5000
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.SearchBackend == "" {
		cfg.SearchBackend = "sqlite"
	}
	if cfg.MaxSearchDepth == 0 {
		cfg.MaxSearchDepth = 10
	}
	if cfg.CacheTTLSeconds == 0 {
		cfg.CacheTTLSeconds = 86400
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.log"
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.MetadataBatchSize < 1 || cfg.MetadataBatchSize > maxMetadataBatchSize {
		return fmt.Errorf("metadata_batch_size must be between 1 and %d", maxMetadataBatchSize)
	}
	if cfg.MetadataConcurrency < 1 {
		return fmt.Errorf("metadata_concurrency must be >= 1")
	}
	if cfg.ThumbnailSize < 1 {
		return fmt.Errorf("thumbnail_size must be >= 1")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	if cfg.MaxSearchDepth < 1 {
		return fmt.Errorf("max_search_depth must be >= 1")
	}
	if cfg.CacheTTLSeconds < 1 {
		return fmt.Errorf("cache_ttl_seconds must be >= 1")
	}
	switch cfg.SearchBackend {
	case "sqlite":
	case "neo4j":
		if cfg.Neo4jURI == "" {
			return fmt.Errorf("neo4j_uri is required when search_backend is neo4j")
		}
	default:
		return fmt.Errorf("search_backend must be sqlite or neo4j, got %q", cfg.SearchBackend)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

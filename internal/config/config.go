// Package config loads ragcore's YAML configuration, enumerated in
// SPEC_FULL.md §6.4, with environment-variable overrides and sane defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete ragcore configuration.
type Config struct {
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Navigator  NavigatorConfig  `yaml:"navigator" json:"navigator"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	Providers  ProvidersConfig  `yaml:"providers" json:"providers"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Deadlines  DeadlinesConfig  `yaml:"deadlines" json:"deadlines"`
}

// RetrievalConfig configures C2/C3/C4, per SPEC_FULL.md §6.4.
type RetrievalConfig struct {
	// RetrieveK is the final number of context chunks surfaced to the LLM.
	RetrieveK int `yaml:"retrieve_k" json:"retrieve_k"`
	// UseBM25 and UseVector are checked only by Validate (at least one
	// must be true); the hybrid retriever queries both stores either way.
	UseBM25 bool `yaml:"use_bm25" json:"use_bm25"`
	// UseVector: see UseBM25.
	UseVector bool `yaml:"use_vector" json:"use_vector"`
	// RRFConstant is the RRF fusion smoothing parameter K.
	RRFConstant int `yaml:"rrf_k" json:"rrf_k"`
	// BM25Weight is the RRF weight given to lexical rank.
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`
	// VectorWeight is the RRF weight given to dense rank.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`
	// MinSimilarity is the vector-hit cosine-similarity cutoff.
	MinSimilarity float32 `yaml:"min_similarity" json:"min_similarity"`
}

// NavigatorConfig configures C6, per SPEC_FULL.md §6.4.
type NavigatorConfig struct {
	MaxRounds    int `yaml:"navigator_max_rounds" json:"navigator_max_rounds"`
	TargetTokens int `yaml:"navigator_target_tokens" json:"navigator_target_tokens"`
}

// CacheConfig configures the Smart Cache, per SPEC_FULL.md §6.4.
type CacheConfig struct {
	SemanticThreshold float32 `yaml:"semantic_threshold" json:"semantic_threshold"`
	ExactTTL          string  `yaml:"exact_ttl" json:"exact_ttl"`
	SemanticTTL       string  `yaml:"semantic_ttl" json:"semantic_ttl"`
	MaxSize           int     `yaml:"cache_max_size" json:"cache_max_size"`
}

// ProvidersConfig configures C1's chat/embedding dispatch, ambient to
// spec.md but needed to actually construct a Gateway.
type ProvidersConfig struct {
	ChatProvider  string `yaml:"chat_provider" json:"chat_provider"`
	EmbedProvider string `yaml:"embed_provider" json:"embed_provider"`
	ChatModel     string `yaml:"chat_model" json:"chat_model"`
	FastModel     string `yaml:"fast_model" json:"fast_model"`
	VerifyModel   string `yaml:"verify_model" json:"verify_model"`
	EmbedModel    string `yaml:"embed_model" json:"embed_model"`
	BaseURL       string `yaml:"base_url" json:"base_url"`
	APIKeyEnv     string `yaml:"api_key_env" json:"api_key_env"`
	EmbedBatch    int    `yaml:"embed_batch_size" json:"embed_batch_size"`
}

// LoggingConfig is ambient, grounded on the teacher's logging package.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// ServerConfig configures the optional MCP front door.
type ServerConfig struct {
	MCPAddr string `yaml:"mcp_addr" json:"mcp_addr"`
}

// DeadlinesConfig holds per-call and per-request timeout settings, per
// spec.md §5. These values are loaded but not read by Core: the HTTP
// provider and the orchestrator use their own built-in timeouts.
type DeadlinesConfig struct {
	ChatTimeout    string `yaml:"chat_timeout" json:"chat_timeout"`
	EmbedTimeout   string `yaml:"embed_timeout" json:"embed_timeout"`
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// Default returns the configuration described by SPEC_FULL.md §6.4's
// defaults column, mirroring the teacher's NewConfig() shape.
func Default() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			RetrieveK:     5,
			UseBM25:       true,
			UseVector:     true,
			RRFConstant:   60,
			BM25Weight:    0.5,
			VectorWeight:  0.5,
			MinSimilarity: 0.5,
		},
		Navigator: NavigatorConfig{
			MaxRounds:    3,
			TargetTokens: 2000,
		},
		Cache: CacheConfig{
			SemanticThreshold: 0.95,
			ExactTTL:          "168h", // 7 days
			SemanticTTL:       "72h",  // 3 days
			MaxSize:           1000,
		},
		Providers: ProvidersConfig{
			ChatProvider:  "dashscope",
			EmbedProvider: "dashscope",
			ChatModel:     "qwen-plus",
			FastModel:     "qwen-turbo-latest",
			VerifyModel:   "qwen-plus",
			EmbedModel:    "text-embedding-v1",
			APIKeyEnv:     "RAGCORE_API_KEY",
			EmbedBatch:    10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			MCPAddr: "stdio",
		},
		Deadlines: DeadlinesConfig{
			ChatTimeout:    "60s",
			EmbedTimeout:   "30s",
			RequestTimeout: "90s",
		},
	}
}

// Load reads a YAML config file and merges it over Default(), then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				cfg.applyEnvOverrides()
				return cfg, nil
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets RAGCORE_* environment variables win over file and
// default values, mirroring the teacher's AMANMCP_* override pattern.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGCORE_BM25_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.BM25Weight = w
		}
	}
	if v := os.Getenv("RAGCORE_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.VectorWeight = w
		}
	}
	if v := os.Getenv("RAGCORE_RETRIEVE_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.RetrieveK = k
		}
	}
	if v := os.Getenv("RAGCORE_CHAT_PROVIDER"); v != "" {
		c.Providers.ChatProvider = v
	}
	if v := os.Getenv("RAGCORE_EMBED_PROVIDER"); v != "" {
		c.Providers.EmbedProvider = v
	}
	if v := os.Getenv("RAGCORE_BASE_URL"); v != "" {
		c.Providers.BaseURL = v
	}
	if v := os.Getenv("RAGCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks cross-field invariants spec.md assumes hold.
func (c *Config) Validate() error {
	if c.Retrieval.RetrieveK <= 0 {
		return fmt.Errorf("retrieval.retrieve_k must be positive")
	}
	if !c.Retrieval.UseBM25 && !c.Retrieval.UseVector {
		return fmt.Errorf("at least one of retrieval.use_bm25 or retrieval.use_vector must be enabled")
	}
	sum := c.Retrieval.BM25Weight + c.Retrieval.VectorWeight
	if sum <= 0 {
		return fmt.Errorf("retrieval.bm25_weight + retrieval.vector_weight must be positive")
	}
	if c.Retrieval.RRFConstant <= 0 {
		return fmt.Errorf("retrieval.rrf_k must be positive")
	}
	if c.Navigator.MaxRounds <= 0 {
		return fmt.Errorf("navigator.navigator_max_rounds must be positive")
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache.cache_max_size must be positive")
	}
	return nil
}

// WriteYAML writes the configuration to path, creating parent directories
// as needed, grounded on the teacher's WriteYAML helper.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// GetUserConfigPath returns the default per-user config file location.
func GetUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(strings.TrimSuffix(os.TempDir(), "/"), "ragcore", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragcore", "config.yaml")
}

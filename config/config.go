// Package config loads AgriConnect settings from a YAML file with
// environment variable expansion, defaults and AGRICONNECT_* overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when AGRICONNECT_CONFIG is unset.
const DefaultPath = "config/agriconnect.yaml"

// Upper bounds for the network timeouts.
const (
	MaxDiscoveryTimeout = 30 * time.Second
	MaxInvokeTimeout    = 300 * time.Second
)

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Agent     AgentConfig     `yaml:"agent"`
	Store     StoreConfig     `yaml:"store"`
	NATS      NATSConfig      `yaml:"nats"`
	Trade     TradeConfig     `yaml:"trade"`
	Log       LogConfig       `yaml:"log"`
}

type LLMConfig struct {
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

type DiscoveryConfig struct {
	Listen     string        `yaml:"listen"`
	URL        string        `yaml:"url"`
	CatalogDir string        `yaml:"catalog_dir"`
	Timeout    time.Duration `yaml:"timeout"`
}

type GatewayConfig struct {
	Listen    string            `yaml:"listen"`
	URL       string            `yaml:"url"`
	PublicURL string            `yaml:"public_url"`
	Agents    map[string]string `yaml:"agents"`
	Timeout   time.Duration     `yaml:"timeout"`
	LogFile   string            `yaml:"log_file"`
}

type AgentConfig struct {
	Listen       string `yaml:"listen"`
	Card         string `yaml:"card"`
	Instructions string `yaml:"instructions"`
	Stream       bool   `yaml:"stream"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type NATSConfig struct {
	// URL of an external server; empty starts an embedded one.
	URL       string `yaml:"url"`
	Port      int    `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	JetStream bool   `yaml:"jetstream"`
	Topic     string `yaml:"topic"`
}

type TradeConfig struct {
	DefaultFarmerID string `yaml:"default_farmer_id"`
	PaymentPolicy   string `yaml:"payment_policy"`
	PaymentStatus   string `yaml:"payment_status"`
	PaymentMedium   string `yaml:"payment_medium"`
	Seed            uint64 `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 256,
			CacheSize:  1024,
		},
		Discovery: DiscoveryConfig{
			Listen:     ":8000",
			URL:        "http://localhost:8000",
			CatalogDir: "agent_cards",
			Timeout:    30 * time.Second,
		},
		Gateway: GatewayConfig{
			Listen:  ":8080",
			URL:     "http://localhost:8080",
			Agents:  map[string]string{},
			Timeout: 300 * time.Second,
		},
		Agent: AgentConfig{
			Listen: ":10001",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "data/agriconnect.db",
		},
		NATS: NATSConfig{
			Port:      4222,
			DataDir:   "data/nats",
			JetStream: true,
			Topic:     "trade-notifications",
		},
		Trade: TradeConfig{
			DefaultFarmerID: "FARMER_123",
			PaymentPolicy:   "fixed",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the file named by AGRICONNECT_CONFIG, or DefaultPath.
func Load() (*Config, error) {
	path := os.Getenv("AGRICONNECT_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile reads path. A missing file yields defaults plus environment.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("AGRICONNECT_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("AGRICONNECT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AGRICONNECT_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("AGRICONNECT_DISCOVERY_URL"); v != "" {
		cfg.Discovery.URL = v
	}
	if v := os.Getenv("AGRICONNECT_CATALOG_DIR"); v != "" {
		cfg.Discovery.CatalogDir = v
	}
	if v := os.Getenv("AGRICONNECT_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("AGRICONNECT_PUBLIC_GATEWAY_URL"); v != "" {
		cfg.Gateway.PublicURL = v
	}
	if v := os.Getenv("AGRICONNECT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("AGRICONNECT_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("AGRICONNECT_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("AGRICONNECT_TOPIC"); v != "" {
		cfg.NATS.Topic = v
	}
	if v := os.Getenv("AGRICONNECT_FARMER_ID"); v != "" {
		cfg.Trade.DefaultFarmerID = v
	}
	if v := os.Getenv("AGRICONNECT_PAYMENT_POLICY"); v != "" {
		cfg.Trade.PaymentPolicy = v
	}
	if v := os.Getenv("AGRICONNECT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("AGRICONNECT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	// AGRICONNECT_AGENT_<NAME>=<url> adds or replaces a gateway route.
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "AGRICONNECT_AGENT_") || val == "" {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, "AGRICONNECT_AGENT_"))
		if cfg.Gateway.Agents == nil {
			cfg.Gateway.Agents = map[string]string{}
		}
		cfg.Gateway.Agents[name] = val
	}
}

// Validate rejects unknown provider, driver and policy names and timeouts
// outside (0, max].
func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.LLM.Provider, "openai", "anthropic", "mock") {
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if !oneOf(c.Embedding.Provider, "openai", "hash") {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding dimensions must be positive"))
	}
	if !oneOf(c.Store.Driver, "sqlite", "memory") {
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if !oneOf(c.Trade.PaymentPolicy, "fixed", "random") {
		errs = append(errs, fmt.Errorf("unknown payment policy %q", c.Trade.PaymentPolicy))
	}
	if !oneOf(c.Log.Format, "json", "text") {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Discovery.Timeout <= 0 || c.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.Discovery.Timeout > MaxDiscoveryTimeout {
		errs = append(errs, fmt.Errorf("discovery timeout %s exceeds %s", c.Discovery.Timeout, MaxDiscoveryTimeout))
	}
	if c.Gateway.Timeout > MaxInvokeTimeout {
		errs = append(errs, fmt.Errorf("gateway timeout %s exceeds %s", c.Gateway.Timeout, MaxInvokeTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ProxyBaseURL is the gateway base descriptor endpoints are rewritten to:
// the public URL when set, else the internal one.
func (c *Config) ProxyBaseURL() string {
	if c.Gateway.PublicURL != "" {
		return c.Gateway.PublicURL
	}
	return c.Gateway.URL
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

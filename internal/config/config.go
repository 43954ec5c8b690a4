// Package config loads run configuration from the environment (with a
// local .env file) and an optional YAML options file. All behavior knobs
// live here so the pipeline components receive explicit values instead of
// reading process-wide state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration.
type Config struct {
	// Completion capability.
	Endpoint        string
	APIKey          string
	Model           string
	MaxOutputTokens int
	MaxRetries      int

	// Prompt construction.
	PromptBudget    int      // estimated-token budget for the user message
	TruncationTiers []string // drop order when over budget

	Store StoreConfig
}

// StoreConfig configures the optional shared-document sink.
type StoreConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// options is the YAML options file shape. Everything is optional; set
// fields override the environment.
type options struct {
	Model           string   `yaml:"model"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	PromptBudget    int      `yaml:"prompt_budget"`
	TruncationTiers []string `yaml:"truncation_tiers"`
}

const defaultOptionsFile = ".docassist.yaml"

// Load reads the environment (after a best-effort .env load) and applies
// the options file at path, or ./.docassist.yaml when path is empty and
// the file exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Endpoint:        firstNonEmpty(envStr("DOCASSIST_ENDPOINT"), envStr("OPENAI_BASE_URL"), envStr("ENDPOINT_URL")),
		APIKey:          firstNonEmpty(envStr("DOCASSIST_API_KEY"), envStr("OPENAI_API_KEY"), envStr("AZURE_OPENAI_API_KEY")),
		Model:           firstNonEmpty(envStr("DOCASSIST_MODEL"), envStr("DEPLOYMENT_NAME"), "gpt-4o"),
		MaxOutputTokens: envInt("DOCASSIST_MAX_OUTPUT_TOKENS", 13107),
		MaxRetries:      envInt("DOCASSIST_MAX_RETRIES", 2),
		PromptBudget:    envInt("DOCASSIST_PROMPT_BUDGET", 100000),
		Store:           loadStore(),
	}

	if path == "" {
		if _, err := os.Stat(defaultOptionsFile); err == nil {
			path = defaultOptionsFile
		}
	}
	if path != "" {
		if err := cfg.applyOptions(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyOptions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading options file: %w", err)
	}
	var opts options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if opts.Model != "" {
		c.Model = opts.Model
	}
	if opts.MaxOutputTokens > 0 {
		c.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.PromptBudget > 0 {
		c.PromptBudget = opts.PromptBudget
	}
	if len(opts.TruncationTiers) > 0 {
		c.TruncationTiers = opts.TruncationTiers
	}
	return nil
}

func loadStore() StoreConfig {
	endpoint := envStr("DOC_STORE_ENDPOINT")
	return StoreConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(envStr("DOC_STORE_REGION"), "us-east-1"),
		AccessKey: envStr("DOC_STORE_ACCESS_KEY"),
		SecretKey: envStr("DOC_STORE_SECRET_KEY"),
		Bucket:    firstNonEmpty(envStr("DOC_STORE_BUCKET"), "docassist"),
		Object:    firstNonEmpty(envStr("DOC_STORE_OBJECT"), "documentation.md"),
		UseSSL:    envBool("DOC_STORE_USE_SSL"),
	}
}

func envStr(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, fallback int) int {
	v := envStr(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(envStr(key))
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

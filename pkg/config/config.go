// Package config loads MAESD settings from YAML files, the environment, and
// CLI overrides. The recognized top-level keys are deliberately flat and
// uppercase to stay compatible with existing config/config.yaml deployments;
// ambient concerns (logging, telemetry, memory, tools) live in nested
// lowercase sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// OverrideFile is loaded after the main config file when it exists next to
// it. It holds private keys and is expected to be excluded from version
// control.
const OverrideFile = "key.yaml"

// EnvPrefix namespaces environment overrides (MAESD_OPENAI_API_KEY etc.).
const EnvPrefix = "MAESD_"

type Config struct {
	// LLM provider credentials and limits.
	OpenAIAPIKey    string  `koanf:"OPENAI_API_KEY"`
	OpenAIAPIBase   string  `koanf:"OPENAI_API_BASE"`
	OpenAIAPIModel  string  `koanf:"OPENAI_API_MODEL"`
	AnthropicAPIKey string  `koanf:"ANTHROPIC_API_KEY"`
	DeepSeekAPIKey  string  `koanf:"DEEPSEEK_API_KEY"`
	DeepSeekAPIBase string  `koanf:"DEEPSEEK_API_BASE"`
	DeepSeekModel   string  `koanf:"DEEPSEEK_MODEL"`
	MaxTokens       int     `koanf:"MAX_TOKENS"`
	RPM             int     `koanf:"RPM"`
	MaxBudget       float64 `koanf:"MAX_BUDGET"`

	// Web search / browsing surface. Recognized and validated, but no
	// browser automation ships with the pipeline itself.
	SearchAPIKey1         string `koanf:"SEARCH_API_KEY_1"`
	SearchAPIKey2         string `koanf:"SEARCH_API_KEY_2"`
	SearchServiceKey      string `koanf:"SEARCH_SERVICE_KEY"`
	SearchServiceID       string `koanf:"SEARCH_SERVICE_ID"`
	WebBrowserEngine      string `koanf:"WEB_BROWSER_ENGINE"`
	PlaywrightBrowserType string `koanf:"PLAYWRIGHT_BROWSER_TYPE"`
	SeleniumBrowserType   string `koanf:"SELENIUM_BROWSER_TYPE"`

	LongTermMemory bool `koanf:"LONG_TERM_MEMORY"`

	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Memory    MemoryConfig    `koanf:"memory"`
	Tools     ToolsConfig     `koanf:"tools"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type MemoryConfig struct {
	QdrantAddr    string `koanf:"qdrant_addr"`
	Collection    string `koanf:"collection"`
	EmbedderModel string `koanf:"embedder_model"`
	SQLitePath    string `koanf:"sqlite_path"`
}

type ToolsConfig struct {
	ProteinMPNNScript string        `koanf:"proteinmpnn_script"`
	ProGen2Script     string        `koanf:"progen2_script"`
	AlphaFoldImage    string        `koanf:"alphafold_image"`
	AlphaFoldDataDir  string        `koanf:"alphafold_data_dir"`
	WorkDir           string        `koanf:"work_dir"`
	UseGPU            bool          `koanf:"use_gpu"`
	RunTimeout        time.Duration `koanf:"run_timeout"` // per tool invocation, 0 = none
}

type PipelineConfig struct {
	MaxRounds   int     `koanf:"max_rounds"`
	NumSeqs     int     `koanf:"num_seqs"`
	Temperature float64 `koanf:"temperature"`
}

// nested section prefixes recognized in environment variable names.
var envSections = []string{"LOG_", "TELEMETRY_", "MEMORY_", "TOOLS_", "PIPELINE_"}

// Load reads configuration with ascending priority: defaults, the YAML file
// at path, the override file next to it, MAESD_-prefixed environment
// variables, and finally --set style key=value overrides.
func Load(path string, overrides []string) (*Config, error) {
	k := koanf.New(".")

	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		keyPath := filepath.Join(filepath.Dir(path), OverrideFile)
		if _, err := os.Stat(keyPath); err == nil {
			if err := k.Load(file.Provider(keyPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load override %s: %w", keyPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, err
	}

	for _, pair := range overrides {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q, want key=value", pair)
		}
		k.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	k.Set("OPENAI_API_MODEL", "gpt-4")
	k.Set("DEEPSEEK_API_BASE", "https://api.deepseek.com/v1")
	k.Set("DEEPSEEK_MODEL", "deepseek-chat")
	k.Set("MAX_TOKENS", 2048)
	k.Set("RPM", 3)
	k.Set("MAX_BUDGET", 10.0)
	k.Set("WEB_BROWSER_ENGINE", "playwright")
	k.Set("PLAYWRIGHT_BROWSER_TYPE", "chromium")
	k.Set("SELENIUM_BROWSER_TYPE", "chrome")
	k.Set("LONG_TERM_MEMORY", false)

	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "none")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "maesd_runs")
	k.Set("memory.embedder_model", "text-embedding-3-small")
	k.Set("memory.sqlite_path", "maesd.db")
	k.Set("tools.alphafold_image", "ghcr.io/deepmind/alphafold")
	k.Set("tools.use_gpu", true)
	k.Set("pipeline.max_rounds", 3)
	k.Set("pipeline.num_seqs", 10)
	k.Set("pipeline.temperature", 0.1)
}

// envKeyMapper maps MAESD_LOG_LEVEL to log.level and MAESD_OPENAI_API_KEY to
// OPENAI_API_KEY. Only names with a known section prefix are lowered into
// nested keys; everything else is a flat uppercase key. Sections nest one
// level, so only the first underscore becomes a separator.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	for _, section := range envSections {
		if strings.HasPrefix(s, section) {
			return strings.Replace(strings.ToLower(s), "_", ".", 1)
		}
	}
	return s
}

// Validate checks enum-valued keys and numeric limits.
func (c *Config) Validate() error {
	switch c.WebBrowserEngine {
	case "playwright", "selenium":
	default:
		return fmt.Errorf("WEB_BROWSER_ENGINE must be playwright or selenium, got %q", c.WebBrowserEngine)
	}
	switch c.PlaywrightBrowserType {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("PLAYWRIGHT_BROWSER_TYPE must be chromium, firefox or webkit, got %q", c.PlaywrightBrowserType)
	}
	switch c.SeleniumBrowserType {
	case "chrome", "firefox", "edge":
	default:
		return fmt.Errorf("SELENIUM_BROWSER_TYPE must be chrome, firefox or edge, got %q", c.SeleniumBrowserType)
	}
	if c.MaxBudget < 0 {
		return fmt.Errorf("MAX_BUDGET must be >= 0, got %v", c.MaxBudget)
	}
	if c.RPM <= 0 {
		return fmt.Errorf("RPM must be > 0, got %d", c.RPM)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be > 0, got %d", c.MaxTokens)
	}
	if c.Pipeline.MaxRounds < 1 {
		return fmt.Errorf("pipeline.max_rounds must be >= 1, got %d", c.Pipeline.MaxRounds)
	}
	if c.Tools.RunTimeout < 0 {
		return fmt.Errorf("tools.run_timeout must be >= 0, got %v", c.Tools.RunTimeout)
	}
	return nil
}

// DefaultProvider reports which LLM provider the credentials select,
// preferring OpenAI, then DeepSeek, then Anthropic.
func (c *Config) DefaultProvider() string {
	switch {
	case c.OpenAIAPIKey != "":
		return "openai"
	case c.DeepSeekAPIKey != "":
		return "deepseek"
	case c.AnthropicAPIKey != "":
		return "anthropic"
	default:
		return ""
	}
}

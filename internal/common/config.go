package common

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Common     CommonConfig     `yaml:"common"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Enhancer   EnhancerConfig   `yaml:"ocr_enhancer"`
}

// CommonConfig holds settings shared by both passes.
type CommonConfig struct {
	LLMBaseURL    string `yaml:"llm_base_url"`
	LLMModel      string `yaml:"llm_model"`
	LLMAPIKey     string `yaml:"llm_api_key"`
	TempDir       string `yaml:"temp_directory"`
	HistoryFile   string `yaml:"history_file"`
	KeepTempFiles bool   `yaml:"keep_temp_files"`
}

// SummarizerConfig drives the classification pass.
type SummarizerConfig struct {
	Control        ControlConfig    `yaml:"control"`
	AIAnalysis     AIAnalysisConfig `yaml:"ai_analysis"`
	MarkdownOutput OutputConfig     `yaml:"markdown_output"`
	PDFOutput      OutputConfig     `yaml:"pdf_output"`

	// Input is the legacy single-directory shape; when present it is
	// treated as a PDF target with the pdf_output policy.
	Input *LegacyInputConfig `yaml:"input,omitempty"`
	PDF   *TargetConfig      `yaml:"pdf,omitempty"`
	JPEG  *TargetConfig      `yaml:"jpeg,omitempty"`
}

// ControlConfig holds run-level switches.
type ControlConfig struct {
	ForceReprocess bool `yaml:"force_reprocess"`
}

// ClassificationRule names one category and the guidance the classifier sees.
type ClassificationRule struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// AIAnalysisConfig shapes the classification prompt and page budget.
type AIAnalysisConfig struct {
	Prompt               string               `yaml:"prompt"`
	MaxPagesToAI         int                  `yaml:"max_pages_to_ai"`
	ClassificationRules  []ClassificationRule `yaml:"classification_rules"`
	EnableCategorization *bool                `yaml:"enable_categorization"`
}

// CategorizationEnabled defaults to true when unset.
func (c AIAnalysisConfig) CategorizationEnabled() bool {
	return c.EnableCategorization == nil || *c.EnableCategorization
}

// OutputConfig names a destination base directory.
type OutputConfig struct {
	DestinationDirectory string `yaml:"destination_directory"`
}

// LegacyInputConfig is the pre-split input shape (PDF only).
type LegacyInputConfig struct {
	Directory string `yaml:"directory"`
}

// TargetConfig is the per-format ingest policy.
type TargetConfig struct {
	InputDirectory       string `yaml:"input_directory"`
	AutoRename           bool   `yaml:"auto_rename"`
	AutoCopy             bool   `yaml:"auto_copy"`
	DestinationDirectory string `yaml:"destination_directory"`
}

// EnhancerConfig drives the full-text pass.
type EnhancerConfig struct {
	FulltextEnabled  *bool  `yaml:"fulltext_enabled"`
	FulltextPrompt   string `yaml:"fulltext_prompt"`
	FulltextMaxPages int    `yaml:"fulltext_max_pages"`
	OutputDirectory  string `yaml:"output_directory"`
}

// Enabled defaults to true when unset.
func (c EnhancerConfig) Enabled() bool {
	return c.FulltextEnabled == nil || *c.FulltextEnabled
}

// LoadConfig reads a YAML config file with environment variable expansion,
// applies defaults and env overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "config validation failed", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Common.LLMBaseURL == "" {
		c.Common.LLMBaseURL = getEnv("LLM_BASE_URL", "http://localhost:1234/v1")
	}
	if c.Common.LLMModel == "" {
		c.Common.LLMModel = getEnv("LLM_MODEL", "")
	}
	if c.Common.LLMAPIKey == "" {
		// LM Studio accepts any non-empty key.
		c.Common.LLMAPIKey = getEnv("LLM_API_KEY", "lm-studio")
	}
	if c.Common.TempDir == "" {
		c.Common.TempDir = "temp_images"
	}
	if c.Common.HistoryFile == "" {
		c.Common.HistoryFile = "data/history.json"
	}
	if c.Summarizer.AIAnalysis.MaxPagesToAI <= 0 {
		c.Summarizer.AIAnalysis.MaxPagesToAI = 5
	}
	if c.Enhancer.FulltextMaxPages <= 0 {
		c.Enhancer.FulltextMaxPages = 50
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Common,
		validation.Field(&c.Common.LLMBaseURL, validation.Required),
		validation.Field(&c.Common.LLMModel, validation.Required),
		validation.Field(&c.Common.HistoryFile, validation.Required),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Summarizer,
		validation.Field(&c.Summarizer.MarkdownOutput, validation.By(func(any) error {
			if c.Summarizer.MarkdownOutput.DestinationDirectory == "" {
				return fmt.Errorf("markdown_output.destination_directory is required")
			}
			return nil
		})),
	)
}

// getEnv mirrors the usual env-with-default helper.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

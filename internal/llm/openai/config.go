package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the chat-completions client. Works against any
// OpenAI-compatible endpoint; LM Studio accepts a dummy API key.
type Config struct {
	APIKey  string        // if empty, falls back to env LLM_API_KEY
	BaseURL string        // e.g. http://localhost:1234/v1
	Model   string        // loaded vision model name
	Timeout time.Duration // http client timeout; 0 means no timeout
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "lm-studio"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234/v1"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

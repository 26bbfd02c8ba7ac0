// Package provider constructs the OpenAI API client. Components never
// read credentials from the environment themselves; they receive a
// client built here.
package provider

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/distillhq/distillery/internal/config"
)

// NewClient builds an OpenAI client from config. A non-empty BaseURL
// redirects all calls, which is how tests point the client at a fake
// server.
func NewClient(cfg config.OpenAIConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}

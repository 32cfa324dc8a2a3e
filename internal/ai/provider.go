// Package ai implements the AI assisted features of a collection: buying
// recommendations, value estimates, organization hints, a chat assistant
// and photo recognition. Model calls go through a Completer so providers
// can be swapped or faked.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/ifrit/internal/config"
)

// ErrDisabled is returned when no provider is configured.
var ErrDisabled = errors.New("AI features are not configured")

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Image is an inline picture sent along with the last user message.
type Image struct {
	MIME string
	Data []byte
}

// Request is a single completion call.
type Request struct {
	System      string
	Messages    []Message
	Image       *Image
	Temperature float64
	MaxTokens   int
}

// Completer turns a request into the model's text answer.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// NewCompleter builds the provider selected in cfg. It returns nil when no
// provider is configured.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			VisionModel: cfg.VisionModel,
			Timeout:     cfg.Timeout,
		}), nil
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

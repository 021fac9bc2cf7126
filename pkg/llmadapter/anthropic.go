package llmadapter

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chriscow/postop-callsvc/pkg/callerrors"
)

// AnthropicClient backs Client with the real anthropic-sdk-go API.
type AnthropicClient struct {
	sdk *anthropic.Client
}

// NewAnthropicClient constructs an adapter bound to the given API key.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{sdk: &client}
}

// ChatCompletion issues a single, non-streaming message call.
func (a *AnthropicClient) ChatCompletion(ctx context.Context, req Request) (*Response, error) {
	if req.TimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutS)*time.Second)
		defer cancel()
	}

	var system string
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := a.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, callerrors.New(callerrors.KindLLMUnavailable, "anthropic chat_completion failed", err)
	}

	var content string
	for _, block := range msg.Content {
		if text := block.AsAny(); text != nil {
			if tb, ok := text.(anthropic.TextBlock); ok {
				content += tb.Text
			}
		}
	}

	return &Response{Content: content, FinishReason: string(msg.StopReason)}, nil
}

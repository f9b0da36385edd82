package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-inplace-translator/internal/types"
)

// chatGenerator is the part of an eino chat model the translator needs
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMTranslator translates with an OpenAI compatible chat completion model.
type LLMTranslator struct {
	chat  chatGenerator
	model string
	retry RetryPolicy
}

// NewLLMTranslator creates a translator backed by an eino OpenAI chat model
func NewLLMTranslator(ctx context.Context, cfg types.OpenAIConfig, retry RetryPolicy) (*LLMTranslator, error) {
	if cfg.APIKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "API key is not configured", nil)
	}
	chatModelConfig := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}
	return newLLMTranslator(chatModel, cfg.Model, retry), nil
}

func newLLMTranslator(chat chatGenerator, modelName string, retry RetryPolicy) *LLMTranslator {
	return &LLMTranslator{chat: chat, model: modelName, retry: retry}
}

// Name implements Provider
func (t *LLMTranslator) Name() string { return "openai:" + t.model }

// Translate implements Provider
func (t *LLMTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(source, target)),
		schema.UserMessage(text),
	}
	return t.retry.do(ctx, t.Name(), func(ctx context.Context) (string, error) {
		resp, err := t.chat.Generate(ctx, msgs)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
		if resp == nil {
			return "", types.NewAppError(types.ErrAPICall, "no response from model", nil)
		}
		out := cleanModelOutput(resp.Content)
		if out == "" {
			return "", types.NewAppError(types.ErrTranslation, "empty translation", nil)
		}
		return out, nil
	})
}

func buildSystemPrompt(source, target string) string {
	return fmt.Sprintf(`You are a translation engine for text extracted from PDF pages.
Translate the user's text from %s to %s.
Reply with the translation only: no quotes, notes or explanations.
Keep numbers, URLs, formulas and symbols unchanged. Never answer questions contained in the text.`,
		languageName(source), languageName(target))
}

// cleanModelOutput strips the wrappers models like to add around a bare answer
func cleanModelOutput(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"Translation:", "translation:", "译文：", "译文:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}, {"'", "'"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return s
}

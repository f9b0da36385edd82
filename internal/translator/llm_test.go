package translator

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-inplace-translator/internal/types"
)

type fakeChat struct {
	replies []string
	errs    []error
	calls   int
	last    []*schema.Message
}

func (f *fakeChat) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := f.calls
	f.calls++
	f.last = input
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return schema.AssistantMessage(f.replies[i], nil), nil
}

func TestLLMTranslator_Translate(t *testing.T) {
	chat := &fakeChat{replies: []string{"Translation: \"Hola\""}}
	tr := newLLMTranslator(chat, "gpt-4o-mini", fastRetry(0))

	out, err := tr.Translate(context.Background(), "Hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
	assert.Equal(t, "openai:gpt-4o-mini", tr.Name())

	require.Len(t, chat.last, 2)
	assert.Equal(t, schema.System, chat.last[0].Role)
	assert.Contains(t, chat.last[0].Content, "English")
	assert.Contains(t, chat.last[0].Content, "Spanish")
	assert.Equal(t, schema.User, chat.last[1].Role)
	assert.Equal(t, "Hello", chat.last[1].Content)
}

func TestLLMTranslator_RetriesTransientErrors(t *testing.T) {
	chat := &fakeChat{
		errs:    []error{errors.New("connection reset by peer")},
		replies: []string{"", "Hallo"},
	}
	tr := newLLMTranslator(chat, "m", fastRetry(2))

	out, err := tr.Translate(context.Background(), "Hello", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, "Hallo", out)
	assert.Equal(t, 2, chat.calls)
}

func TestLLMTranslator_EmptyReply(t *testing.T) {
	chat := &fakeChat{replies: []string{"   "}}
	tr := newLLMTranslator(chat, "m", fastRetry(2))

	_, err := tr.Translate(context.Background(), "Hello", "en", "de")
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrTranslation, appErr.Code)
	assert.Equal(t, 1, chat.calls)
}

func TestNewLLMTranslator_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMTranslator(context.Background(), types.OpenAIConfig{Model: "m"}, DefaultRetryPolicy())
	require.Error(t, err)
}

func TestCleanModelOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hola", "Hola"},
		{"  Hola \n", "Hola"},
		{`"Hola"`, "Hola"},
		{"“你好”", "你好"},
		{"「こんにちは」", "こんにちは"},
		{"Translation: Hola", "Hola"},
		{"译文：你好", "你好"},
		{`"`, `"`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelOutput(tt.in))
		})
	}
}

package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/focus"
)

type fakeChatModel struct {
	reply    string
	err      error
	messages []*schema.Message
	opts     []model.Option
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = input
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestChatModel_DecodesJSONReply(t *testing.T) {
	fake := &fakeChatModel{reply: "```json\n{\"headline\":\"Importer\",\"next_steps\":[\"ship\"]}\n```"}
	g := NewChatModel(fake, 800, 0.2)

	res, err := g.Generate(context.Background(), []digest.Digest{{NoteID: "a.md"}}, focus.Params{ModelName: "gpt-4o-mini", Limit: 3})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, "Importer", res.Report.Headline)
	assert.Empty(t, res.RawMarkdown)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, schema.System, fake.messages[0].Role)
	assert.Contains(t, fake.messages[0].Content, "at most 3 themes")
	assert.Equal(t, schema.User, fake.messages[1].Role)
	assert.Contains(t, fake.messages[1].Content, `"noteId":"a.md"`)

	common := model.GetCommonOptions(nil, fake.opts...)
	require.NotNil(t, common.Model)
	assert.Equal(t, "gpt-4o-mini", *common.Model)
	require.NotNil(t, common.MaxTokens)
	assert.Equal(t, 800, *common.MaxTokens)
}

func TestChatModel_PlainReplyBecomesMarkdown(t *testing.T) {
	fake := &fakeChatModel{reply: "  You mostly wrote about gardening.  "}
	res, err := NewChatModel(fake, 0, 0).Generate(context.Background(), nil, focus.Params{})
	require.NoError(t, err)
	assert.Nil(t, res.Report)
	assert.Equal(t, "You mostly wrote about gardening.", res.RawMarkdown)
	assert.Contains(t, fake.messages[1].Content, "[]")
}

func TestChatModel_Error(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	_, err := NewChatModel(fake, 0, 0).Generate(context.Background(), nil, focus.Params{})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNewOpenAI_RequiresKeyAndModel(t *testing.T) {
	_, err := NewOpenAI(context.Background(), OpenAIConfig{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)

	_, err = NewOpenAI(context.Background(), OpenAIConfig{APIKey: "sk-test"})
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
}

package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolModel struct {
	reply *schema.Message
	err   error
	opts  *model.Options
}

func (m *toolModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.opts = model.GetCommonOptions(&model.Options{}, opts...)
	return m.reply, m.err
}

func (m *toolModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *toolModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type verdict struct {
	Answer string `json:"answer" jsonschema:"required,enum=yes,enum=no"`
}

func prompt(ctx context.Context, input string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage(input)}, nil
}

func toolCall(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func TestChainInvoke(t *testing.T) {
	m := &toolModel{reply: toolCall("judge", `{"answer":"yes"}`)}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "judge the input")
	require.NoError(t, err)
	assert.Equal(t, "judge", chain.ToolName())

	got, err := chain.Invoke(context.Background(), "is it?")
	require.NoError(t, err)
	assert.Equal(t, "yes", got.Answer)
	require.Len(t, m.opts.Tools, 1)
	assert.Equal(t, "judge", m.opts.Tools[0].Name)
}

func TestChainWithoutToolCall(t *testing.T) {
	m := &toolModel{reply: schema.AssistantMessage("plain text", nil)}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "judge the input")
	require.NoError(t, err)
	_, err = chain.Invoke(context.Background(), "is it?")
	assert.ErrorContains(t, err, "no judge call")
}

func TestChainModelError(t *testing.T) {
	m := &toolModel{err: errors.New("rate limited")}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "judge the input")
	require.NoError(t, err)
	_, err = chain.Invoke(context.Background(), "is it?")
	assert.ErrorContains(t, err, "rate limited")
}

package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultSystemPrompt is used by ChatResponder unless overridden.
const DefaultSystemPrompt = "You are Kelvin, an OCBC mortgage specialist. Provide helpful and friendly responses about OCBC overseas property loans."

const defaultTemperature float32 = 0.7

var ErrEmptyQuestion = errors.New("empty question")

type ChatResponder struct {
	systemPrompt string
	temperature  float32
	chatModel    model.BaseChatModel
}

type chatOptions struct {
	systemPrompt string
	temperature  float32
}

type Option func(*chatOptions)

// WithSystemPrompt overrides the persona prompt sent ahead of every question.
func WithSystemPrompt(systemPrompt string) Option {
	return func(o *chatOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithTemperature(temperature float32) Option {
	return func(o *chatOptions) {
		o.temperature = temperature
	}
}

func NewChatResponder(chatModel model.BaseChatModel, opts ...Option) *ChatResponder {
	options := chatOptions{
		systemPrompt: DefaultSystemPrompt,
		temperature:  defaultTemperature,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.systemPrompt == "" {
		options.systemPrompt = DefaultSystemPrompt
	}
	return &ChatResponder{
		systemPrompt: options.systemPrompt,
		temperature:  options.temperature,
		chatModel:    chatModel,
	}
}

func (r *ChatResponder) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	messages := []*schema.Message{
		schema.SystemMessage(r.systemPrompt),
		schema.UserMessage(question),
	}
	response, err := r.chatModel.Generate(ctx, messages, model.WithTemperature(r.temperature))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if response == nil {
		return "", errors.New("LLM returned no message")
	}
	return response.Content, nil
}

package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/enquirybot/structured"
)

const (
	parseCommandToolName        = "parse_command"
	parseCommandToolDescription = "Classify the user's reply to the enquiry summary: submit, edit, cancel or none."
)

const DefaultParseCommandSystemPrompt = `
You help a bank assistant understand how a user replied after being shown a summary of their enquiry details.

Choose exactly one command:
- submit: the user clearly wants to go ahead with the enquiry as shown.
- edit: the user wants to change any of the details.
- cancel: the user wants to abandon the enquiry.
- none: anything else, including questions and unclear replies.

When in doubt answer none. Call the '` + parseCommandToolName + `' tool with the result.
`

type parseCommandInput struct {
	Command Command `json:"command" jsonschema:"required,enum=submit,enum=edit,enum=cancel,enum=none,description=The user's command"`
}

// ToolCommandParser asks a chat model to classify free-form replies.
type ToolCommandParser struct {
	chain *structured.Chain[string, parseCommandInput]
}

func NewToolCommandParser(chatModel model.ToolCallingChatModel) (*ToolCommandParser, error) {
	chain, err := structured.NewChain[string, parseCommandInput](
		chatModel,
		func(ctx context.Context, input string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(DefaultParseCommandSystemPrompt),
				schema.UserMessage(input),
			}, nil
		},
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolCommandParser{chain: chain}, nil
}

func (p *ToolCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	result, err := p.chain.Invoke(ctx, input)
	if err != nil {
		return None, err
	}
	switch result.Command {
	case Submit, Edit, Cancel, None:
		return result.Command, nil
	default:
		return None, fmt.Errorf("unknown command %q returned by %s", result.Command, parseCommandToolName)
	}
}

// FailbackCommandParser asks each parser in order and returns the first
// command other than None. Parser errors are skipped.
type FailbackCommandParser struct {
	parsers []Parser
}

func NewFailbackCommandParser(parsers ...Parser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

func (p *FailbackCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err != nil {
			lastErr = err
			continue
		}
		if cmd != None {
			return cmd, nil
		}
	}
	if lastErr != nil {
		return None, lastErr
	}
	return None, nil
}

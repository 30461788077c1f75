package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/enquirybot/dialogue"
)

// Transcript records the turns of each conversation as chat messages.
type Transcript interface {
	Load(ctx context.Context) ([]*schema.Message, error)
	Append(ctx context.Context, msgs ...*schema.Message) error
	Clear(ctx context.Context) error
}

type TranscriptStore struct {
	store conversationStore[[]*schema.Message]
	limit int
}

// NewTranscriptStore keeps at most limit messages per conversation; a
// non-positive limit keeps everything.
func NewTranscriptStore(core Cache[[]*schema.Message], limit int) *TranscriptStore {
	return &TranscriptStore{
		store: newConversationStore(core, "agent:transcript"),
		limit: limit,
	}
}

func (s *TranscriptStore) Load(ctx context.Context) ([]*schema.Message, error) {
	hist, ok, err := s.store.load(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return hist, nil
}

func (s *TranscriptStore) Append(ctx context.Context, msgs ...*schema.Message) error {
	return s.store.update(ctx, func(hist []*schema.Message, _ bool) []*schema.Message {
		out := make([]*schema.Message, 0, len(hist)+len(msgs))
		out = append(out, hist...)
		for _, m := range msgs {
			if m != nil {
				out = append(out, m)
			}
		}
		if s.limit > 0 && len(out) > s.limit {
			out = out[len(out)-s.limit:]
		}
		return out
	})
}

func (s *TranscriptStore) Clear(ctx context.Context) error {
	return s.store.drop(ctx)
}

var _ Transcript = (*TranscriptStore)(nil)

func eventMessage(ev Event) *schema.Message {
	switch ev.Kind {
	case EventText:
		return schema.UserMessage(ev.Text)
	case EventButton:
		return schema.UserMessage("[" + ev.Payload + "]")
	default:
		return schema.UserMessage("/" + string(ev.Kind))
	}
}

func replyMessages(msgs []dialogue.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		text := m.Text
		if m.HasButtons() {
			labels := make([]string, 0, len(m.Buttons))
			for _, b := range m.Buttons {
				labels = append(labels, b.Label)
			}
			text += "\n[" + strings.Join(labels, " | ") + "]"
		}
		out = append(out, schema.AssistantMessage(text, nil))
	}
	return out
}

package agent

import (
	"strings"
	"time"

	"github.com/tbxark/enquirybot/dialogue"
	"github.com/tbxark/enquirybot/types"
)

type EventKind string

const (
	EventText   EventKind = "text"
	EventButton EventKind = "button"
	EventCancel EventKind = "cancel"
)

// Event is one user input delivered to the flow.
type Event struct {
	Kind    EventKind `json:"kind"`
	Text    string    `json:"text,omitempty"`
	Payload string    `json:"payload,omitempty"`
}

func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

func ButtonEvent(payload string) Event {
	return Event{Kind: EventButton, Payload: payload}
}

func CancelEvent() Event {
	return Event{Kind: EventCancel}
}

// Session is the persisted state of one conversation.
type Session struct {
	State     types.State  `json:"state"`
	Record    types.Record `json:"record"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Response struct {
	Messages []dialogue.Message `json:"messages"`
	State    types.State        `json:"state"`
	Record   types.Record       `json:"record"`
	Metadata map[string]string  `json:"metadata,omitempty"`
}

// Text joins the text of all messages.
func (r *Response) Text() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n\n")
}

package dialogue

// Button is one choice of a menu prompt. Value is returned as the click payload.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is a single outbound prompt.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

func Text(text string) Message {
	return Message{Text: text}
}

func (m Message) HasButtons() bool {
	return len(m.Buttons) > 0
}

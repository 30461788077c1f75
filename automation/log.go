package automation

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Entry is one browser interaction recorded during a fill.
type Entry struct {
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type InteractionLog struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewInteractionLog() *InteractionLog {
	return &InteractionLog{now: time.Now}
}

func (l *InteractionLog) Record(action, target string, err error) {
	entry := Entry{Action: action, Target: target, Outcome: OutcomeOK}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Detail = err.Error()
	}
	l.add(entry)
}

func (l *InteractionLog) add(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.Timestamp = l.now()
	l.entries = append(l.entries, entry)
}

func (l *InteractionLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *InteractionLog) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(l.Entries())
}

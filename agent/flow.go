package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/enquirybot/automation"
	"github.com/tbxark/enquirybot/command"
	"github.com/tbxark/enquirybot/dialogue"
	"github.com/tbxark/enquirybot/metrics"
	"github.com/tbxark/enquirybot/patch"
	"github.com/tbxark/enquirybot/responder"
	"github.com/tbxark/enquirybot/types"
	"github.com/tbxark/enquirybot/validate"
)

// Filler pre-fills the enquiry form from a completed record.
type Filler interface {
	Fill(ctx context.Context, rec types.Record) *automation.Result
}

// ErrAborted is returned when the conversation was cancelled while an
// input was being handled. Nothing is committed in that case.
var ErrAborted = errors.New("conversation aborted")

var editablePaths = patch.AllowedPaths(types.EditableFields...)

type FlowOption func(*Flow)

func WithCommandParser(parser command.Parser) FlowOption {
	return func(f *Flow) {
		f.commands = parser
	}
}

func WithTranscript(transcript Transcript) FlowOption {
	return func(f *Flow) {
		f.transcript = transcript
	}
}

func WithFlowMetrics(m *metrics.Metrics) FlowOption {
	return func(f *Flow) {
		f.metrics = m
	}
}

// WithIdleTimeout ends conversations left unanswered for longer than d.
func WithIdleTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		f.idleTimeout = d
	}
}

// Flow is the intake dialogue. It is safe for concurrent use across
// conversations; inputs of one conversation must be serialised by the caller.
type Flow struct {
	sessions    StateReadWriter
	responder   responder.Responder
	filler      Filler
	commands    command.Parser
	transcript  Transcript
	metrics     *metrics.Metrics
	idleTimeout time.Duration
	now         func() time.Time
}

func NewFlow(sessions StateReadWriter, resp responder.Responder, filler Filler, opts ...FlowOption) *Flow {
	f := &Flow{
		sessions:  sessions,
		responder: resp,
		filler:    filler,
		commands:  command.NewLocalCommandParser(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// step is the outcome of handling one event.
type step struct {
	next     Session
	messages []dialogue.Message
	discard  bool
	rejected bool
	metadata map[string]string
}

func (f *Flow) Start(ctx context.Context) (*Response, error) {
	from := types.StateGreeting
	if current, ok, err := f.sessions.Read(ctx); err == nil && ok {
		from = current.State
	}
	if f.transcript != nil {
		if err := f.transcript.Clear(ctx); err != nil {
			slog.Warn("Failed to clear transcript", "error", err)
		}
	}
	return f.commit(ctx, from, TextEvent("/start"), f.greet())
}

func (f *Flow) Invoke(ctx context.Context, ev Event) (*Response, error) {
	if ev.Kind == EventCancel {
		return f.cancel(ctx, ev)
	}
	current, ok, err := f.sessions.Read(ctx)
	if err != nil {
		return f.handleError(fmt.Errorf("failed to load session: %w", err), Session{State: types.StateGreeting})
	}
	if !ok {
		slog.Debug("No session, starting conversation")
		return f.commit(ctx, types.StateGreeting, ev, f.greet())
	}
	if f.idle(current) {
		slog.Info("Session idle, ending conversation", "state", current.State, "updated_at", current.UpdatedAt)
		return f.commit(ctx, current.State, ev, step{
			next:     Session{State: types.StateEnd},
			messages: []dialogue.Message{dialogue.TimedOut()},
			discard:  true,
		})
	}

	slog.Debug("Handling event", "state", current.State, "kind", ev.Kind)
	st := f.handle(ctx, *current, ev)
	if st.rejected {
		f.metrics.ObserveRejection(string(current.State))
	}
	return f.commit(ctx, current.State, ev, st)
}

func (f *Flow) idle(s *Session) bool {
	return f.idleTimeout > 0 && !s.State.Terminal() && !s.UpdatedAt.IsZero() &&
		f.now().Sub(s.UpdatedAt) > f.idleTimeout
}

func (f *Flow) greet() step {
	return step{
		next:     Session{State: types.StateCaptureName},
		messages: []dialogue.Message{dialogue.Greeting()},
	}
}

func (f *Flow) handle(ctx context.Context, s Session, ev Event) step {
	switch s.State {
	case types.StateGreeting:
		return f.greet()
	case types.StateCaptureName:
		return f.onText(s, ev, func(text string) step {
			s.Record.DisplayName = text
			return f.advance(s, types.StateFreeQuestion)
		})
	case types.StateFreeQuestion:
		if ev.Kind != EventText {
			return f.reject(s, dialogue.Prompt(s.State, s.Record))
		}
		return f.answerQuestion(ctx, s, ev.Text)
	case types.StateOfferHandoff:
		return f.onText(s, ev, func(text string) step {
			if command.Affirmative(text) {
				return f.advance(s, types.StateSalutation)
			}
			return step{next: endSession(), messages: []dialogue.Message{dialogue.ContinueChatting()}}
		})
	case types.StateSalutation:
		return onButton(f, s, ev, types.Salutations, func(v types.Salutation) step {
			s.Record.Salutation = v
			return f.advance(s, types.StateFullName)
		})
	case types.StateFullName:
		return f.onText(s, ev, func(text string) step {
			s.Record.FullName = text
			return f.advance(s, types.StateContact)
		})
	case types.StateContact:
		return f.onRawText(s, ev, func(text string) step {
			if !validate.Phone(text) {
				return f.reject(s, dialogue.InvalidContact())
			}
			s.Record.Contact = text
			return f.advance(s, types.StateEmail)
		})
	case types.StateEmail:
		return f.onRawText(s, ev, func(text string) step {
			if !validate.Email(text) {
				return f.reject(s, dialogue.InvalidEmail())
			}
			s.Record.Email = text
			return f.advance(s, types.StateBestTime)
		})
	case types.StateBestTime:
		return onButton(f, s, ev, types.BestTimes, func(v types.BestTime) step {
			s.Record.BestTime = v
			return f.advance(s, types.StateEnquiryNature)
		})
	case types.StateEnquiryNature:
		return onButton(f, s, ev, types.Enquiries, func(v types.Enquiry) step {
			s.Record.EnquiryNature = v
			return f.advance(s, types.StateConfirm)
		})
	case types.StateConfirm:
		if ev.Kind != EventText {
			return f.reject(s, dialogue.ConfirmOptions())
		}
		return f.confirm(ctx, s, ev.Text)
	case types.StateEnd:
		if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
			return step{next: s, messages: []dialogue.Message{dialogue.ContinueChatting()}}
		}
		return f.answerAfterIntake(ctx, s, ev.Text)
	default:
		slog.Warn("Unknown state, restarting", "state", s.State)
		return f.greet()
	}
}

// onText accepts non-blank text; anything else re-prompts the current state.
func (f *Flow) onText(s Session, ev Event, accept func(text string) step) step {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || text == "" {
		return f.reject(s, dialogue.Prompt(s.State, s.Record))
	}
	return accept(text)
}

// onRawText is onText for validated fields: the value must match as typed.
func (f *Flow) onRawText(s Session, ev Event, accept func(text string) step) step {
	if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
		return f.reject(s, dialogue.Prompt(s.State, s.Record))
	}
	return accept(ev.Text)
}

// onButton accepts a button payload from options; text re-prompts with the menu.
func onButton[C types.Choice](f *Flow, s Session, ev Event, options []C, accept func(C) step) step {
	if ev.Kind == EventButton {
		if value, ok := types.ParseChoice(options, ev.Payload); ok {
			return accept(value)
		}
	}
	return f.reject(s, dialogue.ChooseButton(), dialogue.Prompt(s.State, s.Record))
}

func (f *Flow) advance(s Session, next types.State) step {
	s.State = next
	return step{next: s, messages: []dialogue.Message{dialogue.Prompt(next, s.Record)}}
}

func (f *Flow) reject(s Session, msgs ...dialogue.Message) step {
	return step{next: s, messages: msgs, rejected: true}
}

func (f *Flow) answerQuestion(ctx context.Context, s Session, question string) step {
	var msgs []dialogue.Message
	answer, err := f.responder.Ask(ctx, question)
	switch {
	case err != nil:
		slog.Error("Failed to answer question", "error", err)
		msgs = append(msgs, dialogue.Apology())
	case answer != "":
		msgs = append(msgs, dialogue.Text(answer))
	}
	s.State = types.StateOfferHandoff
	msgs = append(msgs, dialogue.Prompt(s.State, s.Record))
	return step{next: s, messages: msgs}
}

func (f *Flow) answerAfterIntake(ctx context.Context, s Session, question string) step {
	answer, err := f.responder.Ask(ctx, question)
	if err != nil {
		slog.Error("Failed to answer question", "error", err)
		return step{next: s, messages: []dialogue.Message{dialogue.QuestionFailed()}}
	}
	var msgs []dialogue.Message
	if answer != "" {
		msgs = append(msgs, dialogue.Text(answer))
	}
	return step{next: s, messages: msgs}
}

func (f *Flow) confirm(ctx context.Context, s Session, text string) step {
	cmd, err := f.commands.ParseCommand(ctx, text)
	if err != nil {
		slog.Warn("Failed to parse command", "error", err)
		cmd = command.None
	}
	slog.Debug("Parsed command", "command", cmd)
	switch cmd {
	case command.Submit:
		return f.submit(ctx, s)
	case command.Edit:
		slog.Debug("Resetting editable fields", "fields", types.EditableFields)
		rec, pErr := patch.ApplyRFC6902(s.Record, patch.RemoveAll(types.EditableFields...), editablePaths)
		if pErr != nil {
			return step{
				next:     s,
				messages: []dialogue.Message{dialogue.ErrorMessage(pErr)},
				metadata: map[string]string{"error": pErr.Error()},
			}
		}
		s.Record = rec
		s.State = types.StateFullName
		return step{next: s, messages: []dialogue.Message{dialogue.EditRestart()}}
	case command.Cancel:
		return step{
			next:     Session{State: types.StateEnd},
			messages: []dialogue.Message{dialogue.Cancelled()},
			discard:  true,
		}
	default:
		return f.reject(s, dialogue.ConfirmOptions())
	}
}

// submit runs the fill once. It is not preempted by a cancellation of the
// conversation, so a started fill always closes its browser.
func (f *Flow) submit(ctx context.Context, s Session) step {
	conversation, _ := StateKeyFromContext(ctx)
	slog.Info("Submitting enquiry", "conversation", conversation)
	res := f.filler.Fill(context.WithoutCancel(ctx), s.Record)
	if res.OK() {
		return step{
			next:     endSession(),
			messages: []dialogue.Message{dialogue.Submitted(res.URL)},
			metadata: map[string]string{"fill_id": res.ID, "url": res.URL},
		}
	}
	metadata := map[string]string{}
	if res != nil {
		metadata["fill_id"] = res.ID
		if res.Err != nil {
			metadata["error"] = res.Err.Error()
		}
	}
	return step{next: endSession(), messages: []dialogue.Message{dialogue.FillFailed()}, metadata: metadata}
}

// endSession keeps the conversation open for questions after the intake
// without holding on to the collected record.
func endSession() Session {
	return Session{State: types.StateEnd}
}

func (f *Flow) cancel(ctx context.Context, ev Event) (*Response, error) {
	from := types.StateGreeting
	if current, ok, err := f.sessions.Read(ctx); err == nil && ok {
		from = current.State
	}
	return f.commit(ctx, from, ev, step{
		next:     Session{State: types.StateEnd},
		messages: []dialogue.Message{dialogue.Cancelled()},
		discard:  true,
	})
}

func (f *Flow) commit(ctx context.Context, from types.State, ev Event, st step) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}
	var err error
	if st.discard {
		err = f.sessions.Remove(ctx)
	} else {
		st.next.UpdatedAt = f.now()
		err = f.sessions.Write(ctx, &st.next)
	}
	if err != nil {
		return f.handleError(fmt.Errorf("failed to save session: %w", err), Session{State: from})
	}
	f.metrics.ObserveTransition(string(from), string(st.next.State))
	slog.Debug("Committed transition", "from", from, "to", st.next.State)
	f.record(ctx, ev, st)
	return &Response{
		Messages: st.messages,
		State:    st.next.State,
		Record:   st.next.Record,
		Metadata: st.metadata,
	}, nil
}

func (f *Flow) record(ctx context.Context, ev Event, st step) {
	if f.transcript == nil {
		return
	}
	var err error
	if st.discard {
		err = f.transcript.Clear(ctx)
	} else {
		err = f.transcript.Append(ctx, append([]*schema.Message{eventMessage(ev)}, replyMessages(st.messages)...)...)
	}
	if err != nil {
		slog.Warn("Failed to record transcript", "error", err)
	}
}

func (f *Flow) handleError(err error, s Session) (*Response, error) {
	slog.Error("Flow error", "error", err)
	return &Response{
		Messages: []dialogue.Message{dialogue.ErrorMessage(err)},
		State:    s.State,
		Record:   s.Record,
		Metadata: map[string]string{
			"error": err.Error(),
		},
	}, nil
}

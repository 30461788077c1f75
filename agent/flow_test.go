package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/enquirybot/automation"
	"github.com/tbxark/enquirybot/dialogue"
	"github.com/tbxark/enquirybot/responder"
	"github.com/tbxark/enquirybot/types"
)

type fakeFiller struct {
	calls  atomic.Int32
	result *automation.Result
	last   types.Record
}

func (f *fakeFiller) Fill(ctx context.Context, rec types.Record) *automation.Result {
	f.calls.Add(1)
	f.last = rec
	return f.result
}

type failingResponder struct{}

func (failingResponder) Ask(ctx context.Context, question string) (string, error) {
	return "", errors.New("upstream unavailable")
}

var filledRecord = types.Record{
	DisplayName:   "John",
	Salutation:    types.SalutationMr,
	FullName:      "John Tan",
	Contact:       "+6591234567",
	Email:         "john@example.com",
	BestTime:      types.BestTimeMorning,
	EnquiryNature: types.EnquiryLondon,
}

func newTestFlow(filler Filler, opts ...FlowOption) (*Flow, *SessionStore) {
	store := NewMemorySessionStore(0)
	return NewFlow(store, responder.StaticResponder{Answer: "We finance properties abroad."}, filler, opts...), store
}

func okFiller() *fakeFiller {
	return &fakeFiller{result: &automation.Result{ID: "fill-1", URL: "https://example.test/form?done"}}
}

func texts(resp *Response) []string {
	var out []string
	for _, m := range resp.Messages {
		out = append(out, m.Text)
	}
	return out
}

func TestFlowFullScenario(t *testing.T) {
	filler := okFiller()
	flow, store := newTestFlow(filler)
	ctx := WithStateKey(context.Background(), "chat-1")

	steps := []struct {
		event Event
		state types.State
	}{
		{TextEvent("John"), types.StateFreeQuestion},
		{TextEvent("What rates do you offer?"), types.StateOfferHandoff},
		{TextEvent(" Yes "), types.StateSalutation},
		{ButtonEvent("Mr"), types.StateFullName},
		{TextEvent("John Tan"), types.StateContact},
		{TextEvent("91234567"), types.StateContact},
		{TextEvent(" +6591234567 "), types.StateContact},
		{TextEvent("+6591234567"), types.StateEmail},
		{TextEvent("john@example"), types.StateEmail},
		{TextEvent("john@example.com "), types.StateEmail},
		{TextEvent("john@example.com"), types.StateBestTime},
		{ButtonEvent("9am - 1pm"), types.StateEnquiryNature},
		{TextEvent("London"), types.StateEnquiryNature},
		{ButtonEvent("London Property Financing"), types.StateConfirm},
		{TextEvent("SUBMIT"), types.StateEnd},
	}

	resp, err := flow.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StateCaptureName, resp.State)
	assert.Contains(t, resp.Text(), "Kelvin")

	for i, s := range steps {
		resp, err = flow.Invoke(ctx, s.event)
		require.NoError(t, err, "step %d", i)
		require.Equal(t, s.state, resp.State, "step %d", i)
		require.NotEmpty(t, resp.Messages, "step %d", i)
	}

	assert.Equal(t, int32(1), filler.calls.Load())
	assert.Equal(t, filledRecord, filler.last)
	assert.Contains(t, resp.Text(), "https://example.test/form?done")
	assert.Equal(t, "fill-1", resp.Metadata["fill_id"])

	sess, ok, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.StateEnd, sess.State)
	assert.Equal(t, types.Record{}, sess.Record)
}

func TestFlowSubmitFailure(t *testing.T) {
	filler := &fakeFiller{result: &automation.Result{ID: "fill-2", Err: automation.ErrFormNotReady}}
	flow, store := newTestFlow(filler)
	ctx := WithStateKey(context.Background(), "chat-2")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateConfirm, Record: filledRecord}))

	resp, err := flow.Invoke(ctx, TextEvent("submit"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEnd, resp.State)
	assert.Contains(t, resp.Text(), dialogue.FallbackContact)
	assert.Equal(t, "form not ready", resp.Metadata["error"])
	assert.Equal(t, int32(1), filler.calls.Load())
}

func TestFlowRejectionIsIdempotent(t *testing.T) {
	for _, state := range []types.State{types.StateContact, types.StateEmail} {
		t.Run(string(state), func(t *testing.T) {
			flow, store := newTestFlow(okFiller())
			ctx := WithStateKey(context.Background(), "chat-"+string(state))
			rec := types.Record{DisplayName: "Jo", Salutation: types.SalutationMs, FullName: "Jo Lim"}
			if state == types.StateEmail {
				rec.Contact = "+6598765432"
			}
			require.NoError(t, store.Write(ctx, &Session{State: state, Record: rec}))

			first, err := flow.Invoke(ctx, TextEvent("not valid"))
			require.NoError(t, err)
			second, err := flow.Invoke(ctx, TextEvent("not valid"))
			require.NoError(t, err)

			assert.Equal(t, state, first.State)
			assert.Equal(t, texts(first), texts(second))
			assert.Equal(t, rec, second.Record)
			sess, _, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, rec, sess.Record)
		})
	}
}

func TestFlowValidatesContactAsTyped(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	ctx := WithStateKey(context.Background(), "chat-raw")
	rec := types.Record{DisplayName: "Jo", Salutation: types.SalutationMs, FullName: "Jo Lim"}
	require.NoError(t, store.Write(ctx, &Session{State: types.StateContact, Record: rec}))

	for _, input := range []string{" +6591234567", "+6591234567 ", "+65 9123 4567"} {
		resp, err := flow.Invoke(ctx, TextEvent(input))
		require.NoError(t, err)
		assert.Equal(t, types.StateContact, resp.State, "%q", input)
		assert.Empty(t, resp.Record.Contact, "%q", input)
	}

	resp, err := flow.Invoke(ctx, TextEvent("+6591234567"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEmail, resp.State)

	resp, err = flow.Invoke(ctx, TextEvent(" jo@example.com"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEmail, resp.State)
	assert.Empty(t, resp.Record.Email)
}

func TestFlowTotality(t *testing.T) {
	events := map[string]Event{
		"text":           TextEvent("hello"),
		"blank":          TextEvent("   "),
		"button":         ButtonEvent("Mr"),
		"unknown_button": ButtonEvent("nope"),
		"cancel":         CancelEvent(),
	}
	for _, state := range types.States {
		for name, ev := range events {
			t.Run(string(state)+"/"+name, func(t *testing.T) {
				flow, store := newTestFlow(okFiller())
				ctx := WithStateKey(context.Background(), "totality")
				require.NoError(t, store.Write(ctx, &Session{State: state, Record: filledRecord, UpdatedAt: time.Now()}))

				resp, err := flow.Invoke(ctx, ev)
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.NotEmpty(t, resp.Messages)
				assert.Contains(t, types.States, resp.State)
				assert.Empty(t, resp.Metadata["error"])
			})
		}
	}
}

func TestFlowEditKeepsSalutation(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	ctx := WithStateKey(context.Background(), "chat-edit")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateConfirm, Record: filledRecord}))

	resp, err := flow.Invoke(ctx, TextEvent("Edit"))
	require.NoError(t, err)
	assert.Equal(t, types.StateFullName, resp.State)
	assert.Equal(t, types.Record{DisplayName: "John", Salutation: types.SalutationMr}, resp.Record)

	resp, err = flow.Invoke(ctx, TextEvent("John Tan Jr"))
	require.NoError(t, err)
	assert.Equal(t, types.StateContact, resp.State)
	assert.Contains(t, resp.Text(), "John Tan Jr")
}

func TestFlowConfirmUnknownInput(t *testing.T) {
	filler := okFiller()
	flow, store := newTestFlow(filler)
	ctx := WithStateKey(context.Background(), "chat-confirm")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateConfirm, Record: filledRecord}))

	resp, err := flow.Invoke(ctx, TextEvent("maybe"))
	require.NoError(t, err)
	assert.Equal(t, types.StateConfirm, resp.State)
	assert.Contains(t, resp.Text(), "'submit'")
	assert.Zero(t, filler.calls.Load())
}

func TestFlowCancelDiscardsSession(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	ctx := WithStateKey(context.Background(), "chat-cancel")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateEmail, Record: filledRecord}))

	resp, err := flow.Invoke(ctx, CancelEvent())
	require.NoError(t, err)
	assert.Equal(t, types.StateEnd, resp.State)
	assert.Equal(t, []string{dialogue.Cancelled().Text}, texts(resp))

	_, ok, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	resp, err = flow.Invoke(ctx, TextEvent("hi again"))
	require.NoError(t, err)
	assert.Equal(t, types.StateCaptureName, resp.State, "a new conversation starts")
}

func TestFlowDeclineHandoff(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	ctx := WithStateKey(context.Background(), "chat-decline")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateOfferHandoff}))

	resp, err := flow.Invoke(ctx, TextEvent("no thanks"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEnd, resp.State)
	assert.Equal(t, []string{dialogue.ContinueChatting().Text}, texts(resp))

	resp, err = flow.Invoke(ctx, TextEvent("Do you finance Tokyo flats?"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEnd, resp.State)
	assert.Equal(t, []string{"We finance properties abroad."}, texts(resp))
}

func TestFlowResponderFailureStillAdvances(t *testing.T) {
	store := NewMemorySessionStore(0)
	flow := NewFlow(store, failingResponder{}, okFiller())
	ctx := WithStateKey(context.Background(), "chat-apology")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateFreeQuestion, Record: types.Record{DisplayName: "Ann"}}))

	resp, err := flow.Invoke(ctx, TextEvent("rates?"))
	require.NoError(t, err)
	assert.Equal(t, types.StateOfferHandoff, resp.State)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, dialogue.Apology(), resp.Messages[0])
}

func TestFlowButtonStepRejectsText(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	ctx := WithStateKey(context.Background(), "chat-button")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateSalutation}))

	resp, err := flow.Invoke(ctx, TextEvent("Mr"))
	require.NoError(t, err)
	assert.Equal(t, types.StateSalutation, resp.State)
	require.Len(t, resp.Messages, 2)
	assert.True(t, resp.Messages[1].HasButtons())
	assert.Empty(t, resp.Record.Salutation)
}

func TestFlowDoesNotCommitAfterCancellation(t *testing.T) {
	flow, store := newTestFlow(okFiller())
	base := WithStateKey(context.Background(), "chat-abort")
	require.NoError(t, store.Write(base, &Session{State: types.StateFullName}))

	ctx, cancel := context.WithCancel(base)
	cancel()
	_, err := flow.Invoke(ctx, TextEvent("John Tan"))
	require.ErrorIs(t, err, ErrAborted)

	sess, ok, err := store.Read(base)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.StateFullName, sess.State)
	assert.Empty(t, sess.Record.FullName)
}

func TestFlowIdleTimeout(t *testing.T) {
	flow, store := newTestFlow(okFiller(), WithIdleTimeout(15*time.Minute))
	ctx := WithStateKey(context.Background(), "chat-idle")
	require.NoError(t, store.Write(ctx, &Session{State: types.StateEmail, UpdatedAt: time.Now().Add(-time.Hour)}))

	resp, err := flow.Invoke(ctx, TextEvent("john@example.com"))
	require.NoError(t, err)
	assert.Equal(t, types.StateEnd, resp.State)
	assert.Equal(t, []string{dialogue.TimedOut().Text}, texts(resp))
	_, ok, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowTranscript(t *testing.T) {
	transcript := NewTranscriptStore(NewMemoryCache[[]*schema.Message](0), 0)
	flow, _ := newTestFlow(okFiller(), WithTranscript(transcript))
	ctx := WithStateKey(context.Background(), "chat-transcript")

	_, err := flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Invoke(ctx, TextEvent("John"))
	require.NoError(t, err)

	hist, err := transcript.Load(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 4)
	assert.Equal(t, schema.User, hist[2].Role)
	assert.Equal(t, "John", hist[2].Content)
	assert.Equal(t, schema.Assistant, hist[3].Role)

	_, err = flow.Invoke(ctx, CancelEvent())
	require.NoError(t, err)
	hist, err = transcript.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestConversationsAreIsolated(t *testing.T) {
	flow, _ := newTestFlow(okFiller())
	a := WithStateKey(context.Background(), "a")
	b := WithStateKey(context.Background(), "b")

	_, err := flow.Start(a)
	require.NoError(t, err)
	resp, err := flow.Invoke(a, TextEvent("Alice"))
	require.NoError(t, err)
	assert.Equal(t, types.StateFreeQuestion, resp.State)

	resp, err = flow.Invoke(b, TextEvent("Bob"))
	require.NoError(t, err)
	assert.Equal(t, types.StateCaptureName, resp.State)
}

package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/enquirybot/agent"
	"github.com/tbxark/enquirybot/automation"
	"github.com/tbxark/enquirybot/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(id string, started time.Time) *automation.Result {
	log := automation.NewInteractionLog()
	log.Record("navigate", "https://example.test/form", nil)
	return &automation.Result{
		ID:  id,
		URL: "https://example.test/form?filled",
		Fields: []automation.FieldOutcome{
			{Field: automation.FieldSalutation, Strategy: "radio_by_value"},
			{Field: automation.FieldEnquiryNature, Err: &automation.FieldFillError{Field: "enquiryNature", Err: automation.ErrNotFound}},
		},
		Log:        log,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestSaveAndListFills(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.SaveFill(ctx, "chat-1", sampleResult("f1", base), []*schema.Message{schema.UserMessage("submit")}))
	require.NoError(t, store.SaveFill(ctx, "chat-1", sampleResult("f2", base.Add(time.Minute)), nil))
	require.NoError(t, store.SaveFill(ctx, "chat-2", sampleResult("f3", base), nil))

	fills, err := store.ListFills(ctx, "chat-1", 10)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "f2", fills[0].ID)

	f := fills[1]
	assert.Equal(t, "partial", f.Outcome)
	assert.Equal(t, "https://example.test/form?filled", f.URL)
	require.Len(t, f.Fields, 2)
	assert.Equal(t, "radio_by_value", f.Fields[0].Strategy)
	assert.Contains(t, f.Fields[1].Error, "element not found")
	require.Len(t, f.Log, 1)
	assert.Equal(t, "navigate", f.Log[0].Action)
	require.Len(t, f.Transcript, 1)
	assert.Equal(t, "submit", f.Transcript[0].Content)
	assert.True(t, f.StartedAt.Equal(base))
}

func TestSaveFailedFill(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	res := &automation.Result{ID: "f1", Err: errors.New("boom"), StartedAt: time.Now(), FinishedAt: time.Now()}
	require.NoError(t, store.SaveFill(ctx, "chat", res, nil))

	fills, err := store.ListFills(ctx, "chat", 1)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "failed", fills[0].Outcome)
	assert.Equal(t, "boom", fills[0].Error)
	assert.Empty(t, fills[0].Log)
}

type stubFiller struct {
	res *automation.Result
}

func (s stubFiller) Fill(ctx context.Context, rec types.Record) *automation.Result {
	return s.res
}

func TestRecordingFiller(t *testing.T) {
	store := openTestStore(t)
	transcript := agent.NewTranscriptStore(agent.NewMemoryCache[[]*schema.Message](0), 0)
	ctx := agent.WithStateKey(context.Background(), "chat-9")
	require.NoError(t, transcript.Append(ctx, schema.UserMessage("submit")))

	want := sampleResult("f9", time.Now())
	filler := NewRecordingFiller(stubFiller{res: want}, store, transcript)
	got := filler.Fill(context.WithoutCancel(ctx), types.Record{})
	assert.Same(t, want, got)

	fills, err := store.ListFills(context.Background(), "chat-9", 5)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "f9", fills[0].ID)
	require.Len(t, fills[0].Transcript, 1)
}

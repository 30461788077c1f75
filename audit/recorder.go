package audit

import (
	"context"
	"log/slog"

	"github.com/tbxark/enquirybot/agent"
	"github.com/tbxark/enquirybot/automation"
	"github.com/tbxark/enquirybot/types"
)

// RecordingFiller persists every fill made through it, together with the
// conversation transcript when one is configured.
type RecordingFiller struct {
	next       agent.Filler
	store      *Store
	transcript agent.Transcript
}

func NewRecordingFiller(next agent.Filler, store *Store, transcript agent.Transcript) *RecordingFiller {
	return &RecordingFiller{next: next, store: store, transcript: transcript}
}

func (r *RecordingFiller) Fill(ctx context.Context, rec types.Record) *automation.Result {
	res := r.next.Fill(ctx, rec)
	conversation, _ := agent.StateKeyFromContext(ctx)
	var err error
	if r.transcript != nil {
		hist, lErr := r.transcript.Load(ctx)
		if lErr != nil {
			slog.Warn("Failed to load transcript", "conversation", conversation, "error", lErr)
		}
		err = r.store.SaveFill(ctx, conversation, res, hist)
	} else {
		err = r.store.SaveFill(ctx, conversation, res, nil)
	}
	if err != nil {
		slog.Error("Failed to record fill", "conversation", conversation, "error", err)
	}
	return res
}

var _ agent.Filler = (*RecordingFiller)(nil)

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMissing(t *testing.T) {
	var rec Record
	require.Len(t, rec.Missing(), 6)
	assert.False(t, rec.Complete())

	rec = Record{
		Salutation:    SalutationMr,
		FullName:      "John Tan",
		Contact:       "+6591234567",
		Email:         "john@example.com",
		BestTime:      BestTimeNoPreference,
		EnquiryNature: EnquiryLondon,
	}
	assert.Empty(t, rec.Missing())
	assert.True(t, rec.Complete())

	rec.EnquiryNature = "Paris Property Financing"
	missing := rec.Missing()
	require.Len(t, missing, 1)
	assert.Equal(t, "/enquiry_nature", missing[0].JSONPointer)
}

func TestParseChoice(t *testing.T) {
	got, ok := ParseChoice(Salutations, "Dr")
	require.True(t, ok)
	assert.Equal(t, SalutationDr, got)

	_, ok = ParseChoice(Salutations, "dr")
	assert.False(t, ok, "choices match exactly")

	_, ok = ParseChoice(BestTimes, "")
	assert.False(t, ok)

	bt, ok := ParseChoice(BestTimes, "9am - 1pm")
	require.True(t, ok)
	assert.Equal(t, BestTimeMorning, bt)
}

func TestStateClassification(t *testing.T) {
	for _, s := range States {
		assert.Equal(t, s == StateEnd, s.Terminal(), s)
	}
	assert.True(t, StateSalutation.ButtonDriven())
	assert.True(t, StateBestTime.ButtonDriven())
	assert.True(t, StateEnquiryNature.ButtonDriven())
	assert.False(t, StateContact.ButtonDriven())
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(Record{
		Salutation: SalutationMs,
		FullName:   "Jane Lim",
		Contact:    "+6598765432",
	})
	assert.Contains(t, out, "Jane Lim")
	assert.Contains(t, out, "+6598765432")
	assert.Contains(t, out, "Ms")
	assert.Contains(t, out, "Nature of Enquiry")
}

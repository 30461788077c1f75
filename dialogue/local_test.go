package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/enquirybot/types"
)

func TestPromptButtonSteps(t *testing.T) {
	cases := map[types.State]int{
		types.StateSalutation:    len(types.Salutations),
		types.StateBestTime:      len(types.BestTimes),
		types.StateEnquiryNature: len(types.Enquiries),
	}
	for state, n := range cases {
		msg := Prompt(state, types.Record{})
		require.Len(t, msg.Buttons, n, state)
		for _, b := range msg.Buttons {
			assert.Equal(t, b.Label, b.Value)
		}
	}
}

func TestPromptTextSteps(t *testing.T) {
	for _, state := range types.States {
		msg := Prompt(state, types.Record{})
		assert.NotEmpty(t, msg.Text, state)
		assert.Equal(t, state.ButtonDriven(), msg.HasButtons(), state)
	}
}

func TestConfirmationIncludesRecord(t *testing.T) {
	msg := Confirmation(types.Record{
		Salutation:    types.SalutationMr,
		FullName:      "John Tan",
		Contact:       "+6591234567",
		Email:         "john@example.com",
		BestTime:      types.BestTimeNoPreference,
		EnquiryNature: types.EnquiryLondon,
	})
	for _, want := range []string{"John Tan", "+6591234567", "john@example.com", "No preference", "London Property Financing", FormReferenceURL, "'submit'"} {
		assert.Contains(t, msg.Text, want)
	}
}

func TestFillFailedNamesFallbackChannel(t *testing.T) {
	assert.Contains(t, FillFailed().Text, FallbackContact)
	assert.Contains(t, Submitted("https://example.com/form?x=1").Text, "https://example.com/form?x=1")
}

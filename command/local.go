package command

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// LocalCommandParser matches the confirmation keywords exactly after normalisation.
type LocalCommandParser struct {
	SubmitKeywords []string
	EditKeywords   []string
	CancelKeywords []string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		SubmitKeywords: []string{"submit"},
		EditKeywords:   []string{"edit"},
		CancelKeywords: []string{"cancel"},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := Normalize(input)
	switch {
	case slices.Contains(p.SubmitKeywords, normalized):
		return Submit, nil
	case slices.Contains(p.EditKeywords, normalized):
		return Edit, nil
	case slices.Contains(p.CancelKeywords, normalized):
		return Cancel, nil
	}
	return None, nil
}

// AffirmativeKeywords are the replies accepted as consent to be contacted.
var AffirmativeKeywords = []string{"yes", "y", "sure", "okay"}

// Affirmative reports whether input is one of AffirmativeKeywords.
func Affirmative(input string) bool {
	return slices.Contains(AffirmativeKeywords, Normalize(input))
}

// Normalize folds compatibility characters, trims and lowercases input.
func Normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(input)))
}

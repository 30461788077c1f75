package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	cases := map[string]bool{
		"+6591234567":   true,
		"+1":            true,
		"6591234567":    false,
		"+65-9123":      false,
		"+65 9123 4567": false,
		"+":             false,
		"":              false,
		"++6591234567":  false,
		"+6591234567\n": false,
		"+65abc":        false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Phone(in), "Phone(%q)", in)
	}
}

func TestEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":              true,
		"john@example.com":     true,
		"first.last+x@a-b.com": true,
		"a@b.co":               false,
		"a.com":                false,
		"a@@b.com":             false,
		"@b.com":               false,
		"a@.com":               false,
		"a@b.com.sg":           false,
		"a b@c.com":            false,
		"":                     false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Email(in), "Email(%q)", in)
	}
}

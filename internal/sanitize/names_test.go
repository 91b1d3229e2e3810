package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameScrubberEmptyIsNoop(t *testing.T) {
	for _, ns := range []*NameScrubber{nil, NewNameScrubber(nil), NewNameScrubber([]string{"", "  "})} {
		assert.Equal(t, 0, ns.Len())
		assert.Equal(t, "Alice met Bob", ns.Scrub("Alice met Bob"))
	}
}

func TestNameScrubberWholeWordCaseInsensitive(t *testing.T) {
	ns := NewNameScrubber([]string{"bob", "Alice"})
	cases := map[string]string{
		"alice met BOB.":        "<name> met <name>.",
		"Bobby and Alicea":      "Bobby and Alicea",
		"bob_2 says hi":         "bob_2 says hi",
		"(Bob)":                 "(<name>)",
		"bob":                   "<name>",
		"ask bob's friend":      "ask <name>'s friend",
		"séance with bob-alice": "séance with <name>-<name>",
	}
	for in, want := range cases {
		assert.Equal(t, want, ns.Scrub(in), "input %q", in)
	}
}

func TestNameScrubberLongestFirst(t *testing.T) {
	ns := NewNameScrubber([]string{"ann", "Ann Lee"})
	assert.Equal(t, 2, ns.Len())
	assert.Equal(t, "hi <name>!", ns.Scrub("hi ann lee!"))
	assert.Equal(t, "hi <name> leex", ns.Scrub("hi ann leex"))
}

func TestNameScrubberUnicode(t *testing.T) {
	ns := NewNameScrubber([]string{"józef", "ÉMILE"})
	assert.Equal(t, "<name> and <name>", ns.Scrub("JÓZEF and émile"))
	assert.Equal(t, "Józefa", ns.Scrub("Józefa"))
}

func TestNameScrubberDedup(t *testing.T) {
	ns := NewNameScrubber([]string{"Bob", "bob", " BOB "})
	assert.Equal(t, 1, ns.Len())
}

func TestNameScrubberPlaceholderNotRematched(t *testing.T) {
	ns := NewNameScrubber([]string{"name", "nora"})
	assert.Equal(t, "<name> <name>", ns.Scrub("Nora name"))
}

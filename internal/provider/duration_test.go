package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISO8601Duration(t *testing.T) {
	cases := map[string]int{
		"PT1H30M45S": 5445,
		"PT0S":       0,
		"":           0,
		"PT4M13S":    253,
		"PT1H":       3600,
		"P1D":        86400,
		"P0D":        0,
		"PT15M":      900,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseISO8601Duration(input), "input %q", input)
	}
}

func TestChunk(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunk(ids, 2))
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, chunk(ids, 50))
	assert.Nil(t, chunk(nil, 50))
}

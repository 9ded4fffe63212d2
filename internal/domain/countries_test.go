package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

func TestCountryByCode(t *testing.T) {
	c, ok := domain.CountryByCode("FR")
	require.True(t, ok)
	assert.Equal(t, "France", c.Name)
	assert.True(t, c.Schengen)

	c, ok = domain.CountryByCode("gb")
	require.True(t, ok, "lookup should be case-insensitive")
	assert.False(t, c.Schengen)

	_, ok = domain.CountryByCode("XX")
	assert.False(t, ok)
}

func TestIsSchengen(t *testing.T) {
	assert.True(t, domain.IsSchengen("DE"))
	assert.False(t, domain.IsSchengen("GB"))
	assert.False(t, domain.IsSchengen("XX"), "unknown codes are not Schengen")
}

func TestResolveCountryText(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Flight to Paris", "FR"},
		{"Trip to France", "FR"},
		{"PRAGUE conference", "CZ"},
		{"Holiday in Czechia", "CZ"},  // alias
		{"Weekend in Holland", "NL"},  // alias
		{"Visit London office", "GB"}, // non-Schengen still resolves
		{"Dinner in Istanbul with friends", "TR"},
	}
	for _, tc := range cases {
		c, ok := domain.ResolveCountryText(tc.text)
		require.True(t, ok, "expected %q to resolve", tc.text)
		assert.Equal(t, tc.want, c.Code, "text %q", tc.text)
	}
}

func TestResolveCountryText_LongestTermWins(t *testing.T) {
	// Both "paris" and "france" match; the longer term decides.
	c, ok := domain.ResolveCountryText("Paris, France")
	require.True(t, ok)
	assert.Equal(t, "FR", c.Code)
}

func TestResolveCountryText_WholeWordsOnly(t *testing.T) {
	// "Venice" must match the city, not the embedded "nice".
	c, ok := domain.ResolveCountryText("Venice trip")
	require.True(t, ok)
	assert.Equal(t, "IT", c.Code)

	_, ok = domain.ResolveCountryText("Denicely nothing here")
	assert.False(t, ok)
}

func TestResolveCountryText_NoMatch(t *testing.T) {
	_, ok := domain.ResolveCountryText("Dentist appointment")
	assert.False(t, ok)

	_, ok = domain.ResolveCountryText("")
	assert.False(t, ok)
}

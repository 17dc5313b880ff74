package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		raw  string
		want *string
	}{
		{"", nil},
		{"   ", nil},
		{"Warszawa", strPtr("Warszawa")},
		{"  ul. Mehoffera  ", strPtr("ul. Mehoffera")},
	}

	for _, tt := range tests {
		got := cleanString(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "cleanString(%q)", tt.raw)
		} else {
			require.NotNil(t, got, "cleanString(%q)", tt.raw)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"3", intPtr(3)},
		{" 1 200 ", intPtr(1200)},
		{"", nil},
		{"none", nil},
		{"NULL", nil},
		{"abc", nil},
		{"3.5", nil},
	}

	for _, tt := range tests {
		got := parseInt(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "parseInt(%q)", tt.raw)
		} else {
			require.NotNil(t, got, "parseInt(%q)", tt.raw)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string // "" means absent
	}{
		{"45.5", "45.5"},
		{"45,5", "45.5"},
		{"45,5 m2", "45.5"},
		{"860 000", "860000"},
		{"860 000 zł", "860000"},
		{"1,200.50", "1200.5"},
		{"zapytaj o cenę", ""},
		{"", ""},
		{"none", ""},
		{"brak danych", ""},
	}

	for _, tt := range tests {
		got := parseDecimal(tt.raw)
		if tt.want == "" {
			assert.Nil(t, got, "parseDecimal(%q)", tt.raw)
			continue
		}
		require.NotNil(t, got, "parseDecimal(%q)", tt.raw)
		want, err := decimal.NewFromString(tt.want)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "parseDecimal(%q) = %s; want %s", tt.raw, got, want)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw  string
		want *bool
	}{
		{"tak", boolPtr(true)},
		{"TAK", boolPtr(true)},
		{"yes", boolPtr(true)},
		{"1", boolPtr(true)},
		{"t", boolPtr(true)},
		{"nie", boolPtr(false)},
		{"No", boolPtr(false)},
		{"0", boolPtr(false)},
		{"f", boolPtr(false)},
		{"", nil},
		{"maybe", nil},
		{"2", nil},
	}

	for _, tt := range tests {
		got := parseBool(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "parseBool(%q)", tt.raw)
		} else {
			require.NotNil(t, got, "parseBool(%q)", tt.raw)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestParseFloor(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"parter", intPtr(0)},
		{"Parter", intPtr(0)},
		{"3", intPtr(3)},
		{"3 / winda", intPtr(3)},
		{"5 z 10", intPtr(5)},
		{"", nil},
		{"winda", nil},
	}

	for _, tt := range tests {
		got := parseFloor(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "parseFloor(%q)", tt.raw)
		} else {
			require.NotNil(t, got, "parseFloor(%q)", tt.raw)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestParseDateFormats(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	want := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)

	// the same calendar date must come back regardless of source format
	for _, raw := range []string{"2023-06-02", "02.06.2023", "02/06/2023", "2023/06/02"} {
		got := parseDate(raw, now)
		require.NotNil(t, got, "parseDate(%q)", raw)
		assert.True(t, got.Equal(want), "parseDate(%q) = %s; want %s", raw, got, want)
	}
}

func TestParseDateRelative(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"dzisiaj", today},
		{"wczoraj", today.AddDate(0, 0, -1)},
		{"3 dni temu", today.AddDate(0, 0, -3)},
		{"14 dni temu", today.AddDate(0, 0, -14)},
		{"ponad tydzień temu", today.AddDate(0, 0, -8)},
		{"tydzień temu", today.AddDate(0, 0, -7)},
	}

	for _, tt := range tests {
		got := parseDate(tt.raw, now)
		require.NotNil(t, got, "parseDate(%q)", tt.raw)
		assert.True(t, got.Equal(tt.want), "parseDate(%q) = %s; want %s", tt.raw, got, tt.want)
	}
}

func TestParseDateRelativeNonUTCNearMidnight(t *testing.T) {
	// shortly after local midnight the calendar day must follow the local
	// clock, not UTC
	warsaw := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2024, 3, 15, 0, 30, 0, 0, warsaw)

	got := parseDate("dzisiaj", now)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, warsaw)), "dzisiaj = %s", got)

	got = parseDate("wczoraj", now)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, warsaw)), "wczoraj = %s", got)
}

func TestParseDateMalformed(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"", "soon", "2023-13-40", "40.13.2023", "???"} {
		assert.Nil(t, parseDate(raw, now), "parseDate(%q)", raw)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

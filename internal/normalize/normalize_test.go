package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents and spacing", "Ítem  DE   Prueba", "item de prueba"},
		{"trim", "  Gasa Estéril \t", "gasa esteril"},
		{"enie keeps base letter", "PIÑA", "pina"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"newlines collapse", "Alcohol\nen\n gel", "alcohol en gel"},
		{"already folded", "jabon liquido", "jabon liquido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"Ítem  DE   Prueba",
		"ÁÉÍÓÚ áéíóú Üü Ññ",
		"  Mezcla\tde espacios  ",
		"İstanbul",
		"ﬁ ligature",
		"café crème brûlée",
		"",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "gasa esteril", Key("  Gasa Esteril "))
	assert.Equal(t, "", Key("   "))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"12,5", 12.5},
		{"1.234.567", 1234567},
		{"45", 45},
		{"  150.00 ", 150},
		{"-3,25", -3.25},
		{"1 250,75", 1250.75},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseNumberRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "nan", "abc", "12a", "--", "1e400", "-1e400"} {
		_, err := ParseNumber(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNumberParserDefaultsToZero(t *testing.T) {
	p := NewNumberParser()

	assert.Equal(t, 1234.56, p.Parse("1.234,56"))
	assert.Equal(t, 0.0, p.Parse(""))
	assert.Equal(t, 0.0, p.ParseValue(nil))
	assert.Equal(t, 0.0, p.Parse("n/a"))
	assert.Equal(t, 7.5, p.ParseValue(7.5))

	stats := p.Stats()
	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, 2, stats.Blank)
	assert.Equal(t, 1, stats.Unparseable)
	assert.Equal(t, 5, stats.Total())
}

func TestNumberParserCountsOutOfRangeAsUnparseable(t *testing.T) {
	p := NewNumberParser()

	assert.Equal(t, 0.0, p.Parse("1e400"))
	assert.Equal(t, 0.0, p.ParseValue(math.Inf(1)))
	assert.Equal(t, 0.0, p.ParseValue(math.NaN()))
	assert.Equal(t, 2.5e10, p.Parse("2.5e10"))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 3, stats.Unparseable)
}

func TestNumberParserFallbackRateOnHealthyData(t *testing.T) {
	p := NewNumberParser()

	// A realistic column: mostly numbers in both conventions, a few blanks,
	// one typo.
	cells := []string{
		"10", "2,5", "1.200,00", "", "35", "0", "14,75", "", "3", "8.5",
		"100", "12", "1.000", "", "7", "22,10", "5", "x", "9", "11",
	}
	for _, c := range cells {
		p.Parse(c)
	}

	stats := p.Stats()
	assert.Equal(t, 3, stats.Blank)
	assert.Equal(t, 1, stats.Unparseable)
	assert.Less(t, stats.FallbackRate(), 0.1)
}

func TestFallbackRateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, NumberStats{}.FallbackRate())
	assert.Equal(t, 0.0, NumberStats{Blank: 4}.FallbackRate())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"day first", "03/04/2025", time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), true},
		{"single digits", "3/4/2025", time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), true},
		{"iso", "2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"excel serial", "45658", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"blank", "", time.Time{}, false},
		{"text", "pendiente", time.Time{}, false},
		{"time only serial", "0.5", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

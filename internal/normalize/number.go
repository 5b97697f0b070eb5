package normalize

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// NumberStats counts how the cells seen by a NumberParser were resolved.
type NumberStats struct {
	Parsed      int
	Blank       int
	Unparseable int
}

// Total is the number of cells inspected.
func (s NumberStats) Total() int {
	return s.Parsed + s.Blank + s.Unparseable
}

// FallbackRate is the share of non-blank cells that could not be parsed and
// were replaced by zero. Blank cells are expected in the workbook and do not
// count against it.
func (s NumberStats) FallbackRate() float64 {
	nonBlank := s.Parsed + s.Unparseable
	if nonBlank == 0 {
		return 0
	}
	return float64(s.Unparseable) / float64(nonBlank)
}

// NumberParser parses spreadsheet numbers leniently and keeps count of every
// zero it had to substitute, so a stage can tell a few blanks from a column
// that never parsed.
type NumberParser struct {
	mu    sync.Mutex
	stats NumberStats
}

// NewNumberParser returns a parser with empty statistics.
func NewNumberParser() *NumberParser {
	return &NumberParser{}
}

// Parse returns the numeric value of a cell, or 0 when the cell is blank or
// cannot be read as a number.
func (p *NumberParser) Parse(raw string) float64 {
	value, err := ParseNumber(raw)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case IsBlank(raw):
		p.stats.Blank++
	case err != nil:
		p.stats.Unparseable++
	default:
		p.stats.Parsed++
	}

	if err != nil {
		return 0
	}
	return value
}

// ParseValue accepts the loosely typed values found in snapshots and tests.
// nil counts as blank.
func (p *NumberParser) ParseValue(v any) float64 {
	switch val := v.(type) {
	case nil:
		return p.Parse("")
	case string:
		return p.Parse(val)
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return p.Parse(fmt.Sprint(val))
		}
		return p.Parse(decimal.NewFromFloat(val).String())
	case int:
		return p.Parse(fmt.Sprint(val))
	case int64:
		return p.Parse(fmt.Sprint(val))
	default:
		return p.Parse(fmt.Sprint(val))
	}
}

// Stats returns a copy of the counters.
func (p *NumberParser) Stats() NumberStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ParseNumber reads a number written with either decimal convention.
//
// PARAMETERS:
//   - raw: The cell text, e.g. "1.234,56", "1,234.56", "12,5" or "45".
//
// RETURNS:
//   - The parsed value.
//   - An error when the cell is blank or not a number.
//
// RULES:
//   - When both "." and "," appear, the last one is the decimal separator.
//   - A single "," is a decimal separator; repeated "," are thousands marks.
//   - Repeated "." are thousands marks ("1.234.567").
func ParseNumber(raw string) (float64, error) {
	if IsBlank(raw) {
		return 0, fmt.Errorf("blank value")
	}

	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("number %q out of range", raw)
	}
	return f, nil
}

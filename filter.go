package apo2cdsp

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Filter is one parametric EQ band extracted from an APO export line.
type Filter struct {
	// Fc is the center frequency in Hz.
	Fc float64

	// Gain is the band gain in dB.
	Gain float64

	// Q is the quality factor.
	Q float64
}

// filterPattern captures Fc, Gain and Q. Label text before Fc (filter id,
// state, type) is not constrained.
var filterPattern = regexp.MustCompile(`(?i)Fc\s+([\d.]+)\s+Hz\s+Gain\s+([-\d.]+)\s+dB\s+Q\s+([\d.]+)`)

// decimalPrefix is the longest leading decimal a capture may start with.
var decimalPrefix = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)`)

// filterKeyword marks a line as a filter line.
const filterKeyword = "filter"

// lineKind is the outcome of scanning one line.
type lineKind int

const (
	lineSkip lineKind = iota
	lineRecord
	lineError
)

// lineResult is a tagged per-line outcome. Exactly one of filter or err is
// meaningful, selected by kind.
type lineResult struct {
	kind   lineKind
	filter Filter
	err    error
}

// scanLine classifies a single line. Blank lines and lines without the
// "filter" keyword are skipped; filter lines must match filterPattern and
// pass validation.
func scanLine(line string, lineNumber int) lineResult {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(strings.ToLower(trimmed), filterKeyword) {
		return lineResult{kind: lineSkip}
	}

	match := filterPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return lineResult{
			kind: lineError,
			err:  newLineError(KindFormat, lineNumber, "Invalid filter format. Expected: %s", expectedFormat),
		}
	}

	var values [3]float64
	for i, capture := range match[1:] {
		v, err := parseDecimal(capture)
		if err != nil {
			return lineResult{kind: lineError, err: err}
		}
		values[i] = v
	}

	f := Filter{Fc: values[0], Gain: values[1], Q: values[2]}
	if err := f.validate(lineNumber); err != nil {
		return lineResult{kind: lineError, err: err}
	}

	return lineResult{kind: lineRecord, filter: f}
}

// parseDecimal converts the longest decimal prefix of s. A capture with no
// numeric prefix ("." or "-") yields NaN so validation rejects it. Values
// too large for float64 are reported as errors.
func parseDecimal(s string) (float64, error) {
	prefix := decimalPrefix.FindString(s)
	if prefix == "" {
		return math.NaN(), nil
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrSyntax) {
			return math.NaN(), nil
		}
		return 0, err
	}
	return v, nil
}

// Validate checks the filter against the accepted ranges:
// Fc > 0, Gain in [-100, 100], Q in (0, 100].
func (f Filter) Validate() error {
	if err := f.validate(0); err != nil {
		return err
	}
	return nil
}

func (f Filter) validate(lineNumber int) *ParseError {
	if math.IsNaN(f.Fc) || f.Fc <= 0 {
		return newLineError(KindRange, lineNumber, "Invalid frequency value: %s Hz", formatNumber(f.Fc))
	}

	if math.IsNaN(f.Gain) || f.Gain < -maxAbsGainDB || f.Gain > maxAbsGainDB {
		return newLineError(KindRange, lineNumber, "Invalid gain value: %s dB", formatNumber(f.Gain))
	}

	if math.IsNaN(f.Q) || f.Q <= 0 || f.Q > maxQ {
		return newLineError(KindRange, lineNumber, "Invalid Q factor: %s", formatNumber(f.Q))
	}

	return nil
}

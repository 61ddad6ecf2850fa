package apo2cdsp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of a successful conversion.
type Result struct {
	// Data is the flat cDSP mapping: gains, frequencies and Q factors in
	// three consecutive bands, plus the static fields.
	Data Data

	// FilterCount is the number of filters converted.
	FilterCount int

	// Filters holds the validated filters in source order.
	Filters []Filter

	// ProcessingTime is the wall-clock duration of the parse.
	ProcessingTime time.Duration
}

// ProcessingTimeMs returns ProcessingTime in milliseconds.
func (r *Result) ProcessingTimeMs() float64 {
	return float64(r.ProcessingTime) / float64(time.Millisecond)
}

// Parse converts the filter lines of an EqualizerAPO ParametricEq export
// into the flat cDSP mapping. The input must already have its preamp line
// removed (see StripPreamp). Parsing stops at the first invalid line.
//
// Parse holds no shared mutable state and is safe for concurrent use.
func Parse(text string) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Kind: KindInput, Msg: "Input must be a non-empty string"}
	}

	lines := strings.Split(text, "\n")
	filters := make([]Filter, 0, RequiredFilterCount)

	for i, line := range lines {
		lineNumber := i + 1
		res := scanLine(line, lineNumber)
		switch res.kind {
		case lineSkip:
			continue
		case lineRecord:
			filters = append(filters, res.filter)
		case lineError:
			return nil, tagLine(res.err, lineNumber)
		}
	}

	if len(filters) != RequiredFilterCount {
		return nil, &ParseError{
			Kind: KindCount,
			Msg: fmt.Sprintf("Expected %d filters, but found %d. %s",
				RequiredFilterCount, len(filters), sourceApplicationHint),
		}
	}

	data := encode(filters)

	return &Result{
		Data:           data,
		FilterCount:    len(filters),
		Filters:        filters,
		ProcessingTime: time.Since(start),
	}, nil
}

// ParseFilters is like Parse but returns only the mapping.
func ParseFilters(text string) (Data, error) {
	res, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// tagLine attaches lineNumber to pipeline errors that lack one and wraps
// anything else as an unexpected error.
func tagLine(err error, lineNumber int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Line == 0 {
			pe.Line = lineNumber
		}
		return pe
	}

	return &ParseError{
		Kind: KindUnexpected,
		Line: lineNumber,
		Msg:  fmt.Sprintf("Unexpected error at line %d: %v", lineNumber, err),
		Err:  err,
	}
}

// encode lays out the filters in three bands of len(filters) keys each and
// merges the static fields on top.
func encode(filters []Filter) Data {
	count := len(filters)
	data := make(Data, count*bandCount+len(staticValues))

	for i, f := range filters {
		data[strconv.Itoa(gainBand*count+i)] = roundFloat32(f.Gain)
		data[strconv.Itoa(frequencyBand*count+i)] = roundHalfUp(f.Fc)
		data[strconv.Itoa(qBand*count+i)] = roundHalfUp(roundFloat32(f.Q)*qPrecisionMultiplier) / qPrecisionMultiplier
	}

	for k, v := range staticValues {
		data[k] = v
	}

	return data
}

// roundFloat32 reduces v to the nearest single-precision value.
func roundFloat32(v float64) float64 {
	return float64(float32(v))
}

// roundHalfUp rounds to the nearest integer with ties toward +Inf.
func roundHalfUp(v float64) float64 {
	floor := math.Floor(v)
	if v-floor >= 0.5 {
		return floor + 1
	}
	return floor
}

// preampPattern matches the APO "Preamp: -6.5 dB" line.
var preampPattern = regexp.MustCompile(`(?i)Preamp:\s*([-+]?[\d.]+)\s*dB\s*`)

// StripPreamp removes every preamp declaration from an APO export.
func StripPreamp(text string) string {
	return preampPattern.ReplaceAllString(text, "")
}

// ExtractPreamp returns the first preamp gain declared in text.
func ExtractPreamp(text string) (float64, bool) {
	m := preampPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := parseDecimal(m[1])
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Convert runs the full conversion on a raw APO export: it rejects
// whitespace-only input, strips the preamp line and parses the filters.
func Convert(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Kind: KindInput, Msg: "Input file contains only whitespace"}
	}
	return Parse(StripPreamp(raw))
}

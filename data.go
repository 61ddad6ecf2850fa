package apo2cdsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Data is the flat cDSP mapping from decimal index keys to values.
type Data map[string]float64

// Gains returns the gain band values in filter order.
func (d Data) Gains() []float64 { return d.band(gainBand) }

// Frequencies returns the frequency band values in filter order.
func (d Data) Frequencies() []float64 { return d.band(frequencyBand) }

// QFactors returns the Q band values in filter order.
func (d Data) QFactors() []float64 { return d.band(qBand) }

func (d Data) band(index int) []float64 {
	out := make([]float64, RequiredFilterCount)
	for i := range out {
		out[i] = d[strconv.Itoa(index*RequiredFilterCount+i)]
	}
	return out
}

// sortedKeys orders integer keys numerically, followed by any other keys
// in lexical order. This is the property order a JavaScript object uses
// for the same keys.
func (d Data) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b string) int {
		ai, aErr := strconv.ParseUint(a, 10, 32)
		bi, bErr := strconv.ParseUint(b, 10, 32)
		switch {
		case aErr == nil && bErr == nil:
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})

	return keys
}

// MarshalJSON writes the keys in numeric order and the values in the
// shortest round-trip decimal form.
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.sortedKeys() {
		v := d[k]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("unsupported value %v for key %q", v, k)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(formatNumber(v))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IndentedJSON renders d with two-space indentation, the layout cDSP
// preset files use.
func (d Data) IndentedJSON() ([]byte, error) {
	compact, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Number formatting thresholds matching ECMAScript Number::toString.
const (
	minPlainMagnitude = 1e-6
	maxPlainMagnitude = 1e21
)

// formatNumber renders v the way ECMAScript prints numbers: shortest
// round-trip digits, no "-0", and exponent notation only outside
// [1e-6, 1e21).
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= minPlainMagnitude && abs < maxPlainMagnitude {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}

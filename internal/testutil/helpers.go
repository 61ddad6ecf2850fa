// Package testutil provides fixtures and assertions shared by the converter tests.
package testutil

import (
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	DBTolerance      = 0.01
)

// pcmFormat is the WAV audio format code for integer PCM.
const pcmFormat = 1

// Band holds one fixture band. It mirrors apo2cdsp.Filter without importing
// it so the root package tests can use this helper.
type Band struct {
	Fc, Gain, Q float64
}

// DefaultBands is a realistic ten-band headphone correction.
var DefaultBands = []Band{
	{Fc: 105, Gain: 6.5, Q: 0.7},
	{Fc: 220, Gain: -2.1, Q: 1.41},
	{Fc: 560, Gain: 1.8, Q: 0.9},
	{Fc: 1100, Gain: -3.3, Q: 2},
	{Fc: 2200, Gain: 4, Q: 3.5},
	{Fc: 3400, Gain: -5.25, Q: 4},
	{Fc: 5100, Gain: 2.7, Q: 5},
	{Fc: 7500, Gain: -1.2, Q: 2.2},
	{Fc: 10000, Gain: 3.9, Q: 0.8},
	{Fc: 14500, Gain: -6, Q: 1},
}

// FilterLine formats one APO ParametricEq filter line.
func FilterLine(id int, b Band) string {
	return fmt.Sprintf("Filter %d: ON PK Fc %v Hz Gain %v dB Q %v", id, b.Fc, b.Gain, b.Q)
}

// Export builds an APO export with a preamp line and one line per band.
func Export(preampDB float64, bands []Band) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Preamp: %v dB\n", preampDB)
	for i, b := range bands {
		sb.WriteString(FilterLine(i+1, b))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Repeat returns n copies of b.
func Repeat(b Band, n int) []Band {
	out := make([]Band, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// WriteSineWAV writes a PCM WAV file holding a sine of freq Hz at the given
// amplitude on every channel.
func WriteSineWAV(t *testing.T, path string, sampleRate, bitDepth, channels, frames int, freq, amplitude float64) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	maxVal := float64(int(1)<<(bitDepth-1) - 1)
	data := make([]int, frames*channels)
	for i := range frames {
		v := int(math.Round(amplitude * maxVal * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
		for ch := range channels {
			data[i*channels+ch] = v
		}
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertMonotonic verifies that a slice is strictly increasing.
func AssertMonotonic(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return assert.Fail(t, "not monotonic",
				"s[%d]=%f <= s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

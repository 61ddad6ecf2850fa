// Package response evaluates the combined magnitude response of a parsed
// filter set and derives the preamp needed to avoid clipping.
package response

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"gonum.org/v1/gonum/floats"

	apo2cdsp "github.com/OnCloud125252/APO2cDSP-ParametricEQ"
)

// Analysis defaults.
const (
	DefaultSampleRate = 48000.0
	DefaultPoints     = 512
	DefaultMinFreq    = 20.0
	DefaultMaxFreq    = 20000.0

	// nyquistMargin keeps the grid strictly below Nyquist.
	nyquistMargin = 0.49
	minPoints     = 2
)

// ErrInvalidOptions indicates analysis options that cannot produce a grid.
var ErrInvalidOptions = errors.New("invalid analysis options")

// Options configures Analyze. Zero fields take the defaults above.
type Options struct {
	SampleRate float64
	Points     int
	MinFreq    float64
	MaxFreq    float64
}

func (o Options) withDefaults() Options {
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Points == 0 {
		o.Points = DefaultPoints
	}
	if o.MinFreq == 0 {
		o.MinFreq = DefaultMinFreq
	}
	if o.MaxFreq == 0 {
		o.MaxFreq = DefaultMaxFreq
	}
	return o
}

// Report summarises the response of a filter set.
type Report struct {
	// Frequencies is the log-spaced evaluation grid in Hz.
	Frequencies []float64

	// MagnitudeDB is the cascade magnitude at each grid frequency,
	// excluding the preamp.
	MagnitudeDB []float64

	PeakGainDB float64
	PeakFreqHz float64
	MinGainDB  float64
	MinFreqHz  float64

	// PreampDB is the preamp the report was computed with.
	PreampDB float64

	// RecommendedPreampDB is the attenuation that brings the peak to 0 dB.
	RecommendedPreampDB float64

	// ClipRisk is set when the peak plus PreampDB exceeds 0 dB.
	ClipRisk bool

	// SkippedFilters counts filters at or above Nyquist.
	SkippedFilters int
}

// Coefficients designs one RBJ peaking biquad per filter at sampleRate.
// Filters at or above Nyquist cannot be realised and are skipped; the
// number skipped is returned.
func Coefficients(filters []apo2cdsp.Filter, sampleRate float64) ([]biquad.Coefficients, int) {
	nyquist := sampleRate / 2
	coeffs := make([]biquad.Coefficients, 0, len(filters))
	skipped := 0
	for _, f := range filters {
		if f.Fc >= nyquist {
			skipped++
			continue
		}
		coeffs = append(coeffs, design.Peak(f.Fc, f.Gain, f.Q, sampleRate))
	}
	return coeffs, skipped
}

// Analyze evaluates the cascade of filters on a log-spaced grid.
func Analyze(filters []apo2cdsp.Filter, preampDB float64, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidOptions)
	}
	if opts.Points < minPoints {
		return nil, fmt.Errorf("%w: need at least %d points", ErrInvalidOptions, minPoints)
	}

	maxFreq := min(opts.MaxFreq, nyquistMargin*opts.SampleRate)
	if opts.MinFreq <= 0 || maxFreq <= opts.MinFreq {
		return nil, fmt.Errorf("%w: empty frequency range [%g, %g] Hz", ErrInvalidOptions, opts.MinFreq, maxFreq)
	}

	coeffs, skipped := Coefficients(filters, opts.SampleRate)
	chain := biquad.NewChain(coeffs)

	freqs := floats.LogSpan(make([]float64, opts.Points), opts.MinFreq, maxFreq)
	mags := make([]float64, len(freqs))
	for i, f := range freqs {
		mags[i] = chain.MagnitudeDB(f, opts.SampleRate)
	}

	peakIdx := floats.MaxIdx(mags)
	minIdx := floats.MinIdx(mags)
	peak := mags[peakIdx]

	recommended := 0.0
	if peak > 0 {
		recommended = -peak
	}

	return &Report{
		Frequencies:         freqs,
		MagnitudeDB:         mags,
		PeakGainDB:          peak,
		PeakFreqHz:          freqs[peakIdx],
		MinGainDB:           mags[minIdx],
		MinFreqHz:           freqs[minIdx],
		PreampDB:            preampDB,
		RecommendedPreampDB: recommended,
		ClipRisk:            peak+preampDB > 0,
		SkippedFilters:      skipped,
	}, nil
}

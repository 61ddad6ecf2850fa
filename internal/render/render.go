// Package render applies a parsed filter set to a WAV file so a preset can
// be auditioned before it is loaded into the DSP.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"

	apo2cdsp "github.com/OnCloud125252/APO2cDSP-ParametricEQ"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/logging"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/response"
)

const (
	// DefaultBlockSize is the number of frames processed per chunk.
	DefaultBlockSize = 4096

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1

	outputPerm = 0o644

	progressInterval = 10 // Log progress every N%
	percentScale     = 100
	dbToAmplitude    = 20.0
)

// Common errors.
var (
	// ErrInvalidWAV indicates the input is not a readable WAV file.
	ErrInvalidWAV = errors.New("invalid WAV file")

	// ErrUnsupportedFormat indicates a WAV encoding the renderer cannot process.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Options configures File.
type Options struct {
	// PreampDB is applied before the filters.
	PreampDB float64

	// BlockSize is the number of frames per chunk. Zero means DefaultBlockSize.
	BlockSize int

	// Logger receives progress at debug level. Nil discards it.
	Logger *logging.Logger
}

// Stats describes a completed render.
type Stats struct {
	SampleRate     int
	Channels       int
	BitDepth       int
	Frames         int64
	ClippedSamples int64
	SkippedFilters int
}

// wavInput holds validated input file information.
type wavInput struct {
	file        *os.File
	decoder     *wav.Decoder
	rate        int
	channels    int
	bitDepth    int
	totalFrames int64
	format      *audio.Format
}

// openWAVInput opens and validates a PCM WAV file.
func openWAVInput(path string) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	if decoder.WavAudioFormat != wavFormatPCM {
		_ = f.Close()
		return nil, fmt.Errorf("%w: audio format %d (only integer PCM)", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}
	if getMaxValue(bitDepth) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	var totalFrames int64
	if duration, err := decoder.Duration(); err == nil {
		totalFrames = int64(duration.Seconds() * float64(format.SampleRate))
	}

	return &wavInput{
		file:        f,
		decoder:     decoder,
		rate:        format.SampleRate,
		channels:    format.NumChannels,
		bitDepth:    bitDepth,
		totalFrames: totalFrames,
		format:      format,
	}, nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// wavOutput wraps the output file and encoder. Samples are written to a
// temporary file next to path and only renamed into place by commit.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	path    string
}

// createWAVOutput creates the temporary output file and encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutput, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".render-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM),
		path:    path,
	}, nil
}

// commit finalises the WAV header and moves the file to its final path.
func (w *wavOutput) commit() error {
	tmpPath := w.file.Name()
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := w.file.Chmod(outputPerm); err != nil {
		_ = w.file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// abort discards the partial output, leaving any existing file at the
// final path untouched.
func (w *wavOutput) abort() {
	_ = w.file.Close()
	_ = os.Remove(w.file.Name())
}

// progressTracker logs progress every progressInterval percent.
type progressTracker struct {
	logger      *logging.Logger
	totalFrames int64
	last        int
}

func (p *progressTracker) report(frames int64) {
	if p.totalFrames == 0 {
		return
	}
	progress := int(float64(frames) / float64(p.totalFrames) * percentScale)
	if progress >= p.last+progressInterval {
		p.logger.Debug("render progress", "percent", progress)
		p.last = progress
	}
}

// File renders inPath through filters and writes the result to outPath
// with the same sample rate, bit depth and channel count. Filters are
// designed at the input's sample rate.
func File(inPath, outPath string, filters []apo2cdsp.Filter, opts Options) (stats *Stats, err error) {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	input, err := openWAVInput(inPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	coeffs, skipped := response.Coefficients(filters, float64(input.rate))
	chains := make([]*biquad.Chain, input.channels)
	for ch := range chains {
		chains[ch] = biquad.NewChain(coeffs)
	}

	output, err := createWAVOutput(outPath, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			output.abort()
			return
		}
		if commitErr := output.commit(); commitErr != nil {
			stats, err = nil, fmt.Errorf("failed to finalise output file: %w", commitErr)
		}
	}()

	opts.Logger.Debug("rendering",
		"input", inPath,
		"output", outPath,
		"sample_rate", input.rate,
		"channels", input.channels,
		"bit_depth", input.bitDepth,
		"filters", len(coeffs),
		"skipped", skipped)

	stats = &Stats{
		SampleRate:     input.rate,
		Channels:       input.channels,
		BitDepth:       input.bitDepth,
		SkippedFilters: skipped,
	}

	maxVal := getMaxValue(input.bitDepth)
	gain := math.Pow(10, opts.PreampDB/dbToAmplitude)
	progress := &progressTracker{logger: opts.Logger, totalFrames: input.totalFrames}

	inBuf := &audio.IntBuffer{
		Data:   make([]int, opts.BlockSize*input.channels),
		Format: input.format,
	}
	outBuf := &audio.IntBuffer{
		Data:           make([]int, opts.BlockSize*input.channels),
		Format:         input.format,
		SourceBitDepth: input.bitDepth,
	}
	channelBufs := make([][]float64, input.channels)
	for ch := range channelBufs {
		channelBufs[ch] = make([]float64, opts.BlockSize)
	}

	for {
		n, err := input.decoder.PCMBuffer(inBuf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		frames := n / input.channels
		deinterleave(inBuf.Data[:frames*input.channels], channelBufs, frames, 1/maxVal)

		for ch, chain := range chains {
			buf := channelBufs[ch][:frames]
			f64.Scale(buf, buf, gain)
			chain.ProcessBlock(buf)
		}

		stats.ClippedSamples += interleave(channelBufs, outBuf.Data, frames, maxVal)
		outBuf.Data = outBuf.Data[:frames*input.channels]
		if err := output.encoder.Write(outBuf); err != nil {
			return nil, fmt.Errorf("failed to write audio data: %w", err)
		}
		outBuf.Data = outBuf.Data[:cap(outBuf.Data)]

		stats.Frames += int64(frames)
		progress.report(stats.Frames)

		inBuf.Data = inBuf.Data[:cap(inBuf.Data)]
	}

	if stats.ClippedSamples > 0 {
		opts.Logger.Warn("output clipped", "samples", stats.ClippedSamples)
	}

	return stats, nil
}

// getMaxValue returns the full-scale value for a PCM bit depth, or 0 when
// the depth is unsupported.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return 0
	}
}

// deinterleave converts interleaved int samples into per-channel floats in [-1, 1].
func deinterleave(data []int, channelBufs [][]float64, frames int, invMaxVal float64) {
	numChannels := len(channelBufs)
	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			channelBufs[ch][i] = float64(data[base+ch]) * invMaxVal
		}
	}
}

// interleave converts per-channel floats back to ints, clamping to full
// scale. It returns the number of clamped samples.
func interleave(channelBufs [][]float64, dst []int, frames int, maxVal float64) int64 {
	numChannels := len(channelBufs)
	var clipped int64
	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			sample := channelBufs[ch][i]
			if sample > 1.0 {
				sample = 1.0
				clipped++
			} else if sample < -1.0 {
				sample = -1.0
				clipped++
			}
			dst[base+ch] = int(math.Round(sample * maxVal))
		}
	}
	return clipped
}

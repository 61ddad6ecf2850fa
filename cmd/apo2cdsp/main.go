// Command apo2cdsp converts an EqualizerAPO ParametricEq export into a cDSP
// Parametric EQ preset.
//
// Usage:
//
//	apo2cdsp filters.txt                      # writes ./filters
//	apo2cdsp filters.txt -o preset.json
//	apo2cdsp filters.txt --validate           # parse only
//	apo2cdsp filters.txt --report             # peak gain and recommended preamp
//	apo2cdsp filters.txt --render song.wav    # audition the EQ
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apo2cdsp "github.com/OnCloud125252/APO2cDSP-ParametricEQ"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/config"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/fileio"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/logging"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/render"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/response"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	switch {
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stdout, helpText)
		return exitOK
	case errors.Is(err, errVersion):
		fmt.Fprintf(stdout, "%s v%s\n", appName, version)
		return exitOK
	case errors.Is(err, errNoArgs):
		printUsage(stderr)
		return exitError
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr)
		return exitError
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return exitError
	}
	logger := logging.New(cfg.Logging, version)

	if err := fileio.ValidateAccess(opts.inputFile); err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return exitError
	}

	if err := processFile(opts, cfg, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "✗ Error processing file: %v\n", err)
		return exitError
	}

	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, usageLine)
	fmt.Fprintf(w, "Use '%s --help' for more information\n", appName)
}

// processFile converts, optionally reports on and renders one export.
func processFile(opts *cliOptions, cfg *config.Config, logger *logging.Logger, stdout io.Writer) error {
	outputPath := opts.output
	if outputPath == "" {
		outputPath = fileio.DefaultOutputPath(opts.inputFile)
	}

	raw, err := fileio.Read(opts.inputFile, fileio.Limits{
		MaxSize:         cfg.IO.MaxInputBytes,
		StreamThreshold: cfg.IO.StreamThreshold,
	})
	if err != nil {
		return err
	}

	res, err := apo2cdsp.Convert(raw)
	if err != nil {
		return err
	}
	logger.Debug("parsed export",
		"input", opts.inputFile,
		"filters", res.FilterCount,
		"duration_ms", res.ProcessingTimeMs())

	if !opts.validate {
		out, err := res.Data.IndentedJSON()
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		if err := fileio.WriteAtomic(outputPath, out); err != nil {
			return err
		}
		logger.Debug("wrote preset", "output", outputPath, "bytes", len(out))
	}

	if !opts.quiet {
		if opts.validate {
			fmt.Fprintf(stdout, "✓ Input file %s is valid\n", opts.inputFile)
		} else {
			fmt.Fprintf(stdout, "✓ Successfully converted %s to %s\n", opts.inputFile, outputPath)
		}
		fmt.Fprintf(stdout, "✓ Parsed %d filters in %.2fms\n", res.FilterCount, res.ProcessingTimeMs())
		fmt.Fprintln(stdout, "✓ Generated settings for cDSP Parametric EQ")
	}

	preampDB, _ := apo2cdsp.ExtractPreamp(raw)

	if opts.report {
		report, err := response.Analyze(res.Filters, preampDB, response.Options{
			SampleRate: cfg.Analysis.SampleRate,
			Points:     cfg.Analysis.Points,
			MinFreq:    cfg.Analysis.MinFreq,
			MaxFreq:    cfg.Analysis.MaxFreq,
		})
		if err != nil {
			return err
		}
		printReport(stdout, report, cfg.Analysis.SampleRate)
	}

	if opts.renderInput != "" {
		renderOutput := opts.renderOutput
		if renderOutput == "" {
			renderOutput = defaultRenderPath(opts.renderInput)
		}

		stats, err := render.File(opts.renderInput, renderOutput, res.Filters, render.Options{
			PreampDB:  preampDB,
			BlockSize: cfg.Render.BlockSize,
			Logger:    logger.With("component", "render"),
		})
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}

		if !opts.quiet {
			fmt.Fprintf(stdout, "✓ Rendered %s to %s (%d frames, %d Hz, %d channels)\n",
				opts.renderInput, renderOutput, stats.Frames, stats.SampleRate, stats.Channels)
			if stats.ClippedSamples > 0 {
				fmt.Fprintf(stdout, "! %d samples clipped; lower the preamp\n", stats.ClippedSamples)
			}
		}
	}

	return nil
}

// printReport writes the response summary.
func printReport(w io.Writer, r *response.Report, sampleRate float64) {
	fmt.Fprintf(w, "Frequency response at %g Hz:\n", sampleRate)
	fmt.Fprintf(w, "  Peak:   %+.2f dB at %.0f Hz\n", r.PeakGainDB, r.PeakFreqHz)
	fmt.Fprintf(w, "  Dip:    %+.2f dB at %.0f Hz\n", r.MinGainDB, r.MinFreqHz)
	fmt.Fprintf(w, "  Preamp: %+.2f dB (recommended %+.2f dB)\n", r.PreampDB, r.RecommendedPreampDB)
	if r.ClipRisk {
		fmt.Fprintf(w, "! Peak exceeds 0 dB by %.2f dB with the current preamp\n", r.PeakGainDB+r.PreampDB)
	}
	if r.SkippedFilters > 0 {
		fmt.Fprintf(w, "! %d filters at or above Nyquist were ignored\n", r.SkippedFilters)
	}
}

// defaultRenderPath returns in.wav -> in_eq.wav next to the input.
func defaultRenderPath(in string) string {
	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(in), stem+renderSuffix)
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apo2cdsp "github.com/OnCloud125252/APO2cDSP-ParametricEQ"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/config"
	"github.com/OnCloud125252/APO2cDSP-ParametricEQ/internal/testutil"
)

func writeExport(t *testing.T, bands []testutil.Band) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filters.txt")
	require.NoError(t, os.WriteFile(path, []byte(testutil.Export(-6.5, bands)), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		code, stdout, _ := runCLI(t, arg)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Usage:")
		assert.Contains(t, stdout, "--validate")
	}
}

func TestRun_Version(t *testing.T) {
	for _, arg := range []string{"-v", "--version"} {
		code, stdout, _ := runCLI(t, arg)
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "apo2cdsp v"+version+"\n", stdout)
	}
}

func TestRun_NoArguments(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, usageLine)
}

func TestRun_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"a.txt", "--bogus"}, "bogus"},
		{"extra positional", []string{"a.txt", "b.txt"}, "unknown argument 'b.txt'"},
		{"missing output value", []string{"a.txt", "-o"}, "-o"},
		{"flags only", []string{"--quiet"}, "input file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_MissingInput(t *testing.T) {
	code, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "file does not exist")
}

func TestRun_ConvertDefaultOutput(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)

	code, stdout, stderr := runCLI(t, in)
	require.Equal(t, exitOK, code, stderr)

	outPath := strings.TrimSuffix(in, ".txt")
	assert.Contains(t, stdout, "✓ Successfully converted "+in+" to "+outPath)
	assert.Contains(t, stdout, "✓ Parsed 10 filters in ")
	assert.Contains(t, stdout, "✓ Generated settings for cDSP Parametric EQ")

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"0\": 6.5,\n"), string(raw))

	var data map[string]float64
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Len(t, data, apo2cdsp.RequiredFilterCount*3+len(apo2cdsp.StaticValues()))
	assert.Equal(t, 105.0, data["10"])
	assert.Equal(t, 3.0, data["30"])
}

func TestRun_ExplicitOutputAfterInput(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	out := filepath.Join(t.TempDir(), "preset.json")

	code, stdout, stderr := runCLI(t, in, "--output", out, "--quiet")
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)
	assert.FileExists(t, out)
}

func TestRun_FlagsBeforeInput(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	out := filepath.Join(t.TempDir(), "preset.json")

	code, _, stderr := runCLI(t, "-o", out, in)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, out)
}

func TestRun_ValidateOnly(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)

	code, stdout, stderr := runCLI(t, in, "--validate")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "✓ Input file "+in+" is valid")
	assert.NoFileExists(t, strings.TrimSuffix(in, ".txt"))
}

func TestRun_ParseErrors(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands[:9])

	code, _, stderr := runCLI(t, in)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "✗ Error processing file: Expected 10 filters, but found 9")
	assert.NoFileExists(t, strings.TrimSuffix(in, ".txt"))
}

func TestRun_RangeErrorMessage(t *testing.T) {
	bands := append([]testutil.Band{}, testutil.DefaultBands...)
	bands[0].Q = 0
	in := writeExport(t, bands)

	code, _, stderr := runCLI(t, in)
	assert.Equal(t, exitError, code)
	assert.Equal(t, "✗ Error processing file: Invalid Q factor: 0\n", stderr)
}

func TestRun_HelpAndVersionOnlyFirst(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	for _, arg := range []string{"-v", "--version", "-h", "--help"} {
		code, stdout, stderr := runCLI(t, in, arg)
		assert.Equal(t, exitError, code, arg)
		assert.Empty(t, stdout, arg)
		assert.Contains(t, stderr, "Error: unknown argument '"+arg+"'")
	}
}

func TestRun_WhitespaceInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(in, []byte("  \n\t\n"), 0o644))

	code, _, stderr := runCLI(t, in)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Input file contains only whitespace")
}

func TestRun_Report(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)

	code, stdout, stderr := runCLI(t, in, "--validate", "--quiet", "--report")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Frequency response at 48000 Hz:")
	assert.Contains(t, stdout, "Peak:")
	assert.Contains(t, stdout, "Preamp: -6.50 dB")
}

func TestRun_ReportUsesConfig(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	cfgPath := filepath.Join(t.TempDir(), "apo2cdsp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analysis:\n  sample_rate: 8000\n  points: 32\n"), 0o644))

	code, stdout, stderr := runCLI(t, in, "--validate", "--quiet", "--report", "--config", cfgPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Frequency response at 8000 Hz:")
	assert.Contains(t, stdout, "4 filters at or above Nyquist were ignored")
}

func TestRun_BadConfig(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	code, _, stderr := runCLI(t, in, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "reading config file")
}

func TestRun_Render(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	dir := t.TempDir()
	wavIn := filepath.Join(dir, "song.wav")
	testutil.WriteSineWAV(t, wavIn, 48000, 16, 2, 2400, 440, 0.25)

	code, stdout, stderr := runCLI(t, in, "--validate", "--render", wavIn)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "✓ Rendered "+wavIn)
	assert.FileExists(t, filepath.Join(dir, "song_eq.wav"))
}

func TestRun_RenderFailure(t *testing.T) {
	in := writeExport(t, testutil.DefaultBands)
	code, _, stderr := runCLI(t, in, "--validate", "--render", filepath.Join(t.TempDir(), "missing.wav"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "render failed")
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"eq.txt", "-o", "out.json", "--validate", "--quiet", "--report",
		"--render", "a.wav", "--render-output", "b.wav", "--config", "c.yaml"})
	require.NoError(t, err)
	assert.Equal(t, &cliOptions{
		inputFile:    "eq.txt",
		output:       "out.json",
		validate:     true,
		quiet:        true,
		report:       true,
		renderInput:  "a.wav",
		renderOutput: "b.wav",
		configPath:   "c.yaml",
	}, opts)

	_, err = parseArgs([]string{"--help"})
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = parseArgs([]string{"-v", "eq.txt"})
	assert.ErrorIs(t, err, errVersion)

	_, err = parseArgs([]string{"eq.txt", "--version"})
	assert.EqualError(t, err, "unknown argument '--version'")

	_, err = parseArgs([]string{"eq.txt", "-h"})
	assert.EqualError(t, err, "unknown argument '-h'")

	_, err = parseArgs(nil)
	assert.ErrorIs(t, err, errNoArgs)

	_, err = parseArgs([]string{"eq.txt", "--render-output", "b.wav"})
	assert.Error(t, err)
}

func TestDefaultRenderPath(t *testing.T) {
	assert.Equal(t, filepath.Join("music", "song_eq.wav"), defaultRenderPath(filepath.Join("music", "song.wav")))
	assert.Equal(t, "take_eq.wav", defaultRenderPath("take"))
}

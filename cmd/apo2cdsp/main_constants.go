package main

// Build information
const (
	appName     = "apo2cdsp"
	version     = "1.0.0"
	description = "Parse EqualizerAPO parametric EQ filter data and convert to JSON"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
)

// renderSuffix is appended to the WAV stem when --render-output is not given.
const renderSuffix = "_eq.wav"

const usageLine = "Usage: apo2cdsp <input-file> [--output <output-file>] [--validate] [--quiet]"

const helpText = "\n" + description + `

Usage:
  apo2cdsp <input-file> [options]
  apo2cdsp -h | --help
  apo2cdsp -v | --version

Options:
  -h, --help             Show this help message
  -v, --version          Show version information
  -o, --output           Specify output file path (default: same directory as input without any extension, cdsp format)
  --validate             Only validate input file without creating output
  --quiet                Suppress success messages
  --report               Print the combined frequency response and recommended preamp
  --render <in.wav>      Apply the parsed EQ to a WAV file for auditioning
  --render-output <path> Output path for --render (default: <in>_eq.wav)
  --config <path>        YAML configuration file (default: $APO2CDSP_CONFIG)

Examples:
  apo2cdsp filters.txt
  apo2cdsp filters.txt -o output.json
  apo2cdsp filters.txt --validate
  apo2cdsp filters.txt --quiet
  apo2cdsp filters.txt --report --render song.wav
`

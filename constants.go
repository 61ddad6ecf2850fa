package apo2cdsp

// Filter layout
const (
	// RequiredFilterCount is the number of filter lines an EqualizerAPO
	// ParametricEq export must contain.
	RequiredFilterCount = 10

	// Band indices within the flat output map.
	gainBand      = 0
	frequencyBand = 1
	qBand         = 2
	bandCount     = 3
)

// Validation limits
const (
	maxAbsGainDB = 100.0 // Gain must lie in [-100, 100] dB
	maxQ         = 100.0 // Q must lie in (0, 100]
)

// qPrecisionMultiplier fixes Q factors to 14 decimal digits after the
// float32 reduction.
const qPrecisionMultiplier = 1e14

// expectedFormat is reported when a filter line does not match the grammar.
const expectedFormat = `"Filter <id>: <state> <type> Fc <freq> Hz Gain <gain> dB Q <q>"`

// sourceApplicationHint is appended to count errors.
const sourceApplicationHint = "Please check the selected equalizer app is 'EqualizerAPO ParametricEq'."

// staticValues are fields the cDSP format requires that an APO export does
// not carry. Keys and values are kept verbatim; their meaning is not
// documented by the target format.
var staticValues = map[string]float64{
	"30":   3,
	"31":   4,
	"32":   4,
	"33":   4,
	"34":   4,
	"35":   4,
	"36":   4,
	"37":   4,
	"38":   4,
	"39":   2,
	"40":   1,
	"41":   1,
	"42":   1,
	"43":   1,
	"44":   1,
	"45":   1,
	"46":   1,
	"47":   1,
	"48":   1,
	"49":   1,
	"1024": 0,
}

// StaticValues returns a copy of the fixed cDSP fields merged into every
// conversion result.
func StaticValues() map[string]float64 {
	out := make(map[string]float64, len(staticValues))
	for k, v := range staticValues {
		out[k] = v
	}
	return out
}

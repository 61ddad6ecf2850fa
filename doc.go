// Package apo2cdsp converts EqualizerAPO ParametricEq exports into cDSP
// Parametric EQ settings.
//
// An APO export is a text file with an optional preamp line followed by one
// line per band:
//
//	Preamp: -6.2 dB
//	Filter 1: ON PK Fc 105 Hz Gain -3.1 dB Q 0.70
//	Filter 2: ON PK Fc 220 Hz Gain 2.4 dB Q 1.41
//	...
//
// cDSP expects a flat JSON object whose keys are decimal indices. The ten
// gains occupy keys 0-9, the center frequencies keys 10-19 and the Q
// factors keys 20-29. A fixed set of fields (keys 30-49 and 1024) that APO
// does not express is appended unchanged.
//
// # Quick Start
//
//	res, err := apo2cdsp.Convert(rawText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := res.Data.IndentedJSON()
//	os.WriteFile("preset", out, 0o644)
//
// [Convert] strips the preamp line before calling [Parse]. Callers that
// already hold preamp-free text can call [Parse] directly.
//
// # Numeric Encoding
//
// Gains are reduced to single precision. Frequencies are rounded to the
// nearest integer with ties rounding up. Q factors are reduced to single
// precision and then fixed to 14 decimal digits. The output matches the
// reference converter bit for bit.
//
// # Errors
//
// Every failure is a [*ParseError] whose Kind matches one of [ErrInput],
// [ErrFormat], [ErrRange], [ErrCount] or [ErrUnexpected] through
// errors.Is. Format and range errors carry the 1-based source line.
// Parsing stops at the first error; no partial result is returned.
//
// # Thread Safety
//
// [Parse] and [Convert] keep no shared mutable state and may be called
// concurrently.
package apo2cdsp

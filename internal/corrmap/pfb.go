// Package corrmap computes the static index-mapping tables that translate
// between the MWA correlator's three numbering schemes: physical
// antenna/polarization pairs, polyphase filter bank (PFB) input/output
// channel numbers, and the linear storage order of the packed visibility
// data written by the correlator hardware.
//
// All functions here are pure and deterministic. They are computed once per
// dataset by the surrounding reader and handed to the caller as immutable
// results; no state is shared between calls.
package corrmap

// Correlator dimensions. The legacy MWA correlator has 128 tiles with two
// polarizations each, feeding 256 PFB inputs.
const (
	NumAntennas  = 128
	NumPols      = 2
	NumPFBInputs = NumAntennas * NumPols // 256
	NumPolPairs  = NumPols * NumPols     // 4

	// NumBaselines counts all antenna pairs (ant1, ant2) with ant1 <= ant2,
	// auto-correlations included.
	NumBaselines = NumAntennas * (NumAntennas + 1) / 2 // 8256

	// MapLength is the number of (baseline, polarization-pair) slots in the
	// packed correlator output, and the required length of the buffers
	// passed to GenerateMap.
	MapLength = NumBaselines * NumPolPairs // 33024
)

// pfbMapper is the base wiring permutation of a single PFB: entry i is the
// input channel that lands on output channel i. It comes from
// mwa_build_lfiles/antenna_mapping.h, where the rule is
// input = floor(index/4) + index%4 * 16.
var pfbMapper = [64]int{
	0, 16, 32, 48, 1, 17, 33, 49, 2, 18, 34, 50, 3, 19, 35, 51,
	4, 20, 36, 52, 5, 21, 37, 53, 6, 22, 38, 54, 7, 23, 39, 55,
	8, 24, 40, 56, 9, 25, 41, 57, 10, 26, 42, 58, 11, 27, 43, 59,
	12, 28, 44, 60, 13, 29, 45, 61, 14, 30, 46, 62, 15, 31, 47, 63,
}

// InputOutputMapping builds the mapping from PFB input channel numbers to
// PFB output channel numbers (the correlator indices for antenna number and
// polarization). The base permutation covers one PFB of 64 inputs; the full
// 256-input table replicates it across the four PFBs. The result is a
// bijection on [0, 256).
func InputOutputMapping() [NumPFBInputs]int {
	var inToOut [NumPFBInputs]int
	for p := 0; p < 4; p++ {
		for i := 0; i < 64; i++ {
			inToOut[pfbMapper[i]+p*64] = p*64 + i
		}
	}
	return inToOut
}

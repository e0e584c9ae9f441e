package corrmap

import "fmt"

// AntPol identifies one correlator input by antenna number and polarization.
// Polarization 0 is y, 1 is x.
type AntPol struct {
	Antenna int
	Pol     int
}

// BaselineIndex returns the linear index of the ordered antenna pair
// (ant1, ant2) in the upper-triangular baseline enumeration
// (0,0),(0,1),...,(0,127),(1,1),...,(127,127). The enumeration is a
// bijection onto [0, NumBaselines).
func BaselineIndex(ant1, ant2 int) (int, error) {
	if ant1 < 0 || ant1 >= NumAntennas || ant2 < 0 || ant2 >= NumAntennas {
		return 0, fmt.Errorf("antenna numbers out of range [0,%d): got (%d,%d)", NumAntennas, ant1, ant2)
	}
	if ant1 > ant2 {
		return 0, fmt.Errorf("baseline requires ant1 <= ant2: got (%d,%d)", ant1, ant2)
	}
	return baselineIndex(ant1, ant2), nil
}

// baselineIndex is BaselineIndex without range checks, for the hot loops
// where both antennas are loop variables already inside the valid domain.
func baselineIndex(ant1, ant2 int) int {
	return NumAntennas*ant1 - ant1*(ant1+1)/2 + ant2
}

// GenerateMap fills mapInds and conj, both of length MapLength, with the
// packed-data offsets and conjugation flags for every (baseline,
// polarization-pair) combination.
//
// antsToPF maps every (antenna, polarization) pair for antennas 0..127 and
// polarizations {0,1} to a PFB input channel; it comes from the metafits
// input ordering and is consumed opaquely here. inToOut is the 256-entry
// table from InputOutputMapping. Entry bls*4 + (2*p1+p2) of mapInds is the
// offset into the raw correlator dump holding the visibility for baseline
// bls and polarization pair (p1, p2); the matching conj entry reports
// whether that raw value must be complex-conjugated, which happens whenever
// the correlator's native ordering (larger output antenna first) is the
// reverse of the requested pair.
//
// A missing antsToPF key or an out-of-range channel number means the
// caller-supplied mappings are malformed; that is a configuration defect
// and is returned as an error with nothing recovered.
func GenerateMap(antsToPF map[AntPol]int, inToOut []int, mapInds []int32, conj []bool) error {
	if len(inToOut) != NumPFBInputs {
		return fmt.Errorf("input-to-output mapping has %d entries, want %d", len(inToOut), NumPFBInputs)
	}
	if len(mapInds) != MapLength {
		return fmt.Errorf("mapInds buffer has %d entries, want %d", len(mapInds), MapLength)
	}
	if len(conj) != MapLength {
		return fmt.Errorf("conj buffer has %d entries, want %d", len(conj), MapLength)
	}

	for ant1 := 0; ant1 < NumAntennas; ant1++ {
		for ant2 := ant1; ant2 < NumAntennas; ant2++ {
			blsInd := baselineIndex(ant1, ant2)
			for p1 := 0; p1 < NumPols; p1++ {
				for p2 := 0; p2 < NumPols; p2++ {
					polInd := 2*p1 + p2

					// PFB input indices for the wanted pair.
					in1, err := lookupInput(antsToPF, ant1, p1)
					if err != nil {
						return err
					}
					in2, err := lookupInput(antsToPF, ant2, p2)
					if err != nil {
						return err
					}

					// PFB output indices, then the correlator's antenna
					// and polarization numbering.
					out1 := inToOut[in1]
					out2 := inToOut[in2]
					outAnt1, outPol1 := out1/2, out1%2
					outAnt2, outPol2 := out2/2, out2%2

					k := blsInd*NumPolPairs + polInd
					// The correlator stores antenna1 >= antenna2. When the
					// wanted pair comes out reversed, read the mirrored
					// slot and conjugate.
					if outAnt1 < outAnt2 {
						mapInds[k] = int32(2*outAnt2*(outAnt2+1) + 4*outAnt1 + 2*outPol2 + outPol1)
						conj[k] = true
					} else {
						mapInds[k] = int32(2*outAnt1*(outAnt1+1) + 4*outAnt2 + 2*outPol1 + outPol2)
						conj[k] = false
					}
				}
			}
		}
	}
	return nil
}

func lookupInput(antsToPF map[AntPol]int, ant, pol int) (int, error) {
	in, ok := antsToPF[AntPol{Antenna: ant, Pol: pol}]
	if !ok {
		return 0, fmt.Errorf("antenna-to-PFB mapping has no entry for antenna %d polarization %d", ant, pol)
	}
	if in < 0 || in >= NumPFBInputs {
		return 0, fmt.Errorf("antenna %d polarization %d maps to PFB input %d, outside [0,%d)", ant, pol, in, NumPFBInputs)
	}
	return in, nil
}

package corrmap

import "fmt"

// FlaggedBaselines returns the baseline indices of every antenna pair that
// includes at least one flagged antenna, in ascending (ant1, ant2)
// enumeration order. Duplicate antenna numbers in flagged are harmless; an
// out-of-range antenna number is rejected rather than silently producing
// wrong indices.
func FlaggedBaselines(flagged []int) ([]int, error) {
	set := make(map[int]struct{}, len(flagged))
	for _, ant := range flagged {
		if ant < 0 || ant >= NumAntennas {
			return nil, fmt.Errorf("flagged antenna %d outside [0,%d)", ant, NumAntennas)
		}
		set[ant] = struct{}{}
	}

	var inds []int
	for ant1 := 0; ant1 < NumAntennas; ant1++ {
		_, flagged1 := set[ant1]
		for ant2 := ant1; ant2 < NumAntennas; ant2++ {
			if flagged1 {
				inds = append(inds, baselineIndex(ant1, ant2))
				continue
			}
			if _, ok := set[ant2]; ok {
				inds = append(inds, baselineIndex(ant1, ant2))
			}
		}
	}
	return inds, nil
}

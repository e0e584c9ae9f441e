package gpubox

import (
	"fmt"
	"sort"
)

// The coarse channel to file mapping is a quirk of the correlator's
// channelizer: channels up to 128 are assigned to files in ascending order,
// channels above 128 in descending order. So if the lowest channel is 127,
// it goes to the first file, channel 128 to the second, then the HIGHEST
// channel to the third file, the next highest to the fourth, and so on.

// FileNumsToCoarse maps 1-based gpubox file numbers to coarse channel
// numbers for the observation's full channel list.
func FileNumsToCoarse(coarseChans []int) map[int]int {
	count := 0
	for _, c := range coarseChans {
		if c <= 128 {
			count++
		}
	}
	out := make(map[int]int, len(coarseChans))
	for i := range coarseChans {
		if i < count {
			out[i+1] = coarseChans[i]
		} else {
			out[i+1] = coarseChans[len(coarseChans)+count-i-1]
		}
	}
	return out
}

// FileNumsToIndex maps gpubox file numbers to the index that orders the
// included coarse channels by frequency.
func FileNumsToIndex(includedCoarse []int) map[int]int {
	count := 0
	for _, c := range includedCoarse {
		if c <= 128 {
			count++
		}
	}
	out := make(map[int]int, len(includedCoarse))
	for i := range includedCoarse {
		if i < count {
			out[i+1] = i
		} else {
			out[i+1] = len(includedCoarse) + count - i - 1
		}
	}
	return out
}

// IncludedCoarse resolves the coarse channels actually present given the
// file numbers scanned from disk, sorted ascending.
func IncludedCoarse(coarseChans []int, fileNums []int) ([]int, error) {
	numsToCoarse := FileNumsToCoarse(coarseChans)
	included := make([]int, 0, len(fileNums))
	for _, num := range fileNums {
		c, ok := numsToCoarse[num]
		if !ok {
			return nil, fmt.Errorf("gpubox file number %d has no coarse channel (observation lists %d channels)", num, len(coarseChans))
		}
		included = append(included, c)
	}
	sort.Ints(included)
	return included, nil
}

// Contiguous reports whether the sorted channel list has no gaps.
func Contiguous(chans []int) bool {
	for i := 1; i < len(chans); i++ {
		if chans[i]-chans[i-1] != 1 {
			return false
		}
	}
	return true
}

// FrequencyArrayHz builds the fine channel center frequencies for the
// included coarse channels, sorted ascending. Each coarse channel is
// 1280 kHz wide and splits into 10 kHz fine channels; the first fine
// channel of a coarse channel is centered on its lower bound frequency,
// coarse*1280-640 kHz. When fine channels have been averaged by some
// factor, each center shifts up by (factor-1)*width/2.
func FrequencyArrayHz(includedCoarse []int, numFineChans int, chanWidthHz float64) []float64 {
	avgFactor := chanWidthHz / 10000
	widthKHz := chanWidthHz / 1000
	offset := (avgFactor - 1) * widthKHz / 2

	sorted := append([]int(nil), includedCoarse...)
	sort.Ints(sorted)

	freqs := make([]float64, 0, len(sorted)*numFineChans)
	for _, c := range sorted {
		lowerKHz := float64(c*1280 - 640)
		first := lowerKHz + offset
		for j := 0; j < numFineChans; j++ {
			freqs = append(freqs, (first+float64(j)*widthKHz)*1000)
		}
	}
	return freqs
}

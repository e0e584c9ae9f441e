package gpubox

import "math"

// TimeCenters builds the integration center times covering the scanned
// range: tr.Start+intTime/2, stepping by intTime, up to and including
// tr.End+intTime/2.
func TimeCenters(tr TimeRange, intTime float64) []float64 {
	if intTime <= 0 {
		return nil
	}
	n := int(math.Ceil((tr.End-tr.Start)/intTime + 1 - 1e-9))
	if n < 1 {
		n = 1
	}
	centers := make([]float64, n)
	for k := range centers {
		centers[k] = tr.Start + intTime/2 + float64(k)*intTime
	}
	return centers
}

// UnixToJD converts unix seconds (UTC) to a Julian date.
func UnixToJD(t float64) float64 {
	return t/86400.0 + 2440587.5
}

// JulianDates converts a slice of unix times in place-order to Julian dates.
func JulianDates(unix []float64) []float64 {
	out := make([]float64, len(unix))
	for i, t := range unix {
		out[i] = UnixToJD(t)
	}
	return out
}

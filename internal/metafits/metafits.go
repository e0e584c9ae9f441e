// Package metafits parses MWA metafits files: the observation header
// keywords and the per-input antenna table that together describe how the
// correlator inputs were wired for an observation.
package metafits

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dbehnke/mwa2uv/internal/corrmap"
	"github.com/dbehnke/mwa2uv/internal/fits"
)

// Antenna is one tile of the array.
type Antenna struct {
	Number   int
	TileName string
	Flagged  bool
	// Position in local topocentric east/north/height meters, relative to
	// the array center.
	East, North, Height float64
}

// Metadata is everything the conversion pipeline needs from a metafits file.
type Metadata struct {
	Telescope       string
	Filename        string
	History         string
	CoarseChannels  []int
	IntTime         float64 // seconds
	FineChanWidthHz float64

	// Antennas is sorted by antenna number.
	Antennas []Antenna

	// inputOrder holds antenna numbers in metafits input order; correlator
	// input 2*i+p belongs to antenna inputOrder[i] polarization p.
	inputOrder []int
}

// Parse reads the metafits file at path.
func Parse(path string) (*Metadata, error) {
	f, err := fits.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdu, err := f.HDU(0)
	if err != nil {
		return nil, err
	}
	hdr := hdu.Header

	m := &Metadata{History: hdr.History()}
	if m.Telescope, err = hdr.Str("TELESCOP"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Filename, err = hdr.Str("FILENAME"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.IntTime, err = hdr.Float("INTTIME"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fineChan, err := hdr.Float("FINECHAN")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.FineChanWidthHz = fineChan * 1000 // FINECHAN is in kHz

	channels, err := hdr.Str("CHANNELS")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.CoarseChannels, err = parseChannels(channels); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tbl, err := f.Table(1)
	if err != nil {
		return nil, err
	}
	numbers, err := tbl.Ints("Antenna")
	if err != nil {
		return nil, err
	}
	names, err := tbl.Strings("TileName")
	if err != nil {
		return nil, err
	}
	flags, err := tbl.Ints("Flag")
	if err != nil {
		return nil, err
	}
	east, err := tbl.Floats("East")
	if err != nil {
		return nil, err
	}
	north, err := tbl.Floats("North")
	if err != nil {
		return nil, err
	}
	height, err := tbl.Floats("Height")
	if err != nil {
		return nil, err
	}

	if err := m.fromColumns(numbers, names, flags, east, north, height); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseChannels(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	chans := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad CHANNELS entry %q", p)
		}
		chans = append(chans, v)
	}
	return chans, nil
}

// fromColumns digests the raw antenna table. The table has one row per
// correlator input, so each antenna appears twice (once per polarization);
// per-antenna values are taken from the second row of each pair.
func (m *Metadata) fromColumns(numbers []int64, names []string, flags []int64, east, north, height []float64) error {
	n := len(numbers)
	if n == 0 || n%2 != 0 {
		return fmt.Errorf("antenna table has %d rows, want an even, nonzero count", n)
	}
	for _, col := range [][]float64{east, north, height} {
		if len(col) != n {
			return fmt.Errorf("antenna table columns disagree on row count")
		}
	}
	if len(names) != n || len(flags) != n {
		return fmt.Errorf("antenna table columns disagree on row count")
	}

	m.Antennas = m.Antennas[:0]
	m.inputOrder = m.inputOrder[:0]
	for r := 1; r < n; r += 2 {
		ant := Antenna{
			Number:   int(numbers[r]),
			TileName: names[r],
			Flagged:  flags[r] == 1,
			East:     east[r],
			North:    north[r],
			Height:   height[r],
		}
		m.Antennas = append(m.Antennas, ant)
		m.inputOrder = append(m.inputOrder, ant.Number)
	}

	sort.Slice(m.Antennas, func(i, j int) bool {
		return m.Antennas[i].Number < m.Antennas[j].Number
	})
	for i := 1; i < len(m.Antennas); i++ {
		if m.Antennas[i].Number == m.Antennas[i-1].Number {
			return fmt.Errorf("antenna number %d appears twice", m.Antennas[i].Number)
		}
	}
	return nil
}

// AntsToPFInputs returns the mapping from (antenna number, polarization) to
// PFB input channel implied by the metafits input ordering. It is the
// antenna mapping GenerateMap consumes.
func (m *Metadata) AntsToPFInputs() map[corrmap.AntPol]int {
	out := make(map[corrmap.AntPol]int, 2*len(m.inputOrder))
	for i, ant := range m.inputOrder {
		for p := 0; p < corrmap.NumPols; p++ {
			out[corrmap.AntPol{Antenna: ant, Pol: p}] = 2*i + p
		}
	}
	return out
}

// FlaggedAntennas returns the numbers of antennas flagged in the metafits,
// in ascending order.
func (m *Metadata) FlaggedAntennas() []int {
	var flagged []int
	for _, a := range m.Antennas {
		if a.Flagged {
			flagged = append(flagged, a.Number)
		}
	}
	return flagged
}

// PositionsENU returns the antenna positions in east/north/height meters,
// ordered by antenna number.
func (m *Metadata) PositionsENU() [][3]float64 {
	out := make([][3]float64, len(m.Antennas))
	for i, a := range m.Antennas {
		out[i] = [3]float64{a.East, a.North, a.Height}
	}
	return out
}

// NumBaselines returns the baseline count for the array size, including
// auto-correlations.
func (m *Metadata) NumBaselines() int {
	n := len(m.Antennas)
	return n * (n + 1) / 2
}

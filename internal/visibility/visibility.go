// Package visibility turns raw packed correlator dumps into the standard
// baseline-ordered visibility cube, using the index-mapping tables from
// corrmap, and applies baseline masks for flagged antennas.
package visibility

import (
	"fmt"

	"github.com/dbehnke/mwa2uv/internal/corrmap"
	"github.com/dbehnke/mwa2uv/internal/gpubox"
)

// PolarizationCodes are the AIPS codes of the cube's polarization axis, in
// output order yy, yx, xy, xx.
var PolarizationCodes = [corrmap.NumPolPairs]int{-6, -8, -7, -5}

// Cube is a visibility data set ordered (time, baseline, frequency,
// polarization), baselines in upper-triangular (ant1, ant2) order.
type Cube struct {
	Ntimes int
	Nbls   int
	Nfreqs int
	Npols  int

	Data     []complex64
	Flags    []bool
	Nsamples []float32
}

func newCube(ntimes, nbls, nfreqs, npols int) *Cube {
	n := ntimes * nbls * nfreqs * npols
	return &Cube{
		Ntimes:   ntimes,
		Nbls:     nbls,
		Nfreqs:   nfreqs,
		Npols:    npols,
		Data:     make([]complex64, n),
		Flags:    make([]bool, n),
		Nsamples: make([]float32, n),
	}
}

// Index returns the flat offset of (time, baseline, freq, pol).
func (c *Cube) Index(t, b, f, p int) int {
	return ((t*c.Nbls+b)*c.Nfreqs+f)*c.Npols + p
}

// At returns the visibility at (time, baseline, freq, pol).
func (c *Cube) At(t, b, f, p int) complex64 {
	return c.Data[c.Index(t, b, f, p)]
}

// NumBlts returns the length of the flattened baseline-time axis.
func (c *Cube) NumBlts() int {
	return c.Ntimes * c.Nbls
}

// Assemble gathers a raw dump into baseline order. mapInds and conj are the
// tables from corrmap.GenerateMap: entry bls*4+pol names the dump slot
// holding that visibility and whether it must be conjugated.
func Assemble(d *gpubox.Dump, mapInds []int32, conj []bool) (*Cube, error) {
	if len(mapInds) != len(conj) {
		return nil, fmt.Errorf("mapInds has %d entries but conj has %d", len(mapInds), len(conj))
	}
	if len(mapInds) == 0 || len(mapInds)%corrmap.NumPolPairs != 0 {
		return nil, fmt.Errorf("map table length %d is not a multiple of %d", len(mapInds), corrmap.NumPolPairs)
	}
	for k, ind := range mapInds {
		if ind < 0 || int(ind) >= d.Nslots {
			return nil, fmt.Errorf("map entry %d points at slot %d, outside the dump's %d slots", k, ind, d.Nslots)
		}
	}

	nbls := len(mapInds) / corrmap.NumPolPairs
	c := newCube(d.Ntimes, nbls, d.Nfreqs, corrmap.NumPolPairs)

	for b := 0; b < nbls; b++ {
		for p := 0; p < corrmap.NumPolPairs; p++ {
			k := b*corrmap.NumPolPairs + p
			src := int(mapInds[k])
			flip := conj[k]
			for t := 0; t < d.Ntimes; t++ {
				for f := 0; f < d.Nfreqs; f++ {
					v := d.At(t, f, src)
					if flip {
						v = complex(real(v), -imag(v))
					}
					ci := c.Index(t, b, f, p)
					c.Data[ci] = v
					if d.Flagged(t, f, src) {
						c.Flags[ci] = true
					} else {
						c.Nsamples[ci] = 1
					}
				}
			}
		}
	}
	return c, nil
}

// MaskBaselines flags every sample of the named baselines, for antennas
// flagged in the metafits (corrmap.FlaggedBaselines output).
func (c *Cube) MaskBaselines(blsInds []int) error {
	for _, b := range blsInds {
		if b < 0 || b >= c.Nbls {
			return fmt.Errorf("baseline index %d outside [0,%d)", b, c.Nbls)
		}
		for t := 0; t < c.Ntimes; t++ {
			for f := 0; f < c.Nfreqs; f++ {
				for p := 0; p < c.Npols; p++ {
					c.Flags[c.Index(t, b, f, p)] = true
				}
			}
		}
	}
	return nil
}

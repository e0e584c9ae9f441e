package gpubox

import (
	"fmt"
	"math"

	"github.com/dbehnke/mwa2uv/internal/fits"
)

// Dump holds the raw packed correlator output: complex visibilities indexed
// by (time, fine frequency, packed baseline*pol slot), plus a parallel flag
// array. Slots start out flagged and are unflagged as data is read in, so
// missing HDUs stay flagged automatically.
type Dump struct {
	Ntimes int
	Nfreqs int
	Nslots int

	Data  []complex64
	Flags []bool
}

// NewDump allocates a fully flagged dump.
func NewDump(ntimes, nfreqs, nslots int) *Dump {
	d := &Dump{
		Ntimes: ntimes,
		Nfreqs: nfreqs,
		Nslots: nslots,
		Data:   make([]complex64, ntimes*nfreqs*nslots),
		Flags:  make([]bool, ntimes*nfreqs*nslots),
	}
	for i := range d.Flags {
		d.Flags[i] = true
	}
	return d
}

// Index returns the flat offset of (time, freq, slot).
func (d *Dump) Index(t, f, s int) int {
	return (t*d.Nfreqs+f)*d.Nslots + s
}

// At returns the visibility at (time, freq, slot).
func (d *Dump) At(t, f, s int) complex64 {
	return d.Data[d.Index(t, f, s)]
}

// Flagged reports whether (time, freq, slot) never received data.
func (d *Dump) Flagged(t, f, s int) bool {
	return d.Flags[d.Index(t, f, s)]
}

// ReadDump reads every file in the set into a dump with nslots packed
// baseline*pol slots per fine channel. numsToIndex orders the files on the
// frequency axis (FileNumsToIndex); timeCenters orders the HDUs on the time
// axis (TimeCenters).
func (fs *FileSet) ReadDump(numsToIndex map[int]int, timeCenters []float64, intTime float64, nslots int) (*Dump, error) {
	d := NewDump(len(timeCenters), len(fs.Nums)*fs.NumFineChans, nslots)

	for _, path := range fs.Paths {
		if err := d.readFile(fs, path, numsToIndex, timeCenters, intTime, nslots); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dump) readFile(fs *FileSet, path string, numsToIndex map[int]int, timeCenters []float64, intTime float64, nslots int) error {
	num, err := FileNumber(path)
	if err != nil {
		return err
	}
	idx, ok := numsToIndex[num]
	if !ok {
		return fmt.Errorf("%s: gpubox number %d has no frequency index", path, num)
	}
	freqBase := idx * fs.NumFineChans

	f, err := fits.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 1; i < f.NumHDUs(); i++ {
		t, err := hduTime(f, i)
		if err != nil {
			return err
		}
		timeInd, err := matchTime(timeCenters, t+intTime/2)
		if err != nil {
			return fmt.Errorf("%s: HDU %d: %w", path, i, err)
		}

		dims, err := f.ImageDims(i)
		if err != nil {
			return err
		}
		if len(dims) != 2 || dims[0] != 2*nslots {
			return fmt.Errorf("%s: HDU %d: image is %v, want %d floats per row", path, i, dims, 2*nslots)
		}
		rows := dims[1]
		if rows > fs.NumFineChans {
			return fmt.Errorf("%s: HDU %d: %d fine channels, want at most %d", path, i, rows, fs.NumFineChans)
		}

		img, err := f.ImageFloat32(i)
		if err != nil {
			return err
		}
		for row := 0; row < rows; row++ {
			base := d.Index(timeInd, freqBase+row, 0)
			for s := 0; s < nslots; s++ {
				re := img[row*2*nslots+2*s]
				im := img[row*2*nslots+2*s+1]
				d.Data[base+s] = complex(re, im)
				d.Flags[base+s] = false
			}
		}
	}
	return nil
}

// matchTime finds the integration whose center equals t. MILLITIM has
// millisecond granularity, so a small tolerance absorbs the float round
// trip.
func matchTime(centers []float64, t float64) (int, error) {
	for i, c := range centers {
		if math.Abs(c-t) < 1e-3 {
			return i, nil
		}
	}
	return 0, fmt.Errorf("timestamp %.3f matches no integration center", t)
}

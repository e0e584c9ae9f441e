// Package gpubox organizes the gpubox data files a legacy MWA correlator
// observation is spread across: which coarse channel each file carries,
// the frequency and time axes they imply, and the raw packed visibility
// dumps inside them.
package gpubox

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dbehnke/mwa2uv/internal/fits"
)

// IsDataFile reports whether path looks like a gpubox visibility file
// (the correlator writes *_00.fits and *_01.fits parts).
func IsDataFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, "00.fits") || strings.HasSuffix(lower, "01.fits")
}

// FileNumber extracts the gpubox number from a data file name: the last two
// digits of the second-to-last underscore-separated token, e.g.
// 1131733552_20151110121313_gpubox07_00.fits -> 7.
func FileNumber(path string) (int, error) {
	parts := strings.Split(filepath.Base(path), "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%s: cannot find gpubox number in file name", path)
	}
	tok := parts[len(parts)-2]
	if len(tok) < 2 {
		return 0, fmt.Errorf("%s: cannot find gpubox number in file name", path)
	}
	num, err := strconv.Atoi(tok[len(tok)-2:])
	if err != nil {
		return 0, fmt.Errorf("%s: cannot find gpubox number in file name", path)
	}
	return num, nil
}

// TimeRange is the first and last data timestamps of an observation, in
// unix seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// FileSet is the result of scanning a set of gpubox data files.
type FileSet struct {
	Paths []string
	// Nums are the gpubox numbers present, in first-seen order without
	// duplicates.
	Nums         []int
	Times        TimeRange
	NumFineChans int
}

// Scan opens every data file, collecting the gpubox numbers present, the
// overall time range, and the fine channel count per coarse channel. Files
// disagreeing on the fine channel count are a hard error.
func Scan(paths []string) (*FileSet, error) {
	fs := &FileSet{}
	seen := make(map[int]bool)

	for _, path := range paths {
		num, err := FileNumber(path)
		if err != nil {
			return nil, err
		}
		if !seen[num] {
			seen[num] = true
			fs.Nums = append(fs.Nums, num)
		}
		fs.Paths = append(fs.Paths, path)

		f, err := fits.Open(path)
		if err != nil {
			return nil, err
		}
		if err := fs.scanFile(f); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
	}

	if len(fs.Paths) == 0 {
		return nil, fmt.Errorf("no gpubox data files submitted")
	}
	return fs, nil
}

func (fs *FileSet) scanFile(f *fits.File) error {
	if f.NumHDUs() < 2 {
		return fmt.Errorf("%s: no data HDUs", f.Name())
	}
	first, err := hduTime(f, 1)
	if err != nil {
		return err
	}
	last, err := hduTime(f, f.NumHDUs()-1)
	if err != nil {
		return err
	}
	if fs.Times.Start == 0 || fs.Times.Start > first {
		fs.Times.Start = first
	}
	if fs.Times.End < last {
		fs.Times.End = last
	}

	hdu, err := f.HDU(1)
	if err != nil {
		return err
	}
	// Some early test files lack NAXIS2; treat them as one fine channel.
	fineChans := int(hdu.Header.IntOr("NAXIS2", 1))
	switch {
	case fs.NumFineChans == 0:
		fs.NumFineChans = fineChans
	case fs.NumFineChans != fineChans:
		return fmt.Errorf("%s: fine channel count %d disagrees with earlier files (%d)", f.Name(), fineChans, fs.NumFineChans)
	}
	return nil
}

// hduTime returns the timestamp of data HDU i in unix seconds.
func hduTime(f *fits.File, i int) (float64, error) {
	hdu, err := f.HDU(i)
	if err != nil {
		return 0, err
	}
	sec, err := hdu.Header.Int("TIME")
	if err != nil {
		return 0, fmt.Errorf("%s: HDU %d: %w", f.Name(), i, err)
	}
	milli := hdu.Header.IntOr("MILLITIM", 0)
	return float64(sec) + float64(milli)/1000.0, nil
}

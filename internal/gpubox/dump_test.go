package gpubox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const (
	testSlots = 4
	testRows  = 2
)

func card(key, value string) []byte {
	s := key
	for len(s) < 8 {
		s += " "
	}
	s += "= " + value
	for len(s) < 80 {
		s += " "
	}
	return []byte(s)
}

func endHeader(b *bytes.Buffer) {
	b.WriteString("END")
	for b.Len()%2880 != 0 {
		b.WriteByte(' ')
	}
}

func pad(b *bytes.Buffer) {
	for b.Len()%2880 != 0 {
		b.WriteByte(0)
	}
}

// writeGpuboxFile writes a data file with one image HDU per entry of times;
// HDU k, fine channel row r, slot s holds re = 100k+10r+s, im = -(s+1).
func writeGpuboxFile(t *testing.T, path string, times []float64) {
	t.Helper()
	var b bytes.Buffer
	b.Write(card("SIMPLE", "T"))
	b.Write(card("BITPIX", "8"))
	b.Write(card("NAXIS", "0"))
	endHeader(&b)

	for k, tm := range times {
		sec := int64(tm)
		milli := int64((tm - float64(sec)) * 1000)
		b.Write(card("XTENSION", "'IMAGE   '"))
		b.Write(card("BITPIX", "-32"))
		b.Write(card("NAXIS", "2"))
		b.Write(card("NAXIS1", fmt.Sprintf("%d", 2*testSlots)))
		b.Write(card("NAXIS2", fmt.Sprintf("%d", testRows)))
		b.Write(card("TIME", fmt.Sprintf("%d", sec)))
		b.Write(card("MILLITIM", fmt.Sprintf("%d", milli)))
		endHeader(&b)

		var data bytes.Buffer
		for r := 0; r < testRows; r++ {
			for s := 0; s < testSlots; s++ {
				re := float32(100*k + 10*r + s)
				im := float32(-(s + 1))
				binary.Write(&data, binary.BigEndian, math.Float32bits(re))
				binary.Write(&data, binary.BigEndian, math.Float32bits(im))
			}
		}
		b.Write(data.Bytes())
		pad(&b)
	}

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestScanAndReadDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1131733552_20151110121313_gpubox01_00.fits")
	writeGpuboxFile(t, path, []float64{1000, 1000.5})

	fs, err := Scan([]string{path})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(fs.Nums) != 1 || fs.Nums[0] != 1 {
		t.Fatalf("Nums = %v, want [1]", fs.Nums)
	}
	if fs.NumFineChans != testRows {
		t.Fatalf("NumFineChans = %d, want %d", fs.NumFineChans, testRows)
	}
	if fs.Times.Start != 1000 || fs.Times.End != 1000.5 {
		t.Fatalf("Times = %+v, want {1000 1000.5}", fs.Times)
	}

	const intTime = 0.5
	centers := TimeCenters(fs.Times, intTime)
	if len(centers) != 2 {
		t.Fatalf("TimeCenters = %v, want 2 entries", centers)
	}

	dump, err := fs.ReadDump(map[int]int{1: 0}, centers, intTime, testSlots)
	if err != nil {
		t.Fatalf("ReadDump: %v", err)
	}
	if dump.Ntimes != 2 || dump.Nfreqs != testRows || dump.Nslots != testSlots {
		t.Fatalf("dump dims = (%d,%d,%d)", dump.Ntimes, dump.Nfreqs, dump.Nslots)
	}

	for k := 0; k < 2; k++ {
		for r := 0; r < testRows; r++ {
			for s := 0; s < testSlots; s++ {
				want := complex(float32(100*k+10*r+s), float32(-(s+1)))
				if got := dump.At(k, r, s); got != want {
					t.Errorf("At(%d,%d,%d) = %v, want %v", k, r, s, got, want)
				}
				if dump.Flagged(k, r, s) {
					t.Errorf("Flagged(%d,%d,%d) = true after reading data", k, r, s)
				}
			}
		}
	}
}

// A file whose gpubox number has no frequency index is a configuration
// defect, not something to paper over.
func TestReadDumpUnknownFileNumber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1131733552_20151110121313_gpubox05_00.fits")
	writeGpuboxFile(t, path, []float64{1000})

	fs, err := Scan([]string{path})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	centers := TimeCenters(fs.Times, 0.5)
	if _, err := fs.ReadDump(map[int]int{1: 0}, centers, 0.5, testSlots); err == nil {
		t.Errorf("ReadDump succeeded, want error for unmapped gpubox number")
	}
}

// Missing integrations stay flagged: scanning two HDUs but feeding a time
// axis with an extra center leaves that center flagged everywhere.
func TestReadDumpMissingTimesStayFlagged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1131733552_20151110121313_gpubox01_00.fits")
	writeGpuboxFile(t, path, []float64{1000})

	fs, err := Scan([]string{path})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	const intTime = 0.5
	// Hand-build a time axis one integration longer than the data.
	centers := []float64{1000.25, 1000.75}
	dump, err := fs.ReadDump(map[int]int{1: 0}, centers, intTime, testSlots)
	if err != nil {
		t.Fatalf("ReadDump: %v", err)
	}

	for r := 0; r < testRows; r++ {
		for s := 0; s < testSlots; s++ {
			if dump.Flagged(0, r, s) {
				t.Errorf("Flagged(0,%d,%d) = true, want false", r, s)
			}
			if !dump.Flagged(1, r, s) {
				t.Errorf("Flagged(1,%d,%d) = false, want true", r, s)
			}
		}
	}
}

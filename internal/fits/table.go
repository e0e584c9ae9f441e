package fits

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// column describes one field of a binary table row.
type column struct {
	name   string
	typ    byte // FITS TFORM type code
	repeat int
	offset int // byte offset inside a row
}

func (c *column) elemSize() int {
	switch c.typ {
	case 'A', 'B', 'L':
		return 1
	case 'I':
		return 2
	case 'J', 'E':
		return 4
	case 'K', 'D':
		return 8
	}
	return 0
}

// Table is a loaded BINTABLE HDU.
type Table struct {
	name    string
	cols    []column
	rowSize int
	nrows   int
	data    []byte
}

// Table loads HDU i, which must be a BINTABLE extension, into memory.
func (f *File) Table(i int) (*Table, error) {
	hdu, err := f.HDU(i)
	if err != nil {
		return nil, err
	}
	xt, err := hdu.Header.Str("XTENSION")
	if err != nil || strings.TrimSpace(xt) != "BINTABLE" {
		return nil, fmt.Errorf("%s: HDU %d is not a binary table", f.name, i)
	}

	rowSize, err := hdu.Header.Int("NAXIS1")
	if err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
	}
	nrows, err := hdu.Header.Int("NAXIS2")
	if err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
	}
	nfields, err := hdu.Header.Int("TFIELDS")
	if err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
	}

	t := &Table{name: f.name, rowSize: int(rowSize), nrows: int(nrows)}
	offset := 0
	for n := 1; n <= int(nfields); n++ {
		ttype, err := hdu.Header.Str(fmt.Sprintf("TTYPE%d", n))
		if err != nil {
			return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
		}
		tform, err := hdu.Header.Str(fmt.Sprintf("TFORM%d", n))
		if err != nil {
			return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
		}
		col, err := parseTForm(strings.TrimSpace(ttype), strings.TrimSpace(tform))
		if err != nil {
			return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
		}
		col.offset = offset
		offset += col.repeat * col.elemSize()
		t.cols = append(t.cols, col)
	}
	if offset > t.rowSize {
		return nil, fmt.Errorf("%s: HDU %d: columns span %d bytes but NAXIS1 is %d", f.name, i, offset, t.rowSize)
	}

	t.data, err = f.readData(hdu)
	if err != nil {
		return nil, err
	}
	if len(t.data) < t.rowSize*t.nrows {
		return nil, fmt.Errorf("%s: HDU %d: table data truncated", f.name, i)
	}
	return t, nil
}

func parseTForm(name, tform string) (column, error) {
	if tform == "" {
		return column{}, fmt.Errorf("column %s: empty TFORM", name)
	}
	split := 0
	for split < len(tform) && tform[split] >= '0' && tform[split] <= '9' {
		split++
	}
	repeat := 1
	if split > 0 {
		r, err := strconv.Atoi(tform[:split])
		if err != nil {
			return column{}, fmt.Errorf("column %s: bad TFORM %q", name, tform)
		}
		repeat = r
	}
	if split == len(tform) {
		return column{}, fmt.Errorf("column %s: TFORM %q has no type code", name, tform)
	}
	col := column{name: name, typ: tform[split], repeat: repeat}
	if col.elemSize() == 0 {
		return column{}, fmt.Errorf("column %s: unsupported TFORM type %q", name, string(col.typ))
	}
	return col, nil
}

// NumRows returns the number of table rows.
func (t *Table) NumRows() int { return t.nrows }

func (t *Table) col(name string) (*column, error) {
	for i := range t.cols {
		if strings.EqualFold(t.cols[i].name, name) {
			return &t.cols[i], nil
		}
	}
	return nil, fmt.Errorf("%s: table has no column %q", t.name, name)
}

// Strings returns an A-type column, one trimmed string per row.
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.col(name)
	if err != nil {
		return nil, err
	}
	if c.typ != 'A' {
		return nil, fmt.Errorf("%s: column %q is type %c, not a string", t.name, name, c.typ)
	}
	out := make([]string, t.nrows)
	for r := 0; r < t.nrows; r++ {
		raw := t.data[r*t.rowSize+c.offset : r*t.rowSize+c.offset+c.repeat]
		out[r] = strings.TrimRight(string(raw), " \x00")
	}
	return out, nil
}

// Ints returns an integer column. For array columns only the first element
// of each row is returned.
func (t *Table) Ints(name string) ([]int64, error) {
	c, err := t.col(name)
	if err != nil {
		return nil, err
	}
	out := make([]int64, t.nrows)
	for r := 0; r < t.nrows; r++ {
		raw := t.data[r*t.rowSize+c.offset:]
		switch c.typ {
		case 'B':
			out[r] = int64(raw[0])
		case 'I':
			out[r] = int64(int16(binary.BigEndian.Uint16(raw)))
		case 'J':
			out[r] = int64(int32(binary.BigEndian.Uint32(raw)))
		case 'K':
			out[r] = int64(binary.BigEndian.Uint64(raw))
		default:
			return nil, fmt.Errorf("%s: column %q is type %c, not an integer", t.name, name, c.typ)
		}
	}
	return out, nil
}

// Floats returns a floating-point column. For array columns only the first
// element of each row is returned.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.col(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.nrows)
	for r := 0; r < t.nrows; r++ {
		raw := t.data[r*t.rowSize+c.offset:]
		switch c.typ {
		case 'E':
			out[r] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw)))
		case 'D':
			out[r] = math.Float64frombits(binary.BigEndian.Uint64(raw))
		default:
			return nil, fmt.Errorf("%s: column %q is type %c, not floating point", t.name, name, c.typ)
		}
	}
	return out, nil
}

// Package fits reads the subset of the FITS container format that MWA
// correlator products use: ASCII header blocks, 32-bit image HDUs with
// linear scaling, and binary tables with scalar and string columns. It is a
// reader only; nothing here writes FITS.
package fits

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Header holds the keyword records of one HDU.
type Header struct {
	values  map[string]string
	history []string
}

// Has reports whether the header contains a value for key.
func (h *Header) Has(key string) bool {
	_, ok := h.values[strings.ToUpper(key)]
	return ok
}

// Str returns the string value of key (quotes already stripped).
func (h *Header) Str(key string) (string, error) {
	v, ok := h.values[strings.ToUpper(key)]
	if !ok {
		return "", fmt.Errorf("header keyword %s not present", strings.ToUpper(key))
	}
	return v, nil
}

// Int returns the integer value of key.
func (h *Header) Int(key string) (int64, error) {
	s, err := h.Str(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("header keyword %s: %q is not an integer", strings.ToUpper(key), s)
	}
	return v, nil
}

// Float returns the floating-point value of key. Integer-formatted values
// parse too.
func (h *Header) Float(key string) (float64, error) {
	s, err := h.Str(key)
	if err != nil {
		return 0, err
	}
	// Old FITS writers emit Fortran D exponents.
	s = strings.ReplaceAll(s, "D", "E")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("header keyword %s: %q is not a number", strings.ToUpper(key), s)
	}
	return v, nil
}

// IntOr returns the integer value of key, or def when absent.
func (h *Header) IntOr(key string, def int64) int64 {
	if !h.Has(key) {
		return def
	}
	v, err := h.Int(key)
	if err != nil {
		return def
	}
	return v
}

// FloatOr returns the floating-point value of key, or def when absent.
func (h *Header) FloatOr(key string, def float64) float64 {
	if !h.Has(key) {
		return def
	}
	v, err := h.Float(key)
	if err != nil {
		return def
	}
	return v
}

// History returns the accumulated HISTORY records joined by newlines.
func (h *Header) History() string {
	return strings.Join(h.history, "\n")
}

// HDU is one header-data unit. Data access goes through the owning File.
type HDU struct {
	Index  int
	Header *Header

	dataStart int64
	dataLen   int64
}

// File is an open FITS container.
type File struct {
	r      io.ReadSeeker
	closer io.Closer
	name   string
	hdus   []*HDU
}

// Open opens path and scans every HDU in it.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FITS file: %w", err)
	}
	f, err := Read(fh)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.name = path
	f.closer = fh
	return f, nil
}

// Read scans every HDU reachable through r. The reader must remain valid
// for the lifetime of the returned File; data is read lazily.
func Read(r io.ReadSeeker) (*File, error) {
	f := &File{r: r, name: "fits stream"}

	var pos int64
	for {
		hdr, err := readHeader(r, pos, len(f.hdus))
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		hdu := &HDU{Index: len(f.hdus), Header: hdr}
		hdu.dataLen = dataLength(hdr)
		// Data starts at the next block boundary after the header.
		cur, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		hdu.dataStart = cur
		f.hdus = append(f.hdus, hdu)

		pos = hdu.dataStart + paddedLength(hdu.dataLen)
	}

	if len(f.hdus) == 0 {
		return nil, fmt.Errorf("no HDUs found")
	}
	return f, nil
}

// Close closes the underlying file when Open created it.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Name returns the path the file was opened from.
func (f *File) Name() string { return f.name }

// NumHDUs returns the number of header-data units in the file.
func (f *File) NumHDUs() int { return len(f.hdus) }

// HDU returns unit i.
func (f *File) HDU(i int) (*HDU, error) {
	if i < 0 || i >= len(f.hdus) {
		return nil, fmt.Errorf("%s: HDU %d out of range (file has %d)", f.name, i, len(f.hdus))
	}
	return f.hdus[i], nil
}

// readHeader reads consecutive 2880-byte blocks starting at pos until the
// END card. io.EOF at the first block boundary means no more HDUs.
func readHeader(r io.ReadSeeker, pos int64, index int) (*Header, error) {
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}

	h := &Header{values: make(map[string]string)}
	block := make([]byte, blockSize)
	for {
		n, err := io.ReadFull(r, block)
		if err == io.EOF && n == 0 {
			if len(h.values) == 0 && len(h.history) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("HDU %d: header truncated", index)
		}
		if err != nil {
			return nil, fmt.Errorf("HDU %d: reading header block: %w", index, err)
		}

		ended, err := parseCards(block, h)
		if err != nil {
			return nil, fmt.Errorf("HDU %d: %w", index, err)
		}
		if ended {
			return h, nil
		}
	}
}

func parseCards(block []byte, h *Header) (bool, error) {
	for off := 0; off < blockSize; off += cardSize {
		card := block[off : off+cardSize]
		key := strings.TrimRight(string(card[:8]), " ")
		switch key {
		case "END":
			return true, nil
		case "", "COMMENT":
			continue
		case "HISTORY":
			h.history = append(h.history, strings.TrimRight(string(card[8:]), " "))
			continue
		}
		if card[8] != '=' {
			// Commentary-style card with a non-standard keyword; ignore.
			continue
		}
		value, err := parseValue(card[10:])
		if err != nil {
			return false, fmt.Errorf("keyword %s: %w", key, err)
		}
		h.values[key] = value
	}
	return false, nil
}

// parseValue extracts the value field from the part of a card after "= ".
// Quoted strings use '' as an escaped quote; everything after an unquoted /
// is a comment.
func parseValue(field []byte) (string, error) {
	s := string(field)
	trimmed := strings.TrimLeft(s, " ")
	if !strings.HasPrefix(trimmed, "'") {
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(s), nil
	}

	// Quoted string value.
	var b strings.Builder
	rest := trimmed[1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] != '\'' {
			b.WriteByte(rest[i])
			continue
		}
		if i+1 < len(rest) && rest[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return strings.TrimRight(b.String(), " "), nil
	}
	return "", fmt.Errorf("unterminated string value")
}

// dataLength computes the unpadded byte count of an HDU's data area per the
// FITS standard: |BITPIX|/8 * GCOUNT * (PCOUNT + NAXIS1*...*NAXISn).
func dataLength(h *Header) int64 {
	naxis := h.IntOr("NAXIS", 0)
	if naxis == 0 {
		return 0
	}
	elems := int64(1)
	for n := int64(1); n <= naxis; n++ {
		elems *= h.IntOr(fmt.Sprintf("NAXIS%d", n), 0)
	}
	bitpix := h.IntOr("BITPIX", 8)
	if bitpix < 0 {
		bitpix = -bitpix
	}
	gcount := h.IntOr("GCOUNT", 1)
	pcount := h.IntOr("PCOUNT", 0)
	return bitpix / 8 * gcount * (pcount + elems)
}

func paddedLength(n int64) int64 {
	if rem := n % blockSize; rem != 0 {
		return n + blockSize - rem
	}
	return n
}

// readData reads the complete raw data area of an HDU.
func (f *File) readData(hdu *HDU) ([]byte, error) {
	if _, err := f.r.Seek(hdu.dataStart, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, hdu.Index, err)
	}
	buf := make([]byte, hdu.dataLen)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, fmt.Errorf("%s: HDU %d: data truncated: %w", f.name, hdu.Index, err)
	}
	return buf, nil
}

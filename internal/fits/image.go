package fits

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ImageDims returns the axis lengths (NAXIS1, NAXIS2, ...) of HDU i.
func (f *File) ImageDims(i int) ([]int, error) {
	hdu, err := f.HDU(i)
	if err != nil {
		return nil, err
	}
	naxis, err := hdu.Header.Int("NAXIS")
	if err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
	}
	dims := make([]int, naxis)
	for n := 1; n <= int(naxis); n++ {
		v, err := hdu.Header.Int(fmt.Sprintf("NAXIS%d", n))
		if err != nil {
			return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
		}
		dims[n-1] = int(v)
	}
	return dims, nil
}

// ImageFloat32 reads the image data of HDU i as float32 values in row-major
// order, applying BSCALE/BZERO. The correlator writes BITPIX 32 (scaled
// two's-complement integers); BITPIX -32 IEEE floats are accepted too.
func (f *File) ImageFloat32(i int) ([]float32, error) {
	hdu, err := f.HDU(i)
	if err != nil {
		return nil, err
	}
	bitpix, err := hdu.Header.Int("BITPIX")
	if err != nil {
		return nil, fmt.Errorf("%s: HDU %d: %w", f.name, i, err)
	}
	bscale := hdu.Header.FloatOr("BSCALE", 1)
	bzero := hdu.Header.FloatOr("BZERO", 0)

	raw, err := f.readData(hdu)
	if err != nil {
		return nil, err
	}

	switch bitpix {
	case 32:
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("%s: HDU %d: data length %d not a multiple of 4", f.name, i, len(raw))
		}
		out := make([]float32, len(raw)/4)
		for k := range out {
			v := int32(binary.BigEndian.Uint32(raw[4*k:]))
			out[k] = float32(bscale*float64(v) + bzero)
		}
		return out, nil
	case -32:
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("%s: HDU %d: data length %d not a multiple of 4", f.name, i, len(raw))
		}
		out := make([]float32, len(raw)/4)
		for k := range out {
			bits := binary.BigEndian.Uint32(raw[4*k:])
			v := float64(math.Float32frombits(bits))
			out[k] = float32(bscale*v + bzero)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: HDU %d: unsupported BITPIX %d", f.name, i, bitpix)
	}
}

package visibility

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// Raw dump format: a fixed little-endian header, the time axis (Julian
// dates), the frequency axis (Hz), then per sample the complex visibility
// as two float32s, the flag byte, and the nsample weight.
const (
	rawMagic   = 0x4d574156 // "MWAV"
	rawVersion = 1
)

type rawHeader struct {
	Magic   uint32
	Version uint32
	Ntimes  uint32
	Nbls    uint32
	Nfreqs  uint32
	Npols   uint32
}

// WriteRaw writes the cube and its axes to path.
func (c *Cube) WriteRaw(path string, timesJD []float64, freqsHz []float64) error {
	if len(timesJD) != c.Ntimes {
		return fmt.Errorf("time axis has %d entries, cube has %d integrations", len(timesJD), c.Ntimes)
	}
	if len(freqsHz) != c.Nfreqs {
		return fmt.Errorf("frequency axis has %d entries, cube has %d channels", len(freqsHz), c.Nfreqs)
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	hdr := rawHeader{
		Magic:   rawMagic,
		Version: rawVersion,
		Ntimes:  uint32(c.Ntimes),
		Nbls:    uint32(c.Nbls),
		Nfreqs:  uint32(c.Nfreqs),
		Npols:   uint32(c.Npols),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, timesJD); err != nil {
		return fmt.Errorf("writing time axis: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, freqsHz); err != nil {
		return fmt.Errorf("writing frequency axis: %w", err)
	}

	for i, v := range c.Data {
		rec := struct {
			Re, Im  float32
			Flag    uint8
			_       [3]uint8
			Nsample float32
		}{Re: real(v), Im: imag(v), Nsample: c.Nsamples[i]}
		if c.Flags[i] {
			rec.Flag = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("writing sample %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

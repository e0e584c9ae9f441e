package main

import (
	"reflect"
	"testing"

	"github.com/dbehnke/mwa2uv/internal/config"
	"github.com/dbehnke/mwa2uv/internal/metafits"
)

func TestClassifyInputs(t *testing.T) {
	meta, data, err := classifyInputs([]string{
		"1131733552_20151116162537_gpubox01_00.fits",
		"1131733552.metafits",
		"1131733552_20151116162537_gpubox02_00.fits",
	})
	if err != nil {
		t.Fatalf("classifyInputs failed: %v", err)
	}
	if meta != "1131733552.metafits" {
		t.Errorf("metafits = %q", meta)
	}
	if len(data) != 2 {
		t.Errorf("data files = %v", data)
	}

	cases := []struct {
		name  string
		paths []string
	}{
		{"no metafits", []string{"1131733552_20151116162537_gpubox01_00.fits"}},
		{"no data files", []string{"1131733552.metafits"}},
		{"two metafits", []string{"a.metafits", "b.metafits", "x_gpubox01_00.fits"}},
		{"unrecognized file", []string{"1131733552.metafits", "x_gpubox01_00.fits", "notes.txt"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := classifyInputs(tt.paths); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFlaggedAntennas(t *testing.T) {
	meta := &metafits.Metadata{
		Antennas: []metafits.Antenna{
			{Number: 0},
			{Number: 31, Flagged: true},
			{Number: 80, Flagged: true},
		},
	}

	cfg := config.Default()
	cfg.Flagging.ExtraAntennas = []int{5, 31}
	c := &Converter{cfg: cfg}

	got := c.flaggedAntennas(meta)
	if want := []int{5, 31, 80}; !reflect.DeepEqual(got, want) {
		t.Errorf("flaggedAntennas = %v, want %v", got, want)
	}

	cfg.Flagging.UseMetafitsFlags = false
	got = c.flaggedAntennas(meta)
	if want := []int{5, 31}; !reflect.DeepEqual(got, want) {
		t.Errorf("flaggedAntennas without metafits flags = %v, want %v", got, want)
	}
}

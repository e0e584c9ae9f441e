package metafits

import (
	"testing"

	"github.com/dbehnke/mwa2uv/internal/corrmap"
)

// fakeColumns builds a four-antenna table in non-sorted metafits input
// order. Rows come in polarization pairs, antenna values on the second row
// of each pair.
func fakeColumns() (numbers []int64, names []string, flags []int64, east, north, height []float64) {
	order := []struct {
		number  int64
		name    string
		flagged int64
		east    float64
	}{
		{102, "Tile102", 0, 10},
		{31, "Tile031", 1, -20},
		{0, "Tile011", 0, 0},
		{75, "Tile075", 0, 5.5},
	}
	for _, a := range order {
		for p := 0; p < 2; p++ {
			numbers = append(numbers, a.number)
			names = append(names, a.name)
			flags = append(flags, a.flagged)
			east = append(east, a.east)
			north = append(north, a.east+1)
			height = append(height, 377)
		}
	}
	return
}

func TestFromColumns(t *testing.T) {
	var m Metadata
	if err := m.fromColumns(fakeColumns()); err != nil {
		t.Fatalf("fromColumns: %v", err)
	}

	wantOrder := []int{0, 31, 75, 102}
	if len(m.Antennas) != len(wantOrder) {
		t.Fatalf("got %d antennas, want %d", len(m.Antennas), len(wantOrder))
	}
	for i, want := range wantOrder {
		if m.Antennas[i].Number != want {
			t.Errorf("Antennas[%d].Number = %d, want %d", i, m.Antennas[i].Number, want)
		}
	}
	if m.Antennas[0].TileName != "Tile011" {
		t.Errorf("Antennas[0].TileName = %q, want Tile011", m.Antennas[0].TileName)
	}
	if m.NumBaselines() != 10 {
		t.Errorf("NumBaselines = %d, want 10", m.NumBaselines())
	}
}

func TestFromColumnsValidation(t *testing.T) {
	numbers, names, flags, east, north, height := fakeColumns()

	t.Run("odd row count", func(t *testing.T) {
		var m Metadata
		if err := m.fromColumns(numbers[:3], names[:3], flags[:3], east[:3], north[:3], height[:3]); err == nil {
			t.Errorf("fromColumns succeeded, want error")
		}
	})

	t.Run("column length mismatch", func(t *testing.T) {
		var m Metadata
		if err := m.fromColumns(numbers, names, flags, east[:2], north, height); err == nil {
			t.Errorf("fromColumns succeeded, want error")
		}
	})

	t.Run("duplicate antenna number", func(t *testing.T) {
		dup := append([]int64(nil), numbers...)
		dup[0], dup[1] = 31, 31
		var m Metadata
		if err := m.fromColumns(dup, names, flags, east, north, height); err == nil {
			t.Errorf("fromColumns succeeded, want error")
		}
	})
}

// The PFB input mapping must follow metafits input order, not antenna
// number order.
func TestAntsToPFInputs(t *testing.T) {
	var m Metadata
	if err := m.fromColumns(fakeColumns()); err != nil {
		t.Fatalf("fromColumns: %v", err)
	}

	antsToPF := m.AntsToPFInputs()
	if len(antsToPF) != 8 {
		t.Fatalf("mapping has %d entries, want 8", len(antsToPF))
	}

	tests := []struct {
		ant, pol, want int
	}{
		{102, 0, 0},
		{102, 1, 1},
		{31, 0, 2},
		{31, 1, 3},
		{0, 0, 4},
		{0, 1, 5},
		{75, 1, 7},
	}
	for _, tt := range tests {
		got, ok := antsToPF[corrmap.AntPol{Antenna: tt.ant, Pol: tt.pol}]
		if !ok || got != tt.want {
			t.Errorf("antsToPF[(%d,%d)] = %d (present %v), want %d", tt.ant, tt.pol, got, ok, tt.want)
		}
	}
}

func TestFlaggedAntennas(t *testing.T) {
	var m Metadata
	if err := m.fromColumns(fakeColumns()); err != nil {
		t.Fatalf("fromColumns: %v", err)
	}

	flagged := m.FlaggedAntennas()
	if len(flagged) != 1 || flagged[0] != 31 {
		t.Errorf("FlaggedAntennas = %v, want [31]", flagged)
	}
}

func TestParseChannels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"typical list", "131,132,133,134", 4, false},
		{"spaces tolerated", " 131, 132 ", 2, false},
		{"garbage entry", "131,abc", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChannels(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseChannels(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantLen {
				t.Errorf("parseChannels(%q) = %v, want %d entries", tt.input, got, tt.wantLen)
			}
		})
	}
}

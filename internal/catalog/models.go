package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Observation records a completed conversion run
type Observation struct {
	RunID       string    `gorm:"primarykey;size:36" json:"run_id"`
	ObsName     string    `gorm:"index;size:100" json:"obs_name"`
	Telescope   string    `gorm:"size:20" json:"telescope"`
	Ntimes      int       `json:"ntimes"`
	Nfreqs      int       `json:"nfreqs"`
	Nbls        int       `json:"nbls"`
	Npols       int       `json:"npols"`
	FlaggedAnts string    `gorm:"size:500" json:"flagged_ants"` // comma-separated antenna numbers
	InputFiles  int       `json:"input_files"`
	OutputPath  string    `gorm:"size:500" json:"output_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Observation) TableName() string {
	return "observations"
}

// String returns a formatted string representation
func (o Observation) String() string {
	result := fmt.Sprintf("%s (%s)", o.ObsName, o.RunID)
	result += fmt.Sprintf(" %d times x %d baselines x %d channels x %d pols", o.Ntimes, o.Nbls, o.Nfreqs, o.Npols)
	if o.FlaggedAnts != "" {
		result += fmt.Sprintf(" [flagged: %s]", o.FlaggedAnts)
	}
	return result
}

// IsValid checks if the observation record has required fields
func (o Observation) IsValid() bool {
	return o.RunID != "" && o.ObsName != "" && o.Ntimes > 0 && o.Nbls > 0
}

// SetFlaggedAnts stores antenna numbers as a comma-separated list
func (o *Observation) SetFlaggedAnts(ants []int) {
	parts := make([]string, len(ants))
	for i, a := range ants {
		parts[i] = fmt.Sprintf("%d", a)
	}
	o.FlaggedAnts = strings.Join(parts, ",")
}

package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/dbehnke/mwa2uv/internal/catalog"
	"github.com/dbehnke/mwa2uv/internal/config"
	"github.com/dbehnke/mwa2uv/internal/corrmap"
	"github.com/dbehnke/mwa2uv/internal/gpubox"
	"github.com/dbehnke/mwa2uv/internal/metafits"
	"github.com/dbehnke/mwa2uv/internal/telescope"
	"github.com/dbehnke/mwa2uv/internal/visibility"
)

const VERSION = "1.0.0"

// Converter drives a single metafits + gpubox conversion run
type Converter struct {
	cfg *config.Config

	// Catalog components (when the catalog is enabled)
	db   *catalog.DB
	repo *catalog.ObservationRepository
}

// NewConverter creates a converter from loaded configuration
func NewConverter(cfg *config.Config) (*Converter, error) {
	c := &Converter{cfg: cfg}

	if cfg.Catalog.Enabled {
		db, err := catalog.NewDB(catalog.Config{Path: cfg.Catalog.Path}, log.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		c.db = db
		c.repo = catalog.NewObservationRepository(db.GetDB())
	}

	return c, nil
}

// Close releases catalog resources
func (c *Converter) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// classifyInputs splits the input paths into one metafits file and the
// gpubox data files
func classifyInputs(paths []string) (string, []string, error) {
	var metaPath string
	var dataPaths []string

	for _, p := range paths {
		switch {
		case strings.HasSuffix(strings.ToLower(p), ".metafits"):
			if metaPath != "" {
				return "", nil, fmt.Errorf("multiple metafits files given: %s and %s", metaPath, p)
			}
			metaPath = p
		case gpubox.IsDataFile(p):
			dataPaths = append(dataPaths, p)
		default:
			return "", nil, fmt.Errorf("unrecognized input file: %s", p)
		}
	}

	if metaPath == "" {
		return "", nil, fmt.Errorf("no metafits file given")
	}
	if len(dataPaths) == 0 {
		return "", nil, fmt.Errorf("no gpubox data files given")
	}

	return metaPath, dataPaths, nil
}

// flaggedAntennas merges metafits flags with configured extras
func (c *Converter) flaggedAntennas(meta *metafits.Metadata) []int {
	seen := make(map[int]bool)
	var ants []int

	if c.cfg.Flagging.UseMetafitsFlags {
		for _, a := range meta.FlaggedAntennas() {
			if !seen[a] {
				seen[a] = true
				ants = append(ants, a)
			}
		}
	}
	for _, a := range c.cfg.Flagging.ExtraAntennas {
		if !seen[a] {
			seen[a] = true
			ants = append(ants, a)
		}
	}

	sort.Ints(ants)
	return ants
}

// Run converts one observation to the reordered visibility dump at outPath
func (c *Converter) Run(paths []string, outPath string) error {
	metaPath, dataPaths, err := classifyInputs(paths)
	if err != nil {
		return err
	}

	site, err := telescope.Get(c.cfg.Telescope)
	if err != nil {
		return err
	}

	meta, err := metafits.Parse(metaPath)
	if err != nil {
		return fmt.Errorf("failed to parse metafits: %w", err)
	}
	if !strings.EqualFold(meta.Telescope, site.Name) {
		return fmt.Errorf("metafits telescope %q does not match configured %q", meta.Telescope, site.Name)
	}
	log.Printf("Observation %s: %d antennas, %d coarse channels, %.1fs integrations",
		meta.Filename, len(meta.Antennas), len(meta.CoarseChannels), meta.IntTime)

	// Correlator index tables
	inToOut := corrmap.InputOutputMapping()
	mapInds := make([]int32, corrmap.MapLength)
	conj := make([]bool, corrmap.MapLength)
	if err := corrmap.GenerateMap(meta.AntsToPFInputs(), inToOut[:], mapInds, conj); err != nil {
		return fmt.Errorf("failed to generate correlator map: %w", err)
	}

	flaggedAnts := c.flaggedAntennas(meta)
	var flaggedBls []int
	if len(flaggedAnts) > 0 {
		log.Printf("Flagging antennas: %v", flaggedAnts)
		flaggedBls, err = corrmap.FlaggedBaselines(flaggedAnts)
		if err != nil {
			return err
		}
	}

	// Data files
	fileSet, err := gpubox.Scan(dataPaths)
	if err != nil {
		return fmt.Errorf("failed to scan gpubox files: %w", err)
	}
	included, err := gpubox.IncludedCoarse(meta.CoarseChannels, fileSet.Nums)
	if err != nil {
		return err
	}
	if len(included) < len(meta.CoarseChannels) {
		log.Printf("Warning: only %d of %d coarse channels present", len(included), len(meta.CoarseChannels))
	}
	if !gpubox.Contiguous(included) {
		log.Printf("Warning: included coarse channels are not contiguous: %v", included)
	}

	centers := gpubox.TimeCenters(fileSet.Times, meta.IntTime)
	freqs := gpubox.FrequencyArrayHz(included, fileSet.NumFineChans, meta.FineChanWidthHz)
	log.Printf("Reading %d files: %d time steps, %d fine channels",
		len(fileSet.Paths), len(centers), len(freqs))

	dump, err := fileSet.ReadDump(gpubox.FileNumsToIndex(included), centers, meta.IntTime, corrmap.MapLength)
	if err != nil {
		return fmt.Errorf("failed to read gpubox data: %w", err)
	}

	// Reorder into baseline-major visibilities
	cube, err := visibility.Assemble(dump, mapInds, conj)
	if err != nil {
		return err
	}
	if len(flaggedBls) > 0 {
		if err := cube.MaskBaselines(flaggedBls); err != nil {
			return err
		}
	}

	if c.cfg.Log.Debug {
		pos := site.RelativeECEF(meta.PositionsENU())
		log.Printf("Antenna 0 relative ECEF position: %.3f %.3f %.3f", pos[0][0], pos[0][1], pos[0][2])
	}

	if err := cube.WriteRaw(outPath, gpubox.JulianDates(centers), freqs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Printf("Wrote %s: %d blts x %d freqs x %d pols", outPath, cube.NumBlts(), cube.Nfreqs, cube.Npols)

	if c.repo != nil {
		obs := &catalog.Observation{
			ObsName:    meta.Filename,
			Telescope:  meta.Telescope,
			Ntimes:     cube.Ntimes,
			Nfreqs:     cube.Nfreqs,
			Nbls:       cube.Nbls,
			Npols:      cube.Npols,
			InputFiles: len(fileSet.Paths),
			OutputPath: outPath,
		}
		obs.SetFlaggedAnts(flaggedAnts)
		if err := c.repo.Record(obs); err != nil {
			return fmt.Errorf("failed to record observation: %w", err)
		}
		log.Printf("Recorded run %s in catalog", obs.RunID)
	}

	return nil
}

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		outPath    = flag.String("out", "", "Output file path (overrides config)")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("mwa2uv v%s\n", VERSION)
		return
	}

	log.SetFlags(log.LstdFlags)

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	if *outPath == "" {
		*outPath = cfg.Output.Path
	}

	if flag.NArg() == 0 {
		log.Fatalf("Usage: mwa2uv [-config file] [-out path] <metafits file> <gpubox files...>")
	}

	conv, err := NewConverter(cfg)
	if err != nil {
		log.Fatalf("Failed to create converter: %v", err)
	}
	defer conv.Close()

	if err := conv.Run(flag.Args(), *outPath); err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
}

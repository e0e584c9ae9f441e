// Package telescope carries the registry of known telescope sites and the
// coordinate conversions needed to place antennas in an earth-centered
// frame.
package telescope

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Site is a known telescope location.
type Site struct {
	Name     string
	LatDeg   float64
	LonDeg   float64
	AltM     float64
	Citation string
}

var sites = []Site{
	{
		Name:     "MWA",
		LatDeg:   -dms(26, 42, 11.94986),
		LonDeg:   dms(116, 40, 14.93485),
		AltM:     377.827,
		Citation: "Tingay et al., 2013",
	},
	{
		Name:     "HERA",
		LatDeg:   -dms(30, 43, 17.5),
		LonDeg:   dms(21, 25, 41.9),
		AltM:     1073,
		Citation: "value taken from capo/cals/hsa7458_v000.py",
	},
	{
		Name:     "PAPER",
		LatDeg:   -dms(30, 43, 17.5),
		LonDeg:   dms(21, 25, 41.9),
		AltM:     1073,
		Citation: "value taken from capo/cals/hsa7458_v000.py",
	},
}

func dms(d, m int, s float64) float64 {
	return float64(d) + float64(m)/60 + s/3600
}

// Known returns the names of all registered sites.
func Known() []string {
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	return names
}

// Get looks a site up by name, case-insensitively.
func Get(name string) (Site, error) {
	for _, s := range sites {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("unknown telescope %q (known: %s)", name, strings.Join(Known(), ", "))
}

// WGS84 ellipsoid.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1 / 298.257223563
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// ECEF returns the site's earth-centered coordinates in meters.
func (s Site) ECEF() [3]float64 {
	lat := s.LatDeg * math.Pi / 180
	lon := s.LonDeg * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	return [3]float64{
		(n + s.AltM) * cosLat * cosLon,
		(n + s.AltM) * cosLat * sinLon,
		(n*(1-wgs84E2) + s.AltM) * sinLat,
	}
}

// enuRotation is the ENU -> ECEF rotation at the site.
func (s Site) enuRotation() *mat.Dense {
	lat := s.LatDeg * math.Pi / 180
	lon := s.LonDeg * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	return mat.NewDense(3, 3, []float64{
		-sinLon, -sinLat * cosLon, cosLat * cosLon,
		cosLon, -sinLat * sinLon, cosLat * sinLon,
		0, cosLat, sinLat,
	})
}

// ECEFFromENU converts local east/north/up offsets at the site into
// absolute earth-centered coordinates.
func (s Site) ECEFFromENU(enu [][3]float64) [][3]float64 {
	rot := s.enuRotation()
	center := s.ECEF()

	out := make([][3]float64, len(enu))
	var r mat.VecDense
	for i, v := range enu {
		r.MulVec(rot, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
		out[i] = [3]float64{
			center[0] + r.AtVec(0),
			center[1] + r.AtVec(1),
			center[2] + r.AtVec(2),
		}
	}
	return out
}

// RelativeECEF converts ENU offsets into earth-centered coordinates
// relative to the array center, the frame antenna positions are stored in.
// The site center cancels, leaving the pure rotation.
func (s Site) RelativeECEF(enu [][3]float64) [][3]float64 {
	rot := s.enuRotation()

	out := make([][3]float64, len(enu))
	var r mat.VecDense
	for i, v := range enu {
		r.MulVec(rot, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
		out[i] = [3]float64{r.AtVec(0), r.AtVec(1), r.AtVec(2)}
	}
	return out
}

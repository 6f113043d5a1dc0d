// Package geo holds geographic coordinates and their projection into the
// map's local rendering space.
package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned for non-finite, out-of-range or (0,0) positions.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// EarthCircumference is the equatorial circumference in meters (WGS84).
const EarthCircumference = 2 * math.Pi * 6378137.0

// MaxMercatorLat is the latitude at which Web Mercator is clipped.
const MaxMercatorLat = 85.051129

// LngLat is a (longitude, latitude) pair in degrees.
type LngLat struct {
	Lng float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// String formats the pair as "lng,lat".
func (p LngLat) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
}

// Valid reports whether the position is finite, inside the WGS84 ranges and
// not the (0,0) sentinel backends use for a missing location.
func (p LngLat) Valid() bool {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	if p.Lng < -180 || p.Lng > 180 || p.Lat < -90 || p.Lat > 90 {
		return false
	}
	return !(p.Lng == 0 && p.Lat == 0)
}

// Validate returns ErrInvalidCoordinates (wrapped with the value) if p is not Valid.
func (p LngLat) Validate() error {
	if !p.Valid() {
		return fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, p.Lng, p.Lat)
	}
	return nil
}

// webMercator is EPSG:3857 on the WGS84 datum. Input is already WGS84, so
// its projection is applied without a datum shift.
var webMercator = wgs84.WebMercator()

// projectMeters maps degrees to EPSG:3857 meters, clipping latitude to
// MaxMercatorLat.
func projectMeters(lng, lat float64) (east, north float64) {
	return webMercator.Projection.FromLonLat(lng, clampLat(lat), webMercator.Datum)
}

func unprojectMeters(east, north float64) (lng, lat float64) {
	return webMercator.Projection.ToLonLat(east, north, webMercator.Datum)
}

// ToWebMercator projects p to EPSG:3857 meters. Non-finite input yields
// ErrInvalidCoordinates and an empty point.
func ToWebMercator(p LngLat) (geom.Point, error) {
	x, y := projectMeters(p.Lng, p.Lat)
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// FromWebMercator converts EPSG:3857 meters back to degrees.
func FromWebMercator(pt geom.Point) (LngLat, error) {
	xy, ok := pt.XY()
	if !ok {
		return LngLat{}, ErrInvalidCoordinates
	}
	lng, lat := unprojectMeters(xy.X, xy.Y)
	return LngLat{Lng: lng, Lat: lat}, nil
}

func clampLat(lat float64) float64 {
	return math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
}

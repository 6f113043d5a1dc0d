package geo

import "math"

// MercatorCoordinate is a position in the map's local rendering space: the
// whole world spans [0,1] on X (west to east) and Y (north to south), and Z is
// altitude in the same units.
type MercatorCoordinate struct {
	X, Y, Z float64
}

// FromLngLat projects a geographic position with an altitude in meters.
// Non-finite positions project to NaN.
func FromLngLat(p LngLat, altitude float64) MercatorCoordinate {
	pt, err := ToWebMercator(p)
	if err != nil {
		return MercatorCoordinate{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	}
	xy, _ := pt.XY()
	x, y := fromMeters(xy.X, xy.Y)
	return MercatorCoordinate{
		X: x,
		Y: y,
		Z: altitude / EarthCircumference / math.Cos(clampLat(p.Lat)*math.Pi/180),
	}
}

// LngLat converts the coordinate back to degrees.
func (m MercatorCoordinate) LngLat() LngLat {
	return LngLat{Lng: XLng(m.X), Lat: YLat(m.Y)}
}

// MeterInMercatorUnits returns how many Mercator units one meter spans at
// this coordinate's latitude.
func (m MercatorCoordinate) MeterInMercatorUnits() float64 {
	return 1 / EarthCircumference / math.Cos(YLat(m.Y)*math.Pi/180)
}

// LngX maps longitude to the [0,1] Mercator X axis.
func LngX(lng float64) float64 {
	east, _ := projectMeters(lng, 0)
	x, _ := fromMeters(east, 0)
	return x
}

// LatY maps latitude to the [0,1] Mercator Y axis (north up is 0).
func LatY(lat float64) float64 {
	_, north := projectMeters(0, lat)
	_, y := fromMeters(0, north)
	return y
}

// XLng is the inverse of LngX.
func XLng(x float64) float64 {
	lng, _ := unprojectMeters((x-0.5)*EarthCircumference, 0)
	return lng
}

// YLat is the inverse of LatY.
func YLat(y float64) float64 {
	_, lat := unprojectMeters(0, (0.5-y)*EarthCircumference)
	return lat
}

// fromMeters scales EPSG:3857 meters into the unit square, Y growing south.
func fromMeters(east, north float64) (x, y float64) {
	x = 0.5 + east/EarthCircumference
	y = 0.5 - north/EarthCircumference
	return x, math.Max(0, math.Min(1, y))
}

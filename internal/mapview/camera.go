package mapview

import (
	gomath "math"

	"github.com/Faultbox/greenmap/internal/engine/picking"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/pkg/math"
)

// TileSize is the pixel size of one world tile at zoom 0.
const TileSize = 512

// MaxPitch is the steepest camera tilt in degrees.
const MaxPitch = 60

// fovY matches the vertical field of view of common web map renderers.
const fovY = 0.6435011087932844

// Camera is the map camera state.
type Camera struct {
	Center  geo.LngLat
	Zoom    float64
	Pitch   float64 // degrees from nadir
	Bearing float64 // degrees clockwise from north
}

// WorldSize returns the world width in pixels at the camera zoom.
func (c Camera) WorldSize() float64 {
	return TileSize * gomath.Pow(2, c.Zoom)
}

// View is the per-frame camera snapshot handed to renderers and custom
// layers. Positions are expressed in a local frame: world pixels relative to
// the camera center, X east, Y south, Z up. Keeping coordinates small keeps
// float32 matrices precise at street zoom levels.
type View struct {
	Camera    Camera
	Width     float64
	Height    float64
	Center    geo.MercatorCoordinate
	WorldSize float64
	Matrix    math.Mat4 // local frame -> clip space
}

func newView(c Camera, width, height float64) View {
	v := View{
		Camera:    c,
		Width:     width,
		Height:    height,
		Center:    geo.FromLngLat(c.Center, 0),
		WorldSize: c.WorldSize(),
	}
	v.Matrix = viewMatrix(c, width, height)
	return v
}

func viewMatrix(c Camera, width, height float64) math.Mat4 {
	if width <= 0 || height <= 0 {
		return math.Identity()
	}
	pitch := c.Pitch * gomath.Pi / 180
	angle := -c.Bearing * gomath.Pi / 180
	dist := 0.5 / gomath.Tan(fovY/2) * height

	// Distance to the far edge of the visible ground.
	groundAngle := gomath.Pi/2 + pitch
	surface := gomath.Max(0.01, gomath.Min(gomath.Pi-0.01, gomath.Pi-groundAngle-fovY/2))
	top := gomath.Sin(fovY/2) * dist / gomath.Sin(surface)
	far := (gomath.Cos(gomath.Pi/2-pitch)*top + dist) * 1.01
	near := height / 50

	proj := math.Perspective(float32(fovY), float32(width/height), float32(near), float32(far))
	return proj.
		Mul(math.Scale(1, -1, 1)).
		Mul(math.Translate(0, 0, float32(-dist))).
		Mul(math.RotateX(float32(pitch))).
		Mul(math.RotateZ(float32(angle)))
}

// Local converts a Mercator coordinate to the view's local frame.
func (v View) Local(m geo.MercatorCoordinate) math.Vec3 {
	return math.Vec3{
		X: float32((m.X - v.Center.X) * v.WorldSize),
		Y: float32((m.Y - v.Center.Y) * v.WorldSize),
		Z: float32(m.Z * v.WorldSize),
	}
}

// Project converts a geographic position to screen pixels. ok is false when
// the position is behind the camera.
func (v View) Project(p geo.LngLat) (x, y float64, ok bool) {
	sx, sy, ok := picking.WorldToScreen(v.Local(geo.FromLngLat(p, 0)), v.Matrix, float32(v.Width), float32(v.Height))
	return float64(sx), float64(sy), ok
}

// Unproject converts screen pixels to the geographic position on the ground
// plane. ok is false above the horizon.
func (v View) Unproject(x, y float64) (geo.LngLat, bool) {
	ray := picking.ScreenToRay(float32(x), float32(y), float32(v.Width), float32(v.Height), v.Matrix.Inverse())
	hit, ok := ray.IntersectPlaneZ(0)
	if !ok {
		return geo.LngLat{}, false
	}
	m := geo.MercatorCoordinate{
		X: v.Center.X + float64(hit.X)/v.WorldSize,
		Y: v.Center.Y + float64(hit.Y)/v.WorldSize,
	}
	return m.LngLat(), true
}

// PixelsPerMeter returns how many screen pixels one ground meter spans at
// the camera center.
func (v View) PixelsPerMeter() float64 {
	return v.Center.MeterInMercatorUnits() * v.WorldSize
}

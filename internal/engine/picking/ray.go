// Package picking converts between screen pixels and the map's local 3D
// space by casting rays through the view-projection matrix.
package picking

import (
	gomath "math"

	"github.com/Faultbox/greenmap/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, ndc math.Vec4) math.Vec3 {
	p := inv.MulVec4(ndc)
	if p[3] != 0 {
		p[0] /= p[3]
		p[1] /= p[3]
		p[2] /= p[3]
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlaneZ intersects the ray with the horizontal plane z = planeZ.
// Returns the intersection point and whether it lies in front of the origin.
func (r Ray) IntersectPlaneZ(planeZ float32) (math.Vec3, bool) {
	if gomath.Abs(float64(r.Direction.Z)) < 1e-6 {
		return math.Vec3{}, false // Ray parallel to plane
	}

	t := (planeZ - r.Origin.Z) / r.Direction.Z
	if t < 0 {
		return math.Vec3{}, false // Behind the camera
	}
	p := r.At(t)
	p.Z = planeZ
	return p, true
}

// WorldToScreen projects a world point to pixel coordinates. ok is false for
// points behind the camera.
func WorldToScreen(p math.Vec3, viewProj math.Mat4, viewportW, viewportH float32) (x, y float32, ok bool) {
	clip := viewProj.MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	x = (ndcX + 1) / 2 * viewportW
	y = (1 - ndcY) / 2 * viewportH
	return x, y, true
}

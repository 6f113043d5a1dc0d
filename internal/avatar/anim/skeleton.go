package anim

import (
	"github.com/Faultbox/greenmap/pkg/formats"
	"github.com/Faultbox/greenmap/pkg/math"
)

// TRS is a joint's local transform.
type TRS struct {
	T math.Vec3
	R math.Quat
	S math.Vec3
}

// IdentityTRS is the neutral local transform.
func IdentityTRS() TRS {
	return TRS{R: math.QuatIdentity(), S: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// Matrix returns T * R * S.
func (t TRS) Matrix() math.Mat4 {
	return math.FromTRS(t.T, t.R, t.S)
}

// Joint is a node of the skeleton hierarchy.
type Joint struct {
	Name   string
	Parent int // -1 for roots
	Rest   TRS
}

// Skeleton is a joint hierarchy with a rest pose.
type Skeleton struct {
	Joints []Joint
	byName map[string]int
}

// NewSkeleton indexes joints by name.
func NewSkeleton(joints []Joint) *Skeleton {
	s := &Skeleton{Joints: joints, byName: make(map[string]int, len(joints))}
	for i, j := range joints {
		if _, dup := s.byName[j.Name]; !dup {
			s.byName[j.Name] = i
		}
	}
	return s
}

// SkeletonFromGLB builds a skeleton from every node of the scene graph.
func SkeletonFromGLB(glb *formats.GLB) *Skeleton {
	nodes := glb.Nodes()
	joints := make([]Joint, len(nodes))
	for i, n := range nodes {
		rest := IdentityTRS()
		if n.Translation != nil {
			rest.T = math.Vec3{X: n.Translation[0], Y: n.Translation[1], Z: n.Translation[2]}
		}
		if n.Rotation != nil {
			rest.R = math.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]}
		}
		if n.Scale != nil {
			rest.S = math.Vec3{X: n.Scale[0], Y: n.Scale[1], Z: n.Scale[2]}
		}
		if n.Matrix != nil {
			// Only the translation of baked matrices is kept.
			rest.T = math.Vec3{X: n.Matrix[12], Y: n.Matrix[13], Z: n.Matrix[14]}
		}
		joints[i] = Joint{Name: n.Name, Parent: glb.Parent(i), Rest: rest}
	}
	return NewSkeleton(joints)
}

// Index returns the joint index for a name.
func (s *Skeleton) Index(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// RestPose returns a copy of the rest transforms.
func (s *Skeleton) RestPose() []TRS {
	pose := make([]TRS, len(s.Joints))
	for i, j := range s.Joints {
		pose[i] = j.Rest
	}
	return pose
}

// World returns model-space joint matrices for a local pose.
func (s *Skeleton) World(pose []TRS) []math.Mat4 {
	world := make([]math.Mat4, len(s.Joints))
	done := make([]bool, len(s.Joints))
	visiting := make([]bool, len(s.Joints))

	var resolve func(i int) math.Mat4
	resolve = func(i int) math.Mat4 {
		if done[i] {
			return world[i]
		}
		local := pose[i].Matrix()
		if visiting[i] {
			// Malformed cyclic hierarchy.
			return local
		}
		visiting[i] = true
		if p := s.Joints[i].Parent; p >= 0 && p < len(s.Joints) {
			local = resolve(p).Mul(local)
		}
		world[i] = local
		done[i] = true
		return local
	}
	for i := range s.Joints {
		resolve(i)
	}
	return world
}

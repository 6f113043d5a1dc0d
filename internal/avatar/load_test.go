package avatar

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/greenmap/internal/assets"
	"github.com/Faultbox/greenmap/pkg/formats"
)

func intp(v int) *int { return &v }

func floatBytes(vals ...float32) []byte {
	b := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// encodeAvatar builds a two-joint model. With anim set it carries one
// animation moving Hips up over a second.
func encodeAvatar(t *testing.T, anim string) []byte {
	t.Helper()

	doc := formats.GLTFDocument{
		Nodes: []formats.GLTFNode{
			{Name: "Armature", Children: []int{1}},
			{Name: "Hips", Translation: &[3]float32{0, 1, 0}},
		},
	}
	var bin []byte
	if anim != "" {
		bin = floatBytes(0, 1, 0, 1, 0, 0, 2, 0)
		doc.Accessors = []formats.GLTFAccessor{
			{BufferView: intp(0), ComponentType: formats.GLTFFloat, Count: 2, Type: "SCALAR"},
			{BufferView: intp(0), ByteOffset: 8, ComponentType: formats.GLTFFloat, Count: 2, Type: "VEC3"},
		}
		doc.BufferViews = []formats.GLTFBufferView{{Buffer: 0, ByteLength: len(bin)}}
		doc.Buffers = []formats.GLTFBuffer{{ByteLength: len(bin)}}
		doc.Animations = []formats.GLTFAnimation{{
			Name:     anim,
			Channels: []formats.GLTFChannel{{Sampler: 0, Target: formats.GLTFTarget{Node: intp(1), Path: formats.GLTFPathTranslation}}},
			Samplers: []formats.GLTFSampler{{Input: 0, Output: 1}},
		}}
	}

	data, err := formats.EncodeGLB(doc, bin)
	require.NoError(t, err)
	return data
}

type mapLoader map[string][]byte

func (m mapLoader) Load(_ context.Context, src string) ([]byte, error) {
	data, ok := m[src]
	if !ok {
		return nil, assets.ErrNotFound
	}
	return data, nil
}

func TestClipSource(t *testing.T) {
	assert.Equal(t, "anims/idle.glb", ClipSource("anims/", "idle"))
	assert.Equal(t, "https://cdn.example.com/a/walk.glb", ClipSource("https://cdn.example.com/a", "walk"))
	assert.Equal(t, "wave.glb", ClipSource("", "wave"))
}

func TestLoadSkipsBrokenClips(t *testing.T) {
	l := mapLoader{
		"avatar.glb":      encodeAvatar(t, ""),
		"anims/idle.glb":  encodeAvatar(t, "Armature|Idle"),
		"anims/walk.glb":  []byte("not a glb"),
		"anims/empty.glb": encodeAvatar(t, ""),
	}

	av, err := Load(context.Background(), l, LoadOptions{
		ModelURL:      "avatar.glb",
		AnimationsDir: "anims",
		Names:         []string{"idle", "walk", "wave", "empty"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"idle"}, av.ClipNames())
	assert.Equal(t, "idle", av.Clips["idle"].Name, "clips are renamed to the requested name")
	assert.Len(t, av.Skeleton.Joints, 2)
	assert.NotNil(t, av.Model)
}

func TestLoadRequiresModel(t *testing.T) {
	l := mapLoader{"anims/idle.glb": encodeAvatar(t, "idle")}

	_, err := Load(context.Background(), l, LoadOptions{
		ModelURL:      "avatar.glb",
		AnimationsDir: "anims",
		Names:         []string{"idle"},
	}, nil)
	assert.ErrorIs(t, err, assets.ErrNotFound)
}

func TestLoadFromAssetRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "animations"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "avatar.glb"), encodeAvatar(t, ""), 0o644))
	for _, name := range []string{"idle", "walk", "wave"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "animations", name+".glb"), encodeAvatar(t, name), 0o644))
	}

	mgr := assets.NewManager()
	require.NoError(t, mgr.AddRoot(dir))

	av, err := Load(context.Background(), mgr, LoadOptions{
		ModelURL:      "avatar.glb",
		AnimationsDir: "animations",
		Names:         []string{"idle", "walk", "wave"},
	}, nil)
	require.NoError(t, err)

	names := av.ClipNames()
	sort.Strings(names)
	assert.Equal(t, []string{"idle", "walk", "wave"}, names)
}

package cluster

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/Faultbox/greenmap/internal/geo"
)

func mustIndex(t *testing.T, opts Options, pts []Point) *Index {
	t.Helper()
	idx, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	idx.Load(pts)
	return idx
}

func londonPoints(n int, seed int64) []Point {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			ID: fmt.Sprintf("p%d", i),
			Position: geo.LngLat{
				Lng: -0.2 + rng.Float64()*0.2,
				Lat: 51.45 + rng.Float64()*0.1,
			},
		}
	}
	return pts
}

// leavesAt expands every feature visible at zoom into input point ids.
func leavesAt(t *testing.T, idx *Index, zoom float64) []string {
	t.Helper()
	var ids []string
	for _, f := range idx.Clusters(World, zoom) {
		if !f.Cluster {
			ids = append(ids, f.PointID)
			continue
		}
		leaves, err := idx.Leaves(f.ClusterID)
		if err != nil {
			t.Fatalf("Leaves(%d) error: %v", f.ClusterID, err)
		}
		if len(leaves) != f.PointCount {
			t.Errorf("cluster %d: %d leaves, PointCount %d", f.ClusterID, len(leaves), f.PointCount)
		}
		ids = append(ids, leaves...)
	}
	sort.Strings(ids)
	return ids
}

func TestClusterUnionIsComplete(t *testing.T) {
	pts := londonPoints(200, 1)
	idx := mustIndex(t, DefaultOptions(), pts)

	want := make([]string, len(pts))
	for i, p := range pts {
		want[i] = p.ID
	}
	sort.Strings(want)

	for z := 0; z <= 20; z++ {
		got := leavesAt(t, idx, float64(z))
		if len(got) != len(want) {
			t.Fatalf("zoom %d: got %d points, want %d", z, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("zoom %d: point set differs at %d: %s != %s", z, i, got[i], want[i])
			}
		}
	}
}

func TestClusterLowZoomGroups(t *testing.T) {
	idx := mustIndex(t, DefaultOptions(), londonPoints(50, 2))

	low := idx.Clusters(World, 2)
	if len(low) != 1 || !low[0].Cluster || low[0].PointCount != 50 {
		t.Fatalf("zoom 2: expected a single cluster of 50, got %+v", low)
	}

	high := idx.Clusters(World, 20)
	if len(high) != 50 {
		t.Fatalf("zoom 20: expected 50 single points, got %d features", len(high))
	}
	for _, f := range high {
		if f.Cluster {
			t.Errorf("zoom 20: unexpected cluster %+v", f)
		}
	}
}

func TestClusterSinglePointsKeepPosition(t *testing.T) {
	pts := []Point{
		{ID: "london", Position: geo.LngLat{Lng: -0.1276, Lat: 51.5072}},
		{ID: "sydney", Position: geo.LngLat{Lng: 151.2093, Lat: -33.8688}},
	}
	idx := mustIndex(t, DefaultOptions(), pts)

	features := idx.Clusters(World, 3)
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	for _, f := range features {
		if f.Cluster {
			t.Fatalf("distant points should not cluster: %+v", f)
		}
		var want geo.LngLat
		for _, p := range pts {
			if p.ID == f.PointID {
				want = p.Position
			}
		}
		if d := f.Position.Lng - want.Lng; d > 1e-9 || d < -1e-9 {
			t.Errorf("%s: lng %v, want %v", f.PointID, f.Position.Lng, want.Lng)
		}
		if d := f.Position.Lat - want.Lat; d > 1e-6 || d < -1e-6 {
			t.Errorf("%s: lat %v, want %v", f.PointID, f.Position.Lat, want.Lat)
		}
	}
}

func TestExpansionZoom(t *testing.T) {
	idx := mustIndex(t, DefaultOptions(), londonPoints(100, 3))

	for _, f := range idx.Clusters(World, 5) {
		if !f.Cluster {
			continue
		}
		ez, err := idx.ExpansionZoom(f.ClusterID)
		if err != nil {
			t.Fatalf("ExpansionZoom error: %v", err)
		}
		if ez <= 5 || ez > idx.Options().MaxZoom+1 {
			t.Errorf("expansion zoom %d out of range", ez)
		}

		// The cluster must not exist as-is at its expansion zoom.
		for _, g := range idx.Clusters(World, float64(ez)) {
			if g.Cluster && g.ClusterID == f.ClusterID {
				t.Errorf("cluster %d still present at expansion zoom %d", f.ClusterID, ez)
			}
		}

		children, err := idx.Children(f.ClusterID)
		if err != nil {
			t.Fatalf("Children error: %v", err)
		}
		if len(children) < 2 {
			t.Errorf("cluster %d has %d children", f.ClusterID, len(children))
		}
	}
}

func TestUnknownCluster(t *testing.T) {
	idx := mustIndex(t, DefaultOptions(), londonPoints(10, 4))

	if _, err := idx.Leaves(-5); !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("Leaves: expected ErrUnknownCluster, got %v", err)
	}
	if _, err := idx.ExpansionZoom(123456); !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("ExpansionZoom: expected ErrUnknownCluster, got %v", err)
	}
	if _, err := idx.Children(123456); !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("Children: expected ErrUnknownCluster, got %v", err)
	}
}

func TestEmptyIndex(t *testing.T) {
	idx := mustIndex(t, DefaultOptions(), nil)
	if got := idx.Clusters(World, 10); len(got) != 0 {
		t.Errorf("expected no features, got %d", len(got))
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d", idx.Len())
	}
}

func TestReloadReplacesPoints(t *testing.T) {
	idx := mustIndex(t, DefaultOptions(), londonPoints(30, 5))
	idx.Load(londonPoints(5, 6))

	if got := leavesAt(t, idx, 0); len(got) != 5 {
		t.Errorf("after reload: %d points, want 5", len(got))
	}
}

func TestClustersBBox(t *testing.T) {
	pts := []Point{
		{ID: "west", Position: geo.LngLat{Lng: -170, Lat: 10}},
		{ID: "east", Position: geo.LngLat{Lng: 170, Lat: 10}},
		{ID: "mid", Position: geo.LngLat{Lng: 0, Lat: 10}},
	}
	idx := mustIndex(t, DefaultOptions(), pts)

	ids := func(fs []Feature) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.PointID)
		}
		sort.Strings(out)
		return out
	}

	got := ids(idx.Clusters(BBox{MinLng: -10, MinLat: 0, MaxLng: 10, MaxLat: 20}, 10))
	if len(got) != 1 || got[0] != "mid" {
		t.Errorf("local bbox: got %v", got)
	}

	// Crossing the antimeridian.
	got = ids(idx.Clusters(BBox{MinLng: 160, MinLat: 0, MaxLng: -160, MaxLat: 20}, 10))
	if len(got) != 2 || got[0] != "east" || got[1] != "west" {
		t.Errorf("antimeridian bbox: got %v", got)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative radius", Options{Radius: -1, MaxZoom: 10}},
		{"inverted zoom", Options{Radius: 40, MinZoom: 8, MaxZoom: 4}},
		{"zoom too deep", Options{Radius: 40, MaxZoom: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}

	idx, err := New(Options{Radius: 40, MaxZoom: 10})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if idx.Options().Extent != 512 || idx.Options().MinPoints != 2 {
		t.Errorf("defaults not applied: %+v", idx.Options())
	}
}

// Package cluster implements hierarchical greedy point clustering for map
// markers. Points are projected to Mercator tile space and grouped, zoom by
// zoom from MaxZoom down to MinZoom, by everything within Radius pixels.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/rtree"

	"github.com/Faultbox/greenmap/internal/geo"
)

// ErrUnknownCluster is returned for cluster ids not produced by the index.
var ErrUnknownCluster = errors.New("unknown cluster id")

// Options configures an Index.
type Options struct {
	Radius    float64 // cluster radius in pixels
	Extent    float64 // tile extent the radius is relative to
	MinZoom   int
	MaxZoom   int
	MinPoints int // minimum points to form a cluster
}

// DefaultOptions returns the options used for map markers.
func DefaultOptions() Options {
	return Options{
		Radius:    50,
		Extent:    512,
		MinZoom:   0,
		MaxZoom:   14,
		MinPoints: 2,
	}
}

// maxZoomLimit keeps cluster ids within the 5 bits reserved for zoom.
const maxZoomLimit = 30

// Point is an input point.
type Point struct {
	ID       string
	Position geo.LngLat
}

// Feature is a rendered item at a zoom level: a cluster or a single point.
type Feature struct {
	Cluster    bool
	ClusterID  int
	PointCount int
	PointID    string
	Position   geo.LngLat
}

// BBox is a geographic bounding box in degrees.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// World covers the entire map.
var World = BBox{MinLng: -180, MinLat: -90, MaxLng: 180, MaxLat: 90}

type node struct {
	x, y      float64
	zoom      int // last zoom this node was processed at
	id        int // cluster id, -1 for input points
	parent    int
	numPoints int
	pointID   string
	children  []*node
}

type level struct {
	nodes []*node
	tree  *rtree.RTree
}

func (l level) within(x, y, r float64, fn func(n *node)) {
	if l.tree == nil {
		return
	}
	box := rtree.Box{MinX: x - r, MinY: y - r, MaxX: x + r, MaxY: y + r}
	r2 := r * r
	_ = l.tree.RangeSearch(box, func(recordID int) error {
		n := l.nodes[recordID]
		dx, dy := n.x-x, n.y-y
		if dx*dx+dy*dy <= r2 {
			fn(n)
		}
		return nil
	})
}

func (l level) inBox(box rtree.Box, fn func(n *node)) {
	if l.tree == nil {
		return
	}
	_ = l.tree.RangeSearch(box, func(recordID int) error {
		fn(l.nodes[recordID])
		return nil
	})
}

func newLevel(nodes []*node) level {
	if len(nodes) == 0 {
		return level{}
	}
	items := make([]rtree.BulkItem, len(nodes))
	for i, n := range nodes {
		items[i] = rtree.BulkItem{
			Box:      rtree.Box{MinX: n.x, MinY: n.y, MaxX: n.x, MaxY: n.y},
			RecordID: i,
		}
	}
	return level{nodes: nodes, tree: rtree.BulkLoad(items)}
}

// Index is a loaded clustering index. It is immutable after Load and safe
// for concurrent reads.
type Index struct {
	opts     Options
	levels   []level // indexed by zoom, MinZoom..MaxZoom+1
	clusters map[int]*node
	points   int
}

// New validates opts and returns an empty index.
func New(opts Options) (*Index, error) {
	if opts.Extent <= 0 {
		opts.Extent = 512
	}
	if opts.MinPoints < 2 {
		opts.MinPoints = 2
	}
	if opts.Radius < 0 {
		return nil, fmt.Errorf("cluster radius must not be negative: %v", opts.Radius)
	}
	if opts.MinZoom < 0 || opts.MaxZoom < opts.MinZoom || opts.MaxZoom > maxZoomLimit-1 {
		return nil, fmt.Errorf("invalid cluster zoom range %d..%d", opts.MinZoom, opts.MaxZoom)
	}
	return &Index{
		opts:     opts,
		levels:   make([]level, opts.MaxZoom+2),
		clusters: make(map[int]*node),
	}, nil
}

// Options returns the index options.
func (idx *Index) Options() Options { return idx.opts }

// Len returns the number of loaded points.
func (idx *Index) Len() int { return idx.points }

// Load replaces the indexed points and rebuilds every zoom level.
func (idx *Index) Load(points []Point) {
	idx.clusters = make(map[int]*node)
	idx.points = len(points)

	nodes := make([]*node, len(points))
	for i, p := range points {
		nodes[i] = &node{
			x:         geo.LngX(p.Position.Lng),
			y:         geo.LatY(p.Position.Lat),
			zoom:      math.MaxInt,
			id:        -1,
			parent:    -1,
			numPoints: 1,
			pointID:   p.ID,
		}
	}

	idx.levels[idx.opts.MaxZoom+1] = newLevel(nodes)
	for z := idx.opts.MaxZoom; z >= idx.opts.MinZoom; z-- {
		nodes = idx.cluster(nodes, z)
		idx.levels[z] = newLevel(nodes)
	}
}

func (idx *Index) cluster(nodes []*node, zoom int) []*node {
	r := idx.opts.Radius / (idx.opts.Extent * math.Pow(2, float64(zoom)))
	prev := idx.levels[zoom+1]
	var out []*node

	for i, p := range nodes {
		if p.zoom <= zoom {
			continue
		}
		p.zoom = zoom

		var neighbors []*node
		prev.within(p.x, p.y, r, func(n *node) {
			if n != p {
				neighbors = append(neighbors, n)
			}
		})

		numPoints := p.numPoints
		for _, n := range neighbors {
			if n.zoom > zoom {
				numPoints += n.numPoints
			}
		}

		if numPoints > p.numPoints && numPoints >= idx.opts.MinPoints {
			id := i<<5 + (zoom + 1)
			wx := p.x * float64(p.numPoints)
			wy := p.y * float64(p.numPoints)
			c := &node{id: id, parent: -1, numPoints: numPoints, zoom: math.MaxInt, children: []*node{p}}
			p.parent = id
			for _, n := range neighbors {
				if n.zoom <= zoom {
					continue
				}
				n.zoom = zoom
				n.parent = id
				wx += n.x * float64(n.numPoints)
				wy += n.y * float64(n.numPoints)
				c.children = append(c.children, n)
			}
			c.x = wx / float64(numPoints)
			c.y = wy / float64(numPoints)
			idx.clusters[id] = c
			out = append(out, c)
			continue
		}

		out = append(out, p)
		if numPoints > 1 {
			for _, n := range neighbors {
				if n.zoom <= zoom {
					continue
				}
				n.zoom = zoom
				out = append(out, n)
			}
		}
	}
	return out
}

func (idx *Index) limitZoom(z float64) int {
	zi := int(math.Floor(z))
	return max(idx.opts.MinZoom, min(zi, idx.opts.MaxZoom+1))
}

// Clusters returns the clusters and single points visible inside bbox at zoom.
func (idx *Index) Clusters(bbox BBox, zoom float64) []Feature {
	minLng := math.Mod(math.Mod(bbox.MinLng+180, 360)+360, 360) - 180
	minLat := math.Max(-90, math.Min(90, bbox.MinLat))
	maxLng := 180.0
	if bbox.MaxLng != 180 {
		maxLng = math.Mod(math.Mod(bbox.MaxLng+180, 360)+360, 360) - 180
	}
	maxLat := math.Max(-90, math.Min(90, bbox.MaxLat))

	if bbox.MaxLng-bbox.MinLng >= 360 {
		minLng, maxLng = -180, 180
	} else if minLng > maxLng {
		east := idx.Clusters(BBox{MinLng: minLng, MinLat: minLat, MaxLng: 180, MaxLat: maxLat}, zoom)
		west := idx.Clusters(BBox{MinLng: -180, MinLat: minLat, MaxLng: maxLng, MaxLat: maxLat}, zoom)
		return append(east, west...)
	}

	lvl := idx.levels[idx.limitZoom(zoom)]
	box := rtree.Box{
		MinX: geo.LngX(minLng),
		MinY: geo.LatY(maxLat),
		MaxX: geo.LngX(maxLng),
		MaxY: geo.LatY(minLat),
	}
	var out []Feature
	lvl.inBox(box, func(n *node) {
		out = append(out, n.feature())
	})
	return out
}

func (n *node) feature() Feature {
	pos := geo.LngLat{Lng: geo.XLng(n.x), Lat: geo.YLat(n.y)}
	if n.id < 0 {
		return Feature{PointID: n.pointID, PointCount: 1, Position: pos}
	}
	return Feature{Cluster: true, ClusterID: n.id, PointCount: n.numPoints, Position: pos}
}

// Children returns the features one zoom level below a cluster.
func (idx *Index) Children(clusterID int) ([]Feature, error) {
	c, ok := idx.clusters[clusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	out := make([]Feature, len(c.children))
	for i, ch := range c.children {
		out[i] = ch.feature()
	}
	return out, nil
}

// Leaves returns the ids of every input point under a cluster.
func (idx *Index) Leaves(clusterID int) ([]string, error) {
	c, ok := idx.clusters[clusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	out := make([]string, 0, c.numPoints)
	var walk func(n *node)
	walk = func(n *node) {
		if n.id < 0 {
			out = append(out, n.pointID)
			return
		}
		for _, ch := range n.children {
			walk(ch)
		}
	}
	walk(c)
	return out, nil
}

// ExpansionZoom returns the zoom at which a cluster splits into more than
// one child.
func (idx *Index) ExpansionZoom(clusterID int) (int, error) {
	c, ok := idx.clusters[clusterID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	zoom := originZoom(clusterID) - 1
	for zoom <= idx.opts.MaxZoom {
		zoom++
		if len(c.children) != 1 || c.children[0].id < 0 {
			break
		}
		c = c.children[0]
	}
	return zoom, nil
}

func originZoom(clusterID int) int {
	return clusterID % 32
}

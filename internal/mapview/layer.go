package mapview

import (
	"github.com/Faultbox/greenmap/internal/cluster"
)

// LayerType selects how a layer draws its source features.
type LayerType int

const (
	// LayerCircle draws a filled circle per feature.
	LayerCircle LayerType = iota
	// LayerSymbol draws the feature's point count as text.
	LayerSymbol
)

// Filter restricts the features a layer draws.
type Filter int

const (
	FilterAll Filter = iota
	FilterClustered
	FilterUnclustered
)

// Match reports whether f passes the filter.
func (f Filter) Match(feat cluster.Feature) bool {
	switch f {
	case FilterClustered:
		return feat.Cluster
	case FilterUnclustered:
		return !feat.Cluster
	default:
		return true
	}
}

// StepStop switches a Step to Value once the input reaches Threshold.
type StepStop[T any] struct {
	Threshold int
	Value     T
}

// Step maps a point count to a value: Base below the first threshold, then
// the value of the highest stop reached. Stops must be sorted.
type Step[T any] struct {
	Base  T
	Stops []StepStop[T]
}

// At evaluates the step for n.
func (s Step[T]) At(n int) T {
	v := s.Base
	for _, stop := range s.Stops {
		if n < stop.Threshold {
			break
		}
		v = stop.Value
	}
	return v
}

// Paint holds a layer's drawing properties.
type Paint struct {
	Color       Step[[4]float32]
	Radius      Step[float64]
	StrokeColor [4]float32
	StrokeWidth float64
	TextColor   [4]float32
	TextSize    float64
}

// Layer draws features of a source.
type Layer struct {
	ID     string
	Type   LayerType
	Source string
	Filter Filter
	Paint  Paint
	// MaxZoom hides the layer at and above this zoom. Zero means no limit.
	MaxZoom float64
	// OnClick is called with the top-most feature of this layer under a click.
	OnClick func(f RenderedFeature)
}

// hitRadius is the pixel radius a feature occupies on this layer.
func (l *Layer) hitRadius(f cluster.Feature) float64 {
	switch l.Type {
	case LayerSymbol:
		return l.Paint.TextSize / 2
	default:
		return l.Paint.Radius.At(f.PointCount) + l.Paint.StrokeWidth
	}
}

// RenderedFeature is a source feature as placed on screen by a layer.
type RenderedFeature struct {
	LayerID string
	Source  string
	cluster.Feature
	X, Y   float64
	Radius float64
}

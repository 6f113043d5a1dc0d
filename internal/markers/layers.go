package markers

import (
	"github.com/Faultbox/greenmap/internal/mapview"
)

// Source and layer ids used in clustered mode.
const (
	SourceID              = "markers"
	LayerClusters         = "clusters"
	LayerClusterCount     = "cluster-count"
	LayerUnclusteredPoint = "unclustered-point"
)

var layerIDs = []string{LayerClusterCount, LayerClusters, LayerUnclusteredPoint}

func hex(rgb uint32) [4]float32 {
	return [4]float32{
		float32(rgb>>16&0xff) / 255,
		float32(rgb>>8&0xff) / 255,
		float32(rgb&0xff) / 255,
		1,
	}
}

var white = [4]float32{1, 1, 1, 1}

func clusterLayers(maxZoom float64, onClick func(mapview.RenderedFeature)) []*mapview.Layer {
	return []*mapview.Layer{
		{
			ID:     LayerClusters,
			Type:   mapview.LayerCircle,
			Source: SourceID,
			Filter: mapview.FilterClustered,
			Paint: mapview.Paint{
				Color: mapview.Step[[4]float32]{
					Base: hex(0x51bbd6),
					Stops: []mapview.StepStop[[4]float32]{
						{Threshold: 10, Value: hex(0xf1f075)},
						{Threshold: 50, Value: hex(0xf28cb1)},
					},
				},
				Radius: mapview.Step[float64]{
					Base: 20,
					Stops: []mapview.StepStop[float64]{
						{Threshold: 10, Value: 30},
						{Threshold: 50, Value: 40},
					},
				},
				StrokeColor: white,
				StrokeWidth: 2,
			},
			MaxZoom: maxZoom,
			OnClick: onClick,
		},
		{
			ID:     LayerClusterCount,
			Type:   mapview.LayerSymbol,
			Source: SourceID,
			Filter: mapview.FilterClustered,
			Paint: mapview.Paint{
				TextColor: hex(0x1f2937),
				TextSize:  12,
			},
			MaxZoom: maxZoom,
		},
		{
			ID:     LayerUnclusteredPoint,
			Type:   mapview.LayerCircle,
			Source: SourceID,
			Filter: mapview.FilterUnclustered,
			Paint: mapview.Paint{
				Color:       mapview.Step[[4]float32]{Base: hex(0x11b4da)},
				Radius:      mapview.Step[float64]{Base: 6},
				StrokeColor: white,
				StrokeWidth: 1,
			},
			MaxZoom: maxZoom,
		},
	}
}

package marker

import (
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/geo"
)

// FromResponse maps the four backend collections to markers. Records with
// invalid coordinates are dropped and only logged at debug level.
func FromResponse(resp *api.MarkersResponse, log *zap.Logger) []Marker {
	if resp == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]Marker, 0, resp.Total())
	keep := func(m Marker) {
		if err := m.Position.Validate(); err != nil {
			log.Debug("dropping marker with invalid position",
				zap.String("id", m.ID),
				zap.String("kind", string(m.Kind())),
				zap.Error(err))
			return
		}
		out = append(out, m)
	}

	for _, r := range resp.Plants {
		keep(Marker{
			ID:          NamespacedID(KindPlant, r.ID),
			Name:        r.Name,
			Image:       r.ImageURL,
			Position:    geo.LngLat{Lng: r.Longitude, Lat: r.Latitude},
			CreatedByID: r.CreatedByID,
			Details:     Plant{r},
		})
	}
	for _, r := range resp.Animals {
		keep(Marker{
			ID:          NamespacedID(KindAnimal, r.ID),
			Name:        r.Species,
			Image:       r.ImageURL,
			Position:    geo.LngLat{Lng: r.Longitude, Lat: r.Latitude},
			CreatedByID: r.CreatedByID,
			Details:     Animal{r},
		})
	}
	for _, r := range resp.Litters {
		img := r.AfterImg
		if img == "" {
			img = r.BeforeImg
		}
		keep(Marker{
			ID:          NamespacedID(KindLitter, r.ID),
			Name:        r.LitterType,
			Image:       img,
			Position:    geo.LngLat{Lng: r.Longitude, Lat: r.Latitude},
			CreatedByID: r.CreatedByID,
			Details:     Litter{r},
		})
	}
	for _, r := range resp.CommunityEvents {
		keep(Marker{
			ID:          NamespacedID(KindCommunityEvent, r.ID),
			Name:        r.Title,
			Image:       r.ImageURL,
			Position:    geo.LngLat{Lng: r.Longitude, Lat: r.Latitude},
			CreatedByID: r.CreatedByID,
			Details:     CommunityEvent{r},
		})
	}

	if dropped := resp.Total() - len(out); dropped > 0 {
		log.Debug("filtered invalid marker records", zap.Int("dropped", dropped), zap.Int("kept", len(out)))
	}
	return out
}

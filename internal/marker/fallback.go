package marker

import "github.com/Faultbox/greenmap/internal/api"

// Fallback returns the fixed demo set shown when the backend cannot be
// reached: one marker of each kind around central London.
func Fallback() []Marker {
	resp := &api.MarkersResponse{
		Plants: []api.PlantRecord{{
			ID: "demo-1", Latitude: 51.5079, Longitude: -0.1281,
			Name: "English Oak", ScientificName: "Quercus robur",
			ImageURL: "/images/demo/oak.jpg", CreatedByID: FallbackOwner,
		}},
		Animals: []api.AnimalRecord{{
			ID: "demo-2", Latitude: 51.5054, Longitude: -0.1235,
			Species: "Red Fox", ImageURL: "/images/demo/fox.jpg", CreatedByID: FallbackOwner,
		}},
		Litters: []api.LitterRecord{{
			ID: "demo-3", Latitude: 51.5101, Longitude: -0.1340,
			LitterType: "Plastic bottles", AfterImg: "/images/demo/litter.jpg", CreatedByID: FallbackOwner,
		}},
		CommunityEvents: []api.CommunityEventRecord{{
			ID: "demo-4", Latitude: 51.5033, Longitude: -0.1196,
			Title: "Riverside clean-up", StartsAt: "Saturday 10:00",
			ImageURL: "/images/demo/event.jpg", CreatedByID: FallbackOwner,
		}},
	}
	return FromResponse(resp, nil)
}

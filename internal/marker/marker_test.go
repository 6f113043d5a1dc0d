package marker

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/geo"
)

func sampleResponse() *api.MarkersResponse {
	return &api.MarkersResponse{
		Plants: []api.PlantRecord{
			{ID: "p1", Latitude: 51.50, Longitude: -0.12, Name: "Oak", ImageURL: "oak.jpg", CreatedByID: "u1"},
			{ID: "p2", Latitude: 51.51, Longitude: -0.13, Name: "Ash", ImageURL: "ash.jpg", CreatedByID: "u1"},
			{ID: "p3", Latitude: 51.52, Longitude: -0.14, Name: "Elm", ImageURL: "elm.jpg", CreatedByID: "u2"},
		},
		Animals: []api.AnimalRecord{
			{ID: "a1", Latitude: 51.49, Longitude: -0.11, Species: "Fox", ImageURL: "fox.jpg", CreatedByID: "u1"},
			{ID: "a2", Latitude: 51.48, Longitude: -0.10, Species: "Heron", ImageURL: "heron.jpg", CreatedByID: "u1"},
		},
		CommunityEvents: []api.CommunityEventRecord{
			{ID: "e1", Latitude: 51.47, Longitude: -0.09, Title: "Clean-up", ImageURL: "e.jpg", CreatedByID: "u1"},
		},
	}
}

func TestFromResponse(t *testing.T) {
	markers := FromResponse(sampleResponse(), nil)
	require.Len(t, markers, 6)

	set := NewSet(markers)
	assert.Len(t, set.ByKind(KindPlant), 3)
	assert.Len(t, set.ByKind(KindAnimal), 2)
	assert.Empty(t, set.ByKind(KindLitter))
	assert.Len(t, set.ByKind(KindCommunityEvent), 1)

	first := markers[0]
	assert.Equal(t, "plant-p1", first.ID)
	assert.Equal(t, "Oak", first.Name)
	assert.Equal(t, "oak.jpg", first.Image)
	assert.Equal(t, geo.LngLat{Lng: -0.12, Lat: 51.50}, first.Position)
	assert.Equal(t, KindPlant, first.Kind())

	fox, ok := set.Find("animal-a1")
	require.True(t, ok)
	assert.Equal(t, "Fox", fox.Name)
}

func TestFromResponseNil(t *testing.T) {
	assert.Nil(t, FromResponse(nil, nil))
	assert.Empty(t, FromResponse(&api.MarkersResponse{}, nil))
}

func TestFromResponseDropsInvalidPositions(t *testing.T) {
	resp := &api.MarkersResponse{
		Plants: []api.PlantRecord{
			{ID: "zero", Latitude: 0, Longitude: 0, Name: "Null island"},
			{ID: "nan", Latitude: math.NaN(), Longitude: 1, Name: "NaN"},
			{ID: "lat", Latitude: 91, Longitude: 1, Name: "Too far north"},
			{ID: "lng", Latitude: 10, Longitude: -181, Name: "Too far west"},
			{ID: "ok", Latitude: 10, Longitude: 10, Name: "Fine"},
		},
		Animals: []api.AnimalRecord{
			{ID: "inf", Latitude: math.Inf(1), Longitude: 3, Species: "Inf"},
		},
	}

	markers := FromResponse(resp, nil)
	require.Len(t, markers, 1)
	assert.Equal(t, "plant-ok", markers[0].ID)
}

func TestFromResponseLitterImage(t *testing.T) {
	resp := &api.MarkersResponse{
		Litters: []api.LitterRecord{
			{ID: "1", Latitude: 1, Longitude: 1, LitterType: "Cans", BeforeImg: "before.jpg", AfterImg: "after.jpg"},
			{ID: "2", Latitude: 2, Longitude: 2, LitterType: "Bags", BeforeImg: "before.jpg"},
		},
	}

	markers := FromResponse(resp, nil)
	require.Len(t, markers, 2)
	assert.Equal(t, "after.jpg", markers[0].Image)
	assert.Equal(t, "before.jpg", markers[1].Image)
	assert.Equal(t, "Cans", markers[0].Name)
	assert.Equal(t, KindLitter, markers[1].Kind())
}

func TestFallback(t *testing.T) {
	markers := Fallback()
	require.Len(t, markers, 4)

	seen := make(map[Kind]int)
	for _, m := range markers {
		seen[m.Kind()]++
		assert.Equal(t, FallbackOwner, m.CreatedByID)
		assert.True(t, m.Position.Valid(), "fallback marker %s has invalid position", m.ID)
	}
	for _, k := range Kinds {
		assert.Equal(t, 1, seen[k], "kind %s", k)
	}

	// Stable across calls.
	assert.Equal(t, markers, Fallback())
}

func TestSetStats(t *testing.T) {
	set := NewSet(FromResponse(sampleResponse(), nil))

	st := set.Stats("u1")
	assert.Equal(t, SubmissionStats{Plants: 2, Animals: 2, Litter: 0, CommunityEvents: 1, Total: 5}, st)

	assert.Equal(t, SubmissionStats{Plants: 1, Total: 1}, set.Stats("u2"))
	assert.Equal(t, SubmissionStats{}, set.Stats("nobody"))

	assert.Len(t, set.ByUserID("u1"), 5)
	assert.Empty(t, set.ByUserID("nobody"))
}

func TestSetIsACopy(t *testing.T) {
	src := FromResponse(sampleResponse(), nil)
	set := NewSet(src)
	src[0].Name = "changed"

	all := set.All()
	assert.Equal(t, "Oak", all[0].Name)
	all[1].Name = "changed"
	assert.Equal(t, "Ash", set.All()[1].Name)
	assert.Equal(t, 6, set.Len())
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		m    Marker
		want []string
	}{
		{
			name: "plant with scientific name",
			m:    Marker{Details: Plant{api.PlantRecord{Name: "Oak", ScientificName: "Quercus robur"}}},
			want: []string{"Plant", "Oak (Quercus robur)"},
		},
		{
			name: "animal",
			m:    Marker{Details: Animal{api.AnimalRecord{Species: "Fox"}}},
			want: []string{"Animal", "Fox"},
		},
		{
			name: "litter cleaned",
			m:    Marker{Details: Litter{api.LitterRecord{LitterType: "Cans", CleanedUp: true}}},
			want: []string{"Litter", "Cans", "cleaned up"},
		},
		{
			name: "event",
			m:    Marker{Details: CommunityEvent{api.CommunityEventRecord{Title: "Picnic", StartsAt: "Sunday"}}},
			want: []string{"Event", "Picnic", "Sunday"},
		},
		{
			name: "no details",
			m:    Marker{ID: "x-1"},
			want: []string{"Marker x-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(tt.m)
			for _, w := range tt.want {
				assert.True(t, strings.Contains(got, w), "%q missing %q", got, w)
			}
		})
	}
}

func TestStyleFor(t *testing.T) {
	badges := make(map[string]bool)
	for _, k := range Kinds {
		s := StyleFor(k)
		assert.NotEmpty(t, s.Badge)
		assert.Equal(t, float32(1), s.BorderColor[3])
		badges[s.Badge] = true
	}
	assert.Len(t, badges, len(Kinds), "each kind needs its own badge")
	assert.Equal(t, "📍", StyleFor("unknown").Badge)
}

func TestNamespacedID(t *testing.T) {
	assert.Equal(t, "community-event-42", NamespacedID(KindCommunityEvent, "42"))
}

package api

// MarkersResponse is the body of the marker listing endpoint: four parallel
// collections, one per marker source.
type MarkersResponse struct {
	Plants          []PlantRecord          `json:"plants"`
	Animals         []AnimalRecord         `json:"animals"`
	Litters         []LitterRecord         `json:"litters"`
	CommunityEvents []CommunityEventRecord `json:"communityEvents"`
}

// Total returns the number of records across all collections.
func (r *MarkersResponse) Total() int {
	if r == nil {
		return 0
	}
	return len(r.Plants) + len(r.Animals) + len(r.Litters) + len(r.CommunityEvents)
}

// PlantRecord is a plant sighting.
type PlantRecord struct {
	ID             string  `json:"id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Name           string  `json:"name"`
	ScientificName string  `json:"scientificName,omitempty"`
	ImageURL       string  `json:"imageUrl"`
	CreatedByID    string  `json:"createdById"`
	CreatedAt      string  `json:"createdAt,omitempty"`
}

// AnimalRecord is an animal sighting.
type AnimalRecord struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Species     string  `json:"species"`
	ImageURL    string  `json:"imageUrl"`
	CreatedByID string  `json:"createdById"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// LitterRecord is a litter report with before/after cleanup photos.
type LitterRecord struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	LitterType  string  `json:"litterType"`
	BeforeImg   string  `json:"beforeImg,omitempty"`
	AfterImg    string  `json:"afterImg"`
	CleanedUp   bool    `json:"cleanedUp"`
	CreatedByID string  `json:"createdById"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// CommunityEventRecord is an organized community event.
type CommunityEventRecord struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	StartsAt    string  `json:"startsAt,omitempty"`
	ImageURL    string  `json:"imageUrl"`
	CreatedByID string  `json:"createdById"`
}

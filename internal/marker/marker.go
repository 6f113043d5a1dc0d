// Package marker defines the normalized map marker model built from the
// backend's plant, animal, litter and community-event records.
package marker

import (
	"fmt"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/geo"
)

// Kind identifies the source collection of a marker.
type Kind string

// Marker kinds.
const (
	KindPlant          Kind = "plant"
	KindAnimal         Kind = "animal"
	KindLitter         Kind = "litter"
	KindCommunityEvent Kind = "community-event"
)

// Kinds lists every marker kind in display order.
var Kinds = []Kind{KindPlant, KindAnimal, KindLitter, KindCommunityEvent}

// FallbackOwner is the CreatedByID of seeded demo markers.
const FallbackOwner = "system-fallback"

// Details is the source record a marker was built from. It is a closed set:
// Plant, Animal, Litter and CommunityEvent are the only implementations.
type Details interface {
	Kind() Kind
	sealed()
}

// Plant wraps a plant sighting.
type Plant struct{ api.PlantRecord }

// Animal wraps an animal sighting.
type Animal struct{ api.AnimalRecord }

// Litter wraps a litter report.
type Litter struct{ api.LitterRecord }

// CommunityEvent wraps a community event.
type CommunityEvent struct{ api.CommunityEventRecord }

func (Plant) Kind() Kind          { return KindPlant }
func (Animal) Kind() Kind         { return KindAnimal }
func (Litter) Kind() Kind         { return KindLitter }
func (CommunityEvent) Kind() Kind { return KindCommunityEvent }

func (Plant) sealed()          {}
func (Animal) sealed()         {}
func (Litter) sealed()         {}
func (CommunityEvent) sealed() {}

// Marker is a normalized point of interest on the map.
type Marker struct {
	ID          string
	Name        string
	Image       string
	Position    geo.LngLat
	CreatedByID string
	Details     Details
}

// Kind returns the marker's kind, derived from its source record.
func (m Marker) Kind() Kind {
	if m.Details == nil {
		return ""
	}
	return m.Details.Kind()
}

// NamespacedID builds the globally unique marker id "<kind>-<backendId>".
func NamespacedID(kind Kind, backendID string) string {
	return fmt.Sprintf("%s-%s", kind, backendID)
}

// Summary renders a plain-text description of the marker, used when no click
// handler is registered.
func Summary(m Marker) string {
	switch d := m.Details.(type) {
	case Plant:
		name := d.Name
		if d.ScientificName != "" {
			name = fmt.Sprintf("%s (%s)", d.Name, d.ScientificName)
		}
		return fmt.Sprintf("Plant: %s at %s", name, m.Position)
	case Animal:
		return fmt.Sprintf("Animal: %s at %s", d.Species, m.Position)
	case Litter:
		status := "not yet cleaned"
		if d.CleanedUp {
			status = "cleaned up"
		}
		return fmt.Sprintf("Litter: %s (%s) at %s", d.LitterType, status, m.Position)
	case CommunityEvent:
		if d.StartsAt != "" {
			return fmt.Sprintf("Event: %s on %s at %s", d.Title, d.StartsAt, m.Position)
		}
		return fmt.Sprintf("Event: %s at %s", d.Title, m.Position)
	default:
		return fmt.Sprintf("Marker %s at %s", m.ID, m.Position)
	}
}

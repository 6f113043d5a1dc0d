package marker

// Set is a read-only snapshot of the live markers.
type Set struct {
	markers []Marker
}

// NewSet wraps markers. The slice is copied.
func NewSet(markers []Marker) Set {
	return Set{markers: append([]Marker(nil), markers...)}
}

// Len returns the number of markers.
func (s Set) Len() int { return len(s.markers) }

// All returns a copy of every marker.
func (s Set) All() []Marker {
	return append([]Marker(nil), s.markers...)
}

// ByKind returns the markers of one kind.
func (s Set) ByKind(kind Kind) []Marker {
	return s.filter(func(m Marker) bool { return m.Kind() == kind })
}

// ByUserID returns the markers created by a user.
func (s Set) ByUserID(userID string) []Marker {
	return s.filter(func(m Marker) bool { return m.CreatedByID == userID })
}

// Find returns the marker with the given namespaced id.
func (s Set) Find(id string) (Marker, bool) {
	for _, m := range s.markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

func (s Set) filter(keep func(Marker) bool) []Marker {
	var out []Marker
	for _, m := range s.markers {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// SubmissionStats counts a user's contributions per kind.
type SubmissionStats struct {
	Plants          int
	Animals         int
	Litter          int
	CommunityEvents int
	Total           int
}

// Stats returns the submission counts of one user.
func (s Set) Stats(userID string) SubmissionStats {
	var st SubmissionStats
	for _, m := range s.markers {
		if m.CreatedByID != userID {
			continue
		}
		switch m.Details.(type) {
		case Plant:
			st.Plants++
		case Animal:
			st.Animals++
		case Litter:
			st.Litter++
		case CommunityEvent:
			st.CommunityEvents++
		default:
			continue
		}
		st.Total++
	}
	return st
}

// Package mode defines the sort modes a search request can ask for.
package mode

// Mode selects the result ordering of a ranked search.
type Mode string

const (
	// Best orders by fused match score descending (default).
	Best Mode = "best"
	// Rating orders by profile rating descending.
	Rating Mode = "rating"
	// Experience orders by years of experience descending.
	Experience Mode = "experience"
	// Distance is accepted on the wire for compatibility with older clients
	// but ranks identically to Best: the ranking core carries no geo signal.
	Distance Mode = "distance"
)

// IsValid reports whether m is a known sort mode.
func (m Mode) IsValid() bool {
	switch m {
	case Best, Rating, Experience, Distance:
		return true
	}
	return false
}

// Parse maps a wire string onto a Mode, falling back to Best for anything
// unknown or empty. Malformed sort input never fails a search request.
func Parse(s string) Mode {
	m := Mode(s)
	if !m.IsValid() {
		return Best
	}
	return m
}

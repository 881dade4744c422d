// Package entity defines the value objects produced by the resolution
// pipeline: the canonical Entity, disambiguation candidates, and the
// per-provider source payloads attached during enrichment.
package entity

// Type is the coarse classification of a resolved entity.
type Type string

const (
	TypePerson  Type = "person"
	TypePlace   Type = "place"
	TypeWork    Type = "work"
	TypeConcept Type = "concept"
	// TypeEntity is the default when no known classification applies.
	TypeEntity Type = "entity"
)

// Coordinates is a geographic point extracted from structured claims.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Identifier keys used in Entity.Identifiers.
const (
	IDMusicBrainz = "musicbrainz"
	IDIMDb        = "imdb"
	IDVIAF        = "viaf"
	IDGND         = "gnd"
	IDOpenLibrary = "openlibrary"
	IDGeoNames    = "geonames"
	IDImage       = "image"
	IDCoordinates = "coordinates"
)

// Entity is the canonical representation of a resolved subject. It is
// created once by the resolution pipeline and treated as immutable
// afterwards; a new search produces a new Entity.
type Entity struct {
	// ID is the canonical structured-data identifier, stable across sources.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        Type   `json:"type"`

	// Identifiers maps external-system names (see ID* constants) to that
	// system's foreign key, or a Coordinates value for IDCoordinates.
	Identifiers map[string]any `json:"identifiers"`

	// Sources maps provider names (see Source* constants) to the raw
	// enrichment payload from that provider. Entries are additive only;
	// a failed enrichment simply leaves its key absent.
	Sources map[string]any `json:"sources"`
}

// StringID returns a string-valued identifier, if present.
func (e *Entity) StringID(key string) (string, bool) {
	v, ok := e.Identifiers[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Coords returns the extracted coordinates, if present.
func (e *Entity) Coords() (Coordinates, bool) {
	v, ok := e.Identifiers[IDCoordinates]
	if !ok {
		return Coordinates{}, false
	}
	c, ok := v.(Coordinates)
	return c, ok
}

// Candidate is an unresolved disambiguation option. Produced only
// during disambiguation and never persisted.
type Candidate struct {
	Title       string `json:"title"`
	CanonicalID string `json:"canonicalId"`
}

// Resolution is the outcome of resolving a search term: either a fully
// assembled Entity, or a list of candidates for caller-driven selection.
type Resolution struct {
	Entity     *Entity     `json:"entity,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// NeedsDisambiguation reports whether the caller must pick a candidate.
func (r *Resolution) NeedsDisambiguation() bool {
	return r.Entity == nil && len(r.Candidates) > 0
}

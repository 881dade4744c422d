package resolve

import (
	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/providers/wikidata"
)

// Structured-claim properties consumed by the pipeline.
const (
	propInstanceOf  = "P31"
	propImage       = "P18"
	propVIAF        = "P214"
	propGND         = "P227"
	propIMDb        = "P345"
	propMusicBrainz = "P434"
	propCoordinates = "P625"
	propOpenLibrary = "P648"
	propGeoNames    = "P1566"
)

// typeByClaim maps known "instance of" values to coarse entity types.
var typeByClaim = map[string]entity.Type{
	"Q5": entity.TypePerson, // human

	"Q515":    entity.TypePlace, // city
	"Q6256":   entity.TypePlace, // country
	"Q486972": entity.TypePlace, // human settlement
	"Q23397":  entity.TypePlace, // lake
	"Q8502":   entity.TypePlace, // mountain

	"Q11424":   entity.TypeWork, // film
	"Q5398426": entity.TypeWork, // television series
	"Q7725634": entity.TypeWork, // literary work
	"Q482994":  entity.TypeWork, // album

	"Q11862829": entity.TypeConcept, // academic discipline
	"Q151885":   entity.TypeConcept, // concept
	"Q12136":    entity.TypeConcept, // disease
}

// inferType classifies an entity from its first "instance of" claim
// value; anything unknown stays the generic entity type.
func inferType(claims wikidata.Claims) entity.Type {
	id, ok := claims.FirstItemID(propInstanceOf)
	if !ok {
		return entity.TypeEntity
	}
	if t, ok := typeByClaim[id]; ok {
		return t
	}
	return entity.TypeEntity
}

// identifierProps maps string-valued claim properties to identifier keys.
var identifierProps = map[string]string{
	propMusicBrainz: entity.IDMusicBrainz,
	propIMDb:        entity.IDIMDb,
	propVIAF:        entity.IDVIAF,
	propGND:         entity.IDGND,
	propOpenLibrary: entity.IDOpenLibrary,
	propGeoNames:    entity.IDGeoNames,
	propImage:       entity.IDImage,
}

// extractIdentifiers copies known external identifiers from the claim
// set. Only the first value per property is taken; geographic
// coordinates are special-cased into a latitude/longitude pair. Absent
// properties are simply omitted.
func extractIdentifiers(claims wikidata.Claims) map[string]any {
	out := make(map[string]any)
	for prop, key := range identifierProps {
		if v, ok := claims.FirstString(prop); ok {
			out[key] = v
		}
	}
	if lat, lon, ok := claims.Coordinate(propCoordinates); ok {
		out[entity.IDCoordinates] = entity.Coordinates{Latitude: lat, Longitude: lon}
	}
	return out
}

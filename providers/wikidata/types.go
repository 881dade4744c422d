package wikidata

import "encoding/json"

// Record is the full structured-data record for one entity.
type Record struct {
	ID           string              `json:"id"`
	Labels       map[string]Term     `json:"labels"`
	Descriptions map[string]Term     `json:"descriptions"`
	Claims       Claims              `json:"claims"`
	Sitelinks    map[string]Sitelink `json:"sitelinks"`
}

// Term is a language-tagged string.
type Term struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Sitelink points to the entity's page on one wiki site.
type Sitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

// Claims maps property ids (e.g. "P31") to their statement list.
type Claims map[string][]Claim

// Claim is one statement about an entity.
type Claim struct {
	MainSnak Snak `json:"mainsnak"`
}

// Snak carries the claim's value.
type Snak struct {
	SnakType  string    `json:"snaktype"`
	DataValue DataValue `json:"datavalue"`
}

// DataValue is the raw typed value of a snak. Value stays raw JSON;
// the shape depends on Type ("wikibase-entityid", "string",
// "globecoordinate", ...).
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Label returns the label in the given language, falling back to English.
func (r *Record) Label(lang string) (string, bool) {
	if t, ok := r.Labels[lang]; ok && t.Value != "" {
		return t.Value, true
	}
	if t, ok := r.Labels["en"]; ok && t.Value != "" {
		return t.Value, true
	}
	return "", false
}

// Description returns the description in the given language, falling
// back to English.
func (r *Record) Description(lang string) (string, bool) {
	if t, ok := r.Descriptions[lang]; ok && t.Value != "" {
		return t.Value, true
	}
	if t, ok := r.Descriptions["en"]; ok && t.Value != "" {
		return t.Value, true
	}
	return "", false
}

type itemValue struct {
	ID string `json:"id"`
}

type coordValue struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FirstItemID returns the item id of the first claim value for prop.
func (c Claims) FirstItemID(prop string) (string, bool) {
	ids := c.ItemIDs(prop)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// ItemIDs returns all item-valued claim values for prop, in order.
func (c Claims) ItemIDs(prop string) []string {
	var out []string
	for _, cl := range c[prop] {
		dv := cl.MainSnak.DataValue
		if dv.Type != "wikibase-entityid" {
			continue
		}
		var v itemValue
		if err := json.Unmarshal(dv.Value, &v); err != nil || v.ID == "" {
			continue
		}
		out = append(out, v.ID)
	}
	return out
}

// FirstString returns the first string-valued claim for prop.
func (c Claims) FirstString(prop string) (string, bool) {
	for _, cl := range c[prop] {
		dv := cl.MainSnak.DataValue
		if dv.Type != "string" {
			continue
		}
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil || s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// Coordinate returns the first globe-coordinate claim for prop.
func (c Claims) Coordinate(prop string) (lat, lon float64, ok bool) {
	for _, cl := range c[prop] {
		dv := cl.MainSnak.DataValue
		if dv.Type != "globecoordinate" {
			continue
		}
		var v coordValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			continue
		}
		return v.Latitude, v.Longitude, true
	}
	return 0, 0, false
}

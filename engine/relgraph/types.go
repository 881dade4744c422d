// Package relgraph builds a scored relationship graph around a
// resolved entity: structured claims and textual article links become
// weighted, deduplicated, breadth-capped nodes and edges.
package relgraph

import "github.com/DavidLiger/wikiwiki/engine/entity"

// Edge origins.
const (
	OriginStructured = "structured"
	OriginTextual    = "textual"
)

// RelTypeRelated is the edge type for generic textual relations.
const RelTypeRelated = "related"

// IDKind distinguishes the two identifier spaces a node can live in.
type IDKind int

const (
	// KindCanonical ids reference structured-data entities and get
	// their display labels resolved in a batch pass.
	KindCanonical IDKind = iota
	// KindTextual ids are synthesized from article link titles.
	KindTextual
)

// RelID is a tagged relation identifier. The tag replaces prefix
// sniffing when deciding which node labels need batch resolution.
type RelID struct {
	Kind  IDKind
	Value string
}

// Canonical creates a canonical RelID.
func Canonical(id string) RelID { return RelID{Kind: KindCanonical, Value: id} }

// Textual creates a textual RelID.
func Textual(title string) RelID { return RelID{Kind: KindTextual, Value: title} }

// String renders the id into the node-id space. Textual ids carry a
// fixed namespace so they can never collide with canonical ids.
func (id RelID) String() string {
	if id.Kind == KindTextual {
		return "link:" + id.Value
	}
	return id.Value
}

// Node is one graph vertex. Level is the BFS distance from the center.
type Node struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Type      entity.Type `json:"type,omitempty"`
	Level     int         `json:"level"`
	IsCenter  bool        `json:"isCenter,omitempty"`
	Score     int         `json:"score,omitempty"`
	Thumbnail string      `json:"thumbnail,omitempty"`
}

// Edge connects two nodes by id. Value is the relevance score; Origin
// records which provider produced the relation.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Origin string `json:"origin"`
	Value  int    `json:"value"`
}

// Graph is the builder's output: an independently owned value object,
// rebuilt from scratch for every navigation target.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

package relgraph

import (
	"sort"

	"github.com/DavidLiger/wikiwiki/engine/entity"
)

// Relevance scores by relation origin.
const (
	// ScoreStructural marks relations backed by a structured claim.
	ScoreStructural = 3
	// ScoreContextual marks textual links near the top of the article.
	ScoreContextual = 2
	// ScoreAssociative marks the remaining textual links.
	ScoreAssociative = 1

	// minScore is the relevance threshold for graph inclusion.
	minScore = 2
	// contextualWindow is how many leading non-noise links count as
	// contextual rather than associative.
	contextualWindow = 10
)

// structuralProp pairs a claim property with its edge type. Order
// matters: earlier properties win the tiebreak when the cap bites.
type structuralProp struct {
	Prop string
	Rel  string
}

var structuralProps = []structuralProp{
	{"P31", "type-of"},
	{"P279", "subclass-of"},
	{"P106", "occupation"},
	{"P101", "field-of-work"},
	{"P800", "notable-work"},
	{"P136", "genre"},
	{"P737", "influenced-by"},
	{"P175", "performer"},
	{"P161", "cast-member"},
	{"P57", "director"},
}

// relation is one scored relation candidate before graph assembly.
type relation struct {
	ID     RelID
	Label  string
	Rel    string
	Origin string
	Score  int
}

// extractRelations pulls every relation candidate out of an entity's
// sources, deduplicates by id (a relation seen with a higher score is
// never downgraded), and returns them sorted by descending score with
// extraction order as the tiebreak.
func extractRelations(e *entity.Entity, lang string) []relation {
	byID := make(map[RelID]int)
	var out []relation

	add := func(r relation) {
		if i, ok := byID[r.ID]; ok {
			if r.Score > out[i].Score {
				out[i].Score = r.Score
				out[i].Rel = r.Rel
				out[i].Origin = r.Origin
			}
			return
		}
		byID[r.ID] = len(out)
		out = append(out, r)
	}

	if src, ok := e.Sources[entity.SourceStructured].(*entity.StructuredSource); ok {
		for _, sp := range structuralProps {
			for _, qid := range src.Claims.ItemIDs(sp.Prop) {
				if qid == e.ID {
					continue
				}
				add(relation{
					ID:     Canonical(qid),
					Label:  qid, // placeholder until the batch label pass
					Rel:    sp.Rel,
					Origin: OriginStructured,
					Score:  ScoreStructural,
				})
			}
		}
	}

	if src, ok := e.Sources[entity.SourceWikipedia].(*entity.WikipediaSource); ok {
		kept := 0
		for _, title := range src.Links {
			if isNoise(title, lang) {
				continue
			}
			score := ScoreAssociative
			if kept < contextualWindow {
				score = ScoreContextual
			}
			kept++
			add(relation{
				ID:     Textual(title),
				Label:  title,
				Rel:    RelTypeRelated,
				Origin: OriginTextual,
				Score:  score,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

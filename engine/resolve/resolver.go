// Package resolve implements the entity resolution pipeline: open
// search, disambiguation, canonical-record lookup, and best-effort
// parallel enrichment from every configured provider.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"github.com/DavidLiger/wikiwiki/pkg/metrics"
	"github.com/DavidLiger/wikiwiki/pkg/resilience"
	"github.com/DavidLiger/wikiwiki/providers/archive"
	"github.com/DavidLiger/wikiwiki/providers/arxiv"
	"github.com/DavidLiger/wikiwiki/providers/commons"
	"github.com/DavidLiger/wikiwiki/providers/musicbrainz"
	"github.com/DavidLiger/wikiwiki/providers/nominatim"
	"github.com/DavidLiger/wikiwiki/providers/openlibrary"
	"github.com/DavidLiger/wikiwiki/providers/wiki"
	"github.com/DavidLiger/wikiwiki/providers/wikidata"
	"go.opentelemetry.io/otel"
)

const (
	// maxSearchResults bounds the open-search candidate list.
	maxSearchResults = 10
	// maxArticleLinks bounds the outbound links kept for the graph builder.
	maxArticleLinks = 50
	maxImages       = 5
	maxPapers       = 3
)

// Encyclopedia is the encyclopedic-source capability the pipeline consumes.
type Encyclopedia interface {
	Search(ctx context.Context, term string, limit int) ([]string, error)
	Canonical(ctx context.Context, title string) (finalTitle, canonicalID string, err error)
	Summary(ctx context.Context, title string) (*wiki.Summary, error)
	Links(ctx context.Context, title string, limit int) ([]string, error)
	ExternalLinks(ctx context.Context, title string) ([]string, error)
}

// KnowledgeBase is the structured-data capability.
type KnowledgeBase interface {
	Entity(ctx context.Context, id string) (*wikidata.Record, error)
	Labels(ctx context.Context, ids []string) (map[string]string, error)
}

// MusicRegistry looks up artists by registry identifier.
type MusicRegistry interface {
	Artist(ctx context.Context, mbid string) (*musicbrainz.Artist, error)
}

// BookRegistry looks up authors and works by registry identifier.
type BookRegistry interface {
	Lookup(ctx context.Context, olid string) (*openlibrary.Subject, error)
}

// ImageRepository searches the image index by name.
type ImageRepository interface {
	Search(ctx context.Context, name string, limit int) ([]commons.Image, error)
}

// Geocoder reverse-geocodes coordinates.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*nominatim.Address, error)
}

// PreprintRepository searches preprints by free text.
type PreprintRepository interface {
	Search(ctx context.Context, query string, limit int) ([]arxiv.Paper, error)
}

// MediaArchive searches the media archive.
type MediaArchive interface {
	Search(ctx context.Context, query string) ([]archive.Item, error)
}

// Providers bundles every capability the pipeline fans out to.
type Providers struct {
	Wiki   Encyclopedia
	Data   KnowledgeBase
	Music  MusicRegistry
	Books  BookRegistry
	Images ImageRepository
	Geo    Geocoder
	Papers PreprintRepository
	Media  MediaArchive
}

// Config carries the resolver's ambient dependencies.
type Config struct {
	Locale  *locale.Context
	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Resolver orchestrates search, disambiguation, canonical resolution,
// and enrichment.
type Resolver struct {
	p        Providers
	loc      *locale.Context
	log      *slog.Logger
	reg      *metrics.Registry
	breakers map[string]*resilience.Breaker

	resolveSeconds *metrics.Histogram
}

// New creates a Resolver.
func New(p Providers, cfg Config) *Resolver {
	if cfg.Locale == nil {
		cfg.Locale = locale.FromEnv()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	// One breaker per enrichment provider so a dead provider stops
	// burning its timeout budget on every resolution.
	breakers := make(map[string]*resilience.Breaker)
	for _, key := range []string{
		entity.SourceWikipedia, entity.SourceWebLinks, entity.SourceMusicBrainz,
		entity.SourceOpenLibrary, entity.SourceCommons, entity.SourceGeocoding,
		entity.SourceArxiv, entity.SourceArchive,
	} {
		breakers[key] = resilience.NewBreaker(resilience.DefaultBreakerOpts)
	}

	return &Resolver{
		p:        p,
		loc:      cfg.Locale,
		log:      cfg.Logger,
		reg:      cfg.Metrics,
		breakers: breakers,
		resolveSeconds: cfg.Metrics.Histogram(
			"wikiwiki_resolve_seconds", "Time spent resolving a query.", nil),
	}
}

// Resolve disambiguates a search term into either a fully enriched
// Entity or a candidate list for caller-driven selection. The caller
// must pass a non-empty, trimmed term.
func (r *Resolver) Resolve(ctx context.Context, term string) (*entity.Resolution, error) {
	ctx, span := otel.Tracer("engine/resolve").Start(ctx, "resolve")
	defer span.End()
	defer r.resolveSeconds.Since(time.Now())

	titles, err := r.p.Wiki.Search(ctx, term, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	if len(titles) == 0 {
		return nil, &entity.NotFoundError{Query: term}
	}

	// Canonical lookups run sequentially so that search order is
	// preserved; titles redirecting to an identifier already seen
	// collapse into the first occurrence.
	var candidates []entity.Candidate
	for _, title := range titles {
		final, canonicalID, err := r.p.Wiki.Canonical(ctx, title)
		if err != nil || canonicalID == "" {
			continue
		}
		candidates = append(candidates, entity.Candidate{Title: final, CanonicalID: canonicalID})
	}
	candidates = fn.UniqueBy(candidates, func(c entity.Candidate) string {
		return c.CanonicalID
	})
	if len(candidates) == 0 {
		return nil, &entity.NotFoundError{Query: term}
	}
	if len(candidates) > 1 {
		return &entity.Resolution{Candidates: candidates}, nil
	}

	e, err := r.ResolveFromCandidate(ctx, candidates[0].Title, candidates[0].CanonicalID)
	if err != nil {
		return nil, err
	}
	return &entity.Resolution{Entity: e}, nil
}

// ResolveFromCandidate fetches the full structured-data record for a
// canonical identifier, builds the base entity, and runs every
// enrichment. Only a failure of the canonical-record fetch itself
// propagates; enrichment failures are absorbed.
func (r *Resolver) ResolveFromCandidate(ctx context.Context, title, canonicalID string) (*entity.Entity, error) {
	ctx, span := otel.Tracer("engine/resolve").Start(ctx, "resolveFromCandidate")
	defer span.End()

	rec, err := r.p.Data.Entity(ctx, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("canonical record %s: %w", canonicalID, err)
	}

	lang := r.loc.Get()
	// Callers that only know the canonical id (graph expansion, deep
	// links) pass an empty title; the record's sitelink recovers it.
	if title == "" {
		if sl, ok := rec.Sitelinks[lang+"wiki"]; ok {
			title = sl.Title
		}
	}
	e := &entity.Entity{
		ID:          canonicalID,
		Name:        title,
		Type:        inferType(rec.Claims),
		Identifiers: extractIdentifiers(rec.Claims),
		Sources:     make(map[string]any),
	}
	if label, ok := rec.Label(lang); ok {
		e.Name = label
	}
	if desc, ok := rec.Description(lang); ok {
		e.Description = desc
	}
	e.Sources[entity.SourceStructured] = &entity.StructuredSource{
		Claims:    rec.Claims,
		Sitelinks: rec.Sitelinks,
	}

	r.enrich(ctx, e, title)
	return e, nil
}

// Language returns the current language code.
func (r *Resolver) Language() string { return r.loc.Get() }

// SetLanguage updates the shared language context consumed by every
// provider client at call time.
func (r *Resolver) SetLanguage(code string) { r.loc.Set(code) }

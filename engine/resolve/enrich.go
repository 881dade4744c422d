package resolve

import (
	"context"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"github.com/DavidLiger/wikiwiki/pkg/metrics"
	"github.com/DavidLiger/wikiwiki/pkg/resilience"
	"github.com/DavidLiger/wikiwiki/providers/archive"
	"go.opentelemetry.io/otel"
)

// Archive bucket caps.
const (
	maxArchiveVideos = 3
	maxArchiveAudio  = 5
	maxArchiveTexts  = 5
)

// enrich fans out every provider enrichment concurrently and joins on
// all of them. Each task is independent and best-effort: a failure
// leaves its source key absent, is logged, and never aborts the rest.
// A task returning (nil, nil) short-circuited on a missing
// prerequisite and produces nothing.
func (r *Resolver) enrich(ctx context.Context, e *entity.Entity, pageTitle string) {
	ctx, span := otel.Tracer("engine/resolve").Start(ctx, "enrich")
	defer span.End()

	tasks := map[string]fn.Task{
		entity.SourceWikipedia:   r.enrichWikipedia(pageTitle),
		entity.SourceWebLinks:    r.enrichWebLinks(e, pageTitle),
		entity.SourceMusicBrainz: r.enrichMusic(e),
		entity.SourceOpenLibrary: r.enrichBooks(e),
		entity.SourceCommons:     r.enrichImages(e),
		entity.SourceGeocoding:   r.enrichGeo(e),
		entity.SourceArxiv:       r.enrichPapers(e),
		entity.SourceArchive:     r.enrichMedia(e),
	}
	for key, task := range tasks {
		tasks[key] = r.guarded(key, task)
	}

	for _, settled := range fn.Settle(ctx, tasks) {
		if settled.Err != nil {
			r.log.Warn("enrichment failed",
				"provider", settled.Key, "entity", e.ID, "err", settled.Err)
			r.enrichmentCounter(settled.Key, "failure").Inc()
			continue
		}
		if settled.Value == nil {
			r.enrichmentCounter(settled.Key, "skipped").Inc()
			continue
		}
		e.Sources[settled.Key] = settled.Value
		r.enrichmentCounter(settled.Key, "success").Inc()
	}
}

// guarded routes a task through its provider's circuit breaker.
func (r *Resolver) guarded(key string, task fn.Task) fn.Task {
	breaker, ok := r.breakers[key]
	if !ok {
		return task
	}
	return func(ctx context.Context) (any, error) {
		return resilience.Do(breaker, ctx, task)
	}
}

func (r *Resolver) enrichmentCounter(provider, outcome string) *metrics.Counter {
	return r.reg.Counter(
		metrics.WithLabels("wikiwiki_enrichment_total", "provider", provider, "outcome", outcome),
		"Enrichment outcomes by provider.")
}

func (r *Resolver) enrichWikipedia(pageTitle string) fn.Task {
	return func(ctx context.Context) (any, error) {
		summary, err := r.p.Wiki.Summary(ctx, pageTitle)
		if err != nil {
			return nil, err
		}
		src := &entity.WikipediaSource{
			Title:     summary.Title,
			Extract:   summary.Extract,
			Thumbnail: summary.Thumbnail,
			URL:       summary.URL,
		}
		links, err := r.p.Wiki.Links(ctx, pageTitle, maxArticleLinks)
		if err != nil {
			return nil, err
		}
		src.Links = links
		return src, nil
	}
}

func (r *Resolver) enrichWebLinks(e *entity.Entity, pageTitle string) fn.Task {
	return func(ctx context.Context) (any, error) {
		links, err := r.p.Wiki.ExternalLinks(ctx, pageTitle)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, nil
		}
		src := categorizeLinks(links, e.Name)
		if src.Empty() {
			return nil, nil
		}
		return src, nil
	}
}

func (r *Resolver) enrichMusic(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		mbid, ok := e.StringID(entity.IDMusicBrainz)
		if !ok {
			return nil, nil
		}
		artist, err := r.p.Music.Artist(ctx, mbid)
		if err != nil {
			return nil, err
		}
		return &entity.MusicSource{
			Name:       artist.Name,
			Kind:       artist.Kind,
			Country:    artist.Country,
			LifeBegin:  artist.LifeBegin,
			LifeEnd:    artist.LifeEnd,
			Recordings: artist.Recordings,
			Releases:   artist.Releases,
		}, nil
	}
}

func (r *Resolver) enrichBooks(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		olid, ok := e.StringID(entity.IDOpenLibrary)
		if !ok {
			return nil, nil
		}
		subject, err := r.p.Books.Lookup(ctx, olid)
		if err != nil {
			return nil, err
		}
		return &entity.BookSource{
			Name:      subject.Name,
			Bio:       subject.Bio,
			BirthDate: subject.BirthDate,
			DeathDate: subject.DeathDate,
			WorkCount: subject.WorkCount,
			CoverURL:  subject.CoverURL,
		}, nil
	}
}

func (r *Resolver) enrichImages(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		images, err := r.p.Images.Search(ctx, e.Name, maxImages)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			return nil, nil
		}
		src := &entity.ImageSource{}
		for _, img := range images {
			src.Images = append(src.Images, entity.Image{
				Title:    img.Title,
				ThumbURL: img.ThumbURL,
				URL:      img.URL,
			})
		}
		return src, nil
	}
}

func (r *Resolver) enrichGeo(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		coords, ok := e.Coords()
		if !ok {
			return nil, nil
		}
		addr, err := r.p.Geo.Reverse(ctx, coords.Latitude, coords.Longitude)
		if err != nil {
			return nil, err
		}
		return &entity.GeoSource{
			DisplayName: addr.DisplayName,
			City:        addr.City,
			Country:     addr.Country,
		}, nil
	}
}

func (r *Resolver) enrichPapers(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		// Preprint search only makes sense for concepts.
		if e.Type != entity.TypeConcept {
			return nil, nil
		}
		papers, err := r.p.Papers.Search(ctx, e.Name, maxPapers)
		if err != nil {
			return nil, err
		}
		if len(papers) == 0 {
			return nil, nil
		}
		src := &entity.PaperSource{}
		for _, p := range papers {
			src.Papers = append(src.Papers, entity.Paper{
				Title:   p.Title,
				Summary: p.Summary,
				URL:     p.URL,
			})
		}
		return src, nil
	}
}

func (r *Resolver) enrichMedia(e *entity.Entity) fn.Task {
	return func(ctx context.Context) (any, error) {
		// Concepts are too unspecific to search the archive meaningfully.
		if e.Type == entity.TypeConcept {
			return nil, nil
		}
		query := archive.TitleQuery(e.Name)
		if e.Type == entity.TypePerson {
			query = archive.CreatorQuery(e.Name)
		}
		items, err := r.p.Media.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}

		// Items arrive sorted by downloads, so taking the head of each
		// kind keeps the most popular hits.
		bucket := func(kind string, limit int) []entity.ArchiveItem {
			hits := fn.Filter(items, func(it archive.Item) bool {
				return it.MediaType == kind
			})
			return fn.Map(fn.Take(hits, limit), func(it archive.Item) entity.ArchiveItem {
				return entity.ArchiveItem{
					Identifier: it.Identifier,
					Title:      it.Title,
					URL:        it.URL,
					Downloads:  it.Downloads,
				}
			})
		}
		src := &entity.ArchiveSource{
			Videos: bucket(archive.MediaMovies, maxArchiveVideos),
			Audio:  bucket(archive.MediaAudio, maxArchiveAudio),
			Texts:  bucket(archive.MediaTexts, maxArchiveTexts),
		}
		if len(src.Videos) == 0 && len(src.Audio) == 0 && len(src.Texts) == 0 {
			return nil, nil
		}
		return src, nil
	}
}

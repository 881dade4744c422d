package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"testing"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"github.com/DavidLiger/wikiwiki/providers/archive"
	"github.com/DavidLiger/wikiwiki/providers/arxiv"
	"github.com/DavidLiger/wikiwiki/providers/commons"
	"github.com/DavidLiger/wikiwiki/providers/musicbrainz"
	"github.com/DavidLiger/wikiwiki/providers/nominatim"
	"github.com/DavidLiger/wikiwiki/providers/openlibrary"
	"github.com/DavidLiger/wikiwiki/providers/wiki"
	"github.com/DavidLiger/wikiwiki/providers/wikidata"
)

// --- mocks ---

type canonicalResult struct {
	title string
	id    string
	err   error
}

type mockWiki struct {
	titles     []string
	canonical  map[string]canonicalResult
	summary    *wiki.Summary
	summaryErr error
	links      []string
	extLinks   []string

	summaryCalls []string
}

func (m *mockWiki) Search(_ context.Context, _ string, _ int) ([]string, error) {
	return m.titles, nil
}

func (m *mockWiki) Canonical(_ context.Context, title string) (string, string, error) {
	r, ok := m.canonical[title]
	if !ok {
		return "", "", wiki.ErrNoCanonical
	}
	return r.title, r.id, r.err
}

func (m *mockWiki) Summary(_ context.Context, title string) (*wiki.Summary, error) {
	m.summaryCalls = append(m.summaryCalls, title)
	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &wiki.Summary{Title: title, Extract: "an extract"}, nil
}

func (m *mockWiki) Links(_ context.Context, _ string, _ int) ([]string, error) {
	return m.links, nil
}

func (m *mockWiki) ExternalLinks(_ context.Context, _ string) ([]string, error) {
	return m.extLinks, nil
}

type mockData struct {
	records map[string]*wikidata.Record
}

func (m *mockData) Entity(_ context.Context, id string) (*wikidata.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("no record for %s", id)
	}
	return rec, nil
}

func (m *mockData) Labels(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		out[id] = "label " + id
	}
	return out, nil
}

type mockMusic struct{ calls int }

func (m *mockMusic) Artist(_ context.Context, mbid string) (*musicbrainz.Artist, error) {
	m.calls++
	return &musicbrainz.Artist{Name: "artist " + mbid}, nil
}

type mockBooks struct{}

func (m *mockBooks) Lookup(_ context.Context, olid string) (*openlibrary.Subject, error) {
	return &openlibrary.Subject{Name: "author " + olid}, nil
}

type mockImages struct{ err error }

func (m *mockImages) Search(_ context.Context, name string, _ int) ([]commons.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []commons.Image{{Title: "File:" + name + ".jpg"}}, nil
}

type mockGeo struct{ calls int }

func (m *mockGeo) Reverse(_ context.Context, _, _ float64) (*nominatim.Address, error) {
	m.calls++
	return &nominatim.Address{DisplayName: "somewhere", Country: "France"}, nil
}

type mockPapers struct{ calls int }

func (m *mockPapers) Search(_ context.Context, query string, _ int) ([]arxiv.Paper, error) {
	m.calls++
	return []arxiv.Paper{{Title: "paper about " + query}}, nil
}

type mockMedia struct {
	calls   int
	queries []string
}

func (m *mockMedia) Search(_ context.Context, query string) ([]archive.Item, error) {
	m.calls++
	m.queries = append(m.queries, query)
	return []archive.Item{{Identifier: "item-1", Title: "old film", MediaType: archive.MediaMovies}}, nil
}

func testProviders(w *mockWiki, d *mockData) Providers {
	return Providers{
		Wiki:   w,
		Data:   d,
		Music:  &mockMusic{},
		Books:  &mockBooks{},
		Images: &mockImages{},
		Geo:    &mockGeo{},
		Papers: &mockPapers{},
		Media:  &mockMedia{},
	}
}

func testConfig() Config {
	return Config{Locale: locale.New("en"), Logger: slog.Default()}
}

func rawValue(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal claim value: %v", err)
	}
	return b
}

func itemClaim(t *testing.T, id string) wikidata.Claim {
	t.Helper()
	return wikidata.Claim{MainSnak: wikidata.Snak{
		SnakType:  "value",
		DataValue: wikidata.DataValue{Type: "wikibase-entityid", Value: rawValue(t, map[string]string{"id": id})},
	}}
}

func stringClaim(t *testing.T, s string) wikidata.Claim {
	t.Helper()
	return wikidata.Claim{MainSnak: wikidata.Snak{
		SnakType:  "value",
		DataValue: wikidata.DataValue{Type: "string", Value: rawValue(t, s)},
	}}
}

func personRecord(t *testing.T, id, label string) *wikidata.Record {
	t.Helper()
	return &wikidata.Record{
		ID:     id,
		Labels: map[string]wikidata.Term{"en": {Language: "en", Value: label}},
		Descriptions: map[string]wikidata.Term{
			"en": {Language: "en", Value: "a person"},
		},
		Claims: wikidata.Claims{
			"P31":  {itemClaim(t, "Q5")},
			"P434": {stringClaim(t, "mbid-123")},
		},
	}
}

// --- tests ---

func TestResolve_NotFound(t *testing.T) {
	w := &mockWiki{}
	r := New(testProviders(w, &mockData{}), testConfig())

	_, err := r.Resolve(context.Background(), "xyzzy")
	if !entity.IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestResolve_NoCanonicalCandidates(t *testing.T) {
	w := &mockWiki{
		titles: []string{"A", "B"},
		// Every lookup fails, so there is nothing to resolve.
		canonical: map[string]canonicalResult{},
	}
	r := New(testProviders(w, &mockData{}), testConfig())

	_, err := r.Resolve(context.Background(), "ghost")
	if !entity.IsNotFound(err) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestResolve_SingleCandidate(t *testing.T) {
	w := &mockWiki{
		titles: []string{"Ada Lovelace"},
		canonical: map[string]canonicalResult{
			"Ada Lovelace": {title: "Ada Lovelace", id: "Q7259"},
		},
		links: []string{"Charles Babbage", "Analytical Engine"},
	}
	d := &mockData{records: map[string]*wikidata.Record{
		"Q7259": personRecord(t, "Q7259", "Ada Lovelace"),
	}}
	r := New(testProviders(w, d), testConfig())

	res, err := r.Resolve(context.Background(), "ada lovelace")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.NeedsDisambiguation() {
		t.Fatalf("unexpected disambiguation: %+v", res.Candidates)
	}

	e := res.Entity
	if e.ID != "Q7259" || e.Name != "Ada Lovelace" {
		t.Errorf("entity = %q %q", e.ID, e.Name)
	}
	if e.Type != entity.TypePerson {
		t.Errorf("type = %q, want person", e.Type)
	}
	if v, ok := e.StringID(entity.IDMusicBrainz); !ok || v != "mbid-123" {
		t.Errorf("musicbrainz id = %q %v", v, ok)
	}
	if _, ok := e.Sources[entity.SourceStructured]; !ok {
		t.Error("structured source missing")
	}
	src, ok := e.Sources[entity.SourceWikipedia].(*entity.WikipediaSource)
	if !ok {
		t.Fatal("wikipedia source missing")
	}
	if len(src.Links) != 2 {
		t.Errorf("links = %v", src.Links)
	}
	if _, ok := e.Sources[entity.SourceMusicBrainz]; !ok {
		t.Error("musicbrainz source missing despite identifier")
	}
}

func TestResolve_Disambiguation(t *testing.T) {
	w := &mockWiki{
		titles: []string{"Mercury (planet)", "Mercury (element)", "Freddie Mercury"},
		canonical: map[string]canonicalResult{
			"Mercury (planet)":  {title: "Mercury (planet)", id: "Q308"},
			"Mercury (element)": {title: "Mercury (element)", id: "Q925"},
			"Freddie Mercury":   {title: "Freddie Mercury", id: "Q15869"},
		},
	}
	r := New(testProviders(w, &mockData{}), testConfig())

	res, err := r.Resolve(context.Background(), "mercury")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.NeedsDisambiguation() {
		t.Fatal("want disambiguation")
	}
	if len(res.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(res.Candidates))
	}
	if res.Candidates[0].CanonicalID != "Q308" {
		t.Errorf("order not preserved: %+v", res.Candidates)
	}
}

func TestResolve_DedupByCanonicalID(t *testing.T) {
	// Three redirects collapsing onto one identifier resolve directly.
	w := &mockWiki{
		titles: []string{"NYC", "New York City", "The Big Apple"},
		canonical: map[string]canonicalResult{
			"NYC":           {title: "New York City", id: "Q60"},
			"New York City": {title: "New York City", id: "Q60"},
			"The Big Apple": {title: "New York City", id: "Q60"},
		},
	}
	d := &mockData{records: map[string]*wikidata.Record{
		"Q60": {
			ID:     "Q60",
			Labels: map[string]wikidata.Term{"en": {Language: "en", Value: "New York City"}},
			Claims: wikidata.Claims{"P31": {itemClaim(t, "Q515")}},
		},
	}}
	r := New(testProviders(w, d), testConfig())

	res, err := r.Resolve(context.Background(), "nyc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.NeedsDisambiguation() {
		t.Fatalf("duplicates not collapsed: %+v", res.Candidates)
	}
	if res.Entity.ID != "Q60" || res.Entity.Type != entity.TypePlace {
		t.Errorf("entity = %q %q", res.Entity.ID, res.Entity.Type)
	}
}

func TestResolveFromCandidate_EnrichmentFailureTolerated(t *testing.T) {
	w := &mockWiki{summaryErr: fmt.Errorf("upstream down")}
	d := &mockData{records: map[string]*wikidata.Record{
		"Q7259": personRecord(t, "Q7259", "Ada Lovelace"),
	}}
	r := New(testProviders(w, d), testConfig())

	e, err := r.ResolveFromCandidate(context.Background(), "Ada Lovelace", "Q7259")
	if err != nil {
		t.Fatalf("ResolveFromCandidate: %v", err)
	}
	if _, ok := e.Sources[entity.SourceWikipedia]; ok {
		t.Error("failed enrichment left a source behind")
	}
	if _, ok := e.Sources[entity.SourceStructured]; !ok {
		t.Error("structured source missing")
	}
	if _, ok := e.Sources[entity.SourceMusicBrainz]; !ok {
		t.Error("independent enrichment should have survived")
	}
}

func TestResolveFromCandidate_CanonicalFetchFails(t *testing.T) {
	r := New(testProviders(&mockWiki{}, &mockData{}), testConfig())

	if _, err := r.ResolveFromCandidate(context.Background(), "Nope", "Q0"); err == nil {
		t.Fatal("want error when the canonical record fetch fails")
	}
}

func TestResolveFromCandidate_ConceptProviderSelection(t *testing.T) {
	d := &mockData{records: map[string]*wikidata.Record{
		"Q11660": {
			ID:     "Q11660",
			Labels: map[string]wikidata.Term{"en": {Language: "en", Value: "artificial intelligence"}},
			Claims: wikidata.Claims{"P31": {itemClaim(t, "Q11862829")}},
		},
	}}
	papers := &mockPapers{}
	media := &mockMedia{}
	p := testProviders(&mockWiki{}, d)
	p.Papers = papers
	p.Media = media
	r := New(p, testConfig())

	e, err := r.ResolveFromCandidate(context.Background(), "Artificial intelligence", "Q11660")
	if err != nil {
		t.Fatalf("ResolveFromCandidate: %v", err)
	}
	if e.Type != entity.TypeConcept {
		t.Fatalf("type = %q, want concept", e.Type)
	}
	if papers.calls != 1 {
		t.Errorf("preprint search calls = %d, want 1", papers.calls)
	}
	if media.calls != 0 {
		t.Errorf("media archive searched for a concept (%d calls)", media.calls)
	}
	if _, ok := e.Sources[entity.SourceArxiv]; !ok {
		t.Error("arxiv source missing for concept")
	}
}

func TestResolveFromCandidate_PersonUsesCreatorQuery(t *testing.T) {
	d := &mockData{records: map[string]*wikidata.Record{
		"Q7259": personRecord(t, "Q7259", "Ada Lovelace"),
	}}
	media := &mockMedia{}
	p := testProviders(&mockWiki{}, d)
	p.Media = media
	r := New(p, testConfig())

	if _, err := r.ResolveFromCandidate(context.Background(), "Ada Lovelace", "Q7259"); err != nil {
		t.Fatalf("ResolveFromCandidate: %v", err)
	}
	if len(media.queries) != 1 {
		t.Fatalf("media queries = %v", media.queries)
	}
	if media.queries[0] != archive.CreatorQuery("Ada Lovelace") {
		t.Errorf("query = %q", media.queries[0])
	}
}

func TestResolveFromCandidate_TitleFromSitelink(t *testing.T) {
	rec := personRecord(t, "Q7259", "Ada Lovelace")
	rec.Sitelinks = map[string]wikidata.Sitelink{
		"enwiki": {Site: "enwiki", Title: "Ada Lovelace"},
	}
	w := &mockWiki{}
	d := &mockData{records: map[string]*wikidata.Record{"Q7259": rec}}
	r := New(testProviders(w, d), testConfig())

	// Graph expansion only knows the canonical id.
	if _, err := r.ResolveFromCandidate(context.Background(), "", "Q7259"); err != nil {
		t.Fatalf("ResolveFromCandidate: %v", err)
	}
	if len(w.summaryCalls) == 0 || w.summaryCalls[0] != "Ada Lovelace" {
		t.Errorf("summary calls = %v, want sitelink title", w.summaryCalls)
	}
}

func TestResolveFromCandidate_Idempotent(t *testing.T) {
	w := &mockWiki{links: []string{"Charles Babbage"}}
	d := &mockData{records: map[string]*wikidata.Record{
		"Q7259": personRecord(t, "Q7259", "Ada Lovelace"),
	}}
	r := New(testProviders(w, d), testConfig())

	first, err := r.ResolveFromCandidate(context.Background(), "Ada Lovelace", "Q7259")
	if err != nil {
		t.Fatalf("first ResolveFromCandidate: %v", err)
	}
	second, err := r.ResolveFromCandidate(context.Background(), "Ada Lovelace", "Q7259")
	if err != nil {
		t.Fatalf("second ResolveFromCandidate: %v", err)
	}

	// Same arguments and unchanged provider state produce the same
	// entity identity.
	if first.ID != second.ID || first.Name != second.Name || first.Type != second.Type {
		t.Errorf("entities differ: %q/%q/%q vs %q/%q/%q",
			first.ID, first.Name, first.Type, second.ID, second.Name, second.Type)
	}
	if !reflect.DeepEqual(first.Identifiers, second.Identifiers) {
		t.Errorf("identifiers differ: %v vs %v", first.Identifiers, second.Identifiers)
	}
}

func TestSetLanguage(t *testing.T) {
	r := New(testProviders(&mockWiki{}, &mockData{}), testConfig())

	r.SetLanguage("de")
	if got := r.Language(); got != "de" {
		t.Errorf("Language() = %q, want de", got)
	}
	r.SetLanguage("not a code")
	if got := r.Language(); got != locale.DefaultLanguage {
		t.Errorf("invalid code should fall back, got %q", got)
	}
}

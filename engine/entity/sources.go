package entity

import "github.com/DavidLiger/wikiwiki/providers/wikidata"

// Source keys used in Entity.Sources.
const (
	SourceStructured  = "structured"
	SourceWikipedia   = "wikipedia"
	SourceWebLinks    = "weblinks"
	SourceMusicBrainz = "musicbrainz"
	SourceOpenLibrary = "openlibrary"
	SourceCommons     = "commons"
	SourceGeocoding   = "geocoding"
	SourceArxiv       = "arxiv"
	SourceArchive     = "archive_org"
)

// StructuredSource is the raw structured-data record kept on the entity.
type StructuredSource struct {
	Claims    wikidata.Claims              `json:"claims"`
	Sitelinks map[string]wikidata.Sitelink `json:"sitelinks"`
}

// WikipediaSource is the encyclopedic summary enrichment: a short
// extract, a thumbnail, and the article's outbound links in document
// order (consumed later by the graph builder).
type WikipediaSource struct {
	Title     string   `json:"title"`
	Extract   string   `json:"extract,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	URL       string   `json:"url,omitempty"`
	Links     []string `json:"links,omitempty"`
}

// WebLinksSource buckets the article's external links by registered
// domain. Only non-empty buckets are kept.
type WebLinksSource struct {
	Official []string `json:"official,omitempty"`
	Music    []string `json:"music,omitempty"`
	Video    []string `json:"video,omitempty"`
	Social   []string `json:"social,omitempty"`
	Other    []string `json:"other,omitempty"`
}

// Empty reports whether every bucket is empty.
func (s *WebLinksSource) Empty() bool {
	return len(s.Official) == 0 && len(s.Music) == 0 && len(s.Video) == 0 &&
		len(s.Social) == 0 && len(s.Other) == 0
}

// MusicSource is the music-registry enrichment.
type MusicSource struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind,omitempty"`
	Country    string   `json:"country,omitempty"`
	LifeBegin  string   `json:"lifeBegin,omitempty"`
	LifeEnd    string   `json:"lifeEnd,omitempty"`
	Recordings []string `json:"recordings,omitempty"`
	Releases   []string `json:"releases,omitempty"`
}

// BookSource is the book-registry enrichment. Bio is kept untruncated;
// display truncation is the presentation layer's concern.
type BookSource struct {
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	DeathDate string `json:"deathDate,omitempty"`
	WorkCount int    `json:"workCount,omitempty"`
	CoverURL  string `json:"coverUrl,omitempty"`
}

// ImageSource is the image-repository enrichment: pre-rendered
// thumbnails guaranteed to be browser-renderable.
type ImageSource struct {
	Images []Image `json:"images"`
}

// Image is one repository hit.
type Image struct {
	Title    string `json:"title"`
	ThumbURL string `json:"thumbUrl"`
	URL      string `json:"url,omitempty"`
}

// GeoSource is the reverse-geocoding enrichment.
type GeoSource struct {
	DisplayName string `json:"displayName"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// PaperSource is the preprint-repository enrichment.
type PaperSource struct {
	Papers []Paper `json:"papers"`
}

// Paper is one preprint summary.
type Paper struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ArchiveSource is the media-archive enrichment, split by media kind
// and sorted by popularity.
type ArchiveSource struct {
	Videos []ArchiveItem `json:"videos,omitempty"`
	Audio  []ArchiveItem `json:"audio,omitempty"`
	Texts  []ArchiveItem `json:"texts,omitempty"`
}

// ArchiveItem is one archive hit.
type ArchiveItem struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Downloads  int    `json:"downloads"`
}

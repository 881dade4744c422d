package resolve

import (
	"net/url"
	"strings"

	"github.com/DavidLiger/wikiwiki/engine/entity"
)

// Domain allow-lists for external-link bucketing. Data tables, not
// control flow, so they stay independently testable and extensible.
var (
	musicDomains = []string{
		"spotify.com", "bandcamp.com", "soundcloud.com",
		"discogs.com", "last.fm", "genius.com", "musicbrainz.org",
	}
	videoDomains = []string{
		"youtube.com", "youtu.be", "vimeo.com", "imdb.com", "dailymotion.com",
	}
	socialDomains = []string{
		"twitter.com", "x.com", "facebook.com", "instagram.com",
		"tiktok.com", "linkedin.com", "mastodon.social",
	}
)

// categorizeLinks buckets external links by registered domain. A
// domain counts as official when it textually matches the entity's
// normalized name.
func categorizeLinks(links []string, name string) *entity.WebLinksSource {
	src := &entity.WebLinksSource{}
	norm := normalizeName(name)

	for _, link := range links {
		host := hostOf(link)
		if host == "" {
			continue
		}
		switch {
		case norm != "" && strings.Contains(strings.ReplaceAll(host, "-", ""), norm):
			src.Official = append(src.Official, link)
		case matchesAny(host, musicDomains):
			src.Music = append(src.Music, link)
		case matchesAny(host, videoDomains):
			src.Video = append(src.Video, link)
		case matchesAny(host, socialDomains):
			src.Social = append(src.Social, link)
		default:
			src.Other = append(src.Other, link)
		}
	}
	return src
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// normalizeName lowercases a display name and strips everything but
// letters and digits, for loose matching against host names.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

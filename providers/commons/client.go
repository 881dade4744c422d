// Package commons is a thin client for the image repository. It asks
// for pre-rendered thumbnails rather than raw originals so results are
// always browser-renderable.
package commons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://commons.wikimedia.org/w/api.php"
	userAgent      = "wikiwiki/1.0 (entity explorer)"

	// fileNamespace bounds the search to media files.
	fileNamespace = "6"
	thumbWidth    = "320"
)

// Image is one repository hit with a rendered thumbnail.
type Image struct {
	Title    string
	ThumbURL string
	URL      string
}

// Client searches the image index by entity name.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		baseURL: defaultBaseURL,
	}
}

type searchResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Index     int    `json:"index"`
			ImageInfo []struct {
				ThumbURL string `json:"thumburl"`
				URL      string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// Search returns up to limit images for a name, in the provider's
// relevance order.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]Image, error) {
	params := url.Values{
		"action":       {"query"},
		"generator":    {"search"},
		"gsrsearch":    {name},
		"gsrnamespace": {fileNamespace},
		"gsrlimit":     {fmt.Sprint(limit)},
		"prop":         {"imageinfo"},
		"iiprop":       {"url"},
		"iiurlwidth":   {thumbWidth},
		"format":       {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("commons: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("commons: read body: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("commons: decode: %w", err)
	}

	// Pages come back as a map; the index field restores relevance order.
	type ranked struct {
		img   Image
		index int
	}
	var hits []ranked
	for _, page := range sr.Query.Pages {
		if len(page.ImageInfo) == 0 || page.ImageInfo[0].ThumbURL == "" {
			continue
		}
		hits = append(hits, ranked{
			img: Image{
				Title:    page.Title,
				ThumbURL: page.ImageInfo[0].ThumbURL,
				URL:      page.ImageInfo[0].URL,
			},
			index: page.Index,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	out := make([]Image, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.img)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

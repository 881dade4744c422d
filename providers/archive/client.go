// Package archive is a thin client for the media archive's advanced
// search endpoint.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://archive.org/advancedsearch.php"
	downloadURL    = "https://archive.org/details/"
	userAgent      = "wikiwiki/1.0 (entity explorer)"
)

// Media types used in archive queries and results.
const (
	MediaMovies = "movies"
	MediaAudio  = "audio"
	MediaTexts  = "texts"
)

// Item is one archive hit.
type Item struct {
	Identifier string
	Title      string
	MediaType  string
	Downloads  int
	URL        string
}

// Client searches the media archive.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		baseURL: defaultBaseURL,
	}
}

// CreatorQuery builds a creator-exact query restricted to audio and video.
func CreatorQuery(name string) string {
	return fmt.Sprintf(`creator:%q AND (mediatype:%s OR mediatype:%s)`, name, MediaMovies, MediaAudio)
}

// TitleQuery builds a title-exact query.
func TitleQuery(name string) string {
	return fmt.Sprintf(`title:%q`, name)
}

type searchResponse struct {
	Response struct {
		Docs []struct {
			Identifier string `json:"identifier"`
			Title      string `json:"title"`
			MediaType  string `json:"mediatype"`
			Downloads  int    `json:"downloads"`
		} `json:"docs"`
	} `json:"response"`
}

// Search runs an advanced-search query, most-downloaded first.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	u := c.baseURL + "?" + url.Values{
		"q":      {query},
		"fl[]":   {"identifier,title,mediatype,downloads"},
		"output": {"json"},
		"rows":   {"30"},
		"page":   {"1"},
		"sort[]": {"downloads desc"},
	}.Encode()

	result := fn.Retry(ctx, fn.RetryOpts{
		MaxAttempts: 2,
		InitialWait: 2 * time.Second,
		MaxWait:     10 * time.Second,
	}, func(ctx context.Context) fn.Result[[]byte] {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fn.Err[[]byte](err)
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fn.Err[[]byte](err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fn.Errf[[]byte]("status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
		if err != nil {
			return fn.Err[[]byte](err)
		}
		return fn.Ok(body)
	})

	body, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("archive: decode: %w", err)
	}

	items := make([]Item, 0, len(sr.Response.Docs))
	for _, d := range sr.Response.Docs {
		if d.Identifier == "" {
			continue
		}
		items = append(items, Item{
			Identifier: d.Identifier,
			Title:      d.Title,
			MediaType:  d.MediaType,
			Downloads:  d.Downloads,
			URL:        downloadURL + d.Identifier,
		})
	}
	return items, nil
}

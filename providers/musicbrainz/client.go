// Package musicbrainz is a thin client for the music registry. The
// registry enforces one request per second per client; a token-bucket
// limiter is acquired before every call.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"
	userAgent      = "wikiwiki/1.0 (entity explorer)"

	// maxWorks caps the recordings and releases lists.
	maxWorks = 20
)

// Artist is the registry's artist record.
type Artist struct {
	Name       string
	Kind       string
	Country    string
	LifeBegin  string
	LifeEnd    string
	Recordings []string
	Releases   []string
}

// Client fetches artist metadata by registry identifier.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// New creates a Client paced at one request per second.
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: defaultBaseURL,
	}
}

type artistResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Country  string `json:"country"`
	LifeSpan struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"life-span"`
	Recordings []struct {
		Title string `json:"title"`
	} `json:"recordings"`
	Releases []struct {
		Title string `json:"title"`
	} `json:"releases"`
}

// Artist fetches one artist with recordings and releases, truncated to
// maxWorks each.
func (c *Client) Artist(ctx context.Context, mbid string) (*Artist, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"fmt": {"json"},
		"inc": {"recordings+releases"},
	}
	u := c.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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
		return nil, fmt.Errorf("musicbrainz: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("musicbrainz: read body: %w", err)
	}

	var ar artistResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode: %w", err)
	}

	a := &Artist{
		Name:      ar.Name,
		Kind:      ar.Type,
		Country:   ar.Country,
		LifeBegin: ar.LifeSpan.Begin,
		LifeEnd:   ar.LifeSpan.End,
	}
	for i, r := range ar.Recordings {
		if i >= maxWorks {
			break
		}
		a.Recordings = append(a.Recordings, r.Title)
	}
	for i, r := range ar.Releases {
		if i >= maxWorks {
			break
		}
		a.Releases = append(a.Releases, r.Title)
	}
	return a, nil
}

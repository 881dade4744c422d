// Package openlibrary is a thin client for the book registry. The
// identifier shape decides the endpoint: author ids end in "A", work
// ids in "W".
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL  = "https://openlibrary.org"
	defaultCoverURL = "https://covers.openlibrary.org"
	userAgent       = "wikiwiki/1.0 (entity explorer)"
)

// Subject is a normalized author-or-work record.
type Subject struct {
	Name      string
	Bio       string
	BirthDate string
	DeathDate string
	WorkCount int
	CoverURL  string
}

// Client fetches author and work records by registry identifier.
type Client struct {
	httpClient *http.Client
	baseURL    string
	coverURL   string
}

// New creates a Client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		baseURL:  defaultBaseURL,
		coverURL: defaultCoverURL,
	}
}

// Lookup fetches the record behind an open-library identifier,
// branching on the identifier shape.
func (c *Client) Lookup(ctx context.Context, olid string) (*Subject, error) {
	switch {
	case strings.HasSuffix(olid, "A"):
		return c.author(ctx, olid)
	case strings.HasSuffix(olid, "W"):
		return c.work(ctx, olid)
	default:
		return nil, fmt.Errorf("openlibrary: unrecognized identifier shape %q", olid)
	}
}

// text is a field that the registry serves either as a plain string or
// as {"type": ..., "value": ...}.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*t = text(obj.Value)
	return nil
}

type authorResponse struct {
	Name      string `json:"name"`
	Bio       text   `json:"bio"`
	BirthDate string `json:"birth_date"`
	DeathDate string `json:"death_date"`
	Photos    []int  `json:"photos"`
}

type worksResponse struct {
	Size int `json:"size"`
}

func (c *Client) author(ctx context.Context, olid string) (*Subject, error) {
	var ar authorResponse
	if err := c.get(ctx, fmt.Sprintf("%s/authors/%s.json", c.baseURL, olid), &ar); err != nil {
		return nil, err
	}

	s := &Subject{
		Name:      ar.Name,
		Bio:       string(ar.Bio),
		BirthDate: ar.BirthDate,
		DeathDate: ar.DeathDate,
	}
	if len(ar.Photos) > 0 && ar.Photos[0] > 0 {
		s.CoverURL = fmt.Sprintf("%s/a/id/%d-M.jpg", c.coverURL, ar.Photos[0])
	}

	// The author record carries no work count; a zero-limit works query
	// returns just the size.
	var wr worksResponse
	if err := c.get(ctx, fmt.Sprintf("%s/authors/%s/works.json?limit=0", c.baseURL, olid), &wr); err == nil {
		s.WorkCount = wr.Size
	}
	return s, nil
}

type workResponse struct {
	Title       string `json:"title"`
	Description text   `json:"description"`
	Covers      []int  `json:"covers"`
}

func (c *Client) work(ctx context.Context, olid string) (*Subject, error) {
	var wr workResponse
	if err := c.get(ctx, fmt.Sprintf("%s/works/%s.json", c.baseURL, olid), &wr); err != nil {
		return nil, err
	}
	s := &Subject{
		Name: wr.Title,
		Bio:  string(wr.Description),
	}
	if len(wr.Covers) > 0 && wr.Covers[0] > 0 {
		s.CoverURL = fmt.Sprintf("%s/b/id/%d-M.jpg", c.coverURL, wr.Covers[0])
	}
	return s, nil
}

func (c *Client) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openlibrary: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return fmt.Errorf("openlibrary: read body: %w", err)
	}
	return json.Unmarshal(body, v)
}

// Package wiki is a thin client for the encyclopedic source: open
// search, redirect-following canonical-id lookup, page summaries,
// and outbound/external link lists.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userAgent = "wikiwiki/1.0 (entity explorer)"

// ErrNoCanonical means a page exists but carries no canonical
// structured-data identifier; such candidates are dropped.
var ErrNoCanonical = errors.New("page has no canonical identifier")

// Summary is the short page summary used for the entity card.
type Summary struct {
	Title     string
	Extract   string
	Thumbnail string
	URL       string
}

// Client talks to the language-specific encyclopedic API. The language
// is read from the locale context at call time.
type Client struct {
	httpClient *http.Client
	loc        *locale.Context

	// apiBase and restBase override the per-language hosts in tests.
	apiBase  string
	restBase string
}

// New creates a Client using the given language context.
func New(loc *locale.Context) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		loc: loc,
	}
}

func (c *Client) api() string {
	if c.apiBase != "" {
		return c.apiBase
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", c.loc.Get())
}

func (c *Client) rest() string {
	if c.restBase != "" {
		return c.restBase
	}
	return fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1", c.loc.Get())
}

// Search runs an open search and returns up to limit page titles. The
// search call is the pipeline's entry point, so it gets a retry that
// the per-page lookups do not.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]string, error) {
	params := url.Values{
		"action": {"opensearch"},
		"search": {term},
		"limit":  {fmt.Sprint(limit)},
		"format": {"json"},
	}
	body, err := fn.Retry(ctx, fn.RetryOpts{
		MaxAttempts: 2,
		InitialWait: time.Second,
		MaxWait:     5 * time.Second,
		Jitter:      true,
	}, func(ctx context.Context) fn.Result[[]byte] {
		return fn.FromPair(c.get(ctx, c.api()+"?"+params.Encode()))
	}).Unwrap()
	if err != nil {
		return nil, err
	}

	// Open search responds with a positional array:
	// [term, [titles...], [descriptions...], [urls...]]
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("wiki: decode search: %w", err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("wiki: malformed search response")
	}
	var titles []string
	if err := json.Unmarshal(parts[1], &titles); err != nil {
		return nil, fmt.Errorf("wiki: decode search titles: %w", err)
	}
	return titles, nil
}

type pagePropsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Missing   *any   `json:"missing"`
			PageProps struct {
				WikibaseItem string `json:"wikibase_item"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// Canonical follows the redirect chain for a title and returns the
// final title together with its canonical structured-data identifier.
func (c *Client) Canonical(ctx context.Context, title string) (string, string, error) {
	params := url.Values{
		"action":    {"query"},
		"prop":      {"pageprops"},
		"ppprop":    {"wikibase_item"},
		"redirects": {"1"},
		"titles":    {title},
		"format":    {"json"},
	}
	body, err := c.get(ctx, c.api()+"?"+params.Encode())
	if err != nil {
		return "", "", err
	}
	var pr pagePropsResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", "", fmt.Errorf("wiki: decode pageprops: %w", err)
	}
	for _, page := range pr.Query.Pages {
		if page.Missing != nil {
			continue
		}
		if page.PageProps.WikibaseItem == "" {
			return page.Title, "", ErrNoCanonical
		}
		return page.Title, page.PageProps.WikibaseItem, nil
	}
	return "", "", ErrNoCanonical
}

type summaryResponse struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the short summary, thumbnail, and canonical URL.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	body, err := c.get(ctx, c.rest()+"/page/summary/"+url.PathEscape(title))
	if err != nil {
		return nil, err
	}
	var sr summaryResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("wiki: decode summary: %w", err)
	}
	return &Summary{
		Title:     sr.Title,
		Extract:   sr.Extract,
		Thumbnail: sr.Thumbnail.Source,
		URL:       sr.ContentURLs.Desktop.Page,
	}, nil
}

type parseLinksResponse struct {
	Parse struct {
		Links []struct {
			NS     int     `json:"ns"`
			Exists *string `json:"exists"`
			Title  string  `json:"*"`
		} `json:"links"`
	} `json:"parse"`
}

// Links returns up to limit outbound article links in document order.
// Only existing main-namespace pages are kept; document order matters
// because links near the introduction rank higher downstream.
func (c *Client) Links(ctx context.Context, title string, limit int) ([]string, error) {
	params := url.Values{
		"action":    {"parse"},
		"page":      {title},
		"prop":      {"links"},
		"redirects": {"1"},
		"format":    {"json"},
	}
	body, err := c.get(ctx, c.api()+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var lr parseLinksResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("wiki: decode links: %w", err)
	}
	var out []string
	for _, l := range lr.Parse.Links {
		if l.NS != 0 || l.Exists == nil || l.Title == "" {
			continue
		}
		out = append(out, l.Title)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type extLinksResponse struct {
	Query struct {
		Pages map[string]struct {
			ExtLinks []struct {
				URL string `json:"*"`
			} `json:"extlinks"`
		} `json:"pages"`
	} `json:"query"`
}

// ExternalLinks returns the page's external link URLs.
func (c *Client) ExternalLinks(ctx context.Context, title string) ([]string, error) {
	params := url.Values{
		"action":    {"query"},
		"prop":      {"extlinks"},
		"ellimit":   {"max"},
		"redirects": {"1"},
		"titles":    {title},
		"format":    {"json"},
	}
	body, err := c.get(ctx, c.api()+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var er extLinksResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("wiki: decode extlinks: %w", err)
	}
	var out []string
	for _, page := range er.Query.Pages {
		for _, l := range page.ExtLinks {
			if l.URL != "" {
				out = append(out, l.URL)
			}
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
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
		return nil, fmt.Errorf("wiki: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
}

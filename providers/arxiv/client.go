// Package arxiv is a thin client for the preprint repository. The
// response markup is walked with a tokenizer to pull out entry titles
// and summaries; full feed parsing is deliberately avoided.
package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"
)

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"
	userAgent      = "wikiwiki/1.0 (entity explorer)"
)

// Paper is one preprint summary.
type Paper struct {
	Title   string
	Summary string
	URL     string
}

// Client searches preprints by free text.
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

// Search returns up to limit papers matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	params := url.Values{
		"search_query": {fmt.Sprintf("all:%q", query)},
		"max_results":  {fmt.Sprint(limit)},
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
		return nil, fmt.Errorf("arxiv: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("arxiv: read body: %w", err)
	}

	papers := extractEntries(body, limit)
	return papers, nil
}

// extractEntries walks the markup token stream and collects the title,
// summary, and id of each entry element.
func extractEntries(body []byte, limit int) []Paper {
	tz := html.NewTokenizer(bytes.NewReader(body))

	var (
		papers  []Paper
		current *Paper
		field   string
	)
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return papers
		case html.StartTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "entry":
				current = &Paper{}
			case "title", "summary", "id":
				field = string(name)
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "entry":
				if current != nil && current.Title != "" {
					papers = append(papers, *current)
					if len(papers) >= limit {
						return papers
					}
				}
				current = nil
			case "title", "summary", "id":
				field = ""
			}
		case html.TextToken:
			if current == nil || field == "" {
				continue
			}
			text := strings.TrimSpace(string(tz.Text()))
			if text == "" {
				continue
			}
			switch field {
			case "title":
				current.Title += text
			case "summary":
				if current.Summary != "" {
					current.Summary += " "
				}
				current.Summary += text
			case "id":
				current.URL += text
			}
		}
	}
}

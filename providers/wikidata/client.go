// Package wikidata is a thin client for the structured knowledge base
// behind canonical entity identifiers.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://www.wikidata.org/w/api.php"
	userAgent      = "wikiwiki/1.0 (entity explorer)"

	// labelChunkSize bounds one batched label request.
	labelChunkSize = 50
	// labelChunkPause is the pause between label chunks, trading
	// latency for rate-limit compliance.
	labelChunkPause = 200 * time.Millisecond
)

// Client fetches structured-data records and batched labels.
type Client struct {
	httpClient *http.Client
	loc        *locale.Context
	baseURL    string
}

// New creates a Client using the given language context.
func New(loc *locale.Context) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		loc:     loc,
		baseURL: defaultBaseURL,
	}
}

type entitiesResponse struct {
	Entities map[string]json.RawMessage `json:"entities"`
	Error    *apiError                  `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// Entity fetches the full record for one canonical id.
func (c *Client) Entity(ctx context.Context, id string) (*Record, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {id},
		"format": {"json"},
	}
	var er entitiesResponse
	if err := c.get(ctx, params, &er); err != nil {
		return nil, err
	}
	if er.Error != nil {
		return nil, fmt.Errorf("wikidata: %s: %s", er.Error.Code, er.Error.Info)
	}
	raw, ok := er.Entities[id]
	if !ok {
		return nil, fmt.Errorf("wikidata: no record for %s", id)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("wikidata: decode %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// Labels resolves display labels for many ids in the current locale.
// Requests go out in fixed-size chunks with a pause between chunks.
func (c *Client) Labels(ctx context.Context, ids []string) (map[string]string, error) {
	lang := c.loc.Get()
	out := make(map[string]string, len(ids))

	for i, chunk := range fn.Chunk(ids, labelChunkSize) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(labelChunkPause):
			}
		}

		params := url.Values{
			"action":    {"wbgetentities"},
			"ids":       {strings.Join(chunk, "|")},
			"props":     {"labels"},
			"languages": {lang + "|en"},
			"format":    {"json"},
		}
		var er entitiesResponse
		if err := c.get(ctx, params, &er); err != nil {
			return out, err
		}
		if er.Error != nil {
			return out, fmt.Errorf("wikidata: %s: %s", er.Error.Code, er.Error.Info)
		}
		for id, raw := range er.Entities {
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				continue
			}
			if label, ok := rec.Label(lang); ok {
				out[id] = label
			}
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
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
		return fmt.Errorf("wikidata: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("wikidata: read body: %w", err)
	}
	return json.Unmarshal(body, v)
}

// Package nominatim is a thin reverse-geocoding client. The provider's
// usage policy allows one request per second; a token-bucket limiter is
// acquired before every call.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "wikiwiki/1.0 (entity explorer)"
)

// Address is a reverse-geocoded display address.
type Address struct {
	DisplayName string
	City        string
	Country     string
}

// Client reverse-geocodes coordinates into display addresses.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	loc        *locale.Context
	baseURL    string
}

// New creates a Client paced at one request per second.
func New(loc *locale.Context) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(nil),
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		loc:     loc,
		baseURL: defaultBaseURL,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Reverse resolves coordinates to a display address in the current locale.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"lat":             {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":          {"jsonv2"},
		"accept-language": {c.loc.Get()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("nominatim: read body: %w", err)
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("nominatim: decode: %w", err)
	}
	if rr.Error != "" {
		return nil, fmt.Errorf("nominatim: %s", rr.Error)
	}

	city := rr.Address.City
	if city == "" {
		city = rr.Address.Town
	}
	if city == "" {
		city = rr.Address.Village
	}
	return &Address{
		DisplayName: rr.DisplayName,
		City:        city,
		Country:     rr.Address.Country,
	}, nil
}

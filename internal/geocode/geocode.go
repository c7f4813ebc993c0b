// Package geocode resolves postal codes to coordinates through a
// MapQuest-compatible geocoding HTTP API. The client is injected into the
// bootcamp service so radius lookups can be exercised against a fake in
// tests.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Result is a resolved location.
type Result struct {
	Latitude         float64
	Longitude        float64
	Street           string
	City             string
	State            string
	Zipcode          string
	Country          string
	FormattedAddress string
}

// Resolver turns a postal code or address into coordinates.
type Resolver interface {
	Geocode(ctx context.Context, location string) (*Result, error)
}

// Client calls a MapQuest-style geocoding endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient constructs a Client with a bounded request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// mapquestResponse is the subset of the provider payload the client reads.
type mapquestResponse struct {
	Results []struct {
		Locations []struct {
			LatLng struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			PostalCode string `json:"postalCode"`
			Country    string `json:"adminArea1"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode resolves location to a single best-match result. Provider errors
// and empty resolutions are returned as plain errors; the caller decides the
// HTTP status.
func (c *Client) Geocode(ctx context.Context, location string) (*Result, error) {
	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("location", location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body mapquestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 || len(body.Results[0].Locations) == 0 {
		return nil, fmt.Errorf("no geocoding result for %q", location)
	}

	loc := body.Results[0].Locations[0]
	return &Result{
		Latitude:         loc.LatLng.Lat,
		Longitude:        loc.LatLng.Lng,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.PostalCode,
		Country:          loc.Country,
		FormattedAddress: fmt.Sprintf("%s, %s, %s %s", loc.Street, loc.City, loc.State, loc.PostalCode),
	}, nil
}

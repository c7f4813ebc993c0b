package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleResponse = `{
  "results": [{
    "locations": [{
      "latLng": {"lat": 42.3601, "lng": -71.0589},
      "street": "1 Main St",
      "adminArea5": "Boston",
      "adminArea3": "MA",
      "postalCode": "02110",
      "adminArea1": "US"
    }]
  }]
}`

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		if got := r.URL.Query().Get("location"); got != "02110" {
			t.Errorf("location = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	res, err := c.Geocode(context.Background(), "02110")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if res.Latitude != 42.3601 || res.Longitude != -71.0589 {
		t.Fatalf("coords = %v,%v", res.Latitude, res.Longitude)
	}
	if res.City != "Boston" || res.State != "MA" || res.Zipcode != "02110" || res.Country != "US" {
		t.Fatalf("result = %+v", res)
	}
	if res.FormattedAddress != "1 Main St, Boston, MA 02110" {
		t.Fatalf("FormattedAddress = %q", res.FormattedAddress)
	}
}

func TestGeocode_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.Geocode(context.Background(), "00000"); err == nil {
		t.Fatal("expected empty resolution to fail")
	}
}

func TestGeocode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.Geocode(context.Background(), "02110"); err == nil {
		t.Fatal("expected non-200 to fail")
	}
}

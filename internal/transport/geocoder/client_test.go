package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
)

const searchResponse = `[
  {"place_id": 1, "osm_type": "way", "osm_id": 4211, "lat": "51.1788", "lon": "-1.8262",
   "category": "historic", "type": "archaeological_site", "name": "Stonehenge",
   "display_name": "Stonehenge, Amesbury, Wiltshire, England", "importance": 0.72},
  {"place_id": 2, "osm_type": "node", "osm_id": 99, "lat": "x", "lon": "-1.0",
   "name": "", "display_name": "Stonehenge Road", "importance": 1.4}
]`

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:      url,
		UserAgent:    "reconciler-test",
		Email:        "ops@example.org",
		Language:     "en",
		CountryCodes: []string{"gb"},
		RatePerSec:   1000,
		Burst:        10,
		Timeout:      time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestFind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Stonehenge" || q.Get("format") != "jsonv2" || q.Get("limit") != "5" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("countrycodes") != "gb" || q.Get("accept-language") != "en" || q.Get("email") != "ops@example.org" {
			t.Errorf("missing client params %v", q)
		}
		if r.Header.Get("User-Agent") != "reconciler-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	rows, err := newTestClient(t, server.URL).Find(context.Background(), "Stonehenge", 5, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.ID() != "W4211" || first.Label() != "Stonehenge" || first.Similarity() != 0.72 {
		t.Errorf("unexpected first row: %s %s %v", first.ID(), first.Label(), first.Similarity())
	}
	if lat, ok := first.Attr(AttrLat); !ok || lat != 51.1788 {
		t.Errorf("lat = %v", lat)
	}

	second := rows[1]
	if second.ID() != "N99" || second.Label() != "Stonehenge Road" {
		t.Errorf("unexpected second row: %s %s", second.ID(), second.Label())
	}
	if second.Similarity() != 1 {
		t.Errorf("importance should clamp to 1, got %v", second.Similarity())
	}
	if _, ok := second.Attr(AttrLat); ok {
		t.Error("unparseable lat must be omitted")
	}
}

func TestFind_CountryProperty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("countrycodes"); got != "fr,be" {
			t.Errorf("countrycodes = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Find(context.Background(), "Carnac", 3,
		query.Properties{PropertyCountry: "FR, BE"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
}

func TestFind_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Find(context.Background(), "x", 3, nil)
	if !errors.Is(err, domain.ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
}

func TestGetDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup" || r.URL.Query().Get("osm_ids") != "W4211" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"osm_type":"way","osm_id":4211,"lat":"51.1788","lon":"-1.8262",` +
			`"name":"Stonehenge","display_name":"Stonehenge, Amesbury"}]`))
	}))
	defer server.Close()

	d, err := newTestClient(t, server.URL).GetDetails(context.Background(), "W4211")
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if d.ID != "W4211" || d.Fields["name"] != "Stonehenge" {
		t.Errorf("unexpected details %+v", d)
	}
}

func TestGetDetails_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.GetDetails(context.Background(), "N1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.GetDetails(context.Background(), "bogus"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestFetchByAlternateIdentity_NotImplemented(t *testing.T) {
	c := newTestClient(t, "http://localhost")
	if _, err := c.FetchByAlternateIdentity(context.Background(), "x"); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestRateLimitHonorsContext(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost", RatePerSec: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Drain the single token.
	c.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Find(ctx, "x", 1, nil); !errors.Is(err, domain.ErrChannel) {
		t.Fatalf("expected ErrChannel from rate limiter, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url", RatePerSec: 1}); err == nil {
		t.Error("expected url error")
	}
	if _, err := New(Config{BaseURL: "http://localhost", RatePerSec: 0}); err == nil {
		t.Error("expected rate error")
	}
}

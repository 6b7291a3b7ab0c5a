// Package geocoder is the location evidence channel backed by a
// Nominatim-compatible geocoding API.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/metrics"
)

const channelName = "geocoder"

// Row attribute keys set on every candidate.
const (
	AttrLat = "lat"
	AttrLon = "lon"
)

// PropertyCountry restricts a search to the given ISO 3166-1 alpha-2 codes (comma-separated).
const PropertyCountry = "country"

// Config holds geocoder client settings.
type Config struct {
	BaseURL      string
	UserAgent    string
	Email        string
	Language     string
	CountryCodes []string
	RatePerSec   float64
	Burst        int
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client queries /search and /lookup with a client-side rate limit.
type Client struct {
	baseURL   string
	userAgent string
	email     string
	language  string
	countries string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// New creates a geocoder client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid geocoder base url %q", cfg.BaseURL)
	}
	if cfg.RatePerSec <= 0 {
		return nil, fmt.Errorf("geocoder rate must be positive")
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   base.String(),
		userAgent: cfg.UserAgent,
		email:     cfg.Email,
		language:  cfg.Language,
		countries: strings.Join(cfg.CountryCodes, ","),
		timeout:   cfg.Timeout,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
		logger:    logger,
	}, nil
}

// place is one entry of a jsonv2 /search or /lookup response.
type place struct {
	PlaceID     int64   `json:"place_id"`
	OSMType     string  `json:"osm_type"`
	OSMID       int64   `json:"osm_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	AddressType string  `json:"addresstype"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	PlaceRank   int     `json:"place_rank"`
}

// id encodes the OSM element as N123, W456 or R789.
func (p place) id() string {
	if p.OSMType == "" {
		return strconv.FormatInt(p.PlaceID, 10)
	}
	return strings.ToUpper(p.OSMType[:1]) + strconv.FormatInt(p.OSMID, 10)
}

func (p place) label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.DisplayName
}

func (p place) row() candidate.Row {
	r := candidate.NewRow(p.id(), p.label(), p.Importance).
		WithDescription(p.DisplayName)
	if lat, err := strconv.ParseFloat(p.Lat, 64); err == nil {
		r = r.WithAttr(AttrLat, lat)
	}
	if lon, err := strconv.ParseFloat(p.Lon, 64); err == nil {
		r = r.WithAttr(AttrLon, lon)
	}
	return r
}

// Find searches free text. Similarity is the geocoder's importance, clamped to [0,1].
func (c *Client) Find(ctx context.Context, text string, limit int, props query.Properties) ([]candidate.Row, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", strconv.Itoa(limit))
	countries := c.countries
	if v, ok := props.String(PropertyCountry); ok {
		countries = strings.ToLower(strings.ReplaceAll(v, " ", ""))
	}
	if countries != "" {
		params.Set("countrycodes", countries)
	}

	places, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}
	rows := make([]candidate.Row, 0, len(places))
	for _, p := range places {
		rows = append(rows, p.row())
	}
	return rows, nil
}

// GetDetails resolves one OSM element id such as "N123".
func (c *Client) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	if !validID(id) {
		return entity.Details{}, fmt.Errorf("location %q: %w", id, domain.ErrNotFound)
	}
	params := url.Values{}
	params.Set("osm_ids", id)

	places, err := c.get(ctx, "lookup", params)
	if err != nil {
		return entity.Details{}, err
	}
	if len(places) == 0 {
		return entity.Details{}, fmt.Errorf("location %q: %w", id, domain.ErrNotFound)
	}
	p := places[0]
	return entity.Details{
		ID: p.id(),
		Fields: map[string]any{
			"name":         p.label(),
			"display_name": p.DisplayName,
			"lat":          p.Lat,
			"lon":          p.Lon,
			"category":     p.Category,
			"type":         p.Type,
			"address_type": p.AddressType,
			"place_rank":   p.PlaceRank,
			"importance":   p.Importance,
		},
	}, nil
}

// FetchByAlternateIdentity is not supported by geocoding services.
func (c *Client) FetchByAlternateIdentity(context.Context, string) ([]candidate.Row, error) {
	return nil, fmt.Errorf("geocoder alternate identity: %w", domain.ErrNotImplemented)
}

func validID(id string) bool {
	if len(id) < 2 || !strings.ContainsRune("NWR", rune(id[0])) {
		return false
	}
	_, err := strconv.ParseInt(id[1:], 10, 64)
	return err == nil
}

func (c *Client) get(ctx context.Context, op string, params url.Values) (places []place, err error) {
	start := time.Now()
	defer func() {
		metrics.ChannelRequestsTotal.WithLabelValues(channelName, op, metrics.Status(err)).Inc()
		metrics.ChannelRequestDuration.WithLabelValues(channelName, op).Observe(time.Since(start).Seconds())
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limit: %w: %w", err, domain.ErrChannel)
	}

	params.Set("format", "jsonv2")
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
	endpoint := c.baseURL + "/" + op + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder %s: %w: %w", op, err, domain.ErrChannel)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoder %s: status %d: %s: %w",
			op, resp.StatusCode, strings.TrimSpace(string(body)), domain.ErrChannel)
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoder %s: decode: %w: %w", op, err, domain.ErrChannel)
	}

	c.logger.Debug("geocoder call",
		zap.String("op", op),
		zap.Int("results", len(places)),
		zap.Duration("duration", time.Since(start)),
	)
	return places, nil
}

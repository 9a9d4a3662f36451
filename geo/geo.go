// Package geo resolves best-effort coordinates for a record from its maps
// URL or, failing that, its name. Not finding coordinates is a valid
// state, never an error.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tabiji/rdx"

	"golang.org/x/time/rate"
)

// Point is a resolved latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// URL patterns, in priority order: exact marker, viewport center, then a
// coordinate query parameter. First match wins.
var (
	markerRe   = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	viewportRe = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	queryRe    = regexp.MustCompile(`[?&](?:q|query|ll)=(-?\d+(?:\.\d+)?)(?:,|%2C)(-?\d+(?:\.\d+)?)`)
)

// ParseMapsURL extracts literal coordinates embedded in a maps URL.
// Returns nil when the URL carries none.
func ParseMapsURL(raw string) *Point {
	if raw == "" {
		return nil
	}
	for _, re := range []*regexp.Regexp{markerRe, viewportRe, queryRe} {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		return &Point{Lat: lat, Lng: lng}
	}
	return nil
}

const defaultEndpoint = "https://nominatim.openstreetmap.org/search"

// Resolver backs the name-based fallback with an external search,
// rate-limited to one request a second and cached in Redis for a day.
type Resolver struct {
	Endpoint   string
	RegionHint string
	Client     *http.Client
	limiter    *rate.Limiter
}

func NewResolver() *Resolver {
	hint := os.Getenv("GEO_REGION_HINT")
	if hint == "" {
		hint = "Japan"
	}
	endpoint := os.Getenv("GEO_SEARCH_URL")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Resolver{
		Endpoint:   endpoint,
		RegionHint: hint,
		Client:     &http.Client{Timeout: 8 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Resolve runs the resolution order: URL patterns first, then the
// name-based search. A nil result means "no map available"; downstream UI
// hides map affordances instead of erroring.
func (r *Resolver) Resolve(ctx context.Context, mapsURL, name string) *Point {
	if p := ParseMapsURL(mapsURL); p != nil {
		return p
	}
	if name == "" {
		return nil
	}
	return r.SearchByName(ctx, name)
}

// SearchByName geocodes free text and takes the first hit. Transport
// failures are logged and fall through to the unset state.
func (r *Resolver) SearchByName(ctx context.Context, name string) *Point {
	query := name
	if r.RegionHint != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(r.RegionHint)) {
		query = name + ", " + r.RegionHint
	}

	cacheKey := "geo:" + strings.ToLower(query)
	if cached, ok := rdx.CacheGet(ctx, cacheKey); ok {
		var p Point
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil
	}

	reqURL := fmt.Sprintf("%s?format=json&limit=1&q=%s", r.Endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Println("geo: bad request:", err)
		return nil
	}
	req.Header.Set("User-Agent", "tabiji/1.0")

	resp, err := r.Client.Do(req)
	if err != nil {
		log.Println("geo: search failed:", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Println("geo: search status:", resp.Status)
		return nil
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Println("geo: decode failed:", err)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return nil
	}

	p := &Point{Lat: lat, Lng: lng}
	if data, err := json.Marshal(p); err == nil {
		rdx.CacheSet(ctx, cacheKey, string(data), 24*time.Hour)
	}
	return p
}

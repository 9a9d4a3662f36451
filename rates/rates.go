// Package rates keeps a best-effort JPY conversion rate: refreshed hourly,
// refreshable by hand, falling back to a fixed constant when the source is
// unreachable.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"tabiji/rdx"
)

// FallbackRate is used when no fetch has ever succeeded.
const FallbackRate = 0.0067 // JPY → home currency

const cacheKey = "rates:jpy"

// Fetcher owns the hourly refresh loop. A refresh requested while one is
// in flight is a no-op, not queued.
type Fetcher struct {
	URL      string
	Currency string
	Client   *http.Client

	mu        sync.Mutex
	loading   bool
	rate      float64
	fetchedAt time.Time

	stop chan struct{}
	once sync.Once
}

func NewFetcher() *Fetcher {
	apiURL := os.Getenv("RATE_API_URL")
	if apiURL == "" {
		apiURL = "https://open.er-api.com/v6/latest/JPY"
	}
	currency := os.Getenv("HOME_CURRENCY")
	if currency == "" {
		currency = "USD"
	}
	f := &Fetcher{
		URL:      apiURL,
		Currency: currency,
		Client:   &http.Client{Timeout: 10 * time.Second},
		rate:     FallbackRate,
		stop:     make(chan struct{}),
	}

	// A previous process may have left a good value behind.
	if cached, ok := rdx.CacheGet(context.Background(), cacheKey+":"+currency); ok {
		if v, err := strconv.ParseFloat(cached, 64); err == nil && v > 0 {
			f.rate = v
		}
	}
	return f
}

// Start launches the hourly refresh loop with one immediate fetch.
func (f *Fetcher) Start() {
	go func() {
		f.Refresh(context.Background())
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-f.stop:
				return
			case <-ticker.C:
				f.Refresh(context.Background())
			}
		}
	}()
}

// Stop ends the refresh loop.
func (f *Fetcher) Stop() {
	f.once.Do(func() { close(f.stop) })
}

// Current returns the last known rate and when it was fetched. A zero time
// means the fallback constant is still in use.
func (f *Fetcher) Current() (float64, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate, f.fetchedAt
}

// Refresh fetches the rate now. Returns the rate in effect afterwards;
// failures keep the previous value (logged, never fatal).
func (f *Fetcher) Refresh(ctx context.Context) float64 {
	f.mu.Lock()
	if f.loading {
		// Coalesce: one in flight is enough.
		rate := f.rate
		f.mu.Unlock()
		return rate
	}
	f.loading = true
	f.mu.Unlock()

	rate, err := f.fetch(ctx)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		log.Println("rates: refresh failed:", err)
		rate = f.rate
	} else {
		f.rate = rate
		f.fetchedAt = time.Now()
	}
	f.mu.Unlock()

	if err == nil {
		rdx.CacheSet(ctx, cacheKey+":"+f.Currency,
			strconv.FormatFloat(rate, 'f', -1, 64), 24*time.Hour)
	}
	return rate
}

func (f *Fetcher) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	rate, ok := payload.Rates[f.Currency]
	if !ok || rate <= 0 {
		return 0, errNoRate
	}
	return rate, nil
}

var errNoRate = errors.New("rates: currency missing from response")

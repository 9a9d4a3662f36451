package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testFetcher(url string) *Fetcher {
	return &Fetcher{
		URL:      url,
		Currency: "USD",
		Client:   &http.Client{Timeout: time.Second},
		rate:     FallbackRate,
		stop:     make(chan struct{}),
	}
}

func TestRefreshSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"USD":0.0071,"EUR":0.0062}}`))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	got := f.Refresh(context.Background())
	if got != 0.0071 {
		t.Fatalf("expected 0.0071, got %v", got)
	}

	rate, fetchedAt := f.Current()
	if rate != 0.0071 {
		t.Fatalf("expected stored rate 0.0071, got %v", rate)
	}
	if fetchedAt.IsZero() {
		t.Fatal("expected fetchedAt set after a successful refresh")
	}
}

func TestRefreshFailureKeepsPreviousRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	got := f.Refresh(context.Background())
	if got != FallbackRate {
		t.Fatalf("expected fallback %v kept, got %v", FallbackRate, got)
	}
	if _, fetchedAt := f.Current(); !fetchedAt.IsZero() {
		t.Fatal("fetchedAt must stay zero while on the fallback")
	}
}

func TestRefreshMissingCurrencyKeepsPreviousRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.0062}}`))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	if got := f.Refresh(context.Background()); got != FallbackRate {
		t.Fatalf("expected fallback kept, got %v", got)
	}
}

func TestRefreshCoalescesConcurrentCalls(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		close(arrived)
		<-release
		w.Write([]byte(`{"rates":{"USD":0.0071}}`))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	done := make(chan float64, 1)
	go func() { done <- f.Refresh(context.Background()) }()
	<-arrived

	// Second refresh lands while the first is in flight: it returns the
	// current value without another request.
	if got := f.Refresh(context.Background()); got != FallbackRate {
		t.Fatalf("expected coalesced refresh to return current rate, got %v", got)
	}

	close(release)
	if got := <-done; got != 0.0071 {
		t.Fatalf("expected first refresh to land 0.0071, got %v", got)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single upstream request, got %d", n)
	}
}

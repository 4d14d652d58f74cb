// Package main contains integration tests for the API server wiring.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lokalo/boostrank/internal/api"
	"github.com/lokalo/boostrank/internal/featured"
	"github.com/lokalo/boostrank/internal/listing"
	"github.com/lokalo/boostrank/internal/middleware"
)

// newTestHandler assembles the same route table and middleware chain as main,
// backed by the in-memory store.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	store := listing.NewInMemoryStore()
	store.RecordLocation(listing.ViewerLocation{
		UserID:     "viewer-1",
		Lat:        52.52,
		Lng:        13.405,
		RecordedAt: now.Add(-time.Hour),
	})

	radius := 15.0
	expires := now.Add(72 * time.Hour)
	store.PutListing(&listing.Listing{
		ID:             "boosted-1",
		OwnerID:        "seller-1",
		Name:           "City bike",
		Category:       "bikes",
		PriceCents:     30000,
		Lat:            52.53,
		Lng:            13.41,
		IsBoosted:      true,
		BoostRadiusKm:  &radius,
		BoostExpiresAt: &expires,
		CreatedAt:      now.Add(-24 * time.Hour),
	})
	store.PutListing(&listing.Listing{
		ID:         "plain-1",
		OwnerID:    "seller-2",
		Name:       "Bookshelf",
		Category:   "home",
		PriceCents: 4000,
		Lat:        52.50,
		Lng:        13.39,
		CreatedAt:  now.Add(-48 * time.Hour),
	})

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	rankingMetrics := featured.NewMetrics()
	if err := rankingMetrics.Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	service := featured.NewService(store, store, store,
		featured.WithMetrics(rankingMetrics),
		featured.WithClock(func() time.Time { return now }),
	)

	rankingHandlers := api.NewRankingHandlers(service)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{})

	mux := http.NewServeMux()
	mux.HandleFunc("/rankings", rankingHandlers.Rankings)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"boostrank-api","version":"0.0.1"}`))
	})

	logger := middleware.NewLogger("test")
	return middleware.RequestID(
		middleware.Tracing(serviceName)(
			middleware.Logging(logger)(
				middleware.HTTPMetrics(httpMetrics)(mux))))
}

func TestServerRoutes(t *testing.T) {
	server := httptest.NewServer(newTestHandler(t))
	defer server.Close()

	t.Run("rankings", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/rankings?viewer_id=viewer-1")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if resp.Header.Get(middleware.RequestIDHeader) == "" {
			t.Error("expected request ID header on response")
		}

		var page listing.RankedPage
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(page.Results) != 2 {
			t.Fatalf("results = %d, want 2", len(page.Results))
		}
		if !page.Results[0].Featured || page.Results[0].ID != "boosted-1" {
			t.Errorf("first result = %+v, want featured boosted-1", page.Results[0])
		}
	})

	t.Run("health and ready", func(t *testing.T) {
		for _, path := range []string{"/health", "/ready"} {
			resp, err := http.Get(server.URL + path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
			}
		}
	})

	t.Run("metrics exposes ranking series", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(body), "ranking_requests_total") {
			t.Error("expected ranking_requests_total in metrics output")
		}
		if !strings.Contains(string(body), "http_requests_total") {
			t.Error("expected http_requests_total in metrics output")
		}
	})

	t.Run("unknown path returns error envelope", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/nope")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if errResp.Error.Code != api.ErrCodeNotFound {
			t.Errorf("error code = %q, want %q", errResp.Error.Code, api.ErrCodeNotFound)
		}
	})
}

func TestGracefulShutdownCompletesInFlightRequests(t *testing.T) {
	handlerStarted := make(chan struct{})
	handlerCanContinue := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(handlerStarted)
		<-handlerCanContinue
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"completed"}`))
	})

	server := httptest.NewUnstartedServer(mux)
	server.Start()
	addr := server.Listener.Addr().String()

	requestDone := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			t.Errorf("request error: %v", err)
		}
		requestDone <- resp
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("handler failed to start in time")
	}

	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Config.Shutdown(ctx); err != nil {
			t.Errorf("shutdown error: %v", err)
		}
		close(shutdownDone)
	}()

	time.Sleep(50 * time.Millisecond)
	close(handlerCanContinue)

	select {
	case resp := <-requestDone:
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("in-flight request status = %d, want 200", resp.StatusCode)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("request failed to complete in time")
	}

	select {
	case <-shutdownDone:
	case <-time.After(15 * time.Second):
		t.Fatal("shutdown failed to complete in time")
	}
}

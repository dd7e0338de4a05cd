package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "CoinPulse/internal/domain/repository"
)

func TestFetchQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("ids") != "bitcoin,ethereum" {
			t.Errorf("ids = %s", q.Get("ids"))
		}
		if q.Get("vs_currencies") != "usd" {
			t.Errorf("vs_currencies = %s", q.Get("vs_currencies"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 64000.5, "usd_market_cap": 1.2e12, "usd_24h_change": -1.5},
			"ethereum": {"usd": 3100.0, "usd_market_cap": 3.7e11, "usd_24h_change": 2.25}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	quotes, err := c.FetchQuotes(context.Background(), []string{"bitcoin", "ethereum"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d", len(quotes))
	}
	btc := quotes["bitcoin"]
	if btc.Price != 64000.5 || btc.Change24h != -1.5 {
		t.Fatalf("bitcoin quote = %+v", btc)
	}
}

func TestFetchQuotesOmitsUnknownAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 1, "usd_market_cap": 2, "usd_24h_change": 3}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	quotes, err := c.FetchQuotes(context.Background(), []string{"bitcoin", "not-a-coin"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := quotes["not-a-coin"]; ok {
		t.Fatalf("unknown asset should be absent")
	}
	if _, ok := quotes["bitcoin"]; !ok {
		t.Fatalf("known asset missing")
	}
}

func TestFetchQuotesEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.FetchQuotes(context.Background(), []string{"bitcoin"}); !errors.Is(err, drepo.ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestFetchQuotesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.FetchQuotes(context.Background(), []string{"bitcoin"}); !errors.Is(err, drepo.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchQuotesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := New(srv.URL, time.Second)
	if _, err := c.FetchQuotes(context.Background(), []string{"bitcoin"}); !errors.Is(err, drepo.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchQuotesSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-cg-demo-api-key"); got != "demo-key" {
			t.Errorf("api key header = %q", got)
		}
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 1}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithAPIKey("demo-key"))
	if _, err := c.FetchQuotes(context.Background(), []string{"bitcoin"}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newestFirstBody is a well-formed response with bars in the provider's
// native newest-first order.
const newestFirstBody = `{
	"meta": {"symbol": "EUR/USD", "interval": "1min"},
	"values": [
		{"datetime": "2024-01-02 09:33:00", "open": "1.1004", "high": "1.1009", "low": "1.1001", "close": "1.1007"},
		{"datetime": "2024-01-02 09:32:00", "open": "1.1002", "high": "1.1006", "low": "1.0999", "close": "1.1004"},
		{"datetime": "2024-01-02 09:31:00", "open": "1.1000", "high": "1.1010", "low": "1.0990", "close": "1.1005"}
	],
	"status": "ok"
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient("test-key", WithBaseURL(server.URL))
	return client, server
}

func TestFetchBars_AscendingOrder(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "EUR/USD" {
			t.Errorf("expected symbol EUR/USD, got %q", q.Get("symbol"))
		}
		if q.Get("interval") != "1min" {
			t.Errorf("expected interval 1min, got %q", q.Get("interval"))
		}
		if q.Get("apikey") != "test-key" {
			t.Errorf("expected apikey test-key, got %q", q.Get("apikey"))
		}
		if q.Get("outputsize") != "3" {
			t.Errorf("expected outputsize 3, got %q", q.Get("outputsize"))
		}
		if q.Get("timezone") != "UTC" {
			t.Errorf("expected timezone UTC, got %q", q.Get("timezone"))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, newestFirstBody)
	})
	defer server.Close()

	bars, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 3)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}

	// Provider sent newest-first; the client must return strictly ascending.
	for i := 1; i < len(bars); i++ {
		if !bars[i].Datetime.After(bars[i-1].Datetime) {
			t.Errorf("bars not strictly ascending: bar %d at %v, bar %d at %v",
				i-1, bars[i-1].Datetime, i, bars[i].Datetime)
		}
	}

	oldest := bars[0]
	want := time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC)
	if !oldest.Datetime.Equal(want) {
		t.Errorf("expected oldest bar at %v, got %v", want, oldest.Datetime)
	}
	if oldest.Open != 1.1000 || oldest.High != 1.1010 || oldest.Low != 1.0990 || oldest.Close != 1.1005 {
		t.Errorf("oldest bar prices wrong: %+v", oldest)
	}
	if oldest.Symbol != "EUR/USD" {
		t.Errorf("expected symbol EUR/USD, got %q", oldest.Symbol)
	}
}

func TestFetchBars_EmptyValues(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values": [], "status": "ok"}`)
	})
	defer server.Close()

	bars, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 10)
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected 0 bars, got %d", len(bars))
	}
}

func TestFetchBars_ProviderError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		// TwelveData reports application errors with HTTP 200.
		fmt.Fprint(w, `{"code": 401, "message": "apikey parameter is incorrect or missing", "status": "error"}`)
	})
	defer server.Close()

	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 10)

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.Code != 401 {
		t.Errorf("expected code 401, got %d", provErr.Code)
	}
	if !strings.Contains(provErr.Message, "apikey parameter") {
		t.Errorf("provider message not carried: %q", provErr.Message)
	}
}

func TestFetchBars_HTTPError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 10)

	var transErr *TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if transErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", transErr.Status)
	}
}

func TestFetchBars_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient("secret-key-value", WithBaseURL(server.URL))
	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 10)

	var transErr *TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if strings.Contains(err.Error(), "secret-key-value") {
		t.Errorf("API key leaked into error: %v", err)
	}
}

func TestFetchBars_MissingPriceField(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"values": [
				{"datetime": "2024-01-02 09:32:00", "open": "1.1002", "high": "1.1006", "low": "1.0999", "close": "1.1004"},
				{"datetime": "2024-01-02 09:31:00", "high": "1.1010", "low": "1.0990", "close": "1.1005"}
			],
			"status": "ok"
		}`)
	})
	defer server.Close()

	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 2)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if parseErr.Field != "open" {
		t.Errorf("expected failing field open, got %q", parseErr.Field)
	}
}

func TestFetchBars_BadTimestamp(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"values": [
				{"datetime": "02/01/2024 09:31", "open": "1.1000", "high": "1.1010", "low": "1.0990", "close": "1.1005"}
			],
			"status": "ok"
		}`)
	})
	defer server.Close()

	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 1)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if parseErr.Field != "datetime" {
		t.Errorf("expected failing field datetime, got %q", parseErr.Field)
	}
}

func TestFetchBars_MalformedJSON(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values": [`)
	})
	defer server.Close()

	_, err := client.FetchBars(context.Background(), "EUR/USD", "1min", 1)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestFetchBars_ContextCancelled(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, newestFirstBody)
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.FetchBars(ctx, "EUR/USD", "1min", 3)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

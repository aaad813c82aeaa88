package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/httputil"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Polygon: config.PolygonConfig{
			APIKey:  "test-key",
			BaseURL: baseURL,
		},
		Ingest: config.IngestConfig{
			PageSize:  100,
			MaxPages:  50,
			PageDelay: 0, // no pacing in tests
		},
	}

	log := logger.New(cfg)
	httpClient := httputil.New(cfg, log).WithRetry(2, 5*time.Millisecond)

	return NewClient(cfg, log, httpClient)
}

func contractJSON(ticker string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"details":{"ticker":%q,"contract_type":"call"}}`, ticker))
}

func TestFetchAllContractsPagination(t *testing.T) {
	var requests atomic.Int64

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)

		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Errorf("request %d missing apiKey, query = %s", n, r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			next := server.URL + "/v3/snapshot/options/XYZ?cursor=page2"
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":   "OK",
				"results":  []json.RawMessage{contractJSON("O:XYZ1"), contractJSON("O:XYZ2")},
				"next_url": next,
			})
		case "page2":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "OK",
				"results": []json.RawMessage{contractJSON("O:XYZ3")},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	contracts, err := client.FetchAllContracts(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("FetchAllContracts() error = %v", err)
	}

	if len(contracts) != 3 {
		t.Errorf("Expected 3 contracts, got %d", len(contracts))
	}

	if got := requests.Load(); got != 2 {
		t.Errorf("Expected 2 page requests, got %d", got)
	}

	if ticker := contracts[2].ResolveTicker(); ticker != "O:XYZ3" {
		t.Errorf("Expected last contract O:XYZ3, got %s", ticker)
	}
}

func TestFetchAllContractsPageCeiling(t *testing.T) {
	var requests atomic.Int64

	// A misbehaving upstream whose cursor never empties
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "OK",
			"results":  []json.RawMessage{contractJSON("O:XYZ1")},
			"next_url": server.URL + "/v3/snapshot/options/XYZ?cursor=again",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	contracts, err := client.FetchAllContracts(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("FetchAllContracts() error = %v", err)
	}

	if got := requests.Load(); got != 50 {
		t.Errorf("Expected fetch to stop at the 50-page ceiling, got %d requests", got)
	}

	if len(contracts) != 50 {
		t.Errorf("Expected 50 contracts collected before the ceiling, got %d", len(contracts))
	}
}

func TestFetchAllContractsAbortsOnBadStatus(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":   "OK",
				"results":  []json.RawMessage{contractJSON("O:XYZ1")},
				"next_url": server.URL + "/v3/snapshot/options/XYZ?cursor=page2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ERROR",
			"error":  "upstream unavailable",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	contracts, err := client.FetchAllContracts(context.Background(), "XYZ")
	if err == nil {
		t.Fatal("Expected fetch to abort on non-OK page status")
	}

	// No partial results on abort
	if contracts != nil {
		t.Errorf("Expected nil contracts on abort, got %d", len(contracts))
	}
}

func TestFetchAllContractsRetriesServerErrors(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "OK",
			"results": []json.RawMessage{contractJSON("O:XYZ1")},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	contracts, err := client.FetchAllContracts(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("FetchAllContracts() error = %v", err)
	}

	if len(contracts) != 1 {
		t.Errorf("Expected 1 contract after retries, got %d", len(contracts))
	}

	if got := requests.Load(); got != 3 {
		t.Errorf("Expected 3 attempts (2 failures + 1 success), got %d", got)
	}
}

func TestFetchAllContractsMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "results": [`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.FetchAllContracts(context.Background(), "XYZ"); err == nil {
		t.Fatal("Expected fetch to fail on malformed JSON")
	}
}

func TestFetchUnderlyingPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/aggs/ticker/XYZ/prev" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"ticker": "XYZ",
			"results": []map[string]interface{}{
				{"o": 99.5, "h": 101.2, "l": 98.7, "c": 100.25, "v": 1500000.0, "t": 1750190400000},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	price, err := client.FetchUnderlyingPrice(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("FetchUnderlyingPrice() error = %v", err)
	}

	if price.Close != 100.25 {
		t.Errorf("Expected close 100.25, got %v", price.Close)
	}

	if price.Symbol != "XYZ" {
		t.Errorf("Expected symbol XYZ, got %s", price.Symbol)
	}
}

func TestFetchUnderlyingPriceEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "OK",
			"results": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.FetchUnderlyingPrice(context.Background(), "XYZ"); err == nil {
		t.Fatal("Expected error on empty results")
	}
}

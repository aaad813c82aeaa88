package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/httputil"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

// Client handles communication with the Polygon.io REST API
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string

	pageSize int
	maxPages int

	// pageLimiter paces chain pagination so a full-chain fetch stays inside
	// the provider's request budget.
	pageLimiter *rate.Limiter
}

// NewClient creates a new Polygon API client
func NewClient(cfg *config.Config, log *logger.Logger, httpClient *httputil.Client) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "polygon"),
		apiKey:     cfg.Polygon.APIKey,
		baseURL:    strings.TrimRight(cfg.Polygon.BaseURL, "/"),
		pageSize:   cfg.Ingest.PageSize,
		maxPages:   cfg.Ingest.MaxPages,
	}

	if cfg.Ingest.PageDelay > 0 {
		c.pageLimiter = rate.NewLimiter(rate.Every(cfg.Ingest.PageDelay), 1)
	}

	return c
}

// chainPage is one page of the options-chain snapshot endpoint
type chainPage struct {
	Status    string             `json:"status"`
	RequestID string             `json:"request_id"`
	Results   []ContractSnapshot `json:"results"`
	NextURL   *string            `json:"next_url"`
}

// FetchAllContracts retrieves the full options chain snapshot for one
// underlying asset, following the pagination cursor until it runs out.
//
// Any page failing (after the HTTP client's own retries) aborts the whole
// fetch: callers get either the complete chain or an error, never a partial
// result. A hard page ceiling stops the loop if the upstream cursor never
// empties; that case logs a warning and returns what was collected.
func (c *Client) FetchAllContracts(ctx context.Context, underlying string) ([]ContractSnapshot, error) {
	pageURL := fmt.Sprintf("%s/v3/snapshot/options/%s?limit=%d&apiKey=%s",
		c.baseURL, url.PathEscape(underlying), c.pageSize, url.QueryEscape(c.apiKey))

	var contracts []ContractSnapshot
	pages := 0

	for {
		if pages >= c.maxPages {
			c.logger.WithFields(map[string]interface{}{
				"underlying": underlying,
				"pages":      pages,
				"contracts":  len(contracts),
			}).Warn("Pagination ceiling reached, stopping chain fetch")
			break
		}

		if c.pageLimiter != nil {
			if err := c.pageLimiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("polygon fetch failed: page pacing: %w", err)
			}
		}

		page, err := c.fetchChainPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("polygon fetch failed: page %d: %w", pages+1, err)
		}
		pages++

		contracts = append(contracts, page.Results...)

		if page.NextURL == nil || *page.NextURL == "" {
			break
		}

		next, err := c.withCredentials(*page.NextURL)
		if err != nil {
			return nil, fmt.Errorf("polygon fetch failed: invalid next_url: %w", err)
		}
		pageURL = next
	}

	c.logger.WithFields(map[string]interface{}{
		"underlying": underlying,
		"pages":      pages,
		"contracts":  len(contracts),
	}).Info("Options chain fetched")

	return contracts, nil
}

// fetchChainPage fetches and decodes a single chain page. Transport-level
// failures and 5xx/429 responses are retried by the HTTP client; a non-OK
// payload status is not retried and aborts the chain.
func (c *Client) fetchChainPage(ctx context.Context, pageURL string) (*chainPage, error) {
	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected http status %s", resp.Status)
	}

	var page chainPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode chain page: %w", err)
	}

	if !strings.EqualFold(page.Status, "OK") {
		return nil, fmt.Errorf("upstream status %q", page.Status)
	}

	return &page, nil
}

// withCredentials re-appends the API key to an upstream pagination cursor.
// The next_url carries an opaque cursor but no credentials.
func (c *Client) withCredentials(next string) (string, error) {
	u, err := url.Parse(next)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// UnderlyingPrice is the previous-session close for an underlying asset
type UnderlyingPrice struct {
	Symbol    string    `json:"symbol"`
	Close     float64   `json:"close"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// prevCloseResponse is the previous-close aggregate endpoint envelope
type prevCloseResponse struct {
	Status  string `json:"status"`
	Ticker  string `json:"ticker"`
	Results []struct {
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
		Timestamp int64   `json:"t"`
	} `json:"results"`
}

// FetchUnderlyingPrice retrieves the previous-session close for the
// underlying asset.
func (c *Client) FetchUnderlyingPrice(ctx context.Context, underlying string) (*UnderlyingPrice, error) {
	reqURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s",
		c.baseURL, url.PathEscape(underlying), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("polygon fetch failed: previous close: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon fetch failed: previous close: unexpected http status %s", resp.Status)
	}

	var dto prevCloseResponse
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("polygon fetch failed: decode previous close: %w", err)
	}

	if !strings.EqualFold(dto.Status, "OK") || len(dto.Results) == 0 {
		return nil, fmt.Errorf("polygon fetch failed: previous close: status %q with %d results", dto.Status, len(dto.Results))
	}

	r := dto.Results[0]
	return &UnderlyingPrice{
		Symbol:    underlying,
		Close:     r.Close,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Volume:    r.Volume,
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
	}, nil
}

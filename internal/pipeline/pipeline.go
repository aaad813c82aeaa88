package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/internal/external/polygon"
	"github.com/DevMandalia/direction-sky-ingest/internal/marketcal"
	"github.com/DevMandalia/direction-sky-ingest/internal/snapshot"
	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
	"github.com/DevMandalia/direction-sky-ingest/pkg/redis"
)

// Market status values reported to callers.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ChainFetcher retrieves chain snapshots and reference prices from the
// market-data provider.
type ChainFetcher interface {
	FetchAllContracts(ctx context.Context, underlying string) ([]polygon.ContractSnapshot, error)
	FetchUnderlyingPrice(ctx context.Context, underlying string) (*polygon.UnderlyingPrice, error)
}

// SnapshotStore persists derived rows.
type SnapshotStore interface {
	EnsureTables(ctx context.Context) error
	UpsertBatch(ctx context.Context, rows []snapshot.Row) (int, error)
}

// Pipeline orchestrates one ingestion cycle: gate check, chain fetch,
// expiry filtering, row derivation, and persistence. It owns no schedule
// and no transport; callers (HTTP trigger, scheduler jobs, CLI) decide when
// a cycle runs.
type Pipeline struct {
	cfg      *config.Config
	logger   *logger.Logger
	calendar *marketcal.Calendar
	fetcher  ChainFetcher
	store    SnapshotStore
	cache    *redis.Cache

	// now is the cycle clock; swapped out in tests.
	now func() time.Time

	ensureMu sync.Mutex
	ensured  bool
}

// New wires a pipeline from its collaborators. cache may be nil when redis
// is disabled.
func New(cfg *config.Config, log *logger.Logger, cal *marketcal.Calendar, fetcher ChainFetcher, store SnapshotStore, cache *redis.Cache) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   log.WithField("module", "pipeline"),
		calendar: cal,
		fetcher:  fetcher,
		store:    store,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Options selects the behavior of one cycle.
type Options struct {
	// Symbol overrides the configured underlying when non-empty.
	Symbol string

	// Expiry restricts the cycle to contracts expiring on this ISO date
	// (YYYY-MM-DD). Empty means the whole chain.
	Expiry string

	// ForceTest bypasses the market-hours gate.
	ForceTest bool

	// FetchOnly skips persistence; rows are derived and counted but not
	// stored.
	FetchOnly bool
}

// Result summarizes one cycle.
type Result struct {
	MarketStatus   string     `json:"marketStatus"`
	NextMarketOpen *time.Time `json:"nextMarketOpen,omitempty"`
	TradingDate    string     `json:"tradingDate,omitempty"`
	OptionsFetched int        `json:"optionsFetched"`
	Calls          int        `json:"calls"`
	Puts           int        `json:"puts"`
	Stored         int        `json:"stored"`
}

// Run executes one ingestion cycle. A closed market is a successful no-op
// result, not an error; everything downstream of the gate surfaces as an
// error with stage context.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	symbol := p.symbol(opts.Symbol)
	now := p.now()

	log := p.logger.WithFields(map[string]interface{}{
		"underlying": symbol,
		"expiry":     opts.Expiry,
	})

	if !opts.ForceTest && !p.calendar.IsMarketOpen(now) {
		log.Info("Market closed, skipping cycle")
		return &Result{
			MarketStatus:   StatusClosed,
			NextMarketOpen: p.calendar.NextMarketOpen(now),
		}, nil
	}

	tradingDate, ok := p.calendar.TradingDate(now)
	if !ok {
		// Only reachable with a fail-closed calendar and a forced run.
		tradingDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		log.Warn("Exchange timezone unavailable, using UTC trading date")
	}

	contracts, err := p.fetcher.FetchAllContracts(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("cycle failed: %w", err)
	}

	rows, calls, puts := p.derive(contracts, symbol, opts.Expiry, tradingDate)

	// OptionsFetched is the upstream chain size; Calls/Puts/Stored count
	// the rows that survive the expiry filter and expiration drop.
	result := &Result{
		MarketStatus:   StatusOpen,
		TradingDate:    tradingDate.Format("2006-01-02"),
		OptionsFetched: len(contracts),
		Calls:          calls,
		Puts:           puts,
	}

	if opts.FetchOnly || len(rows) == 0 {
		log.WithFields(map[string]interface{}{
			"contracts": len(contracts),
			"rows":      len(rows),
		}).Info("Cycle complete without persistence")
		return result, nil
	}

	if err := p.ensureTables(ctx); err != nil {
		return nil, err
	}

	stored, err := p.store.UpsertBatch(ctx, rows)
	result.Stored = stored
	if err != nil {
		return result, fmt.Errorf("cycle failed: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"contracts": len(contracts),
		"rows":      len(rows),
		"calls":     calls,
		"puts":      puts,
		"stored":    stored,
	}).Info("Cycle complete")

	return result, nil
}

// derive filters the raw chain by expiry and converts survivors into rows,
// splitting call/put counts. Expired contracts fall out here.
func (p *Pipeline) derive(contracts []polygon.ContractSnapshot, symbol, expiry string, tradingDate time.Time) ([]snapshot.Row, int, int) {
	rows := make([]snapshot.Row, 0, len(contracts))
	calls, puts := 0, 0

	for i := range contracts {
		c := &contracts[i]

		if expiry != "" && c.ExpirationString() != expiry {
			continue
		}

		row := snapshot.Derive(c, "", symbol, tradingDate)
		if row == nil {
			continue
		}

		switch row.ContractType {
		case snapshot.TypeCall:
			calls++
		case snapshot.TypePut:
			puts++
		}

		rows = append(rows, *row)
	}

	return rows, calls, puts
}

// ChainData is a derived chain slice for one expiry, returned without
// persistence.
type ChainData struct {
	Symbol      string         `json:"symbol"`
	Expiry      string         `json:"expiryDate"`
	TradingDate string         `json:"tradingDate"`
	Calls       []snapshot.Row `json:"calls"`
	Puts        []snapshot.Row `json:"puts"`
}

// OptionsData fetches the chain and returns the derived rows for one expiry
// split into calls and puts. Nothing is stored.
func (p *Pipeline) OptionsData(ctx context.Context, symbol, expiry string) (*ChainData, error) {
	if expiry == "" {
		return nil, fmt.Errorf("expiry date is required")
	}
	symbol = p.symbol(symbol)

	now := p.now()
	tradingDate, ok := p.calendar.TradingDate(now)
	if !ok {
		tradingDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	contracts, err := p.fetcher.FetchAllContracts(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("options data failed: %w", err)
	}

	data := &ChainData{
		Symbol:      symbol,
		Expiry:      expiry,
		TradingDate: tradingDate.Format("2006-01-02"),
		Calls:       []snapshot.Row{},
		Puts:        []snapshot.Row{},
	}

	for i := range contracts {
		c := &contracts[i]
		if c.ExpirationString() != expiry {
			continue
		}

		row := snapshot.Derive(c, "", symbol, tradingDate)
		if row == nil {
			continue
		}

		switch row.ContractType {
		case snapshot.TypeCall:
			data.Calls = append(data.Calls, *row)
		case snapshot.TypePut:
			data.Puts = append(data.Puts, *row)
		}
	}

	return data, nil
}

// ExpiryDates returns the distinct expiration dates present in the current
// chain, sorted ascending. The result is cached briefly so dashboard
// polling does not re-walk the full chain.
func (p *Pipeline) ExpiryDates(ctx context.Context, symbol string) ([]string, error) {
	symbol = p.symbol(symbol)

	var dates []string
	if p.cache != nil {
		if found, err := p.cache.Get(ctx, redis.ExpiryDatesKey(symbol), &dates); err == nil && found {
			return dates, nil
		}
	}

	contracts, err := p.fetcher.FetchAllContracts(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("expiry dates failed: %w", err)
	}

	seen := make(map[string]bool)
	for i := range contracts {
		if d := contracts[i].ExpirationString(); d != "" && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	if p.cache != nil {
		if err := p.cache.Set(ctx, redis.ExpiryDatesKey(symbol), dates, redis.TTLShort); err != nil {
			p.logger.WithError(err).Debug("Expiry date cache write failed")
		}
	}

	return dates, nil
}

// UnderlyingPrice returns the previous-session close for the underlying,
// cached for one minute.
func (p *Pipeline) UnderlyingPrice(ctx context.Context, symbol string) (*polygon.UnderlyingPrice, error) {
	symbol = p.symbol(symbol)

	if p.cache != nil {
		var cached polygon.UnderlyingPrice
		if found, err := p.cache.Get(ctx, redis.UnderlyingPriceKey(symbol), &cached); err == nil && found {
			return &cached, nil
		}
	}

	price, err := p.fetcher.FetchUnderlyingPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("underlying price failed: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, redis.UnderlyingPriceKey(symbol), price, redis.TTLShort); err != nil {
			p.logger.WithError(err).Debug("Underlying price cache write failed")
		}
	}

	return price, nil
}

// MarketStatus reports the current gate decision and, when closed, the next
// session start.
func (p *Pipeline) MarketStatus(now time.Time) (string, *time.Time) {
	if p.calendar.IsMarketOpen(now) {
		return StatusOpen, nil
	}
	return StatusClosed, p.calendar.NextMarketOpen(now)
}

// ensureTables runs destination DDL once per process. A failure is retried
// on the next cycle.
func (p *Pipeline) ensureTables(ctx context.Context) error {
	p.ensureMu.Lock()
	defer p.ensureMu.Unlock()

	if p.ensured {
		return nil
	}
	if err := p.store.EnsureTables(ctx); err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}
	p.ensured = true
	return nil
}

func (p *Pipeline) symbol(override string) string {
	if override != "" {
		return override
	}
	return p.cfg.Market.Underlying
}

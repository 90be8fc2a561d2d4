package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

const tableKey = "rates_table"

// seedRates is a tiny EUR-based table for emergencies. Values are units of
// currency per 1 EUR.
var seedRates = map[string]string{
	"EUR": "1.0",
	"USD": "1.08",
	"GBP": "0.85",
	"INR": "90.0",
	"AUD": "1.60",
	"CAD": "1.47",
	"JPY": "160.0",
	"CNY": "7.8",
}

type (
	// Client is a live Source. It fetches one base table from the first
	// provider that answers, converts via cross-rates, and degrades through
	// an in-memory TTL cache, a JSON disk cache and finally the built-in
	// seed table. Providers only publish latest rates, so the requested
	// date selects nothing beyond cache freshness.
	Client struct {
		httpClient *http.Client
		providers  []provider
		memory     *gocache.Cache
		cachePath  string
		ttl        time.Duration

		mu sync.Mutex // serializes fetch + disk writes
	}

	// ClientConfig tunes the live client. Zero values get defaults.
	ClientConfig struct {
		TTL       time.Duration // table freshness, default 1h
		Timeout   time.Duration // per-request bound, default 10s
		CachePath string        // disk cache location, "" disables
	}

	provider struct {
		name    string
		request func(base string) (string, url.Values)
	}

	// table is one normalized provider response: units of currency per one
	// unit of base.
	table struct {
		Base  string                     `json:"base"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}

	diskEntry struct {
		FetchedAt time.Time                  `json:"fetched_at"`
		Base      string                     `json:"base"`
		Rates     map[string]decimal.Decimal `json:"rates"`
	}

	providerPayload struct {
		Base     string                     `json:"base"`
		From     string                     `json:"from"`
		BaseCode string                     `json:"base_code"`
		Result   string                     `json:"result"`
		Rates    map[string]decimal.Decimal `json:"rates"`
	}
)

func defaultProviders() []provider {
	return []provider{
		{
			name: "api.exchangerate.host",
			request: func(base string) (string, url.Values) {
				return "https://api.exchangerate.host/latest", url.Values{"base": {base}}
			},
		},
		{
			name: "api.frankfurter.app",
			request: func(base string) (string, url.Values) {
				return "https://api.frankfurter.app/latest", url.Values{"from": {base}}
			},
		},
		{
			name: "open.er-api.com",
			request: func(base string) (string, url.Values) {
				return "https://open.er-api.com/v6/latest/" + base, nil
			},
		},
	}
}

func NewClient(cfg ClientConfig) *Client {
	return newClient(cfg, defaultProviders())
}

func newClient(cfg ClientConfig, providers []provider) *Client {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		providers:  providers,
		memory:     gocache.New(cfg.TTL, 2*cfg.TTL),
		cachePath:  cfg.CachePath,
		ttl:        cfg.TTL,
	}
	// Prime the memory cache from a fresh disk entry so restarts don't hit
	// the network immediately.
	if entry, ok := c.loadDisk(); ok && time.Since(entry.FetchedAt) < c.ttl {
		c.memory.Set(tableKey, table{Base: entry.Base, Rates: entry.Rates}, gocache.DefaultExpiration)
	}
	return c
}

// Rate implements Source via cross-rate math over the shared table:
// rate(code) = table[EUR] / table[code], in EUR per unit of code.
func (c *Client) Rate(ctx context.Context, code string, _ time.Time) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == core.CanonicalCurrency {
		return decimal.NewFromInt(1), nil
	}
	tbl, err := c.table(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rCode, ok := tbl.Rates[code]
	if !ok || rCode.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s: %w", code, ErrRateUnavailable)
	}
	rEUR, ok := tbl.Rates[core.CanonicalCurrency]
	if !ok || rEUR.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("table has no %s anchor: %w", core.CanonicalCurrency, ErrRateUnavailable)
	}
	return rEUR.Div(rCode), nil
}

func (c *Client) table(ctx context.Context) (table, error) {
	if cached, ok := c.memory.Get(tableKey); ok {
		return cached.(table), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another caller may have fetched while we waited.
	if cached, ok := c.memory.Get(tableKey); ok {
		return cached.(table), nil
	}

	tbl, fetchErr := c.fetch(ctx)
	if fetchErr == nil {
		c.memory.Set(tableKey, tbl, gocache.DefaultExpiration)
		c.saveDisk(tbl)
		return tbl, nil
	}
	slog.Warn("All rate providers failed", "error", fetchErr)

	// Moderately stale disk data beats no data.
	if entry, ok := c.loadDisk(); ok && time.Since(entry.FetchedAt) < 12*c.ttl {
		tbl := table{Base: entry.Base, Rates: entry.Rates}
		c.memory.Set(tableKey, tbl, gocache.DefaultExpiration)
		return tbl, nil
	}

	slog.Warn("Falling back to built-in seed rates")
	return seedTable(), nil
}

func (c *Client) fetch(ctx context.Context) (table, error) {
	var errs []error
	for _, p := range c.providers {
		tbl, err := c.fetchFrom(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
			continue
		}
		slog.Info("Fetched exchange rates", "provider", p.name, "base", tbl.Base, "currencies", len(tbl.Rates))
		return tbl, nil
	}
	return table{}, errors.Join(errs...)
}

func (c *Client) fetchFrom(ctx context.Context, p provider) (table, error) {
	endpoint, query := p.request(core.CanonicalCurrency)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return table{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return table{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return table{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload providerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return table{}, fmt.Errorf("decode response: %w", err)
	}
	return normalizePayload(payload)
}

// normalizePayload maps the provider response shapes onto one table:
// {"base","rates"} (exchangerate.host), {"from","rates"} (frankfurter) and
// {"result":"success","base_code","rates"} (open.er-api).
func normalizePayload(p providerPayload) (table, error) {
	if len(p.Rates) == 0 {
		return table{}, errors.New("response has no rates")
	}
	base := p.Base
	if base == "" {
		base = p.From
	}
	if base == "" {
		base = p.BaseCode
	}
	if base == "" {
		base = core.CanonicalCurrency
	}
	base = strings.ToUpper(base)

	rates := make(map[string]decimal.Decimal, len(p.Rates)+1)
	for code, v := range p.Rates {
		rates[strings.ToUpper(code)] = v
	}
	rates[base] = decimal.NewFromInt(1)
	return table{Base: base, Rates: rates}, nil
}

func seedTable() table {
	rates := make(map[string]decimal.Decimal, len(seedRates))
	for code, v := range seedRates {
		d, _ := decimal.NewFromString(v)
		rates[code] = d
	}
	return table{Base: core.CanonicalCurrency, Rates: rates}
}

func (c *Client) loadDisk() (diskEntry, bool) {
	if c.cachePath == "" {
		return diskEntry{}, false
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return diskEntry{}, false
	}
	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Rates) == 0 {
		return diskEntry{}, false
	}
	return entry, true
}

func (c *Client) saveDisk(tbl table) {
	if c.cachePath == "" {
		return
	}
	entry := diskEntry{FetchedAt: time.Now(), Base: tbl.Base, Rates: tbl.Rates}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		slog.Warn("Cannot create rate cache directory", "path", c.cachePath, "error", err)
		return
	}
	if err := os.WriteFile(c.cachePath, data, 0644); err != nil {
		slog.Warn("Cannot write rate cache", "path", c.cachePath, "error", err)
	}
}

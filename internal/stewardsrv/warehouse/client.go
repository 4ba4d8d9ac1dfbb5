// Package warehouse talks to the warehouse catalog REST API and its SQL
// endpoint. Listing responses are cached for a short TTL so catalog browsing
// does not hammer the warehouse; dataset reads open a connection per call.
package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
)

const maxResponseBytes = 8 << 20

// CatalogInfo is one catalog listed by the warehouse.
type CatalogInfo struct {
	Name string `json:"name"`
}

// SchemaInfo is one schema within a catalog.
type SchemaInfo struct {
	Name        string `json:"name"`
	CatalogName string `json:"catalog_name"`
}

// TableInfo is one table or view within a schema.
type TableInfo struct {
	Name      string `json:"name"`
	TableType string `json:"table_type"`
}

// FunctionInfo is one function within a schema.
type FunctionInfo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// Client is an HTTP client for the warehouse catalog API.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewClient creates a warehouse client. A zero cacheTTL disables response
// caching.
func NewClient(baseURL, token string, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		cacheTTL: cacheTTL,
		cache:    make(map[string]cacheEntry),
	}
}

// FromConfig creates a warehouse client from the loaded configuration.
func FromConfig() *Client {
	wc := config.Config().Warehouse
	return NewClient(wc.APIURL, wc.APIToken, config.Config().WarehouseCacheTTL())
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(key string, body []byte) {
	if c.cacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{body: body, expires: time.Now().Add(c.cacheTTL)}
}

// InvalidateCache drops all cached listing responses.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// get performs one GET against the warehouse API. Successful responses are
// cached for the configured TTL. No retries here; the caller decides.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	key := path + "?" + query.Encode()
	if body, ok := c.cached(key); ok {
		return json.Unmarshal(body, out)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build warehouse request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("warehouse request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read warehouse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("warehouse API %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.store(key, body)
	return json.Unmarshal(body, out)
}

// ListCatalogs lists all catalogs in the warehouse.
func (c *Client) ListCatalogs(ctx context.Context) ([]CatalogInfo, error) {
	var out struct {
		Catalogs []CatalogInfo `json:"catalogs"`
	}
	if err := c.get(ctx, "/api/2.1/unity-catalog/catalogs", nil, &out); err != nil {
		return nil, err
	}
	return out.Catalogs, nil
}

// ListSchemas lists the schemas of one catalog.
func (c *Client) ListSchemas(ctx context.Context, catalogName string) ([]SchemaInfo, error) {
	query := url.Values{"catalog_name": []string{catalogName}}
	var out struct {
		Schemas []SchemaInfo `json:"schemas"`
	}
	if err := c.get(ctx, "/api/2.1/unity-catalog/schemas", query, &out); err != nil {
		return nil, err
	}
	return out.Schemas, nil
}

// ListTables lists the tables and views of one schema.
func (c *Client) ListTables(ctx context.Context, catalogName, schemaName string) ([]TableInfo, error) {
	query := url.Values{
		"catalog_name": []string{catalogName},
		"schema_name":  []string{schemaName},
	}
	var out struct {
		Tables []TableInfo `json:"tables"`
	}
	if err := c.get(ctx, "/api/2.1/unity-catalog/tables", query, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}

// ListFunctions lists the functions of one schema.
func (c *Client) ListFunctions(ctx context.Context, catalogName, schemaName string) ([]FunctionInfo, error) {
	query := url.Values{
		"catalog_name": []string{catalogName},
		"schema_name":  []string{schemaName},
	}
	var out struct {
		Functions []FunctionInfo `json:"functions"`
	}
	if err := c.get(ctx, "/api/2.1/unity-catalog/functions", query, &out); err != nil {
		return nil, err
	}
	return out.Functions, nil
}

// Probe verifies the warehouse is reachable, retrying with backoff. This is
// a startup check only; listing calls themselves never retry.
func (c *Client) Probe(ctx context.Context) error {
	return retry.Do(
		func() error {
			_, err := c.ListCatalogs(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("warehouse probe failed, retrying")
		}),
	)
}

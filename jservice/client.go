/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package jservice fetches categories and clues from a jService-compatible
// trivia API and samples them at random.
package jservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL  = "https://jservice.io/api"
	DefaultPoolSize = 100

	maxBodySize = 8 << 20
)

// Cache stores raw response bodies keyed by request URL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	poolSize   int
	logf       func(format string, args ...any)

	mu   sync.Mutex
	rand *rand.Rand
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRand replaces the random source used for sampling.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) {
		c.rand = r
	}
}

// WithPoolSize sets how many categories are listed before sampling ids.
func WithPoolSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithLogger sets a printf-style logger for cache diagnostics.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Client) {
		c.logf = logf
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		poolSize:   DefaultPoolSize,
		logf:       func(string, ...any) {},
		rand:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Categories lists count categories from the service.
func (c *Client) Categories(ctx context.Context, count int) ([]CategorySummary, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))

	var out []CategorySummary
	if err := c.get(ctx, "categories", "/categories", q, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Category fetches one category with every clue it holds.
func (c *Client) Category(ctx context.Context, id int) (Category, error) {
	q := url.Values{}
	q.Set("id", strconv.Itoa(id))

	var raw rawCategory
	if err := c.get(ctx, "category", "/category", q, &raw); err != nil {
		return Category{}, err
	}

	return raw.category(), nil
}

// RandomCategoryIDs picks n distinct category ids from the service's
// category listing.
func (c *Client) RandomCategoryIDs(ctx context.Context, n int) ([]int, error) {
	cats, err := c.Categories(ctx, c.poolSize)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(cats))
	for _, cat := range cats {
		ids = append(ids, cat.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return SampleSize(c.rand, ids, n), nil
}

// RandomCategory fetches category id and keeps m of its clues chosen at
// random, or all of them when it has fewer than m.
func (c *Client) RandomCategory(ctx context.Context, id, m int) (Category, error) {
	cat, err := c.Category(ctx, id)
	if err != nil {
		return Category{}, err
	}

	c.mu.Lock()
	cat.Clues = SampleSize(c.rand, cat.Clues, m)
	c.mu.Unlock()

	return cat, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, v any) error {
	endpoint := c.baseURL + path + "?" + q.Encode()

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, endpoint)
		if err != nil {
			c.logf("CACHE: Lookup of %s failed: %v", endpoint, err)
		}
		if ok {
			if err := json.Unmarshal(body, v); err == nil {
				return nil
			}
			c.logf("CACHE: Discarding undecodable entry for %s", endpoint)
		}
	}

	body, err := c.fetch(ctx, op, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &FetchError{Op: op, URL: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, endpoint, body); err != nil {
			c.logf("CACHE: Store of %s failed: %v", endpoint, err)
		}
	}

	return nil
}

func (c *Client) fetch(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Op: op, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &FetchError{Op: op, URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Op: op, URL: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}

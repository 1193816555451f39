// Package catalog provides a resilient client for the listing catalog's
// search API and the snapshot fetcher the watcher drives
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "propwatch/internal/platform/errors"
	"propwatch/internal/platform/logger"
)

const (
	baseURLDefault = "https://ll8iz711cs-dsn.algolia.net/1/indexes"
	indexDefault   = "bayut-sa-production-ads-city-level-score-ar"
	agentDefault   = "Algolia for JavaScript (3.35.1); Browser (lite)"
	siteDefault    = "https://www.bayut.sa"

	defaultTimeout     = 30 * time.Second
	defaultUA          = "propwatch-watcher"
	defaultMaxRetry    = 5
	defaultRetryBase   = 500 * time.Millisecond
	defaultHitsPerPage = 25
	defaultCurrency    = "SAR"
)

// retrievedAttrs is the attribute set requested per hit; everything the
// listing mapping consumes plus identity fields for debugging
var retrievedAttrs = []string{
	"externalID", "objectID", "title", "title_l1", "category", "purpose",
	"price", "hidePrice", "rentFrequency", "rooms", "baths", "area",
	"agency", "contactName", "permitNumber", "referenceNumber",
	"isVerified", "slug", "location", "createdAt", "updatedAt",
}

// Options configures the Client
type Options struct {
	BaseURL string
	Index   string
	AppID   string
	APIKey  string
	Agent   string

	// SiteURL is the public site root used to build listing URLs
	SiteURL string

	// Currency tags every mapped price; the search API never reports one
	Currency string

	UserAgent   string
	Timeout     time.Duration
	HitsPerPage int

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal search API client with retry and rate limit handling
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Index == "" {
		o.Index = indexDefault
	}
	if o.Agent == "" {
		o.Agent = agentDefault
	}
	if o.SiteURL == "" {
		o.SiteURL = siteDefault
	}
	if o.Currency == "" {
		o.Currency = defaultCurrency
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.HitsPerPage <= 0 {
		o.HitsPerPage = defaultHitsPerPage
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("catalog"),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Currency returns the currency tag applied to mapped listings
func (c *Client) Currency() string { return c.opts.Currency }

// SearchPage runs one paged search and decodes the first result block.
// query is the free-text query, filters the catalog filter expression,
// page is zero based
func (c *Client) SearchPage(ctx context.Context, query, filters string, page int) (Page, error) {
	body, err := c.searchBody(query, filters, page)
	if err != nil {
		return Page{}, err
	}
	raw, err := c.post(ctx, "/*/queries", body)
	if err != nil {
		return Page{}, err
	}
	return decodePage(raw)
}

// SearchPageRaw is SearchPage without decoding; the page cache stores the
// raw body so replays see exactly what the API returned
func (c *Client) SearchPageRaw(ctx context.Context, query, filters string, page int) ([]byte, error) {
	body, err := c.searchBody(query, filters, page)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "/*/queries", body)
}

func (c *Client) searchBody(query, filters string, page int) ([]byte, error) {
	params := url.Values{}
	params.Set("hitsPerPage", strconv.Itoa(c.opts.HitsPerPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("facets", "*")
	params.Set("attributesToRetrieve", strings.Join(retrievedAttrs, ","))
	if filters != "" {
		params.Set("filters", filters)
	}

	req := searchRequest{
		Requests: []searchQuery{{
			IndexName: c.opts.Index,
			Query:     query,
			Params:    params.Encode(),
		}},
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "catalog encode search request")
	}
	return b, nil
}

// post issues the request with auth headers, retries, and rate limit handling
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	fullURL := c.opts.BaseURL + path
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "catalog new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Algolia-Application-Id", c.opts.AppID)
		req.Header.Set("X-Algolia-API-Key", c.opts.APIKey)
		req.Header.Set("X-Algolia-Agent", c.opts.Agent)

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "catalog do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("catalog transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		retryAfter := atoi(resp.Header.Get("Retry-After"))
		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("retry_after_s", retryAfter).
			Msg("catalog http response")

		switch {
		case resp.StatusCode == http.StatusOK:
			b, rerr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			cerr := resp.Body.Close()
			if rerr != nil {
				return nil, perr.Wrapf(rerr, perr.ErrorCodeUnavailable, "catalog read body failed")
			}
			if cerr != nil {
				c.log.Error().Err(cerr).Str("path", path).Msg("catalog close body failed")
			}
			return b, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := time.Duration(retryAfter) * time.Second
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, &StatusError{Status: resp.StatusCode, Err: perr.Newf(perr.ErrorCodeTooManyRequests, "catalog rate limited")}
			}
			c.log.Warn().Dur("sleep", wait).Msg("catalog rate limited backing off")
			_ = drainAndClose(resp.Body)
			c.sleep(wait)
			attempts++
			continue

		case resp.StatusCode == http.StatusBadGateway,
			resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, &StatusError{Status: resp.StatusCode, Err: perr.Newf(perr.ErrorCodeUnavailable, "catalog transient server error")}
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("catalog transient error retrying")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue

		default:
			// read a small tail for diagnostics then return
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, &StatusError{
				Status: resp.StatusCode,
				Body:   string(tail),
				Err:    perr.Newf(perr.ErrorCodeUnknown, "catalog unexpected status %d", resp.StatusCode),
			}
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	// simple exponential with cap
	ms := int64(d / time.Millisecond)
	ms = ms << uint(attempt)
	max := int64(30 * time.Second / time.Millisecond)
	if ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(s)
	return i
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

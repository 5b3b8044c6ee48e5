// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package news provides a newsdata.io client with tolerant article
// normalization across provider payload variants.
package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmolins/convo/pkg/errors"
	"github.com/dmolins/convo/pkg/resilience"
)

// DefaultLimit is applied when the caller does not set one.
const DefaultLimit = 5

// Article is the canonical normalized article shape.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	PubDate     string `json:"pubDate"`
	Language    string `json:"language"`
}

// SearchOptions are the optional filters for keyword search.
type SearchOptions struct {
	Language string
	FromDate string // ISO date YYYY-MM-DD
	ToDate   string // ISO date YYYY-MM-DD
	Limit    int
}

// HeadlineOptions are the optional filters for top headlines.
type HeadlineOptions struct {
	Country  string
	Category string
	Language string
	Limit    int
}

// Client talks to a newsdata.io-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      resilience.RetryConfig
}

// NewClient creates a news client. The API key may be empty at construction
// time; calls fail with a CONFIG_ERROR when it is still missing at use.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://newsdata.io/api/1"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      resilience.DefaultRetryConfig(),
	}
}

// Search performs a keyword search with optional filters, truncating to the
// limit client-side; the provider is not trusted to honor limit itself.
func (c *Client) Search(ctx context.Context, q string, opts SearchOptions) ([]Article, error) {
	params := url.Values{}
	params.Set("q", q)
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if opts.FromDate != "" {
		params.Set("from", opts.FromDate)
	}
	if opts.ToDate != "" {
		params.Set("to", opts.ToDate)
	}
	return c.fetchArticles(ctx, "news", params, opts.Limit)
}

// TopHeadlines fetches recent headlines from the latest endpoint.
func (c *Client) TopHeadlines(ctx context.Context, opts HeadlineOptions) ([]Article, error) {
	params := url.Values{}
	if opts.Country != "" {
		params.Set("country", opts.Country)
	}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	return c.fetchArticles(ctx, "latest", params, opts.Limit)
}

type listResponse struct {
	Results  []json.RawMessage `json:"results"`
	Articles []json.RawMessage `json:"articles"`
}

func (c *Client) fetchArticles(ctx context.Context, endpoint string, params url.Values, limit int) ([]Article, error) {
	if c.apiKey == "" {
		return nil, errors.New(errors.CodeConfig, "news api key is not configured", nil)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	var payload listResponse
	err := c.retry.Do(ctx, func() error {
		return c.getJSON(ctx, reqURL, &payload)
	})
	if err != nil {
		return nil, err
	}

	raw := payload.Results
	if len(raw) == 0 {
		raw = payload.Articles
	}

	articles := make([]Article, 0, len(raw))
	for _, r := range raw {
		articles = append(articles, normalizeArticle(r))
		if len(articles) == limit {
			break
		}
	}
	return articles, nil
}

// rawArticle tolerates the field-name variants seen across provider
// payloads: link vs url, pubDate vs pubDateISO vs published_at, source as
// an object with a name vs a plain string.
type rawArticle struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	URL         string          `json:"url"`
	Source      json.RawMessage `json:"source"`
	PubDate     string          `json:"pubDate"`
	PubDateISO  string          `json:"pubDateISO"`
	PublishedAt string          `json:"published_at"`
	Language    string          `json:"language"`
}

func normalizeArticle(data json.RawMessage) Article {
	var ra rawArticle
	_ = json.Unmarshal(data, &ra)

	link := ra.Link
	if link == "" {
		link = ra.URL
	}

	pubDate := ra.PubDate
	if pubDate == "" {
		pubDate = ra.PubDateISO
	}
	if pubDate == "" {
		pubDate = ra.PublishedAt
	}

	return Article{
		Title:       ra.Title,
		Description: ra.Description,
		Link:        link,
		Source:      normalizeSource(ra.Source),
		PubDate:     pubDate,
		Language:    ra.Language,
	}
}

func normalizeSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.New(errors.CodeProvider, "building news request", err).
			WithRecoverable(false)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are transient; let the retry policy have them.
		return errors.New(errors.CodeProvider, "news provider call failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeProvider, "news provider returned status "+strconv.Itoa(resp.StatusCode), nil).
			WithContext("status", resp.StatusCode).
			WithRecoverable(retryableStatus(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(errors.CodeProvider, "decoding news response", err).
			WithRecoverable(false)
	}
	return nil
}

// retryableStatus reports whether a status class is worth retrying:
// 429 and 5xx only. Client errors are never retried.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Package webexcalling implements the rule store client against the
// Webex Calling translation pattern API.
package webexcalling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

const patternsPath = "/telephony/config/callRouting/translationPatterns"

// API level values for translation patterns
const (
	levelOrganization = "ORGANIZATION"
	levelLocation     = "LOCATION"
)

// Config contains configuration for the Webex Calling client
type Config struct {
	BaseURL       string        `koanf:"base_url"`
	Token         string        `koanf:"token"`
	Timeout       time.Duration `koanf:"timeout"`
	RateLimitRPS  int           `koanf:"rate_limit_rps"`
	MaxRetries    uint64        `koanf:"max_retries"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	PageSize      int           `koanf:"page_size"`
}

// Client is a bearer-token HTTP client for the translation pattern API.
// Transient failures (network, 429, 5xx) are retried with exponential
// backoff; 4xx responses are terminal. Retry policy lives here, not in
// the reconciler.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new Webex Calling client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://webexapis.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 10
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 500 * time.Millisecond
	}
	if config.PageSize == 0 {
		config.PageSize = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateLimitRPS*2),
		logger:  logger,
	}
}

type patternPayload struct {
	Name               string `json:"name"`
	MatchingPattern    string `json:"matchingPattern"`
	ReplacementPattern string `json:"replacementPattern"`
	Level              string `json:"level,omitempty"`
	LocationID         string `json:"locationId,omitempty"`
}

type patternRecord struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	MatchingPattern    string `json:"matchingPattern"`
	ReplacementPattern string `json:"replacementPattern"`
	Level              string `json:"level"`
	LocationID         string `json:"locationId"`
}

type listPatternsResponse struct {
	TranslationPatterns []patternRecord `json:"translationPatterns"`
}

type listLocationsResponse struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// List returns all translation patterns in scope, walking the paginated
// collection to the end.
func (c *Client) List(ctx context.Context, scope dialplan.Scope) ([]dialplan.RemotePattern, error) {
	var patterns []dialplan.RemotePattern
	for start := 0; ; start += c.config.PageSize {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.config.PageSize))
		query.Set("start", strconv.Itoa(start))
		if scope.Level == dialplan.ScopeLocation {
			query.Set("limitToLocationId", scope.LocationID)
		}

		var page listPatternsResponse
		if err := c.do(ctx, http.MethodGet, patternsPath, query, nil, &page); err != nil {
			return nil, err
		}
		for _, rec := range page.TranslationPatterns {
			if inScope(rec, scope) {
				patterns = append(patterns, toRemote(rec))
			}
		}
		if len(page.TranslationPatterns) < c.config.PageSize {
			break
		}
	}
	c.logger.Debug("listed translation patterns",
		zap.Stringer("scope", scope), zap.Int("count", len(patterns)))
	return patterns, nil
}

// Create provisions a new translation pattern in scope
func (c *Client) Create(ctx context.Context, scope dialplan.Scope, pattern dialplan.TranslationPattern) (dialplan.RemotePattern, error) {
	var created patternRecord
	err := c.do(ctx, http.MethodPost, patternsPath, nil, payloadFor(scope, pattern), &created)
	if err != nil {
		return dialplan.RemotePattern{}, err
	}
	remote := toRemote(created)
	if remote.Name == "" {
		// some deployments return only the new ID
		remote.TranslationPattern = pattern
	}
	return remote, nil
}

// Update replaces the content of an existing pattern
func (c *Client) Update(ctx context.Context, scope dialplan.Scope, id string, pattern dialplan.TranslationPattern) error {
	return c.do(ctx, http.MethodPut, patternsPath+"/"+url.PathEscape(id),
		scopeQuery(scope), payloadFor(scope, pattern), nil)
}

// Delete removes an existing pattern
func (c *Client) Delete(ctx context.Context, scope dialplan.Scope, id string) error {
	return c.do(ctx, http.MethodDelete, patternsPath+"/"+url.PathEscape(id),
		scopeQuery(scope), nil, nil)
}

// ResolveLocation resolves a location name to its ID. The name must
// match exactly one location.
func (c *Client) ResolveLocation(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("name", name)

	var locations listLocationsResponse
	if err := c.do(ctx, http.MethodGet, "/locations", query, nil, &locations); err != nil {
		return "", err
	}
	for _, loc := range locations.Items {
		if loc.Name == name {
			return loc.ID, nil
		}
	}
	return "", errors.NewNotFoundError(fmt.Sprintf("location %q", name))
}

func payloadFor(scope dialplan.Scope, pattern dialplan.TranslationPattern) *patternPayload {
	payload := &patternPayload{
		Name:               pattern.Name,
		MatchingPattern:    pattern.MatchPattern,
		ReplacementPattern: pattern.ReplacementPattern,
		Level:              levelOrganization,
	}
	if scope.Level == dialplan.ScopeLocation {
		payload.Level = levelLocation
		payload.LocationID = scope.LocationID
	}
	return payload
}

func scopeQuery(scope dialplan.Scope) url.Values {
	if scope.Level != dialplan.ScopeLocation {
		return nil
	}
	query := url.Values{}
	query.Set("locationId", scope.LocationID)
	return query
}

func inScope(rec patternRecord, scope dialplan.Scope) bool {
	if scope.Level == dialplan.ScopeLocation {
		return rec.LocationID == scope.LocationID
	}
	return rec.Level != levelLocation
}

func toRemote(rec patternRecord) dialplan.RemotePattern {
	scope := dialplan.OrganizationScope()
	if rec.Level == levelLocation {
		scope = dialplan.LocationScope(rec.LocationID)
	}
	return dialplan.RemotePattern{
		ID: rec.ID,
		TranslationPattern: dialplan.TranslationPattern{
			Name:               rec.Name,
			MatchPattern:       rec.MatchingPattern,
			ReplacementPattern: rec.ReplacementPattern,
			Scope:              scope,
		},
	}
}

// do performs one API call with rate limiting and retry. The request
// body is marshaled once so retries replay identical bytes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	requestURL := c.config.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("HTTP %d from %s %s", resp.StatusCode, method, path)
		case resp.StatusCode >= 400:
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("HTTP %d from %s %s: %s",
				resp.StatusCode, method, path, bytes.TrimSpace(detail)))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding response from %s %s: %w", method, path, err))
			}
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInterval
	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.config.MaxRetries), ctx))
}

// Package localityguide implements the locality data source on top of
// localcallingguide.com, which publishes the set of NPA/NXXes local to a
// given exchange as an XML feed.
package localityguide

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

const serviceName = "localcallingguide"

// Config contains configuration for the locality guide client
type Config struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimitRPS int           `koanf:"rate_limit_rps"`
}

// Client queries the local prefix feed. Safe for use by a single run;
// the limiter keeps request rates within the site's robot policy.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new locality guide client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.localcallingguide.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 2
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

// Feed shape: the document root wraps an lca-data element holding one
// prefix element per local NPA/NXX. A top level error element replaces
// lca-data when the lookup failed.
type lookupResponse struct {
	Error    string        `xml:"error"`
	Prefixes []prefixEntry `xml:"lca-data>prefix"`
}

type prefixEntry struct {
	NPA  string `xml:"npa"`
	NXX  string `xml:"nxx"`
	Toll string `xml:"toll"`
}

// LookupLocalExchanges returns the exchanges local to the home NPA/NXX.
// Unreachable service, non-200 responses and unparseable content all
// surface as DATA_SOURCE_UNAVAILABLE; an empty (but well formed) result
// is returned as-is and rejected later by the classifier.
func (c *Client) LookupLocalExchanges(ctx context.Context, home dialplan.NpaNxx) ([]dialplan.LocalityRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("npa", home.Npa())
	query.Set("nxx", home.Nxx())
	lookupURL := fmt.Sprintf("%s/xmllocalprefix.php?%s", c.config.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, unavailable("failed to build request").WithCause(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unavailable("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("reading response failed").WithCause(err)
	}

	var parsed lookupResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, unavailable("unparseable response").WithCause(err)
	}
	if parsed.Error != "" {
		return nil, unavailable(parsed.Error)
	}

	records := make([]dialplan.LocalityRecord, 0, len(parsed.Prefixes))
	for _, entry := range parsed.Prefixes {
		npanxx, err := dialplan.NewNpaNxx(entry.NPA, entry.NXX)
		if err != nil {
			return nil, unavailable(
				fmt.Sprintf("malformed prefix entry %s/%s", entry.NPA, entry.NXX)).WithCause(err)
		}
		records = append(records, dialplan.LocalityRecord{
			NpaNxx: npanxx,
			IsToll: parseToll(entry.Toll),
		})
	}

	c.logger.Debug("local prefix lookup complete",
		zap.Stringer("home", home),
		zap.Int("prefixes", len(records)))
	return records, nil
}

func parseToll(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "1", "true":
		return true
	default:
		return false
	}
}

func unavailable(message string) *errors.AppError {
	return errors.NewExternalError(errors.CodeDataSourceUnavailable, serviceName, message)
}

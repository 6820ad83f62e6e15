// Package imagery fetches NASA's Astronomy Picture of the Day for a calendar day.
package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chrissnell/lunarphase/pkg/lunar"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the APOD API endpoint
	DefaultEndpoint = "https://api.nasa.gov/planetary/apod"
	// DemoKey is NASA's shared, heavily rate-limited key
	DemoKey = "DEMO_KEY"

	maxResponseSize = 1 << 20
)

// ArchiveStart is the first day the APOD archive has an entry for
var ArchiveStart = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

var (
	ErrFutureDate    = errors.New("date is in the future")
	ErrBeforeArchive = errors.New("date is before the APOD archive start (1995-06-16)")
	ErrNotFound      = errors.New("no APOD entry for date")
	ErrRateLimited   = errors.New("APOD rate limit exceeded")
	ErrIncomplete    = errors.New("APOD entry has no media url")
	ErrStatus        = errors.New("unexpected status from APOD")
)

// Media is one APOD entry
type Media struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	MediaType   string `json:"media_type"`
	Date        string `json:"date"`
	Copyright   string `json:"copyright,omitempty"`
}

// ValidateDate rejects days the archive cannot have. Only the calendar day of
// date and today are compared.
func ValidateDate(date, today time.Time) error {
	day := calendarDay(date)
	if day.After(calendarDay(today)) {
		return fmt.Errorf("%w: %s", ErrFutureDate, lunar.FormatDate(date))
	}
	if day.Before(ArchiveStart) {
		return fmt.Errorf("%w: %s", ErrBeforeArchive, lunar.FormatDate(date))
	}
	return nil
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Client queries the APOD API
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewClient creates an APOD client. Empty endpoint and apiKey fall back to
// DefaultEndpoint and DemoKey.
func NewClient(endpoint, apiKey string, httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if apiKey == "" {
		apiKey = DemoKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   httpClient,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch returns the APOD entry for the calendar day of date
func (c *Client) Fetch(ctx context.Context, date time.Time) (*Media, error) {
	if err := ValidateDate(date, c.now()); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid APOD endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("date", lunar.FormatDate(date))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.apiKey == DemoKey {
		c.logger.Debug("using NASA DEMO_KEY; set NASA_API_KEY for higher rate limits")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error fetching APOD: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lunar.FormatDate(date))
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var media Media
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&media); err != nil {
		return nil, fmt.Errorf("error decoding APOD response: %w", err)
	}
	if media.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, lunar.FormatDate(date))
	}
	return &media, nil
}

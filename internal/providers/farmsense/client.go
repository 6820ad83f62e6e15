// Package farmsense fetches moon phase readings from the FarmSense moon phase API.
package farmsense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chrissnell/lunarphase/internal/geo"
	"github.com/chrissnell/lunarphase/internal/phasedata"
	"github.com/chrissnell/lunarphase/pkg/lunar"
	"go.uber.org/zap"
)

// DefaultEndpoint is the public FarmSense moon phase endpoint
const DefaultEndpoint = "https://api.farmsense.net/v1/moonphases/"

const maxResponseSize = 1 << 20

var (
	// ErrStatus is returned for any non-2xx reply
	ErrStatus = errors.New("unexpected status from moon phase API")
	// ErrRateLimited wraps ErrStatus for 429 replies
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrStatus)
	// ErrMalformed is returned when the reply cannot be turned into a reading
	ErrMalformed = errors.New("malformed moon phase response")
)

// moonPhase is one element of the API's JSON array
type moonPhase struct {
	Error           int      `json:"Error"`
	ErrorMsg        string   `json:"ErrorMsg"`
	TargetDate      string   `json:"TargetDate"`
	Moon            []string `json:"Moon"`
	Age             *float64 `json:"Age"`
	Phase           string   `json:"Phase"`
	Distance        *float64 `json:"Distance"`
	Illumination    *float64 `json:"Illumination"`
	AngularDiameter *float64 `json:"AngularDiameter"`
}

// Client implements phasedata.Provider against FarmSense
type Client struct {
	endpoint string
	client   *http.Client
	logger   *zap.SugaredLogger
}

// NewClient creates a FarmSense client. An empty endpoint uses DefaultEndpoint and
// a nil httpClient gets a 10s timeout client.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, client: httpClient, logger: logger}
}

// FetchPhase asks FarmSense for the moon on the given calendar day at 12:00 UTC.
// FarmSense is geocentric, so loc is ignored.
func (c *Client) FetchPhase(ctx context.Context, date time.Time, loc *geo.Location) (phasedata.Reading, error) {
	y, m, d := date.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return phasedata.Reading{}, fmt.Errorf("invalid moon phase endpoint: %w", err)
	}
	q := u.Query()
	q.Set("d", strconv.FormatInt(noon.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return phasedata.Reading{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf("requesting moon phase for %s from %s", lunar.FormatDate(date), u.Host)
	resp, err := c.client.Do(req)
	if err != nil {
		return phasedata.Reading{}, fmt.Errorf("network error fetching moon phase: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return phasedata.Reading{}, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return phasedata.Reading{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var phases []moonPhase
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&phases); err != nil {
		return phasedata.Reading{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(phases) == 0 {
		return phasedata.Reading{}, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	return toReading(phases[0])
}

func toReading(p moonPhase) (phasedata.Reading, error) {
	if p.Error != 0 {
		return phasedata.Reading{}, fmt.Errorf("%w: API error %d: %s", ErrMalformed, p.Error, p.ErrorMsg)
	}
	if p.Age == nil || p.Illumination == nil {
		return phasedata.Reading{}, fmt.Errorf("%w: missing age or illumination", ErrMalformed)
	}
	if *p.Age < 0 || *p.Illumination < 0 || *p.Illumination > 1 {
		return phasedata.Reading{}, fmt.Errorf("%w: age %v illumination %v", ErrMalformed, *p.Age, *p.Illumination)
	}

	phase := math.Mod(*p.Age/lunar.SynodicMonth, 1)
	return phasedata.Reading{
		Phase:               phase,
		IlluminationPercent: *p.Illumination * 100,
		DistanceKm:          p.Distance,
		AngularDiameterDeg:  p.AngularDiameter,
		PhaseNameRaw:        p.Phase,
	}, nil
}

var _ phasedata.Provider = (*Client)(nil)

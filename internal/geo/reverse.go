package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize caps how much of a geocoder reply is read
const maxResponseSize = 1 << 20

// ReverseGeocoder resolves coordinates to a place name
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// BigDataCloudClient queries the BigDataCloud client-side reverse geocoding API
type BigDataCloudClient struct {
	endpoint string
	language string
	client   *http.Client
	logger   *zap.SugaredLogger
}

type bigDataCloudResponse struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
}

// NewBigDataCloudClient creates a reverse geocoder. A nil httpClient gets a 5s timeout client.
func NewBigDataCloudClient(endpoint, language string, httpClient *http.Client, logger *zap.SugaredLogger) *BigDataCloudClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &BigDataCloudClient{
		endpoint: endpoint,
		language: language,
		client:   httpClient,
		logger:   logger,
	}
}

// ReverseGeocode returns the most specific place name available: city, then locality, then country
func (c *BigDataCloudClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid geocode endpoint: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("localityLanguage", c.language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("network error during reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder returned unexpected status: %d", resp.StatusCode)
	}

	var body bigDataCloudResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return "", fmt.Errorf("error decoding geocoder response: %w", err)
	}

	switch {
	case body.City != "":
		return body.City, nil
	case body.Locality != "":
		return body.Locality, nil
	case body.CountryName != "":
		return body.CountryName, nil
	}
	return "", fmt.Errorf("geocoder returned no place name for %.4f,%.4f", lat, lon)
}

// Resolve builds a Location for the coordinates, naming it with the geocoder when possible.
// Geocoding failures keep the coordinates and leave City empty.
func Resolve(ctx context.Context, geocoder ReverseGeocoder, lat, lon float64, timezone string, logger *zap.SugaredLogger) Location {
	loc := Location{Latitude: lat, Longitude: lon, Timezone: timezone}
	if geocoder == nil {
		return loc
	}

	city, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warnf("reverse geocode of %.4f,%.4f failed: %v", lat, lon, err)
		return loc
	}
	loc.City = city
	return loc
}

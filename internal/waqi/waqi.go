// Package waqi fetches live air-quality observations from the World Air
// Quality Index map API.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lmackenzie/smokewatch/internal/aqi"
	"github.com/lmackenzie/smokewatch/internal/geomatch"
	"github.com/lmackenzie/smokewatch/internal/httputil"
	"github.com/lmackenzie/smokewatch/internal/metrics"
	"github.com/lmackenzie/smokewatch/internal/models"
)

const defaultBaseURL = "https://api.waqi.info"

// Client queries the WAQI bounding-box endpoint and converts reported AQI
// values to µg/m³. Retries with exponential backoff on rate limiting; all
// other failures are permanent for the attempt.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: httputil.NewClient(),
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

type boundsResponse struct {
	Status string        `json:"status"`
	Data   []boundsEntry `json:"data"`
}

type boundsEntry struct {
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	AQI     flexAQI  `json:"aqi"`
	Station struct {
		Name string `json:"name"`
	} `json:"station"`
}

// flexAQI tolerates the API returning AQI as a number, a numeric string, or
// the placeholder "-" for stations with no current data.
type flexAQI struct {
	value int
	valid bool
}

func (f *flexAQI) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		f.value = n
		f.valid = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			f.value = v
			f.valid = true
		}
		return nil
	}
	// Unknown shape: leave invalid rather than failing the whole payload.
	return nil
}

// FetchBounds returns observations within a geographic rectangle, already
// converted to µg/m³. Entries with missing or negative AQI are dropped.
func (c *Client) FetchBounds(ctx context.Context, b geomatch.Bounds) ([]models.Observation, error) {
	u := fmt.Sprintf("%s/v2/map/bounds?%s", c.baseURL, url.Values{
		"latlng":   {fmt.Sprintf("%f,%f,%f,%f", b.Lat1, b.Lon1, b.Lat2, b.Lon2)},
		"networks": {"all"},
		"token":    {c.token},
	}.Encode())

	var body []byte
	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", httputil.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.WAQIAPICallsTotal.WithLabelValues("bounds", "error").Inc()
			return backoff.Permanent(fmt.Errorf("fetch bounds: %w", err))
		}
		defer resp.Body.Close()

		metrics.WAQIAPILatency.WithLabelValues("bounds").Observe(time.Since(start).Seconds())
		metrics.WAQIAPICallsTotal.WithLabelValues("bounds", strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch bounds: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var data boundsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data.Status != "ok" {
		return nil, fmt.Errorf("waqi status %q", data.Status)
	}

	var observations []models.Observation
	for _, entry := range data.Data {
		if !entry.AQI.valid || entry.AQI.value < 0 {
			continue
		}
		observations = append(observations, models.Observation{
			Lat:  entry.Lat,
			Lon:  entry.Lon,
			PM25: aqi.ToConcentration(entry.AQI.value),
			Name: entry.Station.Name,
		})
	}
	return observations, nil
}

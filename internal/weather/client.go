// Package weather implements the WeatherSource boundary against an
// OpenWeatherMap-compatible provider. All transport failures, non-2xx
// statuses, and malformed payloads surface as a single fetch_failed error
// kind; the pipeline never distinguishes sub-causes.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"umbrella/internal/external"
	"umbrella/internal/types"
)

// DefaultBaseURL is the stock provider endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// DefaultTimeout bounds one provider round trip. The source app never capped
// the fetch; 15s is the applied default.
const DefaultTimeout = 15 * time.Second

// maxResponseBody limits how much of a provider response is read (1 MB).
const maxResponseBody = 1 << 20

// Compile-time assertion that Client implements types.WeatherSource.
var _ types.WeatherSource = (*Client)(nil)

// Client is the OpenWeatherMap-backed WeatherSource. Requests go through the
// shared external.Client for circuit breaking and retries.
type Client struct {
	apiKey   types.SecretString
	baseURL  string
	language string
	http     *external.Client
	logger   *slog.Logger
}

// ClientConfig holds the configuration for creating a weather Client.
type ClientConfig struct {
	APIKey   types.SecretString
	BaseURL  string
	Language string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewClient creates a weather Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		language: cfg.Language,
		http: external.NewClient(
			&http.Client{Timeout: timeout},
			"weather-provider",
			external.DefaultRetryPolicy(),
			"umbrella/1.0",
		),
		logger: logger,
	}
}

// FetchCurrent fetches and normalizes the current conditions at a coordinate.
func (c *Client) FetchCurrent(ctx context.Context, coord types.Coordinates) (types.WeatherReading, error) {
	var dto currentWeatherDTO
	if err := c.get(ctx, "/weather", coord, &dto); err != nil {
		return types.WeatherReading{}, err
	}
	return mapCurrent(dto), nil
}

// FetchForecast fetches the 3-hour interval short-range forecast at a
// coordinate.
func (c *Client) FetchForecast(ctx context.Context, coord types.Coordinates) ([]types.ForecastPoint, error) {
	var dto forecastDTO
	if err := c.get(ctx, "/forecast", coord, &dto); err != nil {
		return nil, err
	}
	return mapForecast(dto), nil
}

// get performs one provider GET and decodes the JSON body into out.
// Every failure collapses to fetch_failed.
func (c *Client) get(ctx context.Context, path string, coord types.Coordinates, out any) error {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", coord.Latitude))
	params.Set("lon", fmt.Sprintf("%.4f", coord.Longitude))
	params.Set("appid", c.apiKey.Unmask())
	params.Set("units", "metric")
	if c.language != "" {
		params.Set("lang", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeFetchFailed, "building provider request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "weather fetch failed",
			"path", path,
			"error", err,
		)
		return types.NewAppError(types.ErrCodeFetchFailed, "weather provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.ErrorContext(ctx, "weather fetch returned non-200",
			"path", path,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return types.NewAppError(
			types.ErrCodeFetchFailed,
			fmt.Sprintf("weather provider returned %d", resp.StatusCode),
			nil,
		)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return types.NewAppError(types.ErrCodeFetchFailed, "malformed provider payload", err)
	}
	return nil
}

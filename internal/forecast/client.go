// Package forecast talks to the OpenWeatherMap 5 day / 3 hour forecast API.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/metrics"
)

const (
	DefaultBaseURL  = "https://api.openweathermap.org/data/2.5"
	DefaultAttempts = 10

	maxBody = 1 << 20
)

// Client fetches forecasts. Transient failures are retried immediately up to
// attempts times; auth and not-found answers are final.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	attempts   int
	log        *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithAttempts sets the retry bound; values below 1 mean a single attempt.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.attempts = n
	}
}

// NewClient creates a provider client for apiKey.
func NewClient(apiKey string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: DefaultAttempts,
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Forecast returns the next domain.SampleCount samples for q.
// Exhausted retries yield domain.ErrNoData.
func (c *Client) Forecast(ctx context.Context, q domain.Query) (*domain.ForecastSnapshot, error) {
	resp, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	snap, err := resp.snapshot()
	if err != nil {
		metrics.IncFetch("short")
		c.log.Warn("forecast payload too short", zap.Int("entries", len(resp.List)), queryField(q))
		return nil, err
	}
	return snap, nil
}

// LookupCity validates a city name and returns its metadata.
func (c *Client) LookupCity(ctx context.Context, name string) (domain.Place, error) {
	resp, err := c.fetch(ctx, domain.Query{City: name})
	if err != nil {
		return domain.Place{}, err
	}
	return resp.City.place(), nil
}

// LookupCoords resolves coordinates to a place name.
func (c *Client) LookupCoords(ctx context.Context, lat, lon float64) (domain.Place, error) {
	resp, err := c.fetch(ctx, domain.Query{Lat: lat, Lon: lon, ByCoords: true})
	if err != nil {
		return domain.Place{}, err
	}
	p := resp.City.place()
	// Keep the caller's precise coordinates rather than the station's.
	p.Lat, p.Lon = lat, lon
	return p, nil
}

func (c *Client) fetch(ctx context.Context, q domain.Query) (*forecastResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.do(ctx, q)
		switch {
		case err == nil:
			metrics.IncFetch("ok")
			return resp, nil
		case errors.Is(err, domain.ErrAuth):
			metrics.IncFetch("auth")
			c.log.Error("weather provider rejected credential", zap.Error(err))
			return nil, err
		case errors.Is(err, domain.ErrLocationNotFound):
			metrics.IncFetch("not_found")
			c.log.Info("location not found", queryField(q))
			return nil, err
		default:
			metrics.IncFetch("transient")
			c.log.Warn("forecast fetch failed",
				zap.Error(err), zap.Int("attempt", attempt), zap.Int("of", c.attempts), queryField(q))
			lastErr = err
		}
	}
	metrics.IncFetch("no_data")
	c.log.Error("forecast retries exhausted", zap.Int("attempts", c.attempts), queryField(q))
	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrNoData, c.attempts, lastErr)
}

func (c *Client) do(ctx context.Context, q domain.Query) (*forecastResponse, error) {
	params := url.Values{}
	if q.ByCoords {
		params.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	} else {
		params.Set("q", q.City)
	}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	reqURL := c.baseURL + "/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var fr forecastResponse
	decodeErr := json.Unmarshal(body, &fr)
	status := string(fr.Cod)
	if decodeErr != nil || status == "" {
		status = strconv.Itoa(resp.StatusCode)
	}

	switch status {
	case "200":
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
		}
		return &fr, nil
	case "401":
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, fr.Message)
	case "404":
		return nil, fmt.Errorf("%w: %v", domain.ErrLocationNotFound, fr.Message)
	default:
		return nil, fmt.Errorf("weather API returned status %s", status)
	}
}

func queryField(q domain.Query) zap.Field {
	if q.ByCoords {
		return zap.String("query", fmt.Sprintf("%.4f,%.4f", q.Lat, q.Lon))
	}
	return zap.String("query", q.City)
}

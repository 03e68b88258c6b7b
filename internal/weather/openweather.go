package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultURL     = "http://api.openweathermap.org/data/2.5/weather"
	DefaultTimeout = 10 * time.Second
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrNoAPIKey     = errors.New("weather api key not set")
)

// Report is the current weather in a city. Temperatures are in Celsius.
type Report struct {
	City        string
	Condition   string
	Temperature float64
	FeelsLike   float64
	Humidity    int
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Message string `json:"message"`
}

// Client talks to the OpenWeatherMap current weather endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient uses httpClient for requests; nil means a plain client with
// DefaultTimeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

func (c *Client) Current(ctx context.Context, city string) (Report, error) {
	if c.apiKey == "" {
		return Report{}, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("build request: %w", err)
	}

	log.Debug("Fetching weather", "city", city)

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("get weather: %w", err)
	}
	defer resp.Body.Close()

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return Report{}, fmt.Errorf("%q: %w", city, ErrCityNotFound)
		}
		return Report{}, fmt.Errorf("decode weather (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Report{}, fmt.Errorf("%q: %w", city, ErrCityNotFound)
	case resp.StatusCode != http.StatusOK:
		return Report{}, fmt.Errorf("weather service: status %d: %s", resp.StatusCode, body.Message)
	}

	r := Report{
		City:        body.Name,
		Temperature: body.Main.Temp,
		FeelsLike:   body.Main.FeelsLike,
		Humidity:    body.Main.Humidity,
	}
	if r.City == "" {
		r.City = city
	}
	if len(body.Weather) > 0 {
		r.Condition = body.Weather[0].Description
	}

	return r, nil
}

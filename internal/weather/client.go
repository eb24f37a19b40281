package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Client handles HTTP requests to the weather API
type Client struct {
	config     config.WeatherConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(cfg config.WeatherConfig, log *logger.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		logger: log.Named("weather-client"),
	}
}

// FetchMETAR fetches the latest METAR for the specified airport
func (c *Client) FetchMETAR(airportCode string) (*METARResponse, error) {
	url := fmt.Sprintf("%s/metar?ids=%s&format=json", c.config.APIBaseURL, airportCode)

	var result []METARResponse // API returns an array
	if err := c.fetchWithRetry(url, airportCode, &result); err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no METAR data found for %s", airportCode)
	}

	// First entry is the latest observation
	return &result[0], nil
}

// fetchWithRetry performs an HTTP request with retry logic and exponential backoff
func (c *Client) fetchWithRetry(url string, airportCode string, target interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying weather data fetch",
				logger.String("airport", airportCode),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))
			time.Sleep(backoffDuration)
		}

		resp, err := c.httpClient.Get(url)
		if err != nil {
			lastErr = fmt.Errorf("error making request to weather API: %w", err)
			c.logger.Warn("Weather API request failed, may retry",
				logger.String("airport", airportCode),
				logger.Error(err),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			c.logger.Warn("Weather API returned non-OK status, may retry",
				logger.String("airport", airportCode),
				logger.Int("status_code", resp.StatusCode),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("error decoding weather data: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("weather fetch failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

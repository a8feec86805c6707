// Package geocode resolves postal addresses to coordinates with the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/models"
)

//go:generate mockgen -source=geocode.go -destination=mocks/mock_geocode.go -package=mocks

var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type Client struct {
	cfg        config.GeocodingConfig
	httpClient *http.Client
}

func NewClient(cfg config.GeocodingConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Geocode returns the first result for address.
func (c *Client) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, sendError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("geocoding: unexpected status code: %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to decode response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return models.Coordinates{}, ErrAddressNotFound
	default:
		return models.Coordinates{}, fmt.Errorf("geocoding: %s %s", body.Status, body.ErrorMessage)
	}

	if len(body.Results) == 0 {
		return models.Coordinates{}, ErrAddressNotFound
	}

	loc := body.Results[0].Geometry.Location
	return models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

// sendError drops the request URL, which carries the API key, from transport errors.
func sendError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("failed to send request: %s: %w", urlErr.Op, urlErr.Err)
	}
	return fmt.Errorf("failed to send request: %w", err)
}

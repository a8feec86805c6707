package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/provider/geocode"
)

func TestClient_Geocode(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expected      models.Coordinates
		expectedError error
		errorContains string
	}{
		{
			name:     "first result wins",
			status:   http.StatusOK,
			body:     `{"status":"OK","results":[{"geometry":{"location":{"lat":48.8566,"lng":2.3522}}},{"geometry":{"location":{"lat":1,"lng":1}}}]}`,
			expected: models.Coordinates{Latitude: 48.8566, Longitude: 2.3522},
		},
		{
			name:          "zero results",
			status:        http.StatusOK,
			body:          `{"status":"ZERO_RESULTS","results":[]}`,
			expectedError: geocode.ErrAddressNotFound,
		},
		{
			name:          "request denied",
			status:        http.StatusOK,
			body:          `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`,
			errorContains: "geocoding: REQUEST_DENIED The provided API key is invalid.",
		},
		{
			name:          "http failure",
			status:        http.StatusInternalServerError,
			body:          ``,
			errorContains: "unexpected status code: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "12 rue de la Paix, Paris", r.URL.Query().Get("address"))
				assert.Equal(t, "google-key", r.URL.Query().Get("key"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := geocode.NewClient(config.GeocodingConfig{BaseURL: server.URL, APIKey: "google-key", Timeout: 5})
			coords, err := client.Geocode(context.Background(), "12 rue de la Paix, Paris")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, coords)
				assert.Equal(t, "(48.8566, 2.3522)", coords.String())
			}
		})
	}
}

func TestClient_Geocode_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := geocode.NewClient(config.GeocodingConfig{BaseURL: server.URL, APIKey: "SECRET-GOOGLE-KEY", Timeout: 5})
	_, err := client.Geocode(context.Background(), "1 rue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
	assert.NotContains(t, err.Error(), "SECRET-GOOGLE-KEY")
	assert.NotContains(t, err.Error(), "1+rue")
}

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://api.greenmap.test/v1"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func markersBody() string {
	return `{
  "plants": [
    {"id": "p1", "latitude": 51.5, "longitude": -0.12, "name": "Oak", "scientificName": "Quercus robur", "imageUrl": "https://img/p1.jpg", "createdById": "u1"}
  ],
  "animals": [
    {"id": "a1", "latitude": 51.51, "longitude": -0.13, "species": "Fox", "imageUrl": "https://img/a1.jpg", "createdById": "u2"}
  ],
  "litters": [
    {"id": "l1", "latitude": 51.52, "longitude": -0.14, "litterType": "Plastic", "afterImg": "https://img/l1.jpg", "cleanedUp": true, "createdById": "u1"}
  ],
  "communityEvents": [
    {"id": "e1", "latitude": 51.53, "longitude": -0.15, "title": "Park cleanup", "imageUrl": "https://img/e1.jpg", "createdById": "u3"}
  ]
}`
}

func TestNew_Defaults(t *testing.T) {
	c := New(testBaseURL + "/")

	assert.Equal(t, testBaseURL, c.baseURL)
	assert.Equal(t, DefaultMarkersPath, c.markersPath)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestNew_Options(t *testing.T) {
	c := New(testBaseURL, WithToken("tok"), WithMarkersPath("map/markers"), WithTimeout(2*time.Second))

	assert.Equal(t, "tok", c.token)
	assert.Equal(t, "/map/markers", c.markersPath)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
}

func TestFetchMarkers_Success(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/markers",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
			return httpmock.NewStringResponse(http.StatusOK, markersBody()), nil
		})

	c := New(testBaseURL, WithToken("secret"))
	resp, err := c.FetchMarkers(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Plants, 1)
	require.Len(t, resp.Animals, 1)
	require.Len(t, resp.Litters, 1)
	require.Len(t, resp.CommunityEvents, 1)
	assert.Equal(t, 4, resp.Total())

	assert.Equal(t, "Oak", resp.Plants[0].Name)
	assert.Equal(t, "Quercus robur", resp.Plants[0].ScientificName)
	assert.Equal(t, "Fox", resp.Animals[0].Species)
	assert.True(t, resp.Litters[0].CleanedUp)
	assert.Equal(t, "https://img/l1.jpg", resp.Litters[0].AfterImg)
	assert.Equal(t, "Park cleanup", resp.CommunityEvents[0].Title)
	assert.InDelta(t, 51.53, resp.CommunityEvents[0].Latitude, 1e-9)
}

func TestFetchMarkers_NoTokenHeader(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/markers",
		func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

	resp, err := New(testBaseURL).FetchMarkers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total())
}

func TestFetchMarkers_HTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/markers",
				httpmock.NewStringResponder(tt.statusCode, "nope"))

			resp, err := New(testBaseURL).FetchMarkers(context.Background())

			require.Error(t, err)
			assert.Nil(t, resp)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.statusCode, statusErr.Code)
			assert.Equal(t, "nope", statusErr.Body)
		})
	}
}

func TestFetchMarkers_InvalidJSON(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/markers",
		httpmock.NewStringResponder(http.StatusOK, `{"plants": [`))

	_, err := New(testBaseURL).FetchMarkers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestFetchMarkers_NetworkError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/markers",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := New(testBaseURL).FetchMarkers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

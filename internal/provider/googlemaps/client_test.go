package googlemaps_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/places"
	"github.com/tripost/backend/internal/provider/googlemaps"
	"github.com/tripost/backend/internal/route"
)

// fakeAPI serves canned JSON per path and records the last query per path.
type fakeAPI struct {
	mu      sync.Mutex
	queries map[string]url.Values
	bodies  map[string]any
}

func newFakeAPI(t *testing.T, bodies map[string]any) (*fakeAPI, *googlemaps.Client) {
	t.Helper()
	f := &fakeAPI{queries: make(map[string]url.Values), bodies: bodies}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries[r.URL.Path] = r.URL.Query()
		body, ok := f.bodies[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	c, err := googlemaps.New(googlemaps.Config{
		APIKey:   "test-key",
		Language: "ja",
		Region:   "jp",
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)
	return f, c
}

func (f *fakeAPI) query(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

const (
	autocompletePath      = "/maps/api/place/autocomplete/json"
	queryAutocompletePath = "/maps/api/place/queryautocomplete/json"
	detailsPath           = "/maps/api/place/details/json"
	geocodePath           = "/maps/api/geocode/json"
	directionsPath        = "/maps/api/directions/json"
)

func status(s string) map[string]any {
	return map[string]any{"status": s, "error_message": "test"}
}

// ---- Construction ----------------------------------------------------------

func TestNew_NoKey(t *testing.T) {
	_, err := googlemaps.New(googlemaps.Config{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// ---- Suggestions -----------------------------------------------------------

func TestClient_Suggest(t *testing.T) {
	api, c := newFakeAPI(t, map[string]any{
		autocompletePath: map[string]any{
			"status": "OK",
			"predictions": []any{
				map[string]any{
					"description": "東京タワー、日本、東京都港区芝公園",
					"place_id":    "ChIJCewJkL2LGGAR3Qmk0vCTGkg",
					"structured_formatting": map[string]any{
						"main_text":      "東京タワー",
						"secondary_text": "日本、東京都港区芝公園",
					},
				},
			},
		},
	})

	got, err := c.Suggest(context.Background(), places.Query{
		Text:  "東京タ",
		Types: []string{"locality", "establishment"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ChIJCewJkL2LGGAR3Qmk0vCTGkg", got[0].PlaceID)
	assert.Equal(t, "東京タワー", got[0].MainText)
	assert.Equal(t, "日本、東京都港区芝公園", got[0].SecondaryText)

	q := api.query(autocompletePath)
	assert.Equal(t, "東京タ", q.Get("input"))
	assert.Equal(t, "ja", q.Get("language"))
	assert.Equal(t, "country:jp", q.Get("components"))
	assert.Equal(t, "establishment", q.Get("types"))
}

func TestClient_Suggest_ZeroResultsIsEmpty(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{autocompletePath: status("ZERO_RESULTS")})

	got, err := c.Suggest(context.Background(), places.Query{Text: "zzzz"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Suggest_StatusErrors(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{"OVER_QUERY_LIMIT", domain.ErrQuotaExceeded},
		{"OVER_DAILY_LIMIT", domain.ErrQuotaExceeded},
		{"REQUEST_DENIED", domain.ErrUnavailable},
		{"INVALID_REQUEST", domain.ErrProvider},
		{"UNKNOWN_ERROR", domain.ErrProvider},
	}
	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			_, c := newFakeAPI(t, map[string]any{autocompletePath: status(tc.status)})

			_, err := c.Suggest(context.Background(), places.Query{Text: "x"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_LegacySuggest(t *testing.T) {
	api, c := newFakeAPI(t, map[string]any{
		queryAutocompletePath: map[string]any{
			"status": "OK",
			"predictions": []any{
				map[string]any{"description": "Shibuya Crossing", "place_id": "p1"},
			},
		},
	})

	legacy := c.Legacy()
	got, err := legacy.Suggest(context.Background(), places.Query{Text: "shibu", Types: []string{"geocode"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shibuya Crossing", got[0].Description)
	assert.Empty(t, got[0].MainText)
	assert.Equal(t, "shibu", api.query(queryAutocompletePath).Get("input"))
}

func TestClient_FallbackToLegacy(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{
		autocompletePath: status("UNKNOWN_ERROR"),
		queryAutocompletePath: map[string]any{
			"status":      "OK",
			"predictions": []any{map[string]any{"description": "Asakusa", "place_id": "p2"}},
		},
	})
	f := &places.Fallback{Primary: c, Legacy: c.Legacy()}

	got, err := f.Suggest(context.Background(), places.Query{Text: "asa"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].PlaceID)
}

// ---- Details ---------------------------------------------------------------

func TestClient_Details(t *testing.T) {
	api, c := newFakeAPI(t, map[string]any{
		detailsPath: map[string]any{
			"status": "OK",
			"result": map[string]any{
				"name":              "東京タワー",
				"formatted_address": "日本、〒105-0011 東京都港区芝公園４丁目２−８",
				"geometry": map[string]any{
					"location": map[string]any{"lat": 35.6585805, "lng": 139.7454329},
				},
			},
		},
	})

	got, err := c.Details(context.Background(), "tt", "")
	require.NoError(t, err)
	assert.Equal(t, "東京タワー", got.Name)
	pos, ok := got.Position()
	require.True(t, ok)
	assert.InDelta(t, 35.6585805, pos.Lat, 1e-9)

	q := api.query(detailsPath)
	assert.Equal(t, "tt", q.Get("placeid"))
	assert.Equal(t, "ja", q.Get("language"))
	assert.Equal(t, "name,formatted_address,geometry/location", q.Get("fields"))
}

func TestClient_Details_NoLocation(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{
		detailsPath: map[string]any{"status": "OK", "result": map[string]any{"name": "Somewhere"}},
	})

	got, err := c.Details(context.Background(), "x", "en")
	require.NoError(t, err)
	assert.Nil(t, got.Lat)
	assert.Nil(t, got.Lng)
}

func TestClient_Details_NotFound(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{detailsPath: status("NOT_FOUND")})

	_, err := c.Details(context.Background(), "gone", "")
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

// ---- Geocode ---------------------------------------------------------------

func TestClient_Geocode(t *testing.T) {
	api, c := newFakeAPI(t, map[string]any{
		geocodePath: map[string]any{
			"status": "OK",
			"results": []any{
				map[string]any{
					"formatted_address": "Kyoto, Japan",
					"geometry": map[string]any{
						"location": map[string]any{"lat": 35.0116, "lng": 135.7681},
						"viewport": map[string]any{
							"northeast": map[string]any{"lat": 35.32, "lng": 135.88},
							"southwest": map[string]any{"lat": 34.87, "lng": 135.56},
						},
					},
				},
			},
		},
	})

	got, err := c.Geocode(context.Background(), "Kyoto")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.LatLng{Lat: 35.0116, Lng: 135.7681}, got[0].Location)
	require.NotNil(t, got[0].Viewport)
	assert.False(t, got[0].Viewport.Empty())
	assert.Equal(t, 35.32, got[0].Viewport.NorthEast.Lat)

	q := api.query(geocodePath)
	assert.Equal(t, "Kyoto", q.Get("address"))
	assert.Equal(t, "jp", q.Get("region"))
}

func TestClient_Ping(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{geocodePath: status("ZERO_RESULTS")})
	assert.NoError(t, c.Ping(context.Background()))

	_, denied := newFakeAPI(t, map[string]any{geocodePath: status("REQUEST_DENIED")})
	assert.ErrorIs(t, denied.Ping(context.Background()), domain.ErrUnavailable)
}

// ---- Directions ------------------------------------------------------------

func leg(meters int, text string, start, end [2]float64) map[string]any {
	return map[string]any{
		"distance":       map[string]any{"value": meters, "text": text},
		"duration":       map[string]any{"value": 600, "text": "10 mins"},
		"start_location": map[string]any{"lat": start[0], "lng": start[1]},
		"end_location":   map[string]any{"lat": end[0], "lng": end[1]},
	}
}

func TestClient_Directions(t *testing.T) {
	api, c := newFakeAPI(t, map[string]any{
		directionsPath: map[string]any{
			"status": "OK",
			"routes": []any{
				map[string]any{
					"legs": []any{
						leg(1200, "1.2 km", [2]float64{35.0, 139.0}, [2]float64{35.01, 139.01}),
						leg(800, "0.8 km", [2]float64{35.01, 139.01}, [2]float64{35.02, 139.0}),
					},
					"overview_polyline": map[string]any{"points": "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
				},
			},
		},
	})

	req, ok := route.BuildRequest([]domain.ResolvedLocation{
		{Lat: 35.0, Lng: 139.0, Day: 1},
		{Lat: 35.01, Lng: 139.01, Day: 1},
		{Lat: 35.02, Lng: 139.0, Day: 1},
	})
	require.True(t, ok)

	got, err := c.Directions(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Legs, 2)
	assert.Equal(t, 1200, got[0].Legs[0].DistanceMeters)
	assert.Equal(t, "0.8 km", got[0].Legs[1].DistanceText)
	require.Len(t, got[0].Path, 3)
	assert.InDelta(t, 38.5, got[0].Path[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, got[0].Path[0].Lng, 1e-5)

	q := api.query(directionsPath)
	assert.Equal(t, "35,139", q.Get("origin"))
	assert.Equal(t, "35.02,139", q.Get("destination"))
	assert.Equal(t, "35.01,139.01", q.Get("waypoints"))
	assert.Equal(t, "walking", q.Get("mode"))
}

func TestClient_Directions_ZeroResults(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{directionsPath: status("ZERO_RESULTS")})

	req, _ := route.BuildRequest([]domain.ResolvedLocation{{Lat: 35, Lng: 139}, {Lat: 36, Lng: 140}})
	got, err := c.Directions(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The planner turns an empty answer into a no-results failure.
	_, err = route.MapResult(nil, got)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestClient_Directions_Quota(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{directionsPath: status("OVER_QUERY_LIMIT")})

	req, _ := route.BuildRequest([]domain.ResolvedLocation{{Lat: 35, Lng: 139}, {Lat: 36, Lng: 140}})
	_, err := c.Directions(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, domain.RouteFailureQuotaExceeded, route.Classify(err))
}

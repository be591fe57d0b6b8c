// Package maps is the distance/route facade: pluggable route providers, a
// memoizing cache and the tariff suggestion calculator.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
)

// Route is the normalized answer every provider adapter returns.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	EncodedPolyline string
	Provider        string
}

// ProviderError is raised when a route provider call fails. It carries the
// provider name and the upstream status so the API can echo them.
type ProviderError struct {
	Provider string
	Status   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("route provider %s failed (%s): %v", e.Provider, e.Status, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RouteProvider is the single capability all adapters implement.
type RouteProvider interface {
	Name() string
	Lookup(ctx context.Context, origin, destination geo.Point, mode string) (Route, error)
}

const providerTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}

// NewProviderFromEnv selects the adapter configured by ROUTE_PROVIDER
// (ors by default).
func NewProviderFromEnv() RouteProvider {
	switch os.Getenv("ROUTE_PROVIDER") {
	case "osrm":
		return NewOSRMProvider(os.Getenv("OSRM_BASE_URL"))
	case "google":
		return NewGoogleProvider(os.Getenv("GOOGLE_MAPS_API_KEY"))
	default:
		return NewORSProvider(os.Getenv("ORS_API_KEY"), os.Getenv("ORS_BASE_URL"))
	}
}

// ORSProvider calls the OpenRouteService directions API.
type ORSProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewORSProvider(apiKey, baseURL string) *ORSProvider {
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	return &ORSProvider{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: newHTTPClient()}
}

func (p *ORSProvider) Name() string { return "ors" }

func orsProfile(mode string) string {
	switch mode {
	case "walking":
		return "foot-walking"
	case "cycling":
		return "cycling-regular"
	default:
		return "driving-car"
	}
}

func (p *ORSProvider) Lookup(ctx context.Context, origin, destination geo.Point, mode string) (Route, error) {
	payload := map[string]interface{}{
		"coordinates": [][]float64{
			{origin.Lng, origin.Lat},
			{destination.Lng, destination.Lat},
		},
	}
	body, _ := json.Marshal(payload)

	endpoint := fmt.Sprintf("%s/v2/directions/%s", p.baseURL, orsProfile(mode))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "request", Err: err}
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, &ProviderError{Provider: p.Name(), Status: resp.Status, Err: fmt.Errorf("unexpected status")}
	}

	var decoded struct {
		Routes []struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			Geometry string `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "decode", Err: err}
	}
	if len(decoded.Routes) == 0 {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "empty", Err: fmt.Errorf("no routes in response")}
	}

	r := decoded.Routes[0]
	return Route{
		DistanceMeters:  r.Summary.Distance,
		DurationSeconds: r.Summary.Duration,
		EncodedPolyline: r.Geometry,
		Provider:        p.Name(),
	}, nil
}

// OSRMProvider calls an OSRM route service. Geometry comes back
// polyline5-encoded.
type OSRMProvider struct {
	baseURL string
	client  *http.Client
}

func NewOSRMProvider(baseURL string) *OSRMProvider {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMProvider{baseURL: strings.TrimRight(baseURL, "/"), client: newHTTPClient()}
}

func (p *OSRMProvider) Name() string { return "osrm" }

func osrmProfile(mode string) string {
	switch mode {
	case "walking":
		return "foot"
	case "cycling":
		return "bike"
	default:
		return "driving"
	}
}

func (p *OSRMProvider) Lookup(ctx context.Context, origin, destination geo.Point, mode string) (Route, error) {
	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		p.baseURL, osrmProfile(mode), origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "request", Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "unreachable", Err: err}
	}
	defer resp.Body.Close()

	var decoded struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Geometry string  `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "decode", Err: err}
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return Route{}, &ProviderError{Provider: p.Name(), Status: decoded.Code, Err: fmt.Errorf("no route")}
	}

	r := decoded.Routes[0]
	return Route{
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		EncodedPolyline: r.Geometry,
		Provider:        p.Name(),
	}, nil
}

// GoogleProvider calls the Google Directions API, aggregating legs and
// preferring duration_in_traffic when present.
type GoogleProvider struct {
	apiKey string
	client *http.Client
}

func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{apiKey: apiKey, client: newHTTPClient()}
}

func (p *GoogleProvider) Name() string { return "google" }

func googleMode(mode string) string {
	switch mode {
	case "walking":
		return "walking"
	case "cycling":
		return "bicycling"
	default:
		return "driving"
	}
}

func (p *GoogleProvider) Lookup(ctx context.Context, origin, destination geo.Point, mode string) (Route, error) {
	query := url.Values{}
	query.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	query.Set("destination", fmt.Sprintf("%f,%f", destination.Lat, destination.Lng))
	query.Set("mode", googleMode(mode))
	query.Set("departure_time", "now")
	query.Set("key", p.apiKey)

	endpoint := "https://maps.googleapis.com/maps/api/directions/json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "request", Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "unreachable", Err: err}
	}
	defer resp.Body.Close()

	var decoded struct {
		Status string `json:"status"`
		Routes []struct {
			OverviewPolyline struct {
				Points string `json:"points"`
			} `json:"overview_polyline"`
			Legs []struct {
				Distance struct {
					Value float64 `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value float64 `json:"value"`
				} `json:"duration"`
				DurationInTraffic *struct {
					Value float64 `json:"value"`
				} `json:"duration_in_traffic"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Route{}, &ProviderError{Provider: p.Name(), Status: "decode", Err: err}
	}
	if decoded.Status != "OK" || len(decoded.Routes) == 0 {
		return Route{}, &ProviderError{Provider: p.Name(), Status: decoded.Status, Err: fmt.Errorf("no route")}
	}

	r := decoded.Routes[0]
	var distance, duration float64
	for _, leg := range r.Legs {
		distance += leg.Distance.Value
		if leg.DurationInTraffic != nil {
			duration += leg.DurationInTraffic.Value
		} else {
			duration += leg.Duration.Value
		}
	}

	return Route{
		DistanceMeters:  distance,
		DurationSeconds: duration,
		EncodedPolyline: r.OverviewPolyline.Points,
		Provider:        p.Name(),
	}, nil
}

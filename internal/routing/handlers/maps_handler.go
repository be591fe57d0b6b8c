package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/maps"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
)

type MapsHdl interface {
	GetDistance(c *gin.Context)
	CalculateRoute(c *gin.Context)
	RouteSuggest(c *gin.Context)
	TransmilenioRoutes(c *gin.Context)
	TransmilenioStations(c *gin.Context)
	TransmilenioStops(c *gin.Context)
}

type MapsHandler struct {
	RouteCache       *maps.RouteCache
	TariffCalculator *maps.TariffCalculator
}

func NewMapsHandler(routeCache *maps.RouteCache, tariffCalculator *maps.TariffCalculator) MapsHdl {
	return &MapsHandler{
		RouteCache:       routeCache,
		TariffCalculator: tariffCalculator,
	}
}

// GetDistance resolves origin/destination query parameters through the route
// cache.
func (handler *MapsHandler) GetDistance(c *gin.Context) {
	origin, err := parseLatLng(c.Query(utils.OriginParamKey))
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}
	destination, err := parseLatLng(c.Query(utils.DestinationParamKey))
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	handler.respondWithRoute(c, origin, destination, c.Query(utils.ModeParamKey))
}

// CalculateRoute resolves a JSON body of coordinates through the route cache.
func (handler *MapsHandler) CalculateRoute(c *gin.Context) {
	request := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.CalculateRouteRequest)

	origin := geo.Point{Lat: request.Origin.Lat, Lng: request.Origin.Lng}
	destination := geo.Point{Lat: request.Destination.Lat, Lng: request.Destination.Lng}

	handler.respondWithRoute(c, origin, destination, request.Mode)
}

// RouteSuggest bundles the cached route with a suggested tariff for the trip
// creation form.
func (handler *MapsHandler) RouteSuggest(c *gin.Context) {
	origin, err := parseLatLng(c.Query(utils.OriginParamKey))
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}
	destination, err := parseLatLng(c.Query(utils.DestinationParamKey))
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	route, cached, err := handler.RouteCache.Lookup(c.Request.Context(), origin, destination, c.Query(utils.ModeParamKey))
	if err != nil {
		handler.writeProviderError(c, err)
		return
	}

	tariff, err := handler.TariffCalculator.Suggest(route.DistanceMeters/1000, route.DurationSeconds/60, nil, nil)
	if err != nil {
		utils.WriteAndLogError(c, schemas.TariffInvalidInput, http.StatusBadRequest, err)
		return
	}

	utils.WriteAndLogResponse(c, schemas.RouteSuggestDTO{
		Route:  routeDTO(route, cached),
		Tariff: tariff,
	}, http.StatusOK)
}

// TransmilenioRoutes serves the static trunk line catalog.
func (handler *MapsHandler) TransmilenioRoutes(c *gin.Context) {
	utils.WriteAndLogResponse(c, maps.TransmilenioRoutes(), http.StatusOK)
}

// TransmilenioStations serves the static station catalog.
func (handler *MapsHandler) TransmilenioStations(c *gin.Context) {
	utils.WriteAndLogResponse(c, maps.TransmilenioStations(), http.StatusOK)
}

// TransmilenioStops serves the boarding stop catalog used by trip snapping.
func (handler *MapsHandler) TransmilenioStops(c *gin.Context) {
	utils.WriteAndLogResponse(c, maps.TransmilenioStops(), http.StatusOK)
}

func (handler *MapsHandler) respondWithRoute(c *gin.Context, origin, destination geo.Point, mode string) {
	route, cached, err := handler.RouteCache.Lookup(c.Request.Context(), origin, destination, mode)
	if err != nil {
		handler.writeProviderError(c, err)
		return
	}

	utils.WriteAndLogResponse(c, routeDTO(route, cached), http.StatusOK)
}

func (handler *MapsHandler) writeProviderError(c *gin.Context, err error) {
	var providerErr *maps.ProviderError
	if errors.As(err, &providerErr) {
		utils.LogMessageWithFields(c, "error", "Route provider failure: "+providerErr.Error())
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          schemas.RouteProviderError.Code,
			"provider":       providerErr.Provider,
			"providerStatus": providerErr.Status,
		})
		return
	}

	utils.WriteAndLogError(c, schemas.RouteProviderError, http.StatusBadGateway, err)
}

func routeDTO(route maps.Route, cached bool) schemas.RouteDTO {
	return schemas.RouteDTO{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		EncodedPolyline: route.EncodedPolyline,
		Provider:        route.Provider,
		Cached:          cached,
	}
}

// parseLatLng parses the canonical "lat,lng" query form.
func parseLatLng(raw string) (geo.Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("expected lat,lng, got %q", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, err
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return geo.Point{}, fmt.Errorf("coordinates out of range: %q", raw)
	}

	return geo.Point{Lat: lat, Lng: lng}, nil
}

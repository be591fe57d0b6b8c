package utils

const (
	// VehicleIdKey is the key for vehicle ID used in routing parameters.
	VehicleIdKey = "vehicleId"

	// PointIdKey is the key for pickup-point ID used in routing parameters.
	PointIdKey = "pointId"

	// TripIdKey is the key for trip ID used in routing parameters.
	TripIdKey = "tripId"

	// ReservationIdKey is the key for reservation ID used in routing parameters.
	ReservationIdKey = "reservationId"

	// SuggestionIdKey is the key for pickup-suggestion ID used in routing parameters.
	SuggestionIdKey = "suggestionId"

	// DeparturePointParamKey filters trips by origin substring.
	DeparturePointParamKey = "departure_point"

	// MinSeatsParamKey filters trips by minimum available seats.
	MinSeatsParamKey = "min_seats"

	// MaxPriceParamKey filters trips by maximum price per seat.
	MaxPriceParamKey = "max_price"

	// StartTimeParamKey is the lower bound for the departure window.
	StartTimeParamKey = "start_time"

	// EndTimeParamKey is the upper bound for the departure window.
	EndTimeParamKey = "end_time"

	// OriginParamKey and DestinationParamKey are used by the maps endpoints.
	OriginParamKey      = "origin"
	DestinationParamKey = "destination"
	ModeParamKey        = "mode"
)

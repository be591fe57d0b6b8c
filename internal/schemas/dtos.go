package schemas

import (
	"time"

	"github.com/google/uuid"
)

// ErrorDTO is the wire shape of every error response. Only the stable
// taxonomy code is surfaced; the message stays in the server logs.
type ErrorDTO struct {
	Error string `json:"error"`
}

// TokenDTO is a struct that represents a token response
type TokenDTO struct {
	Token string `json:"token"`
}

// HealthDTO is returned by the health endpoint.
type HealthDTO struct {
	Ok bool `json:"ok"`
}

// DocumentMetaDTO is the computed state of one vehicle document.
type DocumentMetaDTO struct {
	Status    string     `json:"status"` // valid | expiring | expired | missing | invalid
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	DaysLeft  *int       `json:"daysLeft,omitempty"`
}

// VehicleMetaDTO decorates every vehicle read. It is derived purely from the
// vehicle and the current time.
type VehicleMetaDTO struct {
	Soat             DocumentMetaDTO `json:"soat"`
	License          DocumentMetaDTO `json:"license"`
	Warnings         []string        `json:"warnings"`
	DocumentsOk      bool            `json:"documentsOk"`
	CanRequestReview bool            `json:"canRequestReview"`
	CanActivate      bool            `json:"canActivate"`
	StatusLabel      string          `json:"statusLabel"`
	Severity         string          `json:"severity"` // info | warning | error
}

// VehicleDTO is a vehicle read enriched with its meta block.
type VehicleDTO struct {
	Vehicle
	Meta VehicleMetaDTO `json:"meta"`
}

// FieldErrorDTO reports one invalid field from the dry-run validator.
type FieldErrorDTO struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationResultDTO is the response of POST /vehicles/validate.
type ValidationResultDTO struct {
	Valid  bool            `json:"valid"`
	Errors []FieldErrorDTO `json:"errors"`
}

// DriverStatsDTO is the read-only rating aggregate attached to trip listings.
type DriverStatsDTO struct {
	AverageScore float64 `json:"averageScore"`
	RatingsCount int     `json:"ratingsCount"`
}

// TripDTO is a trip read enriched with the driver's rating aggregate.
type TripDTO struct {
	Trip
	DriverStats *DriverStatsDTO `json:"driverStats,omitempty"`
}

// PassengerDTO is the minimal PII exposed on the driver manifest.
type PassengerDTO struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
}

// ManifestEntryDTO is one reservation on the driver's passenger manifest.
type ManifestEntryDTO struct {
	ReservationID uuid.UUID     `json:"reservationId"`
	Passenger     PassengerDTO  `json:"passenger"`
	Seats         int           `json:"seats"`
	PickupPoints  []PickupPoint `json:"pickupPoints"`
	PaymentMethod string        `json:"paymentMethod"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	DecisionAt    *time.Time    `json:"decisionAt,omitempty"`
}

// RouteDTO is the route facade response.
type RouteDTO struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
	EncodedPolyline string  `json:"encodedPolyline,omitempty"`
	Provider        string  `json:"provider"`
	Cached          bool    `json:"cached"`
}

// TariffBreakdownDTO itemizes the tariff formula components.
type TariffBreakdownDTO struct {
	BaseBoarding      float64 `json:"baseBoarding"`
	DistanceComponent float64 `json:"distanceComponent"`
	DurationComponent float64 `json:"durationComponent"`
}

// TariffRangeDTO is the tolerance band around the suggested tariff.
type TariffRangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TariffDTO is the tariff calculator response.
type TariffDTO struct {
	SuggestedTariff float64            `json:"suggestedTariff"`
	Breakdown       TariffBreakdownDTO `json:"breakdown"`
	Range           TariffRangeDTO     `json:"range"`
}

// RouteSuggestDTO bundles a cached route with its suggested tariff.
type RouteSuggestDTO struct {
	Route  RouteDTO  `json:"route"`
	Tariff TariffDTO `json:"tariff"`
}

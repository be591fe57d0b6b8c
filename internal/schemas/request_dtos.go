// Package schemas defines the request structures for various operations in the application.
package schemas

import "time"

// LatLng is a coordinate pair used across trip and maps requests.
type LatLng struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// VehiclePayload carries the vehicle fields shared by registration and
// vehicle creation. Document expirations must not be in the past.
type VehiclePayload struct {
	Plate             string     `json:"plate" validate:"required,plate_validation"`
	Brand             string     `json:"brand" validate:"required,max=40"`
	Model             string     `json:"model" validate:"required,max=40"`
	Capacity          int        `json:"capacity" validate:"required,gte=1,lte=8"`
	Year              *int       `json:"year,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	Color             string     `json:"color,omitempty" validate:"max=30"`
	VehiclePhotoURL   string     `json:"vehiclePhotoUrl,omitempty" validate:"omitempty,max=255"`
	SoatPhotoURL      string     `json:"soatPhotoUrl,omitempty" validate:"omitempty,max=255"`
	LicensePhotoURL   string     `json:"licensePhotoUrl,omitempty" validate:"omitempty,max=255"`
	SoatExpiration    *time.Time `json:"soatExpiration" validate:"required"`
	LicenseNumber     string     `json:"licenseNumber" validate:"required,max=40"`
	LicenseExpiration *time.Time `json:"licenseExpiration" validate:"required"`
}

// RegistrationRequest is a struct that represents a registration request.
// Email must belong to the institutional domain, the password must be at
// least 8 characters, and driver registrations must attach a vehicle.
type RegistrationRequest struct {
	Email        string          `json:"email" validate:"required,email,institutional_email"`
	Password     string          `json:"password" validate:"required,min=8"`
	FirstName    string          `json:"firstName" validate:"required,max=40"`
	LastName     string          `json:"lastName" validate:"required,max=40"`
	UniversityID string          `json:"universityId" validate:"required,max=20"`
	Phone        string          `json:"phone" validate:"required,max=20"`
	PhotoURL     string          `json:"photoUrl,omitempty" validate:"omitempty,max=255"`
	Role         string          `json:"role,omitempty" validate:"omitempty,oneof=passenger driver"`
	Vehicle      *VehiclePayload `json:"vehicle,omitempty" validate:"omitempty"`
}

// LoginRequest is a struct that represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest partially updates mutable profile fields. Email and
// universityId are immutable.
type UpdateProfileRequest struct {
	FirstName              *string `json:"firstName,omitempty" validate:"omitempty,max=40"`
	LastName               *string `json:"lastName,omitempty" validate:"omitempty,max=40"`
	Phone                  *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	PhotoURL               *string `json:"photoUrl,omitempty" validate:"omitempty,max=255"`
	EmergencyContact       *string `json:"emergencyContact,omitempty" validate:"omitempty,max=60"`
	PreferredPaymentMethod *string `json:"preferredPaymentMethod,omitempty" validate:"omitempty,oneof=cash nequi"`
}

// RoleSwitchRequest selects the caller's active role.
type RoleSwitchRequest struct {
	Role string `json:"role" validate:"required,oneof=passenger driver"`
}

// ForgotPasswordRequest starts a password reset. Always answered with 200.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a raw reset token exactly once.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UpdateVehicleRequest is field-wise partial. Supplying pickupPoints replaces
// the whole list. Material mutations reset the verification status.
type UpdateVehicleRequest struct {
	Plate             *string              `json:"plate,omitempty" validate:"omitempty,plate_validation"`
	Brand             *string              `json:"brand,omitempty" validate:"omitempty,max=40"`
	Model             *string              `json:"model,omitempty" validate:"omitempty,max=40"`
	Capacity          *int                 `json:"capacity,omitempty" validate:"omitempty,gte=1,lte=8"`
	Year              *int                 `json:"year,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	Color             *string              `json:"color,omitempty" validate:"omitempty,max=30"`
	VehiclePhotoURL   *string              `json:"vehiclePhotoUrl,omitempty" validate:"omitempty,max=255"`
	SoatPhotoURL      *string              `json:"soatPhotoUrl,omitempty" validate:"omitempty,max=255"`
	LicensePhotoURL   *string              `json:"licensePhotoUrl,omitempty" validate:"omitempty,max=255"`
	SoatExpiration    *time.Time           `json:"soatExpiration,omitempty"`
	LicenseNumber     *string              `json:"licenseNumber,omitempty" validate:"omitempty,max=40"`
	LicenseExpiration *time.Time           `json:"licenseExpiration,omitempty"`
	PickupPoints      []PickupPointRequest `json:"pickupPoints,omitempty" validate:"omitempty,dive"`
}

// PickupPointRequest creates or updates a pickup point under a vehicle.
type PickupPointRequest struct {
	Name        string  `json:"name" validate:"required,max=80"`
	Description string  `json:"description,omitempty" validate:"max=255"`
	Lat         float64 `json:"lat" validate:"latitude"`
	Lng         float64 `json:"lng" validate:"longitude"`
}

// TariffAttachment carries the suggestion the client received, so the create
// validator can enforce the tolerance band against pricePerSeat.
type TariffAttachment struct {
	SuggestedTariff float64 `json:"suggestedTariff" validate:"gte=0"`
}

// CreateTripRequest supports two shapes: the legacy free-text origin and
// destination pair, and the stops shape carrying stop ids plus a route
// polyline of at least two points that is snapped to known stops.
type CreateTripRequest struct {
	Origin            string               `json:"origin,omitempty" validate:"omitempty,max=120"`
	Destination       string               `json:"destination,omitempty" validate:"omitempty,max=120"`
	OriginStopID      string               `json:"originStopId,omitempty"`
	DestinationStopID string               `json:"destinationStopId,omitempty"`
	Route             []LatLng             `json:"route,omitempty" validate:"omitempty,min=2,dive"`
	RouteDescription  string               `json:"routeDescription,omitempty" validate:"max=255"`
	VehicleID         string               `json:"vehicleId,omitempty" validate:"omitempty,uuid"`
	DepartureAt       time.Time            `json:"departureAt" validate:"required"`
	SeatsTotal        int                  `json:"seatsTotal" validate:"required,gte=1"`
	PricePerSeat      float64              `json:"pricePerSeat" validate:"gte=0"`
	DistanceKm        *float64             `json:"distanceKm,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes   *float64             `json:"durationMinutes,omitempty" validate:"omitempty,gte=0"`
	PickupPoints      []PickupPointRequest `json:"pickupPoints,omitempty" validate:"omitempty,dive"`
	Tariff            *TariffAttachment    `json:"tariff,omitempty"`
}

// CreateReservationRequest books seats on a trip. The pickupPoints list must
// contain exactly one point per seat.
type CreateReservationRequest struct {
	Seats         int                  `json:"seats" validate:"required,gte=1"`
	PickupPoints  []PickupPointRequest `json:"pickupPoints" validate:"required,min=1,dive"`
	PaymentMethod string               `json:"paymentMethod" validate:"required,oneof=cash nequi"`
}

// PickupSuggestionRequest proposes a new pickup point on a trip.
type PickupSuggestionRequest struct {
	Name        string  `json:"name" validate:"required,max=80"`
	Description string  `json:"description,omitempty" validate:"max=255"`
	Lat         float64 `json:"lat" validate:"latitude"`
	Lng         float64 `json:"lng" validate:"longitude"`
}

// TariffSuggestRequest feeds the tariff calculator.
type TariffSuggestRequest struct {
	DistanceKm      float64  `json:"distanceKm" validate:"gte=0"`
	DurationMinutes float64  `json:"durationMinutes" validate:"gte=0"`
	DemandFactor    *float64 `json:"demandFactor,omitempty" validate:"omitempty,gte=1"`
	Occupancy       *int     `json:"occupancy,omitempty" validate:"omitempty,gte=1"`
}

// CalculateRouteRequest asks the route facade for distance and duration
// between two coordinates.
type CalculateRouteRequest struct {
	Origin      LatLng `json:"origin" validate:"required"`
	Destination LatLng `json:"destination" validate:"required"`
	Mode        string `json:"mode,omitempty" validate:"omitempty,oneof=driving walking cycling"`
}

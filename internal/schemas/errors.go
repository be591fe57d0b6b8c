// Package schemas defines the data structures exchanged on the wire and the
// stable error taxonomy of the API.
package schemas

// CustomError pairs the stable error code surfaced to clients with a
// human-readable message kept for server-side logs. Only the code travels on
// the wire, see ErrorDTO.
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation / request shape
var (
	BadRequest         = &CustomError{"INVALID_REQUEST", "The request body is invalid. Please check the request body and try again."}
	WeakPassword       = &CustomError{"WEAK_PASSWORD", "The password must be at least 8 characters long."}
	InvalidEmailDomain = &CustomError{"INVALID_EMAIL_DOMAIN", "Registration requires an institutional unisabana.edu.co email address."}
	TariffInvalidInput = &CustomError{"TARIFF_INVALID_INPUT", "Distance and duration must be non-negative and the demand factor at least 1."}
)

// Authentication
var (
	InvalidCredentials = &CustomError{"INVALID_CREDENTIALS", "The email or password is incorrect."}
	Unauthorized       = &CustomError{"UNAUTHORIZED", "The request is unauthorized. Please login to your account."}
	InvalidToken       = &CustomError{"INVALID_TOKEN", "The token is invalid or has been revoked."}
)

// Authorization
var (
	Forbidden      = &CustomError{"FORBIDDEN", "You do not have permission to perform this action."}
	RoleNotEnabled = &CustomError{"ROLE_NOT_ENABLED", "The requested role is not enabled for this account."}
	OwnTrip        = &CustomError{"OWN_TRIP", "A driver cannot reserve seats on their own trip."}
)

// Not found
var (
	UserNotFound        = &CustomError{"USER_NOT_FOUND", "The user was not found."}
	VehicleNotFound     = &CustomError{"VEHICLE_NOT_FOUND", "The vehicle was not found."}
	TripNotFound        = &CustomError{"TRIP_NOT_FOUND", "The trip was not found."}
	ReservationNotFound = &CustomError{"RESERVATION_NOT_FOUND", "The reservation was not found."}
	SuggestionNotFound  = &CustomError{"SUGGESTION_NOT_FOUND", "The pickup suggestion was not found."}
	PickupPointNotFound = &CustomError{"PICKUP_POINT_NOT_FOUND", "The pickup point was not found."}
)

// Conflict
var (
	DuplicateEmail       = &CustomError{"DUPLICATE_EMAIL", "The email address is already registered."}
	DuplicatePlate       = &CustomError{"DUPLICATE_PLATE", "A vehicle with this plate is already registered."}
	DuplicateReservation = &CustomError{"DUPLICATE_RESERVATION", "You already have an active reservation on this trip."}
)

// Business preconditions (mapped to 400 in this API, not 412)
var (
	ExpiredDocument       = &CustomError{"EXPIRED_DOCUMENT", "The SOAT or license expiration date is in the past."}
	DocumentsInvalid      = &CustomError{"DOCUMENTS_INVALID", "No verified vehicle with valid documents is available."}
	BlockedByActiveTrips  = &CustomError{"BLOCKED_BY_ACTIVE_TRIPS", "The vehicle has scheduled trips in the future and cannot be deleted."}
	TripNotAvailable      = &CustomError{"TRIP_NOT_AVAILABLE", "The trip is not open for reservations."}
	InsufficientSeats     = &CustomError{"INSUFFICIENT_SEATS", "The trip does not have enough available seats."}
	TokenInvalidOrExpired = &CustomError{"TOKEN_INVALID_OR_EXPIRED", "The password reset token is invalid, used or expired."}
	InvalidTransition     = &CustomError{"INVALID_TRANSITION", "The requested state transition is not allowed."}
	PriceOutOfRange       = &CustomError{"PRICE_OUT_OF_RANGE", "The price per seat is outside the suggested tariff band."}
)

// Rate limiting
var TooManySuggestions = &CustomError{"TOO_MANY_SUGGESTIONS", "You already have 3 pending pickup suggestions on this trip."}

// Upstream dependencies
var (
	RouteProviderError = &CustomError{"ROUTE_PROVIDER_ERROR", "The route provider request failed."}
	EmailError         = &CustomError{"EMAIL_ERROR", "The email could not be sent."}
)

// Infrastructure
var (
	ServiceUnavailable  = &CustomError{"SERVICE_UNAVAILABLE", "The database is not connected. Please try again later."}
	DatabaseError       = &CustomError{"DATABASE_ERROR", "A database error occurred. Please try again later."}
	InternalServerError = &CustomError{"INTERNAL_ERROR", "An internal error occurred. Please try again later."}
)

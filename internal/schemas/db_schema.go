// Package schemas defines the data structures
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// Role capabilities a user can hold. The passenger role is always present.
const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
)

// Payment methods recorded on reservations and user profiles.
const (
	PaymentCash  = "cash"
	PaymentNequi = "nequi"
)

// Vehicle verification statuses.
const (
	VehiclePending     = "pending"
	VehicleUnderReview = "under_review"
	VehicleVerified    = "verified"
	VehicleRejected    = "rejected"
	VehicleNeedsUpdate = "needs_update"
)

// Trip statuses.
const (
	TripScheduled = "scheduled"
	TripFull      = "full"
	TripCancelled = "cancelled"
	TripCompleted = "completed"
)

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationRejected  = "rejected"
	ReservationCancelled = "cancelled"
)

// Pickup point provenance and state.
const (
	PickupSourceDriver    = "driver"
	PickupSourcePassenger = "passenger"
	PickupSourceSystem    = "system"

	PickupActive   = "active"
	PickupRejected = "rejected"
)

// Pickup suggestion states.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
)

// User represents the data model for a user in the system. The password hash
// never leaves the backend.
type User struct {
	ID                     uuid.UUID  `json:"id"`
	Email                  string     `json:"email"`
	Password               string     `json:"-"`
	FirstName              string     `json:"firstName"`
	LastName               string     `json:"lastName"`
	UniversityID           string     `json:"universityId"`
	Phone                  string     `json:"phone"`
	PhotoURL               string     `json:"photoUrl,omitempty"`
	Roles                  []string   `json:"roles"`
	ActiveRole             string     `json:"activeRole"`
	ActiveVehicle          *uuid.UUID `json:"activeVehicle"`
	EmergencyContact       string     `json:"emergencyContact,omitempty"`
	PreferredPaymentMethod string     `json:"preferredPaymentMethod,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// PasswordReset holds the sha-256 hash of a reset secret. The raw secret is
// delivered out-of-band and never persisted.
type PasswordReset struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// Vehicle represents a driver-owned vehicle with its verification documents.
type Vehicle struct {
	ID                uuid.UUID     `json:"id"`
	OwnerID           uuid.UUID     `json:"ownerId"`
	Plate             string        `json:"plate"`
	Brand             string        `json:"brand"`
	Model             string        `json:"model"`
	Capacity          int           `json:"capacity"`
	Year              *int          `json:"year,omitempty"`
	Color             string        `json:"color,omitempty"`
	VehiclePhotoURL   string        `json:"vehiclePhotoUrl,omitempty"`
	SoatPhotoURL      string        `json:"soatPhotoUrl,omitempty"`
	LicensePhotoURL   string        `json:"licensePhotoUrl,omitempty"`
	SoatExpiration    *time.Time    `json:"soatExpiration"`
	LicenseNumber     string        `json:"licenseNumber"`
	LicenseExpiration *time.Time    `json:"licenseExpiration"`
	Status            string        `json:"status"`
	StatusUpdatedAt   *time.Time    `json:"statusUpdatedAt,omitempty"`
	RequestedReviewAt *time.Time    `json:"requestedReviewAt,omitempty"`
	ReviewedAt        *time.Time    `json:"reviewedAt,omitempty"`
	ReviewedBy        *uuid.UUID    `json:"reviewedBy,omitempty"`
	VerificationNotes string        `json:"verificationNotes,omitempty"`
	PickupPoints      []PickupPoint `json:"pickupPoints"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// PickupPoint is a named coordinate. On vehicles it belongs to the owner's
// catalog; on trips it is a snapshot carrying provenance and state.
type PickupPoint struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Source      string    `json:"source,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// Trip represents a scheduled trip published by a driver.
type Trip struct {
	ID               uuid.UUID          `json:"id"`
	DriverID         uuid.UUID          `json:"driverId"`
	VehicleID        uuid.UUID          `json:"vehicleId"`
	Origin           string             `json:"origin"`
	Destination      string             `json:"destination"`
	RouteDescription string             `json:"routeDescription,omitempty"`
	DepartureAt      time.Time          `json:"departureAt"`
	SeatsTotal       int                `json:"seatsTotal"`
	SeatsAvailable   int                `json:"seatsAvailable"`
	PricePerSeat     float64            `json:"pricePerSeat"`
	DistanceKm       *float64           `json:"distanceKm,omitempty"`
	DurationMinutes  *float64           `json:"durationMinutes,omitempty"`
	PickupPoints     []PickupPoint      `json:"pickupPoints"`
	Suggestions      []PickupSuggestion `json:"pickupSuggestions,omitempty"`
	Reservations     []Reservation      `json:"reservations,omitempty"`
	Status           string             `json:"status"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Reservation is a passenger's claim on trip seats.
type Reservation struct {
	ID            uuid.UUID     `json:"id"`
	TripID        uuid.UUID     `json:"tripId"`
	PassengerID   uuid.UUID     `json:"passengerId"`
	Seats         int           `json:"seats"`
	PickupPoints  []PickupPoint `json:"pickupPoints"`
	PaymentMethod string        `json:"paymentMethod"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	DecisionAt    *time.Time    `json:"decisionAt,omitempty"`
}

// PickupSuggestion is a passenger-proposed pickup point queued for the driver.
type PickupSuggestion struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"tripId"`
	PassengerID uuid.UUID `json:"passengerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/interfaces"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/maps"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/vehicles"
)

// snapMaxDistanceMeters bounds how far a polyline point may sit from a stop
// and still be snapped to it.
const snapMaxDistanceMeters = 500.0

// maxPendingSuggestions caps pending pickup suggestions per passenger per trip.
const maxPendingSuggestions = 3

type TripHdl interface {
	CreateTrip(c *gin.Context)
	ListTrips(c *gin.Context)
	MyTrips(c *gin.Context)
	MyReservations(c *gin.Context)
	CreateReservation(c *gin.Context)
	ConfirmReservation(c *gin.Context)
	RejectReservation(c *gin.Context)
	CancelReservation(c *gin.Context)
	CancelTrip(c *gin.Context)
	GetPassengers(c *gin.Context)
	SuggestPickup(c *gin.Context)
	AcceptSuggestion(c *gin.Context)
	RejectSuggestion(c *gin.Context)
	SuggestTariff(c *gin.Context)
}

type TripHandler struct {
	DatabaseManager  managers.DatabaseMgr
	MailManager      managers.MailMgr
	TariffCalculator *maps.TariffCalculator
}

func NewTripHandler(databaseManager *managers.DatabaseMgr, mailManager *managers.MailMgr,
	tariffCalculator *maps.TariffCalculator) TripHdl {
	return &TripHandler{
		DatabaseManager:  *databaseManager,
		MailManager:      *mailManager,
		TariffCalculator: tariffCalculator,
	}
}

// CreateTrip publishes a trip from a vehicle the caller owns with valid
// documents. The stops shape snaps the supplied polyline to known stops and
// materializes them as system pickup points.
func (handler *TripHandler) CreateTrip(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	tripRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.CreateTripRequest)

	now := time.Now()
	if !tripRequest.DepartureAt.After(now) {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errors.New("departure must be in the future"))
		return
	}

	// Resolve the shape before touching the database
	origin, destination := tripRequest.Origin, tripRequest.Destination
	var systemPoints []schemas.PickupPoint
	if tripRequest.OriginStopID != "" || tripRequest.DestinationStopID != "" {
		originStop, okOrigin := maps.FindStop(tripRequest.OriginStopID)
		destinationStop, okDestination := maps.FindStop(tripRequest.DestinationStopID)
		if !okOrigin || !okDestination || len(tripRequest.Route) < 2 {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errors.New("stops shape requires known stop ids and a route of at least 2 points"))
			return
		}
		origin, destination = originStop.Name, destinationStop.Name

		route := make([]geo.Point, 0, len(tripRequest.Route))
		for _, p := range tripRequest.Route {
			route = append(route, geo.Point{Lat: p.Lat, Lng: p.Lng})
		}
		for _, stop := range geo.SnapToStops(route, maps.SnapStops(), snapMaxDistanceMeters) {
			systemPoints = append(systemPoints, schemas.PickupPoint{
				ID:     uuid.New(),
				Name:   stop.Name,
				Lat:    stop.Lat,
				Lng:    stop.Lng,
				Source: schemas.PickupSourceSystem,
				Status: schemas.PickupActive,
			})
		}
	} else if origin == "" || destination == "" {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, errors.New("origin and destination are required"))
		return
	}

	if tripRequest.Tariff != nil && !handler.TariffCalculator.WithinBand(tripRequest.PricePerSeat, tripRequest.Tariff.SuggestedTariff) {
		utils.WriteAndLogError(c, schemas.PriceOutOfRange, http.StatusBadRequest, errors.New("price outside the suggested tariff band"))
		return
	}

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	user, err := fetchUserTx(transactionCtx, tx, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if !containsRole(user.Roles, schemas.RoleDriver) {
		err = errors.New("caller lacks the driver role")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	vehicleId := tripRequest.VehicleID
	if vehicleId == "" {
		if user.ActiveVehicle == nil {
			err = errors.New("no vehicle selected and no active vehicle")
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		vehicleId = user.ActiveVehicle.String()
	}

	vehicle, err := fetchVehicleTx(transactionCtx, tx, vehicleId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if vehicle.OwnerID.String() != userId {
		err = errors.New("vehicle not owned by caller")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}
	if !vehicles.DocumentsValid(vehicle, now) {
		err = errors.New("vehicle documents expired")
		utils.WriteAndLogError(c, schemas.DocumentsInvalid, http.StatusBadRequest, err)
		return
	}
	if tripRequest.SeatsTotal < 1 || tripRequest.SeatsTotal > vehicle.Capacity {
		err = fmt.Errorf("seatsTotal must be between 1 and %d", vehicle.Capacity)
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	tripId := uuid.New()
	queryString := `INSERT INTO wheels_schema.trips
		(trip_id, driver_id, vehicle_id, origin, destination, route_description, departure_at,
		 seats_total, seats_available, price_per_seat, distance_km, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, $10, $11, $12, $13, $13)`
	if _, err = tx.Exec(transactionCtx, queryString, tripId, userId, vehicle.ID, origin, destination,
		tripRequest.RouteDescription, tripRequest.DepartureAt, tripRequest.SeatsTotal,
		tripRequest.PricePerSeat, tripRequest.DistanceKm, tripRequest.DurationMinutes,
		schemas.TripScheduled, now); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	points := systemPoints
	for _, p := range tripRequest.PickupPoints {
		points = append(points, schemas.PickupPoint{
			ID:          uuid.New(),
			Name:        p.Name,
			Description: p.Description,
			Lat:         p.Lat,
			Lng:         p.Lng,
			Source:      schemas.PickupSourceDriver,
			Status:      schemas.PickupActive,
		})
	}
	for _, point := range points {
		queryString = `INSERT INTO wheels_schema.trip_pickup_points (point_id, trip_id, name, description, lat, lng, source, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err = tx.Exec(transactionCtx, queryString, point.ID, tripId, point.Name, point.Description,
			point.Lat, point.Lng, point.Source, point.Status); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	trip := &schemas.Trip{
		ID:               tripId,
		DriverID:         uuid.MustParse(userId),
		VehicleID:        vehicle.ID,
		Origin:           origin,
		Destination:      destination,
		RouteDescription: tripRequest.RouteDescription,
		DepartureAt:      tripRequest.DepartureAt,
		SeatsTotal:       tripRequest.SeatsTotal,
		SeatsAvailable:   tripRequest.SeatsTotal,
		PricePerSeat:     tripRequest.PricePerSeat,
		DistanceKm:       tripRequest.DistanceKm,
		DurationMinutes:  tripRequest.DurationMinutes,
		PickupPoints:     points,
		Status:           schemas.TripScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	utils.WriteAndLogResponse(c, trip, http.StatusCreated)
}

// ListTrips returns non-terminal trips sorted by departure ascending, with
// optional filters and the driver rating aggregate.
func (handler *TripHandler) ListTrips(c *gin.Context) {
	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := `SELECT ` + tripColumns + `,
		(SELECT COALESCE(AVG(score), 0) FROM wheels_schema.ratings WHERE driver_id = t.driver_id),
		(SELECT COUNT(*) FROM wheels_schema.ratings WHERE driver_id = t.driver_id)
		FROM wheels_schema.trips t
		WHERE t.status IN ($1, $2)`
	args := []interface{}{schemas.TripScheduled, schemas.TripFull}

	if departurePoint := c.Query(utils.DeparturePointParamKey); departurePoint != "" {
		args = append(args, "%"+departurePoint+"%")
		queryString += fmt.Sprintf(" AND t.origin ILIKE $%d", len(args))
	}
	if minSeats := c.Query(utils.MinSeatsParamKey); minSeats != "" {
		seats, err := strconv.Atoi(minSeats)
		if err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		args = append(args, seats)
		queryString += fmt.Sprintf(" AND t.seats_available >= $%d", len(args))
	}
	if maxPrice := c.Query(utils.MaxPriceParamKey); maxPrice != "" {
		price, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		args = append(args, price)
		queryString += fmt.Sprintf(" AND t.price_per_seat <= $%d", len(args))
	}
	if startTime := c.Query(utils.StartTimeParamKey); startTime != "" {
		start, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		args = append(args, start)
		queryString += fmt.Sprintf(" AND t.departure_at >= $%d", len(args))
	}
	if endTime := c.Query(utils.EndTimeParamKey); endTime != "" {
		end, err := time.Parse(time.RFC3339, endTime)
		if err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		args = append(args, end)
		queryString += fmt.Sprintf(" AND t.departure_at <= $%d", len(args))
	}

	queryString += " ORDER BY t.departure_at"

	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, args...)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	trips := make([]schemas.TripDTO, 0)
	for rows.Next() {
		trip := schemas.Trip{}
		stats := schemas.DriverStatsDTO{}
		if err := scanTripWithStats(rows, &trip, &stats); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		trips = append(trips, schemas.TripDTO{Trip: trip, DriverStats: &stats})
	}
	rows.Close()

	for i := range trips {
		points, err := loadTripPickupPoints(ctx, handler.DatabaseManager.GetPool(), trips[i].ID)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		trips[i].PickupPoints = points
	}

	utils.WriteAndLogResponse(c, trips, http.StatusOK)
}

// MyTrips returns the caller's published trips, any status, with their
// reservations embedded.
func (handler *TripHandler) MyTrips(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT " + tripColumns + " FROM wheels_schema.trips t WHERE t.driver_id = $1 ORDER BY t.departure_at DESC"
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	trips := make([]schemas.Trip, 0)
	for rows.Next() {
		trip := schemas.Trip{}
		if err := scanTrip(rows, &trip); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		trips = append(trips, trip)
	}
	rows.Close()

	for i := range trips {
		reservations, err := loadReservations(ctx, handler.DatabaseManager.GetPool(), trips[i].ID)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		trips[i].Reservations = reservations
	}

	utils.WriteAndLogResponse(c, trips, http.StatusOK)
}

// MyReservations returns the caller's reservations across trips.
func (handler *TripHandler) MyReservations(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := `SELECT r.reservation_id, r.trip_id, r.passenger_id, r.seats, r.payment_method, r.status, r.created_at, r.decision_at
		FROM wheels_schema.reservations r
		JOIN wheels_schema.trips t ON t.trip_id = r.trip_id
		WHERE r.passenger_id = $1 ORDER BY t.departure_at DESC`
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	reservations := make([]schemas.Reservation, 0)
	for rows.Next() {
		reservation := schemas.Reservation{}
		if err := rows.Scan(&reservation.ID, &reservation.TripID, &reservation.PassengerID, &reservation.Seats,
			&reservation.PaymentMethod, &reservation.Status, &reservation.CreatedAt, &reservation.DecisionAt); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		reservations = append(reservations, reservation)
	}

	utils.WriteAndLogResponse(c, reservations, http.StatusOK)
}

// CreateReservation books seats atomically. The seat decrement, the status
// normalization and every precondition are one conditional update; the
// reservation rows join it inside the same transaction. Read-then-write is
// deliberately impossible on this path.
func (handler *TripHandler) CreateReservation(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripUUID, parseErr := uuid.Parse(c.Param(utils.TripIdKey))
	if parseErr != nil {
		utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, parseErr)
		return
	}
	tripId := tripUUID.String()

	reservationRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.CreateReservationRequest)

	if len(reservationRequest.PickupPoints) != reservationRequest.Seats {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest,
			fmt.Errorf("expected %d pickup points, got %d", reservationRequest.Seats, len(reservationRequest.PickupPoints)))
		return
	}

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	now := time.Now()
	var seatsAvailable int
	var tripStatus string
	queryString := `UPDATE wheels_schema.trips SET
		seats_available = seats_available - $1,
		status = CASE WHEN seats_available - $1 = 0 THEN $2 ELSE status END,
		updated_at = $3
		WHERE trip_id = $4 AND seats_available >= $1 AND status IN ($5, $6) AND driver_id <> $7
		AND NOT EXISTS (
			SELECT 1 FROM wheels_schema.reservations r
			WHERE r.trip_id = $4 AND r.passenger_id = $7 AND r.status IN ($8, $9)
		)
		RETURNING seats_available, status`
	err = tx.QueryRow(transactionCtx, queryString, reservationRequest.Seats, schemas.TripFull, now,
		tripId, schemas.TripScheduled, schemas.TripFull, userId,
		schemas.ReservationPending, schemas.ReservationConfirmed).Scan(&seatsAvailable, &tripStatus)

	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		// The conditional update matched nothing: re-read to name the cause
		handler.explainReservationFailure(transactionCtx, c, tx, tripId, userId)
		return
	}

	reservationId := uuid.New()
	queryString = `INSERT INTO wheels_schema.reservations
		(reservation_id, trip_id, passenger_id, seats, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.Exec(transactionCtx, queryString, reservationId, tripId, userId,
		reservationRequest.Seats, reservationRequest.PaymentMethod, schemas.ReservationPending, now); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	points := make([]schemas.PickupPoint, 0, len(reservationRequest.PickupPoints))
	for _, p := range reservationRequest.PickupPoints {
		point := schemas.PickupPoint{ID: uuid.New(), Name: p.Name, Description: p.Description, Lat: p.Lat, Lng: p.Lng}
		queryString = `INSERT INTO wheels_schema.reservation_pickup_points (point_id, reservation_id, name, description, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err = tx.Exec(transactionCtx, queryString, point.ID, reservationId, point.Name,
			point.Description, point.Lat, point.Lng); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		points = append(points, point)
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	passengerUUID, _ := uuid.Parse(userId)
	reservation := &schemas.Reservation{
		ID:            reservationId,
		TripID:        tripUUID,
		PassengerID:   passengerUUID,
		Seats:         reservationRequest.Seats,
		PickupPoints:  points,
		PaymentMethod: reservationRequest.PaymentMethod,
		Status:        schemas.ReservationPending,
		CreatedAt:     now,
	}

	utils.WriteAndLogResponse(c, gin.H{
		"reservation":    reservation,
		"seatsAvailable": seatsAvailable,
		"tripStatus":     tripStatus,
	}, http.StatusCreated)
}

// explainReservationFailure maps a failed conditional update to its root
// cause by re-reading the trip.
func (handler *TripHandler) explainReservationFailure(ctx context.Context, c *gin.Context, tx pgx.Tx, tripId, userId string) {
	var driverId uuid.UUID
	var status string
	var seatsAvailable int
	queryString := "SELECT driver_id, status, seats_available FROM wheels_schema.trips WHERE trip_id = $1"
	if err := tx.QueryRow(ctx, queryString, tripId).Scan(&driverId, &status, &seatsAvailable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if driverId.String() == userId {
		utils.WriteAndLogError(c, schemas.OwnTrip, http.StatusForbidden, errors.New("driver booking own trip"))
		return
	}
	if status != schemas.TripScheduled && status != schemas.TripFull {
		utils.WriteAndLogError(c, schemas.TripNotAvailable, http.StatusBadRequest, errors.New("trip is "+status))
		return
	}

	var activeReservations int
	queryString = `SELECT COUNT(*) FROM wheels_schema.reservations
		WHERE trip_id = $1 AND passenger_id = $2 AND status IN ($3, $4)`
	if err := tx.QueryRow(ctx, queryString, tripId, userId,
		schemas.ReservationPending, schemas.ReservationConfirmed).Scan(&activeReservations); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if activeReservations > 0 {
		utils.WriteAndLogError(c, schemas.DuplicateReservation, http.StatusConflict, errors.New("active reservation exists"))
		return
	}

	utils.WriteAndLogError(c, schemas.InsufficientSeats, http.StatusBadRequest,
		fmt.Errorf("only %d seats available", seatsAvailable))
}

// ConfirmReservation lets the driver confirm a pending reservation. Seats do
// not change; repeated confirms are idempotent.
func (handler *TripHandler) ConfirmReservation(c *gin.Context) {
	handler.decideReservation(c, schemas.ReservationConfirmed)
}

// RejectReservation lets the driver reject a pending reservation, returning
// its seats to the trip.
func (handler *TripHandler) RejectReservation(c *gin.Context) {
	handler.decideReservation(c, schemas.ReservationRejected)
}

func (handler *TripHandler) decideReservation(c *gin.Context, decision string) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)
	reservationId := c.Param(utils.ReservationIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	trip, err := fetchTripTx(transactionCtx, tx, tripId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if trip.DriverID.String() != userId {
		err = errors.New("only the driver decides reservations")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	reservation, err := fetchReservationTx(transactionCtx, tx, tripId, reservationId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.ReservationNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Terminal states are idempotent: repeating the same decision returns
	// the unchanged reservation
	if reservation.Status == decision {
		_ = tx.Rollback(transactionCtx)
		cancel()
		utils.WriteAndLogResponse(c, reservation, http.StatusOK)
		return
	}
	if reservation.Status != schemas.ReservationPending {
		err = fmt.Errorf("reservation is %s", reservation.Status)
		utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	queryString := `UPDATE wheels_schema.reservations SET status = $1, decision_at = $2
		WHERE reservation_id = $3 AND status = $4`
	tag, err := tx.Exec(transactionCtx, queryString, decision, now, reservationId, schemas.ReservationPending)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if tag.RowsAffected() == 0 {
		err = errors.New("reservation changed concurrently")
		utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		return
	}

	if decision == schemas.ReservationRejected {
		if err = returnSeats(transactionCtx, tx, tripId, reservation.Seats, now); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	handler.notifyDecision(c, reservation.PassengerID, trip, decision)

	reservation.Status = decision
	reservation.DecisionAt = &now
	utils.WriteAndLogResponse(c, reservation, http.StatusOK)
}

// CancelReservation cancels a pending or confirmed reservation. Either the
// passenger or the driver may cancel; seats return to the trip. Repeated
// cancels are idempotent.
func (handler *TripHandler) CancelReservation(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)
	reservationId := c.Param(utils.ReservationIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	trip, err := fetchTripTx(transactionCtx, tx, tripId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	reservation, err := fetchReservationTx(transactionCtx, tx, tripId, reservationId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.ReservationNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if trip.DriverID.String() != userId && reservation.PassengerID.String() != userId {
		err = errors.New("caller is neither driver nor reservation owner")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	if reservation.Status == schemas.ReservationCancelled {
		_ = tx.Rollback(transactionCtx)
		cancel()
		utils.WriteAndLogResponse(c, reservation, http.StatusOK)
		return
	}
	if reservation.Status != schemas.ReservationPending && reservation.Status != schemas.ReservationConfirmed {
		err = fmt.Errorf("reservation is %s", reservation.Status)
		utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	queryString := `UPDATE wheels_schema.reservations SET status = $1, decision_at = $2
		WHERE reservation_id = $3 AND status IN ($4, $5)`
	tag, err := tx.Exec(transactionCtx, queryString, schemas.ReservationCancelled, now, reservationId,
		schemas.ReservationPending, schemas.ReservationConfirmed)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if tag.RowsAffected() == 0 {
		err = errors.New("reservation changed concurrently")
		utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		return
	}

	if err = returnSeats(transactionCtx, tx, tripId, reservation.Seats, now); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	reservation.Status = schemas.ReservationCancelled
	reservation.DecisionAt = &now
	utils.WriteAndLogResponse(c, reservation, http.StatusOK)
}

// CancelTrip cancels a trip, zeroes its seats, cancels every reservation and
// fans out one mail per passenger concurrently. Mail failures are logged but
// never fail the cancellation.
func (handler *TripHandler) CancelTrip(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	trip, err := fetchTripTx(transactionCtx, tx, tripId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if trip.DriverID.String() != userId {
		err = errors.New("only the driver cancels the trip")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	if trip.Status == schemas.TripCancelled {
		_ = tx.Rollback(transactionCtx)
		cancel()
		utils.WriteAndLogResponse(c, trip, http.StatusOK)
		return
	}
	if trip.Status == schemas.TripCompleted {
		err = errors.New("completed trips cannot be cancelled")
		utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		return
	}

	// Collect the passengers to notify before flipping the reservations
	type recipient struct {
		email string
		name  string
	}
	var recipients []recipient
	queryString := `SELECT DISTINCT u.email, u.first_name
		FROM wheels_schema.reservations r
		JOIN wheels_schema.users u ON u.user_id = r.passenger_id
		WHERE r.trip_id = $1 AND r.status IN ($2, $3)`
	rows, err := tx.Query(transactionCtx, queryString, tripId, schemas.ReservationPending, schemas.ReservationConfirmed)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	for rows.Next() {
		var r recipient
		if err = rows.Scan(&r.email, &r.name); err != nil {
			rows.Close()
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		recipients = append(recipients, r)
	}
	rows.Close()

	now := time.Now()
	queryString = `UPDATE wheels_schema.reservations SET status = $1, decision_at = $2
		WHERE trip_id = $3 AND status IN ($4, $5)`
	if _, err = tx.Exec(transactionCtx, queryString, schemas.ReservationCancelled, now, tripId,
		schemas.ReservationPending, schemas.ReservationConfirmed); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = `UPDATE wheels_schema.trips SET status = $1, seats_available = 0, updated_at = $2 WHERE trip_id = $3`
	if _, err = tx.Exec(transactionCtx, queryString, schemas.TripCancelled, now, tripId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	// Concurrent fan-out, awaited before answering
	var wg sync.WaitGroup
	for _, r := range recipients {
		wg.Add(1)
		go func(r recipient) {
			defer wg.Done()
			if mailErr := handler.MailManager.SendTripCancelledMail(r.email, r.name, trip.Origin, trip.Destination, trip.DepartureAt); mailErr != nil {
				utils.LogMessage("warn", "Trip cancellation mail to "+r.email+" failed: "+mailErr.Error())
			}
		}(r)
	}
	wg.Wait()

	trip.Status = schemas.TripCancelled
	trip.SeatsAvailable = 0
	trip.UpdatedAt = now
	utils.WriteAndLogResponse(c, trip, http.StatusOK)
}

// GetPassengers returns the driver-only manifest of reservations with
// minimal passenger PII.
func (handler *TripHandler) GetPassengers(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	pool := handler.DatabaseManager.GetPool()

	var driverId uuid.UUID
	queryString := "SELECT driver_id FROM wheels_schema.trips WHERE trip_id = $1"
	if err := pool.QueryRow(ctx, queryString, tripId).Scan(&driverId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if driverId.String() != userId {
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, errors.New("manifest is driver-only"))
		return
	}

	queryString = `SELECT r.reservation_id, r.seats, r.payment_method, r.status, r.created_at, r.decision_at,
		u.user_id, u.first_name, u.last_name, u.phone, u.email
		FROM wheels_schema.reservations r
		JOIN wheels_schema.users u ON u.user_id = r.passenger_id
		WHERE r.trip_id = $1 ORDER BY r.created_at`
	rows, err := pool.Query(ctx, queryString, tripId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	manifest := make([]schemas.ManifestEntryDTO, 0)
	for rows.Next() {
		entry := schemas.ManifestEntryDTO{}
		if err := rows.Scan(&entry.ReservationID, &entry.Seats, &entry.PaymentMethod, &entry.Status,
			&entry.CreatedAt, &entry.DecisionAt, &entry.Passenger.ID, &entry.Passenger.FirstName,
			&entry.Passenger.LastName, &entry.Passenger.Phone, &entry.Passenger.Email); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		manifest = append(manifest, entry)
	}
	rows.Close()

	for i := range manifest {
		points, err := loadReservationPickupPoints(ctx, pool, manifest[i].ReservationID)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		manifest[i].PickupPoints = points
	}

	utils.WriteAndLogResponse(c, manifest, http.StatusOK)
}

// SuggestPickup lets a passenger propose a pickup point. At most 3 pending
// suggestions per passenger per trip; beyond that the request is rate
// limited.
func (handler *TripHandler) SuggestPickup(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)

	suggestionRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.PickupSuggestionRequest)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	trip, err := fetchTripTx(transactionCtx, tx, tripId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if trip.DriverID.String() == userId {
		err = errors.New("drivers manage pickup points directly")
		utils.WriteAndLogError(c, schemas.OwnTrip, http.StatusForbidden, err)
		return
	}
	if trip.Status != schemas.TripScheduled && trip.Status != schemas.TripFull {
		err = errors.New("trip is " + trip.Status)
		utils.WriteAndLogError(c, schemas.TripNotAvailable, http.StatusBadRequest, err)
		return
	}

	var pendingCount int
	queryString := `SELECT COUNT(*) FROM wheels_schema.pickup_suggestions
		WHERE trip_id = $1 AND passenger_id = $2 AND status = $3`
	if err = tx.QueryRow(transactionCtx, queryString, tripId, userId, schemas.SuggestionPending).Scan(&pendingCount); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if pendingCount >= maxPendingSuggestions {
		err = errors.New("pending suggestion cap reached")
		utils.WriteAndLogError(c, schemas.TooManySuggestions, http.StatusTooManyRequests, err)
		return
	}

	now := time.Now()
	suggestionId := uuid.New()
	queryString = `INSERT INTO wheels_schema.pickup_suggestions
		(suggestion_id, trip_id, passenger_id, name, description, lat, lng, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.Exec(transactionCtx, queryString, suggestionId, tripId, userId,
		suggestionRequest.Name, suggestionRequest.Description, suggestionRequest.Lat,
		suggestionRequest.Lng, schemas.SuggestionPending, now); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// The mirror trip point shares the suggestion id so the driver's
	// resolution can address it
	queryString = `INSERT INTO wheels_schema.trip_pickup_points (point_id, trip_id, name, description, lat, lng, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.Exec(transactionCtx, queryString, suggestionId, tripId, suggestionRequest.Name,
		suggestionRequest.Description, suggestionRequest.Lat, suggestionRequest.Lng,
		schemas.PickupSourcePassenger, schemas.PickupActive); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	tripUUID, _ := uuid.Parse(tripId)
	passengerUUID, _ := uuid.Parse(userId)
	suggestion := &schemas.PickupSuggestion{
		ID:          suggestionId,
		TripID:      tripUUID,
		PassengerID: passengerUUID,
		Name:        suggestionRequest.Name,
		Description: suggestionRequest.Description,
		Lat:         suggestionRequest.Lat,
		Lng:         suggestionRequest.Lng,
		Status:      schemas.SuggestionPending,
		CreatedAt:   now,
	}

	utils.WriteAndLogResponse(c, suggestion, http.StatusCreated)
}

// AcceptSuggestion resolves a pending suggestion in the passenger's favor.
// The mirror trip point stays active.
func (handler *TripHandler) AcceptSuggestion(c *gin.Context) {
	handler.resolveSuggestion(c, schemas.SuggestionAccepted, schemas.PickupActive)
}

// RejectSuggestion resolves a pending suggestion against the passenger and
// marks the mirror trip point rejected.
func (handler *TripHandler) RejectSuggestion(c *gin.Context) {
	handler.resolveSuggestion(c, schemas.SuggestionRejected, schemas.PickupRejected)
}

func (handler *TripHandler) resolveSuggestion(c *gin.Context, resolution, pointStatus string) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	tripId := c.Param(utils.TripIdKey)
	suggestionId := c.Param(utils.SuggestionIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	trip, err := fetchTripTx(transactionCtx, tx, tripId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.TripNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if trip.DriverID.String() != userId {
		err = errors.New("only the driver resolves suggestions")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	queryString := `UPDATE wheels_schema.pickup_suggestions SET status = $1
		WHERE suggestion_id = $2 AND trip_id = $3 AND status = $4`
	tag, err := tx.Exec(transactionCtx, queryString, resolution, suggestionId, tripId, schemas.SuggestionPending)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if tag.RowsAffected() == 0 {
		var currentStatus string
		readErr := tx.QueryRow(transactionCtx,
			"SELECT status FROM wheels_schema.pickup_suggestions WHERE suggestion_id = $1 AND trip_id = $2",
			suggestionId, tripId).Scan(&currentStatus)
		switch {
		case errors.Is(readErr, pgx.ErrNoRows):
			err = readErr
			utils.WriteAndLogError(c, schemas.SuggestionNotFound, http.StatusNotFound, err)
		case readErr != nil:
			err = readErr
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		case currentStatus == resolution:
			// Idempotent resolution
			_ = tx.Rollback(transactionCtx)
			cancel()
			utils.WriteAndLogResponse(c, gin.H{"status": currentStatus}, http.StatusOK)
		default:
			err = errors.New("suggestion already resolved")
			utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		}
		return
	}

	queryString = "UPDATE wheels_schema.trip_pickup_points SET status = $1 WHERE point_id = $2 AND trip_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, pointStatus, suggestionId, tripId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"status": resolution}, http.StatusOK)
}

// SuggestTariff runs the tariff calculator on the supplied inputs.
func (handler *TripHandler) SuggestTariff(c *gin.Context) {
	tariffRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.TariffSuggestRequest)

	tariff, err := handler.TariffCalculator.Suggest(tariffRequest.DistanceKm, tariffRequest.DurationMinutes,
		tariffRequest.DemandFactor, tariffRequest.Occupancy)
	if err != nil {
		utils.WriteAndLogError(c, schemas.TariffInvalidInput, http.StatusBadRequest, err)
		return
	}

	utils.WriteAndLogResponse(c, tariff, http.StatusOK)
}

func (handler *TripHandler) notifyDecision(c *gin.Context, passengerId uuid.UUID, trip *schemas.Trip, decision string) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(10*time.Second))
	defer cancel()

	var email, firstName string
	queryString := "SELECT email, first_name FROM wheels_schema.users WHERE user_id = $1"
	if err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, passengerId).Scan(&email, &firstName); err != nil {
		utils.LogMessageWithFields(c, "warn", "Decision mail lookup failed: "+err.Error())
		return
	}

	if err := handler.MailManager.SendReservationDecisionMail(email, firstName, trip.Origin, trip.Destination, decision); err != nil {
		utils.LogMessageWithFields(c, "warn", "Decision mail failed: "+err.Error())
	}
}

// returnSeats gives seats back to a trip, capped at seats_total, and
// renormalizes the status without overriding terminal states.
func returnSeats(ctx context.Context, tx pgx.Tx, tripId string, seats int, now time.Time) error {
	queryString := `UPDATE wheels_schema.trips SET
		seats_available = LEAST(seats_total, seats_available + $1),
		status = CASE WHEN status IN ($2, $3) THEN status
			WHEN LEAST(seats_total, seats_available + $1) > 0 THEN $4
			ELSE $5 END,
		updated_at = $6
		WHERE trip_id = $7`
	_, err := tx.Exec(ctx, queryString, seats, schemas.TripCancelled, schemas.TripCompleted,
		schemas.TripScheduled, schemas.TripFull, now, tripId)
	return err
}

const tripColumns = `t.trip_id, t.driver_id, t.vehicle_id, t.origin, t.destination, t.route_description,
	t.departure_at, t.seats_total, t.seats_available, t.price_per_seat, t.distance_km, t.duration_minutes,
	t.status, t.created_at, t.updated_at`

func scanTrip(row pgx.Row, trip *schemas.Trip) error {
	return row.Scan(&trip.ID, &trip.DriverID, &trip.VehicleID, &trip.Origin, &trip.Destination,
		&trip.RouteDescription, &trip.DepartureAt, &trip.SeatsTotal, &trip.SeatsAvailable,
		&trip.PricePerSeat, &trip.DistanceKm, &trip.DurationMinutes, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt)
}

func scanTripWithStats(row pgx.Row, trip *schemas.Trip, stats *schemas.DriverStatsDTO) error {
	return row.Scan(&trip.ID, &trip.DriverID, &trip.VehicleID, &trip.Origin, &trip.Destination,
		&trip.RouteDescription, &trip.DepartureAt, &trip.SeatsTotal, &trip.SeatsAvailable,
		&trip.PricePerSeat, &trip.DistanceKm, &trip.DurationMinutes, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt, &stats.AverageScore, &stats.RatingsCount)
}

func fetchTripTx(ctx context.Context, tx pgx.Tx, tripId string) (*schemas.Trip, error) {
	trip := &schemas.Trip{}
	queryString := "SELECT " + tripColumns + " FROM wheels_schema.trips t WHERE t.trip_id = $1"
	if err := scanTrip(tx.QueryRow(ctx, queryString, tripId), trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func fetchReservationTx(ctx context.Context, tx pgx.Tx, tripId, reservationId string) (*schemas.Reservation, error) {
	reservation := &schemas.Reservation{}
	queryString := `SELECT reservation_id, trip_id, passenger_id, seats, payment_method, status, created_at, decision_at
		FROM wheels_schema.reservations WHERE reservation_id = $1 AND trip_id = $2`
	err := tx.QueryRow(ctx, queryString, reservationId, tripId).Scan(&reservation.ID, &reservation.TripID,
		&reservation.PassengerID, &reservation.Seats, &reservation.PaymentMethod, &reservation.Status,
		&reservation.CreatedAt, &reservation.DecisionAt)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func loadTripPickupPoints(ctx context.Context, pool interfaces.PgxPoolIface, tripId uuid.UUID) ([]schemas.PickupPoint, error) {
	queryString := `SELECT point_id, name, description, lat, lng, source, status
		FROM wheels_schema.trip_pickup_points WHERE trip_id = $1`
	rows, err := pool.Query(ctx, queryString, tripId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]schemas.PickupPoint, 0)
	for rows.Next() {
		point := schemas.PickupPoint{}
		if err := rows.Scan(&point.ID, &point.Name, &point.Description, &point.Lat, &point.Lng,
			&point.Source, &point.Status); err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}

func loadReservationPickupPoints(ctx context.Context, pool interfaces.PgxPoolIface, reservationId uuid.UUID) ([]schemas.PickupPoint, error) {
	queryString := `SELECT point_id, name, description, lat, lng
		FROM wheels_schema.reservation_pickup_points WHERE reservation_id = $1`
	rows, err := pool.Query(ctx, queryString, reservationId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]schemas.PickupPoint, 0)
	for rows.Next() {
		point := schemas.PickupPoint{}
		if err := rows.Scan(&point.ID, &point.Name, &point.Description, &point.Lat, &point.Lng); err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}

func loadReservations(ctx context.Context, pool interfaces.PgxPoolIface, tripId uuid.UUID) ([]schemas.Reservation, error) {
	queryString := `SELECT reservation_id, trip_id, passenger_id, seats, payment_method, status, created_at, decision_at
		FROM wheels_schema.reservations WHERE trip_id = $1 ORDER BY created_at`
	rows, err := pool.Query(ctx, queryString, tripId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]schemas.Reservation, 0)
	for rows.Next() {
		reservation := schemas.Reservation{}
		if err := rows.Scan(&reservation.ID, &reservation.TripID, &reservation.PassengerID, &reservation.Seats,
			&reservation.PaymentMethod, &reservation.Status, &reservation.CreatedAt, &reservation.DecisionAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

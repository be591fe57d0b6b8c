package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers/mocks"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/maps"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Lookup(_ context.Context, _, _ geo.Point, _ string) (maps.Route, error) {
	return maps.Route{DistanceMeters: 12000, DurationSeconds: 1800, EncodedPolyline: "stub", Provider: "stub"}, nil
}

type testEnv struct {
	server    *httptest.Server
	pool      pgxmock.PgxPoolIface
	jwtMgr    managers.JWTMgr
	mailMock  *mocks.MockMailManager
	expect    *httpexpect.Expect
	tearDown  func()
	revocator managers.RevocationMgr
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	poolMock, err := pgxmock.NewPool()
	if err != nil {
		log.Errorf("Error creating mock database pool: %v", err)
	}

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	revocationMgr := managers.NewMemoryRevocationStore()
	jwtMgr := managers.NewJWTManager([]byte("test-secret"), revocationMgr)

	mailMgrMock := &mocks.MockMailManager{}

	var storageMgr managers.StorageMgr = &mocks.MockStorageManager{}
	var databaseMgr managers.DatabaseMgr = databaseMgrMock
	var mailMgr managers.MailMgr = mailMgrMock
	var revocator managers.RevocationMgr = revocationMgr

	routeCache := maps.NewRouteCache(stubProvider{}, 10*time.Minute)
	tariffCalculator := &maps.TariffCalculator{BaseBoarding: 1500, PerKm: 450, PerMinute: 80, TolerancePct: 15}

	router := InitRouter(databaseMgr, mailMgr, jwtMgr, revocator, storageMgr, routeCache, tariffCalculator)
	server := httptest.NewServer(router)

	return &testEnv{
		server:    server,
		pool:      poolMock,
		jwtMgr:    jwtMgr,
		mailMock:  mailMgrMock,
		expect:    httpexpect.Default(t, server.URL),
		tearDown:  server.Close,
		revocator: revocator,
	}
}

func (env *testEnv) bearer(userId, email string) string {
	token, _ := env.jwtMgr.GenerateJWT(userId, email)
	return "Bearer " + token
}

func userRow(userId, email string, roles []string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"user_id", "email", "first_name", "last_name", "university_id", "phone", "photo_url",
		"roles", "active_role", "active_vehicle", "emergency_contact", "preferred_payment_method",
		"created_at", "updated_at",
	}).AddRow(userId, email, "Laura", "Gonzalez", "A00012345", "3001234567", "",
		roles, roles[len(roles)-1], nil, "", "", now, now)
}

func tripRow(tripId, driverId, vehicleId, status string, seatsTotal, seatsAvailable int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"trip_id", "driver_id", "vehicle_id", "origin", "destination", "route_description",
		"departure_at", "seats_total", "seats_available", "price_per_seat", "distance_km",
		"duration_minutes", "status", "created_at", "updated_at",
	}).AddRow(tripId, driverId, vehicleId, "Portal Norte", "Universidad de La Sabana", "",
		now.Add(24*time.Hour), seatsTotal, seatsAvailable, 5000.0, nil, nil, status, now, now)
}

func vehicleRow(vehicleId, ownerId string, soatExpiration, licenseExpiration time.Time) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"vehicle_id", "owner_id", "plate", "brand", "model", "capacity", "year", "color",
		"vehicle_photo_url", "soat_photo_url", "license_photo_url",
		"soat_expiration", "license_number", "license_expiration",
		"status", "status_updated_at", "requested_review_at", "reviewed_at", "reviewed_by",
		"verification_notes", "created_at", "updated_at",
	}).AddRow(vehicleId, ownerId, "ABC123", "Toyota", "Corolla", 4, nil, "",
		"", "soat.pdf", "license.pdf", soatExpiration, "LIC-1", licenseExpiration,
		schemas.VehicleVerified, nil, nil, nil, nil, "", now, now)
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	env.expect.GET("/health").Expect().Status(http.StatusOK).JSON().Object().HasValue("ok", true)
}

func TestUserRegistration(t *testing.T) {
	validUser := map[string]interface{}{
		"email":        "laura@unisabana.edu.co",
		"password":     "SecurePass123",
		"firstName":    "Laura",
		"lastName":     "Gonzalez",
		"universityId": "A00012345",
		"phone":        "3001234567",
	}

	testCases := []struct {
		name      string
		mutate    func(map[string]interface{})
		status    int
		errorCode string
	}{
		{"Valid", func(m map[string]interface{}) {}, http.StatusCreated, ""},
		{"InvalidEmailDomain", func(m map[string]interface{}) { m["email"] = "laura@gmail.com" }, http.StatusBadRequest, "INVALID_EMAIL_DOMAIN"},
		{"WeakPassword", func(m map[string]interface{}) { m["password"] = "short" }, http.StatusBadRequest, "WEAK_PASSWORD"},
		{"DuplicateEmail", func(m map[string]interface{}) {}, http.StatusConflict, "DUPLICATE_EMAIL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestEnv(t)
			defer env.tearDown()

			user := map[string]interface{}{}
			for k, v := range validUser {
				user[k] = v
			}
			tc.mutate(user)

			switch tc.name {
			case "Valid":
				env.pool.ExpectBegin()
				env.pool.ExpectQuery("SELECT email FROM wheels_schema.users").
					WithArgs("laura@unisabana.edu.co", "A00012345").
					WillReturnRows(pgxmock.NewRows([]string{"email"}))
				env.pool.ExpectExec("INSERT INTO wheels_schema.users").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				env.pool.ExpectCommit()
				env.mailMock.On("SendWelcomeMail", "laura@unisabana.edu.co", "Laura").Return(nil)
			case "DuplicateEmail":
				env.pool.ExpectBegin()
				env.pool.ExpectQuery("SELECT email FROM wheels_schema.users").
					WithArgs("laura@unisabana.edu.co", "A00012345").
					WillReturnRows(pgxmock.NewRows([]string{"email"}).AddRow("laura@unisabana.edu.co"))
			}

			response := env.expect.POST("/auth/register").WithJSON(user).Expect().Status(tc.status)
			if tc.errorCode != "" {
				response.JSON().Object().HasValue("error", tc.errorCode)
			} else {
				response.JSON().Object().HasValue("email", "laura@unisabana.edu.co")
			}

			if err := env.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

// TestDriverRegistrationWithVehicle registers a driver with a vehicle in one
// transaction: the vehicle is created, the role set holds both roles and the
// new vehicle becomes active.
func TestDriverRegistrationWithVehicle(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	soat := time.Now().Add(90 * 24 * time.Hour).Format(time.RFC3339)
	license := time.Now().Add(200 * 24 * time.Hour).Format(time.RFC3339)

	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT email FROM wheels_schema.users").
		WillReturnRows(pgxmock.NewRows([]string{"email"}))
	env.pool.ExpectQuery("SELECT plate FROM wheels_schema.vehicles").
		WithArgs("ABC123").
		WillReturnRows(pgxmock.NewRows([]string{"plate"}))
	env.pool.ExpectExec("INSERT INTO wheels_schema.users").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	env.pool.ExpectExec("INSERT INTO wheels_schema.vehicles").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	env.pool.ExpectExec("UPDATE wheels_schema.users SET active_vehicle").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectCommit()
	env.mailMock.On("SendWelcomeMail", "diego@unisabana.edu.co", "Diego").Return(nil)

	response := env.expect.POST("/auth/register").WithJSON(map[string]interface{}{
		"email":        "diego@unisabana.edu.co",
		"password":     "SecurePass123",
		"firstName":    "Diego",
		"lastName":     "Rojas",
		"universityId": "A00054321",
		"phone":        "3007654321",
		"role":         "driver",
		"vehicle": map[string]interface{}{
			"plate":             "abc 123",
			"brand":             "Toyota",
			"model":             "Corolla",
			"capacity":          4,
			"soatExpiration":    soat,
			"licenseNumber":     "LIC-1",
			"licenseExpiration": license,
		},
	}).Expect().Status(http.StatusCreated).JSON().Object()

	response.Value("roles").Array().ContainsAll("passenger", "driver")
	response.HasValue("activeRole", "driver")
	response.Value("activeVehicle").NotNull()

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestUserLogin(t *testing.T) {
	userId := uuid.New().String()
	hash, _ := bcrypt.GenerateFromPassword([]byte("SecurePass123"), bcrypt.DefaultCost)

	testCases := []struct {
		name     string
		password string
		rows     func() *pgxmock.Rows
		status   int
	}{
		{"Valid", "SecurePass123", func() *pgxmock.Rows {
			return pgxmock.NewRows([]string{"user_id", "password"}).AddRow(userId, string(hash))
		}, http.StatusOK},
		{"WrongPassword", "WrongPass9999", func() *pgxmock.Rows {
			return pgxmock.NewRows([]string{"user_id", "password"}).AddRow(userId, string(hash))
		}, http.StatusUnauthorized},
		{"UnknownUser", "SecurePass123", func() *pgxmock.Rows {
			return pgxmock.NewRows([]string{"user_id", "password"})
		}, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestEnv(t)
			defer env.tearDown()

			env.pool.ExpectQuery("SELECT user_id, password FROM wheels_schema.users").
				WithArgs("laura@unisabana.edu.co").
				WillReturnRows(tc.rows())

			response := env.expect.POST("/auth/login").WithJSON(map[string]string{
				"email":    "laura@unisabana.edu.co",
				"password": tc.password,
			}).Expect().Status(tc.status)

			if tc.status == http.StatusOK {
				response.JSON().Object().Value("token").String().NotEmpty()
			} else {
				response.JSON().Object().HasValue("error", "INVALID_CREDENTIALS")
			}

			if err := env.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

// TestMeLogoutRevocation covers the me→logout→me flow with a token issued by
// the JWT manager: the same token works before logout and is rejected after.
func TestMeLogoutRevocation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	userId := uuid.New().String()
	token := env.bearer(userId, "laura@unisabana.edu.co")

	env.pool.ExpectQuery("SELECT user_id, email, first_name").
		WithArgs(userId).
		WillReturnRows(userRow(userId, "laura@unisabana.edu.co", []string{"passenger"}))

	env.expect.GET("/auth/me").WithHeader("Authorization", token).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("email", "laura@unisabana.edu.co")

	env.expect.POST("/auth/logout").WithHeader("Authorization", token).
		Expect().Status(http.StatusOK)

	env.expect.GET("/auth/me").WithHeader("Authorization", token).
		Expect().Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "INVALID_TOKEN")

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateReservation(t *testing.T) {
	tripId := uuid.New().String()
	passengerId := uuid.New().String()
	driverId := uuid.New().String()

	body := map[string]interface{}{
		"seats": 2,
		"pickupPoints": []map[string]interface{}{
			{"name": "Calle 100", "lat": 4.6858, "lng": -74.057},
			{"name": "Calle 85", "lat": 4.6673, "lng": -74.0603},
		},
		"paymentMethod": "cash",
	}

	t.Run("Success", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("UPDATE wheels_schema.trips SET").
			WillReturnRows(pgxmock.NewRows([]string{"seats_available", "status"}).AddRow(1, schemas.TripScheduled))
		env.pool.ExpectExec("INSERT INTO wheels_schema.reservations").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.pool.ExpectExec("INSERT INTO wheels_schema.reservation_pickup_points").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.pool.ExpectExec("INSERT INTO wheels_schema.reservation_pickup_points").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		env.pool.ExpectCommit()

		response := env.expect.POST("/trips/"+tripId+"/reservations").
			WithHeader("Authorization", env.bearer(passengerId, "p@unisabana.edu.co")).
			WithJSON(body).Expect().Status(http.StatusCreated).JSON().Object()
		response.HasValue("seatsAvailable", 1)
		response.HasValue("tripStatus", schemas.TripScheduled)

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("InsufficientSeats", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("UPDATE wheels_schema.trips SET").
			WillReturnRows(pgxmock.NewRows([]string{"seats_available", "status"}))
		env.pool.ExpectQuery("SELECT driver_id, status, seats_available").
			WillReturnRows(pgxmock.NewRows([]string{"driver_id", "status", "seats_available"}).
				AddRow(driverId, schemas.TripScheduled, 1))
		env.pool.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		env.expect.POST("/trips/"+tripId+"/reservations").
			WithHeader("Authorization", env.bearer(passengerId, "p@unisabana.edu.co")).
			WithJSON(body).Expect().Status(http.StatusBadRequest).
			JSON().Object().HasValue("error", "INSUFFICIENT_SEATS")

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("DuplicateReservation", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("UPDATE wheels_schema.trips SET").
			WillReturnRows(pgxmock.NewRows([]string{"seats_available", "status"}))
		env.pool.ExpectQuery("SELECT driver_id, status, seats_available").
			WillReturnRows(pgxmock.NewRows([]string{"driver_id", "status", "seats_available"}).
				AddRow(driverId, schemas.TripScheduled, 3))
		env.pool.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		env.expect.POST("/trips/"+tripId+"/reservations").
			WithHeader("Authorization", env.bearer(passengerId, "p@unisabana.edu.co")).
			WithJSON(body).Expect().Status(http.StatusConflict).
			JSON().Object().HasValue("error", "DUPLICATE_RESERVATION")

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("OwnTrip", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("UPDATE wheels_schema.trips SET").
			WillReturnRows(pgxmock.NewRows([]string{"seats_available", "status"}))
		env.pool.ExpectQuery("SELECT driver_id, status, seats_available").
			WillReturnRows(pgxmock.NewRows([]string{"driver_id", "status", "seats_available"}).
				AddRow(driverId, schemas.TripScheduled, 3))

		env.expect.POST("/trips/"+tripId+"/reservations").
			WithHeader("Authorization", env.bearer(driverId, "d@unisabana.edu.co")).
			WithJSON(body).Expect().Status(http.StatusForbidden).
			JSON().Object().HasValue("error", "OWN_TRIP")

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("PickupPointsMustMatchSeats", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		short := map[string]interface{}{
			"seats":         2,
			"pickupPoints":  []map[string]interface{}{{"name": "Calle 100", "lat": 4.6858, "lng": -74.057}},
			"paymentMethod": "cash",
		}

		env.expect.POST("/trips/"+tripId+"/reservations").
			WithHeader("Authorization", env.bearer(passengerId, "p@unisabana.edu.co")).
			WithJSON(short).Expect().Status(http.StatusBadRequest).
			JSON().Object().HasValue("error", "INVALID_REQUEST")
	})
}

// TestRejectReservationReturnsSeats checks that rejecting a pending
// reservation hands its seats back and renormalizes the trip status.
func TestRejectReservationReturnsSeats(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	tripId := uuid.New().String()
	vehicleId := uuid.New().String()
	driverId := uuid.New().String()
	passengerId := uuid.New().String()
	reservationId := uuid.New().String()

	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT t.trip_id").
		WillReturnRows(tripRow(tripId, driverId, vehicleId, schemas.TripFull, 3, 0))
	env.pool.ExpectQuery("SELECT reservation_id").
		WillReturnRows(pgxmock.NewRows([]string{
			"reservation_id", "trip_id", "passenger_id", "seats", "payment_method", "status", "created_at", "decision_at",
		}).AddRow(reservationId, tripId, passengerId, 3, "cash", schemas.ReservationPending, time.Now(), nil))
	env.pool.ExpectExec("UPDATE wheels_schema.reservations").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectExec("UPDATE wheels_schema.trips").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectCommit()
	env.pool.ExpectQuery("SELECT email, first_name").
		WillReturnRows(pgxmock.NewRows([]string{"email", "first_name"}).AddRow("p@unisabana.edu.co", "Laura"))
	env.mailMock.On("SendReservationDecisionMail", "p@unisabana.edu.co", "Laura",
		mock.Anything, mock.Anything, schemas.ReservationRejected).Return(nil)

	env.expect.PUT("/trips/"+tripId+"/reservations/"+reservationId+"/reject").
		WithHeader("Authorization", env.bearer(driverId, "d@unisabana.edu.co")).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("status", schemas.ReservationRejected)

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDeleteVehicle(t *testing.T) {
	vehicleId := uuid.New().String()
	ownerId := uuid.New().String()
	future := time.Now().Add(90 * 24 * time.Hour)

	t.Run("BlockedByActiveTrips", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("SELECT vehicle_id, owner_id").
			WillReturnRows(vehicleRow(vehicleId, ownerId, future, future))
		env.pool.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		env.expect.DELETE("/vehicles/"+vehicleId).
			WithHeader("Authorization", env.bearer(ownerId, "d@unisabana.edu.co")).
			Expect().Status(http.StatusBadRequest).
			JSON().Object().HasValue("error", "BLOCKED_BY_ACTIVE_TRIPS")

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("LastVehicleStripsDriverRole", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("SELECT vehicle_id, owner_id").
			WillReturnRows(vehicleRow(vehicleId, ownerId, future, future))
		env.pool.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		env.pool.ExpectExec("DELETE FROM wheels_schema.vehicles").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		env.pool.ExpectQuery("SELECT vehicle_id FROM wheels_schema.vehicles").
			WillReturnRows(pgxmock.NewRows([]string{"vehicle_id"}))
		env.pool.ExpectExec("UPDATE wheels_schema.users").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		env.pool.ExpectCommit()

		env.expect.DELETE("/vehicles/"+vehicleId).
			WithHeader("Authorization", env.bearer(ownerId, "d@unisabana.edu.co")).
			Expect().Status(http.StatusOK)

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("NotOwner", func(t *testing.T) {
		env := setupTestEnv(t)
		defer env.tearDown()

		env.pool.ExpectBegin()
		env.pool.ExpectQuery("SELECT vehicle_id, owner_id").
			WillReturnRows(vehicleRow(vehicleId, ownerId, future, future))

		env.expect.DELETE("/vehicles/"+vehicleId).
			WithHeader("Authorization", env.bearer(uuid.New().String(), "other@unisabana.edu.co")).
			Expect().Status(http.StatusForbidden).
			JSON().Object().HasValue("error", "FORBIDDEN")

		if err := env.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

// TestPasswordResetFlow issues a token through forgot-password, redeems it
// once and verifies the second redemption fails.
func TestPasswordResetFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	userId := uuid.New().String()
	resetId := uuid.New().String()

	var rawToken string
	env.mailMock.On("SendPasswordResetMail", "reset@unisabana.edu.co", "Laura", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			rawToken = args.String(2)
		}).Return(nil)

	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT user_id, first_name").
		WithArgs("reset@unisabana.edu.co").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "first_name"}).AddRow(userId, "Laura"))
	env.pool.ExpectExec("UPDATE wheels_schema.password_resets").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	env.pool.ExpectExec("INSERT INTO wheels_schema.password_resets").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	env.pool.ExpectCommit()

	env.expect.POST("/auth/forgot-password").
		WithJSON(map[string]string{"email": "reset@unisabana.edu.co"}).
		Expect().Status(http.StatusOK)

	if rawToken == "" {
		t.Fatal("forgot-password did not deliver a raw token")
	}

	// First redemption succeeds
	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT reset_id, user_id, expires_at, used").
		WillReturnRows(pgxmock.NewRows([]string{"reset_id", "user_id", "expires_at", "used"}).
			AddRow(resetId, userId, time.Now().Add(10*time.Minute), false))
	env.pool.ExpectExec("UPDATE wheels_schema.users").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectExec("UPDATE wheels_schema.password_resets").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectCommit()

	env.expect.POST("/auth/reset-password").
		WithJSON(map[string]string{"token": rawToken, "newPassword": "NuevoPass123"}).
		Expect().Status(http.StatusOK)

	// Second redemption finds the token used
	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT reset_id, user_id, expires_at, used").
		WillReturnRows(pgxmock.NewRows([]string{"reset_id", "user_id", "expires_at", "used"}).
			AddRow(resetId, userId, time.Now().Add(10*time.Minute), true))

	env.expect.POST("/auth/reset-password").
		WithJSON(map[string]string{"token": rawToken, "newPassword": "NuevoPass123"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("error", "TOKEN_INVALID_OR_EXPIRED")

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestCancelTripFansOutMails cancels a trip with one active reservation and
// verifies the passenger is mailed without failing the request.
func TestCancelTripFansOutMails(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	tripId := uuid.New().String()
	vehicleId := uuid.New().String()
	driverId := uuid.New().String()

	env.pool.ExpectBegin()
	env.pool.ExpectQuery("SELECT t.trip_id").
		WillReturnRows(tripRow(tripId, driverId, vehicleId, schemas.TripScheduled, 3, 1))
	env.pool.ExpectQuery("SELECT DISTINCT u.email").
		WillReturnRows(pgxmock.NewRows([]string{"email", "first_name"}).AddRow("p@unisabana.edu.co", "Laura"))
	env.pool.ExpectExec("UPDATE wheels_schema.reservations").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectExec("UPDATE wheels_schema.trips").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.pool.ExpectCommit()
	env.mailMock.On("SendTripCancelledMail", "p@unisabana.edu.co", "Laura",
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	env.expect.PUT("/trips/"+tripId+"/cancel").
		WithHeader("Authorization", env.bearer(driverId, "d@unisabana.edu.co")).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("status", schemas.TripCancelled)

	env.mailMock.AssertCalled(t, "SendTripCancelledMail", "p@unisabana.edu.co", "Laura",
		mock.Anything, mock.Anything, mock.Anything)

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestListTrips(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	tripId := uuid.New().String()
	driverId := uuid.New().String()
	vehicleId := uuid.New().String()
	now := time.Now()

	env.pool.ExpectQuery("SELECT t.trip_id").
		WillReturnRows(pgxmock.NewRows([]string{
			"trip_id", "driver_id", "vehicle_id", "origin", "destination", "route_description",
			"departure_at", "seats_total", "seats_available", "price_per_seat", "distance_km",
			"duration_minutes", "status", "created_at", "updated_at", "avg", "count",
		}).AddRow(tripId, driverId, vehicleId, "Portal Norte", "Universidad de La Sabana", "",
			now.Add(24*time.Hour), 3, 2, 5000.0, nil, nil, schemas.TripScheduled, now, now, 4.5, 12))
	env.pool.ExpectQuery("SELECT point_id").
		WillReturnRows(pgxmock.NewRows([]string{"point_id", "name", "description", "lat", "lng", "source", "status"}))

	response := env.expect.GET("/trips").
		WithHeader("Authorization", env.bearer(uuid.New().String(), "p@unisabana.edu.co")).
		Expect().Status(http.StatusOK).JSON().Array()
	response.Length().IsEqual(1)
	entry := response.Value(0).Object()
	entry.HasValue("origin", "Portal Norte")
	entry.Value("driverStats").Object().HasValue("ratingsCount", 12)

	if err := env.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestTariffSuggest(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	response := env.expect.POST("/trips/tariff/suggest").
		WithHeader("Authorization", env.bearer(uuid.New().String(), "p@unisabana.edu.co")).
		WithJSON(map[string]interface{}{"distanceKm": 10, "durationMinutes": 30}).
		Expect().Status(http.StatusOK).JSON().Object()
	response.HasValue("suggestedTariff", 8400)
	response.Value("range").Object().HasValue("min", 7140)

	// Negative inputs never reach the calculator
	env.expect.POST("/trips/tariff/suggest").
		WithHeader("Authorization", env.bearer(uuid.New().String(), "p@unisabana.edu.co")).
		WithJSON(map[string]interface{}{"distanceKm": -1, "durationMinutes": 30}).
		Expect().Status(http.StatusBadRequest)
}

func TestMapsDistanceUsesProvider(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	response := env.expect.GET("/maps/distance").
		WithQuery("origin", "4.75459,-74.04570").
		WithQuery("destination", "4.68580,-74.05700").
		Expect().Status(http.StatusOK).JSON().Object()
	response.HasValue("distanceMeters", 12000)
	response.HasValue("provider", "stub")
	response.HasValue("cached", false)

	// Second call is served from the cache
	env.expect.GET("/maps/distance").
		WithQuery("origin", "4.75459,-74.04570").
		WithQuery("destination", "4.68580,-74.05700").
		Expect().Status(http.StatusOK).JSON().Object().HasValue("cached", true)
}

func TestTransmilenioCatalog(t *testing.T) {
	env := setupTestEnv(t)
	defer env.tearDown()

	env.expect.GET("/maps/transmilenio/stops").
		Expect().Status(http.StatusOK).JSON().Array().NotEmpty()
	env.expect.GET("/maps/transmilenio/routes").
		Expect().Status(http.StatusOK).JSON().Array().NotEmpty()
	env.expect.GET("/maps/transmilenio/stations").
		Expect().Status(http.StatusOK).JSON().Array().NotEmpty()
}

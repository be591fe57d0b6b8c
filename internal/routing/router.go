package routing

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/maps"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/middleware"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/routing/handlers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
)

// InitRouter builds the gin engine with the common middleware chain and all
// route groups. databaseMgr may be nil: the server still answers /health and
// the maps endpoints while persistence routes return 503.
func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr,
	revocationMgr managers.RevocationMgr, storageMgr managers.StorageMgr,
	routeCache *maps.RouteCache, tariffCalculator *maps.TariffCalculator) *gin.Engine {
	router := gin.New()
	setupCommonMiddleware(router)
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, revocationMgr, storageMgr, routeCache, tariffCalculator)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:5173", "http://localhost:19000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept, Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

// requireDatabase guards persistence routes when the server boots without a
// database connection.
func requireDatabase(databaseMgr managers.DatabaseMgr) gin.HandlerFunc {
	return func(c *gin.Context) {
		if databaseMgr == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, &schemas.ErrorDTO{Error: schemas.ServiceUnavailable.Code})
			return
		}
		c.Next()
	}
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	jwtMgr managers.JWTMgr, revocationMgr managers.RevocationMgr, storageMgr managers.StorageMgr,
	routeCache *maps.RouteCache, tariffCalculator *maps.TariffCalculator) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, &schemas.HealthDTO{Ok: true})
	})

	mapsHdl := handlers.NewMapsHandler(routeCache, tariffCalculator)
	mapsRoutes(router.Group("/maps"), mapsHdl)

	dbGuard := requireDatabase(databaseMgr)

	authRouter := router.Group("/auth")
	authRouter.Use(dbGuard)
	authHdl := handlers.NewAuthHandler(&databaseMgr, &jwtMgr, &mailMgr, &revocationMgr)
	authRoutes(authRouter, authHdl, jwtMgr)

	vehicleRouter := router.Group("/vehicles")
	vehicleRouter.Use(dbGuard)
	vehicleRouter.Use(jwtMgr.JWTMiddleware())
	vehicleHdl := handlers.NewVehicleHandler(&databaseMgr, &storageMgr)
	vehicleRoutes(vehicleRouter, vehicleHdl)

	tripRouter := router.Group("/trips")
	tripRouter.Use(dbGuard)
	tripHdl := handlers.NewTripHandler(&databaseMgr, &mailMgr, tariffCalculator)
	tripRoutes(tripRouter, tripHdl, jwtMgr)
}

func authRoutes(authRouter *gin.RouterGroup, authHdl handlers.AuthHdl, jwtMgr managers.JWTMgr) {
	authRouter.POST("/register", middleware.ValidateAndSanitizeStruct(&schemas.RegistrationRequest{}), authHdl.Register)
	authRouter.POST("/login", middleware.ValidateAndSanitizeStruct(&schemas.LoginRequest{}), authHdl.Login)
	authRouter.POST("/forgot-password", middleware.ValidateAndSanitizeStruct(&schemas.ForgotPasswordRequest{}), authHdl.ForgotPassword)
	authRouter.POST("/reset-password", middleware.ValidateAndSanitizeStruct(&schemas.ResetPasswordRequest{}), authHdl.ResetPassword)
	// The following routes require the user to be authenticated
	authRouter.Use(jwtMgr.JWTMiddleware())
	authRouter.GET("/me", authHdl.Me)
	authRouter.PUT("/me", middleware.ValidateAndSanitizeStruct(&schemas.UpdateProfileRequest{}), authHdl.UpdateProfile)
	authRouter.POST("/logout", authHdl.Logout)
	authRouter.PUT("/role", middleware.ValidateAndSanitizeStruct(&schemas.RoleSwitchRequest{}), authHdl.SwitchRole)
}

func vehicleRoutes(vehicleRouter *gin.RouterGroup, vehicleHdl handlers.VehicleHdl) {
	vehicleRouter.GET("", vehicleHdl.ListVehicles)
	vehicleRouter.POST("", vehicleHdl.CreateVehicle)
	vehicleRouter.POST("/validate", vehicleHdl.ValidateVehicle)
	// Update binds its own payload: the route accepts JSON and multipart
	vehicleRouter.PUT("/:vehicleId", vehicleHdl.UpdateVehicle)
	vehicleRouter.DELETE("/:vehicleId", vehicleHdl.DeleteVehicle)
	vehicleRouter.PUT("/:vehicleId/activate", vehicleHdl.ActivateVehicle)
	vehicleRouter.POST("/:vehicleId/request-review", vehicleHdl.RequestReview)
	vehicleRouter.POST("/:vehicleId/pickup-points", middleware.ValidateAndSanitizeStruct(&schemas.PickupPointRequest{}), vehicleHdl.AddPickupPoint)
	vehicleRouter.PUT("/:vehicleId/pickup-points/:pointId", middleware.ValidateAndSanitizeStruct(&schemas.PickupPointRequest{}), vehicleHdl.UpdatePickupPoint)
	vehicleRouter.DELETE("/:vehicleId/pickup-points/:pointId", vehicleHdl.DeletePickupPoint)
}

func tripRoutes(tripRouter *gin.RouterGroup, tripHdl handlers.TripHdl, jwtMgr managers.JWTMgr) {
	tripRouter.Use(jwtMgr.JWTMiddleware())
	tripRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.CreateTripRequest{}), tripHdl.CreateTrip)
	tripRouter.GET("", tripHdl.ListTrips)
	tripRouter.GET("/mine", tripHdl.MyTrips)
	tripRouter.GET("/reservations/mine", tripHdl.MyReservations)
	tripRouter.POST("/tariff/suggest", middleware.ValidateAndSanitizeStruct(&schemas.TariffSuggestRequest{}), tripHdl.SuggestTariff)
	tripRouter.POST("/:tripId/reservations", middleware.ValidateAndSanitizeStruct(&schemas.CreateReservationRequest{}), tripHdl.CreateReservation)
	tripRouter.PUT("/:tripId/reservations/:reservationId/confirm", tripHdl.ConfirmReservation)
	tripRouter.PUT("/:tripId/reservations/:reservationId/reject", tripHdl.RejectReservation)
	tripRouter.PUT("/:tripId/reservations/:reservationId/cancel", tripHdl.CancelReservation)
	tripRouter.PUT("/:tripId/cancel", tripHdl.CancelTrip)
	tripRouter.GET("/:tripId/passengers", tripHdl.GetPassengers)
	tripRouter.POST("/:tripId/pickup-suggestions", middleware.ValidateAndSanitizeStruct(&schemas.PickupSuggestionRequest{}), tripHdl.SuggestPickup)
	tripRouter.PUT("/:tripId/pickup-suggestions/:suggestionId/accept", tripHdl.AcceptSuggestion)
	tripRouter.PUT("/:tripId/pickup-suggestions/:suggestionId/reject", tripHdl.RejectSuggestion)
}

func mapsRoutes(mapsRouter *gin.RouterGroup, mapsHdl handlers.MapsHdl) {
	mapsRouter.GET("/distance", mapsHdl.GetDistance)
	mapsRouter.POST("/calculate", middleware.ValidateAndSanitizeStruct(&schemas.CalculateRouteRequest{}), mapsHdl.CalculateRoute)
	mapsRouter.GET("/route-suggest", mapsHdl.RouteSuggest)
	mapsRouter.GET("/transmilenio/routes", mapsHdl.TransmilenioRoutes)
	mapsRouter.GET("/transmilenio/stations", mapsHdl.TransmilenioStations)
	mapsRouter.GET("/transmilenio/stops", mapsHdl.TransmilenioStops)
}

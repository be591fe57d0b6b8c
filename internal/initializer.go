package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/maps"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/routing"
)

const (
	port    = ":8080"
	envFile = ".env"
)

func Init() {
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("No .env file found, using environment variables from system")
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	setLogLevel(logLevel)

	// Connect to database. A missing connection string leaves the server in
	// degraded mode: /health and the maps endpoints keep working.
	pool := initializeDatabase()

	var databaseMgr managers.DatabaseMgr
	if pool != nil {
		defer pool.Close()
		databaseMgr = managers.NewDatabaseManager(pool)
	} else {
		log.Warn("Starting without a database connection, persistence endpoints will return 503")
	}

	// Initialize revocation store
	revocationMgr := initializeRevocationStore()

	// Initialize JWT manager; the signing secret is required
	jwtMgr, err := managers.NewJWTManagerFromEnv(revocationMgr)
	if err != nil {
		log.Fatal("Error initializing JWT manager: ", err)
	}

	// Initialize mail manager
	mailMgr := managers.NewMailManager()

	// Initialize blob storage
	storageMgr, err := managers.NewDiskStorageManager()
	if err != nil {
		log.Fatal("Error initializing storage: ", err)
	}

	// Initialize route facade and tariff calculator
	routeCache := maps.NewRouteCacheFromEnv(maps.NewProviderFromEnv())
	tariffCalculator := maps.NewTariffCalculatorFromEnv()

	// Initialize router
	r := routing.InitRouter(databaseMgr, mailMgr, jwtMgr, revocationMgr, storageMgr, routeCache, tariffCalculator)
	log.Println("Initialized router")

	// Handle interrupt signal gracefully
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)

		<-c
		log.Println("Server shutting down...")
		os.Exit(0)
	}()

	// Start server on the specified port
	log.Printf("Starting server on port %s...\n", port)
	err = http.ListenAndServe(port, r)
	if err != nil {
		log.Fatal("Error starting server: ", err)
	}
}

func initializeDatabase() *pgxpool.Pool {
	var (
		dbHost     = os.Getenv("DB_HOST")
		dbPort     = os.Getenv("DB_PORT")
		dbUser     = os.Getenv("DB_USER")
		dbPassword = os.Getenv("DB_PASS")
		dbName     = os.Getenv("DB_NAME")
	)

	if dbHost == "" || dbPort == "" || dbUser == "" || dbPassword == "" || dbName == "" {
		return nil
	}

	log.Info("Initializing database")
	url := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser + " password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Fatal("error configuring database: ", err)
	}

	config.MinConns = 5
	config.MaxConns = 30
	config.MaxConnIdleTime = time.Minute * 2
	config.HealthCheckPeriod = time.Minute * 1

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}
	log.Info("Connected to database")
	return pool
}

func initializeRevocationStore() managers.RevocationMgr {
	if os.Getenv("REVOCATION_STORE") == "redis" {
		addr := os.Getenv("REDIS_ADDR")
		store, err := managers.NewRedisRevocationStore(addr)
		if err != nil {
			log.Fatal("error connecting to Redis revocation store: ", err)
		}
		return store
	}

	return managers.NewMemoryRevocationStore()
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "FATAL":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetReportCaller(true)

	log.SetOutput(os.Stdout)
}

package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/reparto-ops/dispatch-backend/database"
	"github.com/reparto-ops/dispatch-backend/internal/jobs"
	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/routes"
	"github.com/reparto-ops/dispatch-backend/internal/services"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Driver{},
			&models.DispatchRecord{},
			&models.FraudAlert{},
			&models.BagTransaction{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Operating timezone for rosters, rankings and exports
	loc := time.Local
	if tz := os.Getenv("DISPATCH_TIMEZONE"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("Invalid DISPATCH_TIMEZONE %q: %v", tz, err)
		}
		loc = parsed
	}

	// Geofence around the warehouse reference point
	var fence *services.Geofence
	if os.Getenv("GEOFENCE_DISABLED") != "true" {
		lat := getEnvFloat("GEOFENCE_LAT", 0)
		lng := getEnvFloat("GEOFENCE_LNG", 0)
		radius := getEnvFloat("GEOFENCE_RADIUS_METERS", 200)
		if lat == 0 && lng == 0 {
			log.Println("⚠️  GEOFENCE_LAT/GEOFENCE_LNG not set - geofence check disabled")
		} else {
			fence = services.NewGeofence(lat, lng, radius)
			log.Printf("📍 Geofence active: %.6f,%.6f radius %.0fm", lat, lng, radius)
		}
	}

	// Session tokens
	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		log.Fatal("JWT_SIGNING_KEY is required")
	}
	sessionTTL := time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)) * time.Hour
	authService, err := services.NewAuthService(signingKey, sessionTTL,
		os.Getenv("COORDINATOR_SECRET"), os.Getenv("ADMIN_SECRET"))
	if err != nil {
		log.Fatal("Failed to initialize auth service:", err)
	}

	// Selfie object storage (optional)
	selfieService, err := services.NewSelfieService()
	if err != nil {
		log.Printf("⚠️  Selfie storage disabled: %v", err)
		selfieService = nil
	} else {
		log.Println("✅ Selfie storage initialized")
	}

	// Business services
	checkInService := services.NewCheckInService(store, fence)
	dispatchService := services.NewDispatchService(store)
	bagService := services.NewBagService(store)
	rosterService := services.NewRosterService(store, loc)
	rankingService := services.NewRankingService(store, loc)
	exportService := services.NewExportService(store)

	// Background sweep of stale pending slots
	sweeper := jobs.NewQueueSweeper(store,
		time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 15))*time.Minute,
		time.Duration(getEnvInt("SWEEP_STALE_HOURS", 12))*time.Hour)
	sweeper.Start()

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Dispatch Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Service summary with database status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service":     "Dispatch Backend API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
			"geofence":    fence != nil,
			"selfies":     selfieService != nil,
		}

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			dbStatus := "connected"
			if err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}

			var driverCount, recordCount, alertCount int64
			database.DB.Model(&models.Driver{}).Count(&driverCount)
			database.DB.Model(&models.DispatchRecord{}).Count(&recordCount)
			database.DB.Model(&models.FraudAlert{}).Count(&alertCount)

			response["database"] = fiber.Map{
				"status":  dbStatus,
				"drivers": driverCount,
				"records": recordCount,
				"alerts":  alertCount,
			}
		}

		return c.JSON(response)
	})

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
		})
	})

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		Store:    store,
		Auth:     authService,
		CheckIn:  checkInService,
		Dispatch: dispatchService,
		Bags:     bagService,
		Roster:   rosterService,
		Ranking:  rankingService,
		Export:   exportService,
		Selfies:  selfieService,
		Location: loc,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping queue sweeper...")
		sweeper.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Dispatch Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("🕐 Timezone: %s", loc.String())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"goblin-backend/handlers"
	"goblin-backend/middleware"
	"goblin-backend/models"
	"goblin-backend/services"
	"goblin-backend/utils"
	"goblin-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // gallery uploads only
	})

	// All traffic must come through the Gateway
	app.Use(middleware.GatewayAuthMiddleware())
	// Attach whatever identity the Gateway resolved; routes opt into
	// RequireUser / RequireAdmin on top.
	app.Use(middleware.UserContextMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.BoxTemplate{},
		&models.UserBox{},
		&models.Referral{},
		&models.GalleryImage{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	boxService := services.NewBoxService(db)
	templateService := services.NewTemplateService(db)
	userService := services.NewUserService(db)
	galleryService := services.NewGalleryService(db)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("GOBLIN_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("GOBLIN_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewProfileSyncWorker(db, authServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker.Start(ctx)

	templateService.StartActivationScheduler()

	handlers.SetupBoxRoutes(app, boxService, templateService)
	handlers.SetupUserRoutes(app, userService)
	handlers.SetupGalleryRoutes(app, galleryService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Template activation scheduler running")

	<-ctx.Done()
	log.Println("Shutting down server...")
}

package main

import (
	"log"

	"sprintlms/backend/config"
	"sprintlms/backend/middleware"
	"sprintlms/backend/routes"
	"sprintlms/backend/services"
	"sprintlms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// AI generation is optional; without credentials the endpoints report 503.
	generator, err := services.NewAIGenerator(cfg, logger)
	if err != nil {
		logger.Printf("AI generation disabled: %v", err)
		generator = nil
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxUploadBytes) + 1024*1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, generator, logger)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}

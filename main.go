package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"flag-hunt-system/handlers"
	"flag-hunt-system/models"
	"flag-hunt-system/services"
	"flag-hunt-system/utils"

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
		BodyLimit: 256 * 1024 * 1024, // challenge attachments
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
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
		&models.Category{},
		&models.Challenge{},
		&models.Class{},
		&models.User{},
		&models.FlagSubmission{},
		&models.ChallengeCompletion{},
		&models.ActivityLog{},
		&models.Attachment{},
		&models.HuntConfig{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	submissionService := services.NewSubmissionService(db)
	if s := os.Getenv("SUBMISSION_COOLDOWN_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			submissionService.Cooldown = time.Duration(n) * time.Second
		}
	}
	invalidationService := services.NewInvalidationService(db)
	scoreboardService := services.NewScoreboardService(db)
	challengeService := services.NewChallengeService(db)

	scheduler := services.NewHuntScheduler(db)
	scheduler.Start()

	handlers.SetupChallengeRoutes(app, submissionService, scoreboardService)
	handlers.SetupScoreboardRoutes(app, scoreboardService)
	handlers.SetupAdminRoutes(app, challengeService, invalidationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", port)
	log.Println("Hunt scheduler running (challenge release + hunt end, every 1m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

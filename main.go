package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quest-game-system/handlers"
	"quest-game-system/middleware"
	"quest-game-system/models"
	"quest-game-system/services"
	"quest-game-system/utils"
	"quest-game-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // covers photo submissions with headroom
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlayerAccount{},
		&models.Quest{},
		&models.QuestPoint{},
		&models.QuestSession{},
		&models.CompletionReceipt{},
		&models.AchievementDefinition{},
		&models.AchievementProgress{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := seedAchievements(db); err != nil {
		log.Fatal("failed to seed achievements:", err)
	}

	tables := models.DefaultRewardTables()
	clock := clockwork.NewRealClock()

	energyService := services.NewEnergyService(db, tables, clock)
	levelingService := services.NewLevelingService(tables)
	achievementService := services.NewAchievementService(db)
	completionService := services.NewCompletionService(db, tables, levelingService, achievementService, clock)
	sessionService := services.NewQuestSessionService(db, energyService, completionService, clock)
	accountService := services.NewAccountService(db, tables, energyService, clock)
	questService := services.NewQuestService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconcileWorker := workers.NewReconcileWorker(db, completionService, achievementService)
	reconcileWorker.Start(ctx)

	questService.StartPublishScheduler()

	// ✅ Setup routes — enforced Gateway auth, user context resolved per group
	handlers.SetupQuestRoutes(app, questService, sessionService, accountService, achievementService)
	handlers.SetupProgressionRoutes(app, accountService, achievementService, sessionService, tables)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Reconcile Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// seedAchievements inserts the default definitions once; an already-seeded table is
// left untouched so admin edits survive restarts.
func seedAchievements(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.AchievementDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defs := make([]models.AchievementDefinition, len(models.DefaultAchievements))
	copy(defs, models.DefaultAchievements)
	for i := range defs {
		defs[i].ID = uuid.NewString()
	}
	if err := db.Create(&defs).Error; err != nil {
		return err
	}
	log.Printf("🏆 Seeded %d achievement definitions", len(defs))
	return nil
}

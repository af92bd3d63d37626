package main

import (
	"log"
	"os"

	api "invoicescan-backend/cmd/api"
	accountdomain "invoicescan-backend/internal/account/domain"
	accountRepo "invoicescan-backend/internal/account/repository"
	authdomain "invoicescan-backend/internal/auth/domain"
	authRepo "invoicescan-backend/internal/auth/repository"
	authUsecase "invoicescan-backend/internal/auth/usecase"
	scandomain "invoicescan-backend/internal/scan/domain"
	scanRepo "invoicescan-backend/internal/scan/repository"
	"invoicescan-backend/internal/scan/scheduler"
	scanUsecase "invoicescan-backend/internal/scan/usecase"
	syncdomain "invoicescan-backend/internal/syncengine/domain"
	syncRepo "invoicescan-backend/internal/syncengine/repository"
	syncUsecase "invoicescan-backend/internal/syncengine/usecase"
	"invoicescan-backend/pkg/config"
	"invoicescan-backend/pkg/database"
	"invoicescan-backend/pkg/imapmail"
	"invoicescan-backend/pkg/linkextract"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&accountdomain.EmailAccount{},
		&scandomain.ScanJob{},
		&syncdomain.SyncState{},
		&syncdomain.EmailIndexRecord{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	accountRepository := accountRepo.NewEmailAccountRepository(db)
	jobRepository := scanRepo.NewScanJobRepository(db)
	syncStateRepository := syncRepo.NewSyncStateRepository(db)
	indexRepository := syncRepo.NewEmailIndexRepository(db)

	// Initialize IMAP connector and collaborators
	connector := imapmail.NewConnector(cfg.IMAPDialTimeout)
	engine := syncUsecase.NewSyncEngine(syncStateRepository, indexRepository, connector, cfg.IncrementalWindow)
	extractor := linkextract.NewExtractor(connector)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepository, cfg)
	scanUsecaseInstance := scanUsecase.NewScanJobUsecase(jobRepository, accountRepository, engine, extractor, cfg)

	// Start the stuck job sweeper
	sweeper := scheduler.NewStuckJobSweeper(scanUsecaseInstance, cfg.SweepInterval, cfg.StuckTimeout, cfg.StagnationTimeout)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, scanUsecaseInstance, accountRepository, cfg)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Printf("Server starting on port %s", port)
	if err := handler.Start(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

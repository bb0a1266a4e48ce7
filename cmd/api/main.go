package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/systemage/systemagego/internal/ai"
	"github.com/systemage/systemagego/internal/config"
	"github.com/systemage/systemagego/internal/database"
	"github.com/systemage/systemagego/internal/extraction"
	"github.com/systemage/systemagego/internal/handlers"
	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/storage"
	"github.com/systemage/systemagego/internal/store"
	"github.com/systemage/systemagego/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.BodySystem{},
		&models.Recommendation{},
		&models.MarketplaceProduct{},
		&models.ChatConversation{},
		&models.ChatMessage{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	st := store.NewGormStore(db.DB)

	// 4. Upload storage: GCS when a bucket is configured, local disk otherwise
	ctx := context.Background()
	var blobs storage.BlobStore
	var localDir string
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket)
		if err != nil {
			log.Fatalf("Failed to init GCS storage: %v", err)
		}
		defer gcs.Close()
		blobs = gcs
		log.Printf("☁️ Storage: GCS bucket %s", cfg.Storage.Bucket)
	} else {
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatalf("Failed to init local storage: %v", err)
		}
		blobs = local
		localDir = local.Root()
		log.Printf("💾 Storage: local directory %s", localDir)
	}

	// 5. AI client (extraction + chat)
	var gemini *ai.GeminiClient
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err = ai.NewGeminiClient(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to init Gemini client: %v", err)
		}
		defer gemini.Close()
		log.Printf("🤖 AI: Gemini model %s", cfg.AI.GeminiModel)
	} else {
		log.Println("⚠️ GEMINI_API_KEY not set, extraction and chat are disabled")
	}

	// 6. Websocket hub for extraction status events
	hub := websocket.NewHub()
	go hub.Run()

	// 7. Set up HTTP router
	router := handlers.NewRouter(cfg, st)
	router.SetBlobStore(blobs)
	router.SetHub(hub)
	if localDir != "" {
		router.ServeLocalFiles(localDir)
	}
	if gemini != nil {
		orchestrator := extraction.NewOrchestrator(st, blobs, gemini)
		orchestrator.SetStatusListener(hub)
		router.SetOrchestrator(orchestrator)
		router.SetAIClient(gemini)
	}

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (stops embedded postgres if running)
	if err := db.Close(); err != nil {
		log.Printf("Database shutdown error: %v", err)
	}

	log.Println("👋 Shutdown complete")
}

package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/note-keeper/internal/config"     // internal config loader
	"github.com/iliyamo/note-keeper/internal/database"   // MySQL pool + schema bootstrap
	"github.com/iliyamo/note-keeper/internal/handler"    // HTTP handlers
	"github.com/iliyamo/note-keeper/internal/middleware" // rate limiting
	"github.com/iliyamo/note-keeper/internal/queue"      // note activity consumer
	"github.com/iliyamo/note-keeper/internal/repository" // data access layer
	"github.com/iliyamo/note-keeper/internal/router"     // route registration
)

func main() {
	// Best-effort: a missing .env just means the environment is already set.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Explicit dependency graph, built once at startup.
	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)
	authHandler := handler.NewAuthHandler(cfg, users)
	noteHandler := handler.NewNoteHandler(notes)

	e := echo.New()

	// Rate limiting degrades to a pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterNotes(e, noteHandler, cfg.JWTSecret)

	// The audit consumer runs its own reconnect loop for the process lifetime.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

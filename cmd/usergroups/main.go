package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usergroups/internal/server"
	"usergroups/internal/service"
	"usergroups/repository/db"
	inmemory "usergroups/repository/inmemory"
)

func main() {
	log.Println("Users & groups service starting...")

	cfg := server.ReadConfig()

	var userRepo service.UserRepository
	var groupRepo service.GroupRepository

	if cfg.InMemory {
		log.Println("[WARN] Running against the in-memory store, data will not survive a restart")
		store := inmemory.NewStorage()
		userRepo = store
		groupRepo = store
	} else {
		if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
			log.Fatalf("[ERROR] Failed to apply migrations: %v", err)
		}
		log.Println("[SUCCESS] Migrations applied")

		storage, err := db.NewStorage(cfg.DBStr)
		if err != nil {
			log.Fatalf("[ERROR] Failed to initialize storage: %v", err)
		}
		defer storage.Close()
		userRepo = storage
		groupRepo = storage
	}

	users := service.NewUserService(userRepo)
	groups := service.NewGroupService(groupRepo, userRepo)

	api := server.NewAPI(users, groups, cfg)
	if api == nil {
		log.Fatal("[ERROR] Failed to initialize API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Service listening on %s:%d", cfg.Addr, cfg.Port)
		if err := api.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		log.Printf("[ERROR] Server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Shutdown failed: %v", err)
	}
	log.Println("Service stopped")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/agentdesk/internal/adapter/agentclient"
	"github.com/xiaot623/agentdesk/internal/adapter/connector"
	"github.com/xiaot623/agentdesk/internal/adapter/objectstore"
	"github.com/xiaot623/agentdesk/internal/adapter/runclient"
	"github.com/xiaot623/agentdesk/internal/config"
	"github.com/xiaot623/agentdesk/internal/hub"
	"github.com/xiaot623/agentdesk/internal/repository"
	"github.com/xiaot623/agentdesk/internal/service"
	handler "github.com/xiaot623/agentdesk/internal/transport/http"
	"github.com/xiaot623/agentdesk/internal/ws"
	"github.com/xiaot623/agentdesk/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting agentdesk...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Agent API URL: %s", cfg.AgentAPIURL)
	log.Printf("Connector URL: %s", cfg.ConnectorAPIURL)
	log.Printf("Storage backend: %s", cfg.StorageBackend)

	// Initialize relay ledger
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize object store
	objects, err := objectstore.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.RelayPolicyFile)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	connectorClient := connector.NewClient(cfg.ConnectorAPIURL, cfg.ConnectorAPIKey, cfg.ConnectorAppID, cfg.DownloadTimeout)
	svc := service.New(db, connectorClient, objects, cfg, policyEngine)

	// Initialize chat gateway
	connectionHub := hub.NewHub()
	go connectionHub.Run()
	defer connectionHub.Stop()

	wsServer := ws.NewServer(ws.Config{
		PingInterval:   cfg.PingInterval,
		WriteTimeout:   cfg.WriteTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
	}, connectionHub,
		agentclient.NewClient(cfg.AgentAPIURL, cfg.AgentAPIKey),
		runclient.NewClient(cfg.TraceAPIURL, cfg.TraceAPIKey),
	)

	server := handler.NewServer(svc, wsServer, cfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("HTTP API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down agentdesk...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("agentdesk stopped")
}

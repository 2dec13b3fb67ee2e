// Package config provides configuration for the agentdesk server and chat client.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageDisk   = "disk"
	StorageBucket = "bucket"
)

// Config holds the agentdesk configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database (relay ledger)
	DatabaseURL string

	// Agent service
	AgentAPIURL string
	AgentAPIKey string

	// Run trace API
	TraceAPIURL string
	TraceAPIKey string

	// File connector
	ConnectorAPIURL string
	ConnectorAPIKey string
	ConnectorAppID  string
	DownloadTimeout time.Duration

	// Object storage
	StorageBackend   string
	StorageDir       string
	StoragePublicURL string
	StorageURL       string
	StorageKey       string
	StorageBucket    string

	// Relay policy (rego source file, empty means built-in)
	RelayPolicyFile string

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment wins.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to load .env: %v", err)
	}

	agentURL := getEnv("AGENT_API_URL", "http://localhost:8000/api/v1")
	port := getEnvInt("HTTP_PORT", 8080)

	return &Config{
		HTTPPort:         port,
		DatabaseURL:      getEnv("DATABASE_URL", "file:agentdesk.db?cache=shared&mode=rwc"),
		AgentAPIURL:      agentURL,
		AgentAPIKey:      getEnv("AGENT_API_KEY", ""),
		TraceAPIURL:      getEnv("TRACE_API_URL", agentURL),
		TraceAPIKey:      getEnv("TRACE_API_KEY", getEnv("AGENT_API_KEY", "")),
		ConnectorAPIURL:  getEnv("CONNECTOR_API_URL", "http://localhost:8070"),
		ConnectorAPIKey:  getEnv("CONNECTOR_API_KEY", ""),
		ConnectorAppID:   getEnv("CONNECTOR_APP_ID", ""),
		DownloadTimeout:  time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_MS", 120000)) * time.Millisecond,
		StorageBackend:   getEnv("STORAGE_BACKEND", StorageDisk),
		StorageDir:       getEnv("STORAGE_DIR", "uploads"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:"+strconv.Itoa(port)+"/files"),
		StorageURL:       getEnv("STORAGE_URL", ""),
		StorageKey:       getEnv("STORAGE_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "uploads"),
		RelayPolicyFile:  getEnv("RELAY_POLICY_FILE", ""),
		PingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

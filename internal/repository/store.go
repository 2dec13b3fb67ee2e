// Package repository defines the relay ledger storage interface and implementations.
package repository

import (
	"context"

	"github.com/xiaot623/agentdesk/internal/domain"
)

// Store defines the interface for ledger persistence.
type Store interface {
	// Relay operations
	CreateRelay(ctx context.Context, record *domain.RelayRecord) error
	GetRelay(ctx context.Context, relayID string) (*domain.RelayRecord, error)
	ListRelays(ctx context.Context, userID string, limit int) ([]domain.RelayRecord, error)

	// Lifecycle
	Close() error
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

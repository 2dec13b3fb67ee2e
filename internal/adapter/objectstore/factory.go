package objectstore

import (
	"fmt"
	"log"
	"time"

	"github.com/xiaot623/agentdesk/internal/config"
)

// New creates the backend selected by cfg.StorageBackend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageBucket:
		if cfg.StorageURL == "" {
			return nil, fmt.Errorf("STORAGE_URL is required for the bucket backend")
		}
		log.Printf("Object storage: bucket %s at %s", cfg.StorageBucket, cfg.StorageURL)
		return NewBucketStore(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, 60*time.Second), nil
	case config.StorageDisk, "":
		log.Printf("Object storage: disk %s served at %s", cfg.StorageDir, cfg.StoragePublicURL)
		return NewDiskStore(cfg.StorageDir, cfg.StoragePublicURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

package service

import (
	"context"

	"github.com/xiaot623/agentdesk/internal/adapter/objectstore"
	"github.com/xiaot623/agentdesk/internal/config"
	"github.com/xiaot623/agentdesk/internal/repository"
)

// Downloader fetches file bytes from the connector.
type Downloader interface {
	Download(ctx context.Context, userID, fileID string) ([]byte, error)
}

// PolicyEvaluator decides whether a relay may proceed.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input interface{}) (string, string, error)
}

type Service struct {
	store      repository.Store
	downloader Downloader
	objects    objectstore.Store
	config     *config.Config
	policy     PolicyEvaluator
}

func New(store repository.Store, downloader Downloader, objects objectstore.Store, cfg *config.Config, policyEngine PolicyEvaluator) *Service {
	return &Service{
		store:      store,
		downloader: downloader,
		objects:    objects,
		config:     cfg,
		policy:     policyEngine,
	}
}

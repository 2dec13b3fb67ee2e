package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/policy"
)

var (
	// ErrRelayBlocked is returned when the relay policy blocks a request.
	ErrRelayBlocked = errors.New("relay blocked by policy")
)

// RelayFile downloads a connector file and re-uploads it to object storage
// under a fresh random key. It performs exactly one object write.
func (s *Service) RelayFile(ctx context.Context, req domain.UploadRequest) (*domain.UploadResponse, error) {
	if s.policy != nil {
		decision, reason, err := s.policy.Evaluate(ctx, map[string]interface{}{
			"user_id":   req.UserID,
			"file_id":   req.FileID,
			"mime_type": req.MimeType,
			"file_name": req.FileName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate relay policy: %w", err)
		}
		if decision == policy.DecisionBlock {
			log.Printf("WARN: relay blocked: user=%s file=%s reason=%s", req.UserID, req.FileID, reason)
			return nil, ErrRelayBlocked
		}
	}

	data, err := s.download(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	key := objectKey(req.FileName)
	if err := s.objects.Put(ctx, key, data, req.MimeType); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	publicURL := s.objects.PublicURL(key)

	s.recordRelay(ctx, req, key, publicURL, int64(len(data)))

	return &domain.UploadResponse{PublicURL: publicURL}, nil
}

// download bounds the connector call by the configured download timeout.
func (s *Service) download(ctx context.Context, req domain.UploadRequest) ([]byte, error) {
	if s.config != nil && s.config.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.DownloadTimeout)
		defer cancel()
	}
	return s.downloader.Download(ctx, req.UserID, req.FileID)
}

// GetRelay returns a ledger row, or nil when absent.
func (s *Service) GetRelay(ctx context.Context, relayID string) (*domain.RelayRecord, error) {
	record, err := s.store.GetRelay(ctx, relayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get relay: %w", err)
	}
	return record, nil
}

// ListRelays returns the newest ledger rows for a user (all users when empty).
func (s *Service) ListRelays(ctx context.Context, userID string, limit int) ([]domain.RelayRecord, error) {
	records, err := s.store.ListRelays(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list relays: %w", err)
	}
	return records, nil
}

// recordRelay writes the ledger row. The object is already public, so a
// ledger failure is logged and never fails the relay.
func (s *Service) recordRelay(ctx context.Context, req domain.UploadRequest, key, publicURL string, size int64) {
	if s.store == nil {
		return
	}
	id, err := gonanoid.New()
	if err != nil {
		log.Printf("ERROR: failed to generate relay id: %v", err)
		return
	}
	record := &domain.RelayRecord{
		RelayID:   "rly_" + id,
		UserID:    req.UserID,
		FileID:    req.FileID,
		FileName:  req.FileName,
		MimeType:  req.MimeType,
		ObjectKey: key,
		PublicURL: publicURL,
		SizeBytes: size,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateRelay(ctx, record); err != nil {
		log.Printf("ERROR: failed to record relay: %v", err)
	}
}

// objectKey returns <uuid>/<base name>, or just <uuid> without a usable name.
func objectKey(fileName string) string {
	id := uuid.New().String()
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return id
	}
	return id + "/" + name
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/agentdesk/internal/config"
	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/internal/repository"
	"github.com/xiaot623/agentdesk/policy"
	"github.com/xiaot623/agentdesk/tests/helpers"
)

type fakeDownloader struct {
	data  []byte
	err   error
	hang  bool
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context, userID, fileID string) ([]byte, error) {
	f.calls++
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.data, f.err
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestService(t *testing.T, dl *fakeDownloader, objects *memoryObjects, evaluator PolicyEvaluator) (*Service, *repository.SQLiteStore) {
	db := helpers.NewTestSQLiteStore(t)
	return New(db, dl, objects, &config.Config{}, evaluator), db
}

func TestRelayFileSuccess(t *testing.T) {
	ctx := context.Background()
	dl := &fakeDownloader{data: []byte("png-bytes")}
	objects := newMemoryObjects()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	svc, db := newTestService(t, dl, objects, engine)

	resp, err := svc.RelayFile(ctx, domain.UploadRequest{UserID: "u1", FileID: "f1", MimeType: "image/png", FileName: "x.png"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.PublicURL)
	assert.True(t, strings.HasSuffix(resp.PublicURL, "/x.png"))

	assert.Equal(t, 1, dl.calls)
	require.Len(t, objects.objects, 1)
	for key, data := range objects.objects {
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "image/png", objects.types[key])
		assert.Equal(t, "https://cdn.example.com/"+key, resp.PublicURL)
	}

	records, err := db.ListRelays(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, resp.PublicURL, records[0].PublicURL)
	assert.Equal(t, int64(len("png-bytes")), records[0].SizeBytes)
	assert.True(t, strings.HasPrefix(records[0].RelayID, "rly_"))
}

func TestRelayFileFreshKeyPerCall(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjects()
	svc, _ := newTestService(t, &fakeDownloader{data: []byte("a")}, objects, nil)

	req := domain.UploadRequest{UserID: "u1", FileID: "f1", MimeType: "text/plain", FileName: "a.txt"}
	first, err := svc.RelayFile(ctx, req)
	require.NoError(t, err)
	second, err := svc.RelayFile(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.PublicURL, second.PublicURL)
	assert.Len(t, objects.objects, 2)
}

func TestRelayFileDownloadError(t *testing.T) {
	objects := newMemoryObjects()
	svc, _ := newTestService(t, &fakeDownloader{err: errors.New("connector returned status 404: gone")}, objects, nil)

	_, err := svc.RelayFile(context.Background(), domain.UploadRequest{UserID: "u1", FileID: "f1"})
	assert.ErrorContains(t, err, "failed to download file")
	assert.Empty(t, objects.objects)
}

func TestRelayFileDownloadTimeout(t *testing.T) {
	objects := newMemoryObjects()
	cfg := &config.Config{DownloadTimeout: 20 * time.Millisecond}
	svc := New(helpers.NewTestSQLiteStore(t), &fakeDownloader{hang: true}, objects, cfg, nil)

	_, err := svc.RelayFile(context.Background(), domain.UploadRequest{UserID: "u1", FileID: "f1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, objects.objects)
}

func TestRelayFileUploadError(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryObjects()
	objects.err = errors.New("bucket not found")
	svc, db := newTestService(t, &fakeDownloader{data: []byte("a")}, objects, nil)

	_, err := svc.RelayFile(ctx, domain.UploadRequest{UserID: "u1", FileID: "f1"})
	assert.ErrorContains(t, err, "failed to upload file")

	records, err := db.ListRelays(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRelayFileBlockedByPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, `
package relay_policy

default decision = "allow"

decision = "block" {
	input.mime_type == "application/x-msdownload"
}
`)
	require.NoError(t, err)
	dl := &fakeDownloader{data: []byte("MZ")}
	svc, _ := newTestService(t, dl, newMemoryObjects(), engine)

	_, err = svc.RelayFile(ctx, domain.UploadRequest{UserID: "u1", FileID: "f1", MimeType: "application/x-msdownload"})
	assert.ErrorIs(t, err, ErrRelayBlocked)
	assert.Equal(t, 0, dl.calls)
}

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"x.png":           "/x.png",
		"dir/sub/x.png":   "/x.png",
		`C:\Users\x.png`:  "/x.png",
		"":                "",
		"..":              "",
		"  report.pdf   ": "/report.pdf",
	}
	for name, suffix := range cases {
		key := objectKey(name)
		if suffix == "" {
			assert.Len(t, key, 36, name)
			continue
		}
		assert.True(t, strings.HasSuffix(key, suffix), "%q -> %q", name, key)
		assert.Len(t, key, 36+len(suffix), name)
	}
}

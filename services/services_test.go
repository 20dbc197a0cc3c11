package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"realty_backoffice/auth"
	"realty_backoffice/storage"
)

const blobBase = "https://blobs.test/public/"

type fakeBlobs struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	failAfter int // uploads beyond this count fail; 0 means never
}

func (f *fakeBlobs) UploadImage(ctx context.Context, data []byte, path, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.uploaded) >= f.failAfter {
		return "", errors.New("bucket unavailable")
	}
	if path == "" {
		path = "uploads/synth.jpg"
	}
	f.uploaded = append(f.uploaded, path)
	return blobBase + path, nil
}

func (f *fakeBlobs) DeleteImage(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeBlobs) PathFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, blobBase) {
		return "", false
	}
	return strings.TrimPrefix(url, blobBase), true
}

func newGateway(t *testing.T) *storage.Gateway {
	t.Helper()
	backend, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "services.db"), storage.DefaultTables())
	require.NoError(t, err)
	gw := storage.NewGateway(backend)
	t.Cleanup(func() { gw.Close() })
	return gw
}

func adminCtx() context.Context {
	return auth.WithSession(context.Background(), auth.SystemSession(time.Hour))
}

// steppingClock returns strictly increasing times so creation order is observable.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

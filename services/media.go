package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"realty_backoffice/httputil"
	"realty_backoffice/storage"
)

const (
	imageBatchSize = 3
	maxImageSize   = 20 * 1024 * 1024
)

// ImageUploader stores image bytes and returns their public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, path, contentType string) (string, error)
}

// MediaService re-hosts remote listing images in blob storage.
type MediaService struct {
	uploader   ImageUploader
	httpClient *http.Client
	batchSize  int
	now        func() time.Time
}

// NewMediaService creates a new MediaService
func NewMediaService(uploader ImageUploader, httpClient *http.Client) *MediaService {
	return &MediaService{
		uploader:   uploader,
		httpClient: httpClient,
		batchSize:  imageBatchSize,
		now:        time.Now,
	}
}

// ImportImages downloads each URL and uploads it to blob storage. The result has the same
// length and order as urls; an image that fails keeps its original URL. URLs are handled in
// batches of three, concurrently within a batch, one batch after another.
func (s *MediaService) ImportImages(ctx context.Context, urls []string) []string {
	results := make([]string, len(urls))

	for start := 0; start < len(urls); start += s.batchSize {
		end := min(start+s.batchSize, len(urls))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				stored, err := s.importOne(ctx, urls[i])
				if err != nil {
					log.Printf("Media: keeping original %s: %v", urls[i], err)
					results[i] = urls[i]
					return nil
				}
				results[i] = stored
				return nil
			})
		}
		g.Wait()
	}

	return results
}

func (s *MediaService) importOne(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httputil.SetBrowserHeaders(req, "", "", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty body")
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("image larger than %d bytes", maxImageSize)
	}

	contentType := resp.Header.Get("Content-Type")
	path := fmt.Sprintf("listings/imported/%d-%s.%s", s.now().UnixMilli(), uuid.NewString(), storage.ExtensionFor(contentType))

	url, err := s.uploader.UploadImage(ctx, data, path, contentType)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return url, nil
}

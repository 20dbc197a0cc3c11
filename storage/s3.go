package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"realty_backoffice/config"
	"realty_backoffice/errs"
)

// Access level prefixes. Every image is written under both.
const (
	RestrictedPrefix = "private/"
	PublicPrefix     = "public/"
)

// objectAPI is the subset of *s3.Client the blob store uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStore uploads listing images to S3-compatible storage.
type BlobStore struct {
	client     objectAPI
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewBlobStore creates an S3-backed blob store
func NewBlobStore(ctx context.Context, cfg config.S3Config) (*BlobStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return newBlobStore(client, cfg), nil
}

func newBlobStore(client objectAPI, cfg config.S3Config) *BlobStore {
	return &BlobStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: PublicBaseURL(cfg),
		now:        time.Now,
	}
}

// PublicBaseURL returns the URL prefix under which public objects are served.
func PublicBaseURL(cfg config.S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		// Path-style: {endpoint}/{bucket}
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
	}
	// AWS S3: https://{bucket}.s3.{region}.amazonaws.com
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// PublicURL returns the URL of the public copy of path.
func (b *BlobStore) PublicURL(path string) string {
	return b.publicBase + "/" + PublicPrefix + path
}

// PathFromURL recovers the object path from a URL produced by PublicURL.
func (b *BlobStore) PathFromURL(url string) (string, bool) {
	prefix := b.publicBase + "/" + PublicPrefix
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// UploadImage writes data under the restricted and the public access level and returns
// the public URL. An empty path is synthesized from the current time and the caller's
// source file name. If the public write fails the restricted copy is removed again.
func (b *BlobStore) UploadImage(ctx context.Context, data []byte, path, contentType string) (string, error) {
	if path == "" {
		path = b.synthesizePath(callerName(2), contentType)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	restricted := RestrictedPrefix + path
	if err := b.put(ctx, restricted, data, contentType); err != nil {
		return "", errs.Storage("upload restricted copy", err)
	}

	if err := b.put(ctx, PublicPrefix+path, data, contentType); err != nil {
		if cleanupErr := b.remove(ctx, restricted); cleanupErr != nil {
			log.Printf("BlobStore: cleanup of %s failed: %v", restricted, cleanupErr)
		}
		return "", errs.Storage("upload public copy", err)
	}

	return b.PublicURL(path), nil
}

// DeleteImage removes both access-level copies. Missing copies are ignored.
func (b *BlobStore) DeleteImage(ctx context.Context, path string) error {
	var failed []error
	for _, key := range []string{RestrictedPrefix + path, PublicPrefix + path} {
		if err := b.remove(ctx, key); err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return errs.Storage("delete image", errors.Join(failed...))
	}
	return nil
}

func (b *BlobStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (b *BlobStore) remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isMissingObject(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func isMissingObject(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (b *BlobStore) synthesizePath(name, contentType string) string {
	return fmt.Sprintf("uploads/%d-%s.%s", b.now().UnixMilli(), name, ExtensionFor(contentType))
}

// callerName returns the base name (without extension) of the source file skip frames up.
func callerName(skip int) string {
	_, file, _, ok := runtime.Caller(skip)
	if !ok {
		return "upload"
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtensionFor maps an image content type to a file extension, defaulting to jpg.
func ExtensionFor(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/avif":
		return "avif"
	case "image/svg+xml":
		return "svg"
	default:
		return "jpg"
	}
}

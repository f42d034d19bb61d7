// Package storage talks to the external object store holding binary media.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type UploadInput struct {
	Reader   io.Reader
	Name     string
	MimeType string
	Folder   string
}

type UploadResult struct {
	RemoteID string
	URL      string
	Size     int64
	Format   string
	Width    int
	Height   int
}

// ObjectStorage is the narrow surface the upload pipeline needs. Remove
// must treat an already-absent object as success.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
	Remove(ctx context.Context, remoteID string) error
}

type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioStorage(endpoint, bucket, accessKey, secretKey string, useSSL bool, publicURL string) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	baseURL := strings.TrimSuffix(publicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &MinioStorage{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// Ping verifies the bucket exists and is reachable.
func (s *MinioStorage) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// Upload streams one object to the bucket. The object key doubles as the
// asset's remote identifier. Pixel dimensions are read from the image
// header; payloads with no registered decoder (svg markup) report zero.
func (s *MinioStorage) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	data, err := io.ReadAll(input.Reader)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}

	key := objectKey(input.Folder, input.Name)
	width, height := decodeDimensions(data)

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: input.MimeType,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}

	return UploadResult{
		RemoteID: key,
		URL:      s.baseURL + "/" + key,
		Size:     int64(len(data)),
		Format:   formatFromMime(input.MimeType),
		Width:    width,
		Height:   height,
	}, nil
}

// Remove deletes one object. Deleting an object that is already gone is
// success, so callers can retry freely.
func (s *MinioStorage) Remove(ctx context.Context, remoteID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, remoteID, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// objectKey builds the storage key for an upload: the logical folder, a
// timestamp to keep replaced files addressable side by side, and the
// sanitized original filename.
func objectKey(folder, name string) string {
	key := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeName(name))
	folder = strings.Trim(folder, "/")
	if folder != "" {
		key = folder + "/" + key
	}
	return key
}

func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")
	if out == "" {
		return "file"
	}
	return out
}

func formatFromMime(mimeType string) string {
	format := strings.TrimPrefix(mimeType, "image/")
	if idx := strings.Index(format, "+"); idx >= 0 {
		format = format[:idx]
	}
	return format
}

func decodeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Package media runs the asset lifecycle: validate, upload to object
// storage, record metadata, and evict replaced or deleted assets.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"vitrine/api/internal/storage"
	"vitrine/api/internal/store"
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrRemoteStore     = errors.New("object storage failure")
	// ErrPartialUpload marks an upload whose remote object landed but whose
	// metadata record did not; the compensating remote delete has already
	// been attempted by the time this is returned.
	ErrPartialUpload = errors.New("upload partially failed")
)

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

type assetStore interface {
	InsertMediaAsset(context.Context, store.MediaAsset) error
	DeleteMediaAsset(ctx context.Context, remoteID string) error
	ListMediaAssets(context.Context) ([]store.MediaAsset, error)
}

type Service struct {
	assets  assetStore
	objects storage.ObjectStorage
}

func NewService(assets assetStore, objects storage.ObjectStorage) *Service {
	return &Service{assets: assets, objects: objects}
}

type UploadRequest struct {
	Reader   io.Reader
	Name     string
	MimeType string
	Folder   string
	// PriorRemoteID, when set, identifies the asset this upload replaces.
	// Its record and remote object are removed best-effort; their failure
	// never blocks the new upload.
	PriorRemoteID string
}

type UploadResponse struct {
	URL      string `json:"url"`
	RemoteID string `json:"remoteId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

// Upload validates and stores one file. The mime check runs before any
// remote call, so rejected files cost nothing. When the metadata insert
// fails after a successful remote upload, the remote object is deleted
// again so the two stores do not drift apart.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	if _, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(req.MimeType))]; !ok {
		return UploadResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedType, req.MimeType)
	}

	if req.PriorRemoteID != "" {
		if err := s.assets.DeleteMediaAsset(ctx, req.PriorRemoteID); err != nil {
			log.Printf("replace: delete prior asset record %s: %v", req.PriorRemoteID, err)
		}
		if err := s.objects.Remove(ctx, req.PriorRemoteID); err != nil {
			log.Printf("replace: remove prior object %s: %v", req.PriorRemoteID, err)
		}
	}

	result, err := s.objects.Upload(ctx, storage.UploadInput{
		Reader:   req.Reader,
		Name:     req.Name,
		MimeType: req.MimeType,
		Folder:   req.Folder,
	})
	if err != nil {
		return UploadResponse{}, fmt.Errorf("%w: %v", ErrRemoteStore, err)
	}

	asset := store.MediaAsset{
		RemoteID: result.RemoteID,
		Name:     req.Name,
		URL:      result.URL,
		Size:     result.Size,
		MimeType: req.MimeType,
		Folder:   req.Folder,
		Width:    result.Width,
		Height:   result.Height,
	}
	if err := s.assets.InsertMediaAsset(ctx, asset); err != nil {
		if removeErr := s.objects.Remove(ctx, result.RemoteID); removeErr != nil {
			log.Printf("compensating delete of %s failed, object orphaned: %v", result.RemoteID, removeErr)
		}
		return UploadResponse{}, fmt.Errorf("%w: record asset: %v", ErrPartialUpload, err)
	}

	return UploadResponse{
		URL:      result.URL,
		RemoteID: result.RemoteID,
		Width:    result.Width,
		Height:   result.Height,
		Size:     result.Size,
		Format:   result.Format,
	}, nil
}

// List returns assets newest first. The name filter is a plain substring
// match applied after listing; there is no server-side search.
func (s *Service) List(ctx context.Context, nameFilter string) ([]store.MediaAsset, error) {
	items, err := s.assets.ListMediaAssets(ctx)
	if err != nil {
		return nil, err
	}
	nameFilter = strings.ToLower(strings.TrimSpace(nameFilter))
	if nameFilter == "" {
		return items, nil
	}
	filtered := make([]store.MediaAsset, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), nameFilter) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Delete removes the remote object and then the metadata record. The
// remote side treats an absent object as deleted, so the whole operation
// is idempotent.
func (s *Service) Delete(ctx context.Context, remoteID string) error {
	if err := s.objects.Remove(ctx, remoteID); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteStore, err)
	}
	if err := s.assets.DeleteMediaAsset(ctx, remoteID); err != nil {
		return err
	}
	return nil
}

package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vitrine/api/internal/storage"
	"vitrine/api/internal/store"
)

type fakeObjects struct {
	uploadFn func(context.Context, storage.UploadInput) (storage.UploadResult, error)
	removeFn func(context.Context, string) error

	uploads []storage.UploadInput
	removed []string
}

func (f *fakeObjects) Upload(ctx context.Context, input storage.UploadInput) (storage.UploadResult, error) {
	f.uploads = append(f.uploads, input)
	if f.uploadFn != nil {
		return f.uploadFn(ctx, input)
	}
	return storage.UploadResult{
		RemoteID: "images/" + input.Name,
		URL:      "https://cdn.example.com/vitrine/images/" + input.Name,
		Size:     42,
		Format:   "png",
		Width:    10,
		Height:   10,
	}, nil
}

func (f *fakeObjects) Remove(ctx context.Context, remoteID string) error {
	f.removed = append(f.removed, remoteID)
	if f.removeFn != nil {
		return f.removeFn(ctx, remoteID)
	}
	return nil
}

type fakeAssets struct {
	insertFn func(context.Context, store.MediaAsset) error

	records map[string]store.MediaAsset
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{records: make(map[string]store.MediaAsset)}
}

func (f *fakeAssets) InsertMediaAsset(ctx context.Context, asset store.MediaAsset) error {
	if f.insertFn != nil {
		if err := f.insertFn(ctx, asset); err != nil {
			return err
		}
	}
	asset.CreatedAt = time.Now()
	f.records[asset.RemoteID] = asset
	return nil
}

func (f *fakeAssets) DeleteMediaAsset(_ context.Context, remoteID string) error {
	delete(f.records, remoteID)
	return nil
}

func (f *fakeAssets) ListMediaAssets(context.Context) ([]store.MediaAsset, error) {
	items := make([]store.MediaAsset, 0, len(f.records))
	for _, item := range f.records {
		items = append(items, item)
	}
	return items, nil
}

func TestUploadRejectsUnsupportedTypeBeforeAnyRemoteCall(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	svc := NewService(assets, objects)

	_, err := svc.Upload(context.Background(), UploadRequest{
		Reader:   strings.NewReader("hello"),
		Name:     "notes.txt",
		MimeType: "text/plain",
		Folder:   "images/about",
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if len(objects.uploads) != 0 || len(objects.removed) != 0 {
		t.Fatalf("rejected upload must not reach object storage")
	}
	if len(assets.records) != 0 {
		t.Fatalf("rejected upload must not write a record")
	}
}

func TestUploadRecordsAssetWithFolder(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	svc := NewService(assets, objects)

	resp, err := svc.Upload(context.Background(), UploadRequest{
		Reader:   strings.NewReader("pngbytes"),
		Name:     "team.png",
		MimeType: "image/png",
		Folder:   "images/about",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.URL == "" || resp.RemoteID == "" {
		t.Fatalf("incomplete response: %#v", resp)
	}
	record, ok := assets.records[resp.RemoteID]
	if !ok {
		t.Fatalf("no record for %s", resp.RemoteID)
	}
	if record.Folder != "images/about" {
		t.Fatalf("folder not recorded: %#v", record)
	}
}

func TestReplaceLeavesExactlyOneRecord(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	svc := NewService(assets, objects)
	ctx := context.Background()

	first, err := svc.Upload(ctx, UploadRequest{
		Reader: strings.NewReader("v1"), Name: "hero.png", MimeType: "image/png", Folder: "images",
	})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	second, err := svc.Upload(ctx, UploadRequest{
		Reader: strings.NewReader("v2"), Name: "hero2.png", MimeType: "image/png", Folder: "images",
		PriorRemoteID: first.RemoteID,
	})
	if err != nil {
		t.Fatalf("replacement upload: %v", err)
	}

	if len(assets.records) != 1 {
		t.Fatalf("expected exactly one record after replace, got %d", len(assets.records))
	}
	if _, ok := assets.records[second.RemoteID]; !ok {
		t.Fatalf("surviving record is not the replacement")
	}
	found := false
	for _, id := range objects.removed {
		if id == first.RemoteID {
			found = true
		}
	}
	if !found {
		t.Fatalf("prior remote object was not evicted: %v", objects.removed)
	}
}

func TestReplaceContinuesWhenPriorCleanupFails(t *testing.T) {
	objects := &fakeObjects{
		removeFn: func(_ context.Context, remoteID string) error {
			return errors.New("remote unavailable")
		},
	}
	assets := newFakeAssets()
	svc := NewService(assets, objects)

	resp, err := svc.Upload(context.Background(), UploadRequest{
		Reader: strings.NewReader("v2"), Name: "hero.png", MimeType: "image/png", Folder: "images",
		PriorRemoteID: "images/old-hero.png",
	})
	if err != nil {
		t.Fatalf("upload must continue past prior cleanup failure: %v", err)
	}
	if _, ok := assets.records[resp.RemoteID]; !ok {
		t.Fatalf("replacement record missing")
	}
}

func TestMetadataFailureTriggersCompensatingDelete(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	assets.insertFn = func(context.Context, store.MediaAsset) error {
		return errors.New("metadata store down")
	}
	svc := NewService(assets, objects)

	_, err := svc.Upload(context.Background(), UploadRequest{
		Reader: strings.NewReader("v1"), Name: "hero.png", MimeType: "image/png", Folder: "images",
	})
	if !errors.Is(err, ErrPartialUpload) {
		t.Fatalf("expected ErrPartialUpload, got %v", err)
	}
	if len(objects.removed) != 1 || objects.removed[0] != "images/hero.png" {
		t.Fatalf("expected compensating delete of uploaded object, got %v", objects.removed)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	svc := NewService(assets, objects)
	ctx := context.Background()

	resp, err := svc.Upload(ctx, UploadRequest{
		Reader: strings.NewReader("v1"), Name: "hero.png", MimeType: "image/png", Folder: "images",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(ctx, resp.RemoteID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(ctx, resp.RemoteID); err != nil {
		t.Fatalf("second delete must also succeed: %v", err)
	}
	if len(assets.records) != 0 {
		t.Fatalf("record still present after delete")
	}
}

func TestListAppliesNameFilter(t *testing.T) {
	objects := &fakeObjects{}
	assets := newFakeAssets()
	svc := NewService(assets, objects)
	ctx := context.Background()

	for _, name := range []string{"hero.png", "team.png", "hero-mobile.png"} {
		if _, err := svc.Upload(ctx, UploadRequest{
			Reader: strings.NewReader("x"), Name: name, MimeType: "image/png", Folder: "images",
		}); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	items, err := svc.List(ctx, "HERO")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(items))
	}
}

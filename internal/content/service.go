package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type documentStore interface {
	GetDocument(context.Context, string) (map[string]any, error)
	PutDocument(context.Context, string, map[string]any) error
	InsertDocumentIfAbsent(context.Context, string, map[string]any) error
	PutSection(context.Context, string, string, any) error
}

type documentCache interface {
	GetDocument(ctx context.Context, kind string) (map[string]any, bool)
	SetDocument(ctx context.Context, kind string, body map[string]any)
	InvalidateDocument(ctx context.Context, kind string)
}

// Notifier receives the body of every successful contact-info write so the
// settings projection can run outside the write path.
type Notifier interface {
	ContactInfoSaved(body map[string]any)
}

type Service struct {
	store    documentStore
	cache    documentCache
	notifier Notifier
}

func NewService(documents documentStore) *Service {
	return &Service{store: documents}
}

// SetCache enables a read-through cache for whole-document reads. A nil
// cache leaves every read hitting the backing store.
func (s *Service) SetCache(cache documentCache) {
	s.cache = cache
}

func (s *Service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// Read returns the full body of a document, materializing and persisting
// the kind's defaults on first access. Settings reads additionally heal
// missing top-level sections and sub-keys from defaults; no other kind
// merges against defaults once stored.
func (s *Service) Read(ctx context.Context, kind string) (map[string]any, error) {
	if s.cache != nil {
		if body, ok := s.cache.GetDocument(ctx, kind); ok {
			return body, nil
		}
	}

	body, err := s.store.GetDocument(ctx, kind)
	if errors.Is(err, sql.ErrNoRows) {
		body, err = s.materialize(ctx, kind)
	}
	if err != nil {
		return nil, err
	}

	if kind == KindSettings {
		defaults, _ := DefaultBody(KindSettings)
		body = healSettings(body, defaults)
	}

	if s.cache != nil {
		s.cache.SetDocument(ctx, kind, body)
	}
	return body, nil
}

// ReadSection returns one section of a document. An absent document is
// materialized whole; an absent section within a present document is
// materialized from the kind's default for that section and persisted, so
// later reads are stable even if the default constant changes.
func (s *Service) ReadSection(ctx context.Context, kind, section string) (any, error) {
	body, err := s.store.GetDocument(ctx, kind)
	if errors.Is(err, sql.ErrNoRows) {
		body, err = s.materialize(ctx, kind)
	}
	if err != nil {
		return nil, err
	}

	if value, ok := body[section]; ok {
		return value, nil
	}

	defaults, err := DefaultBody(kind)
	if err != nil {
		return nil, err
	}
	value, ok := defaults[section]
	if !ok {
		value = map[string]any{}
	}
	if err := s.store.PutSection(ctx, kind, section, value); err != nil {
		return nil, err
	}
	s.invalidate(ctx, kind)
	return value, nil
}

// Write replaces the entire document body.
func (s *Service) Write(ctx context.Context, kind string, body map[string]any) (map[string]any, error) {
	if _, err := DefaultBody(kind); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	if err := s.store.PutDocument(ctx, kind, body); err != nil {
		return nil, err
	}
	s.invalidate(ctx, kind)
	s.notifyContactInfo(kind, body)
	return body, nil
}

// WriteSection replaces one section of a document, materializing the rest
// of the document from defaults if it did not exist yet. The section value
// is replaced wholesale; there is no deep merge against the prior value.
func (s *Service) WriteSection(ctx context.Context, kind, section string, value any) (map[string]any, error) {
	defaults, err := DefaultBody(kind)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertDocumentIfAbsent(ctx, kind, defaults); err != nil {
		return nil, err
	}
	if err := s.store.PutSection(ctx, kind, section, value); err != nil {
		return nil, err
	}
	s.invalidate(ctx, kind)

	body, err := s.store.GetDocument(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("read back %s: %w", kind, err)
	}
	s.notifyContactInfo(kind, body)
	return body, nil
}

func (s *Service) materialize(ctx context.Context, kind string) (map[string]any, error) {
	defaults, err := DefaultBody(kind)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertDocumentIfAbsent(ctx, kind, defaults); err != nil {
		return nil, err
	}
	// A concurrent writer may have materialized first; the stored body wins.
	body, err := s.store.GetDocument(ctx, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults, nil
	}
	return body, err
}

func (s *Service) invalidate(ctx context.Context, kind string) {
	if s.cache != nil {
		s.cache.InvalidateDocument(ctx, kind)
	}
}

func (s *Service) notifyContactInfo(kind string, body map[string]any) {
	if kind == KindContactInfo && s.notifier != nil {
		s.notifier.ContactInfoSaved(body)
	}
}

// healSettings overlays stored settings onto defaults one sub-key deep, so
// every read carries all five top-level sections even when the stored
// document predates a newly added section or field.
func healSettings(stored, defaults map[string]any) map[string]any {
	healed := make(map[string]any, len(defaults))
	for section, defaultValue := range defaults {
		storedValue, ok := stored[section]
		if !ok {
			healed[section] = defaultValue
			continue
		}
		storedMap, storedIsMap := storedValue.(map[string]any)
		defaultMap, defaultIsMap := defaultValue.(map[string]any)
		if !storedIsMap || !defaultIsMap {
			healed[section] = storedValue
			continue
		}
		merged := make(map[string]any, len(defaultMap))
		for key, value := range defaultMap {
			merged[key] = value
		}
		for key, value := range storedMap {
			merged[key] = value
		}
		healed[section] = merged
	}
	// Sections beyond the default shape pass through untouched.
	for section, value := range stored {
		if _, ok := healed[section]; !ok {
			healed[section] = value
		}
	}
	return healed
}


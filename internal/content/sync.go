package content

import (
	"context"
	"log"
)

// Fields copied from a contact-info body into the settings contact section.
var contactProjection = []string{"address", "phone", "email", "mapUrl"}

// Synchronizer keeps the denormalized contact and social sections of the
// settings document in step with the canonical contact-info document.
// Projection runs off the write path: writes enqueue the saved body and a
// single consumer applies it. Failures are logged and dropped; a
// contact-info write never fails or retries because of the projection.
type Synchronizer struct {
	svc    *Service
	events chan map[string]any
}

func NewSynchronizer(svc *Service) *Synchronizer {
	return &Synchronizer{
		svc:    svc,
		events: make(chan map[string]any, 16),
	}
}

// ContactInfoSaved implements Notifier. Enqueueing never blocks the write
// path; if the buffer is full the event is dropped and logged, matching
// the at-most-once contract.
func (s *Synchronizer) ContactInfoSaved(body map[string]any) {
	select {
	case s.events <- body:
	default:
		log.Printf("settings sync: event buffer full, dropping contact-info update")
	}
}

// Run consumes sync events until the context is cancelled.
func (s *Synchronizer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case body := <-s.events:
			if err := s.Apply(ctx, body); err != nil {
				log.Printf("settings sync failed: %v", err)
			}
		}
	}
}

// Apply projects the contact and social fields of a contact-info body into
// the settings document. The settings document is materialized first if it
// has never been read or written.
func (s *Synchronizer) Apply(ctx context.Context, contactBody map[string]any) error {
	settings, err := s.svc.Read(ctx, KindSettings)
	if err != nil {
		return err
	}

	contact := sectionMap(settings, "contact")
	for _, field := range contactProjection {
		if value, ok := contactBody[field]; ok {
			contact[field] = value
		}
	}
	if err := s.svc.store.PutSection(ctx, KindSettings, "contact", contact); err != nil {
		return err
	}

	if links, ok := contactBody["social"].(map[string]any); ok {
		social := sectionMap(settings, "social")
		for name, url := range links {
			social[name] = url
		}
		if err := s.svc.store.PutSection(ctx, KindSettings, "social", social); err != nil {
			return err
		}
	}

	s.svc.invalidate(ctx, KindSettings)
	return nil
}

func sectionMap(body map[string]any, section string) map[string]any {
	if m, ok := body[section].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

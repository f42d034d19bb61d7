// Package app exposes the admin content API over HTTP: per-kind content
// documents with section addressing, and the media asset surface.
package app

import (
	"context"

	"vitrine/api/internal/config"
	"vitrine/api/internal/content"
	"vitrine/api/internal/media"
)

type pinger interface {
	Ping(context.Context) error
}

type Service struct {
	cfg     config.Config
	content *content.Service
	media   *media.Service
	db      pinger
}

func New(cfg config.Config, contentSvc *content.Service, mediaSvc *media.Service, db pinger) *Service {
	return &Service{
		cfg:     cfg,
		content: contentSvc,
		media:   mediaSvc,
		db:      db,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Ping(ctx)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetDocument returns the stored body for a document kind. A kind that was
// never materialized surfaces as sql.ErrNoRows so callers can fall back to
// defaults.
func (s *PostgresStore) GetDocument(ctx context.Context, kind string) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM content_documents WHERE kind=$1`, kind).Scan(&raw)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", kind, err)
	}
	return body, nil
}

// PutDocument replaces the entire body of a document, creating it if absent.
func (s *PostgresStore) PutDocument(ctx context.Context, kind string, body map[string]any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_documents (kind, body)
		VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()
	`, kind, raw)
	if err != nil {
		return fmt.Errorf("put document %s: %w", kind, err)
	}
	return nil
}

// InsertDocumentIfAbsent materializes a document without touching an
// existing body. Concurrent materialization attempts are harmless.
func (s *PostgresStore) InsertDocumentIfAbsent(ctx context.Context, kind string, body map[string]any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_documents (kind, body)
		VALUES ($1, $2)
		ON CONFLICT (kind) DO NOTHING
	`, kind, raw)
	if err != nil {
		return fmt.Errorf("materialize document %s: %w", kind, err)
	}
	return nil
}

// PutSection replaces one section of a document. The merge happens inside
// Postgres so two writers touching different sections of the same document
// cannot clobber each other; last write wins only within a single section.
func (s *PostgresStore) PutSection(ctx context.Context, kind, section string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode section %s.%s: %w", kind, section, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_documents (kind, body)
		VALUES ($1, jsonb_build_object($2::text, $3::jsonb))
		ON CONFLICT (kind) DO UPDATE
		SET body = content_documents.body || jsonb_build_object($2::text, $3::jsonb),
		    updated_at = NOW()
	`, kind, section, raw)
	if err != nil {
		return fmt.Errorf("put section %s.%s: %w", kind, section, err)
	}
	return nil
}

func (s *PostgresStore) InsertMediaAsset(ctx context.Context, asset MediaAsset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_assets (remote_id, name, url, size_bytes, mime_type, folder, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, asset.RemoteID, asset.Name, asset.URL, asset.Size, asset.MimeType, asset.Folder, asset.Width, asset.Height)
	if err != nil {
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

// DeleteMediaAsset removes the metadata record only; evicting the remote
// object is the upload pipeline's job. Deleting an absent record is a no-op.
func (s *PostgresStore) DeleteMediaAsset(ctx context.Context, remoteID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media_assets WHERE remote_id=$1`, remoteID)
	if err != nil {
		return fmt.Errorf("delete media asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMediaAssets(ctx context.Context) ([]MediaAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_id, name, url, size_bytes, mime_type, folder, width, height, created_at
		FROM media_assets
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	defer rows.Close()

	items := make([]MediaAsset, 0)
	for rows.Next() {
		var item MediaAsset
		if err := rows.Scan(&item.RemoteID, &item.Name, &item.URL, &item.Size, &item.MimeType, &item.Folder, &item.Width, &item.Height, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media asset: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media assets: %w", err)
	}
	return items, nil
}

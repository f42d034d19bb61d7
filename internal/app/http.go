package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"vitrine/api/internal/content"
	"vitrine/api/internal/media"
)

// Uploads are buffered in memory before streaming to object storage;
// marketing images are small, so a fixed cap is enough.
const maxUploadBytes = 32 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/upload" {
		s.handleUpload(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "media" {
		switch {
		case r.Method == http.MethodGet && len(parts) == 2:
			s.handleMediaList(w, r)
			return
		case r.Method == http.MethodDelete && len(parts) > 2:
			// Remote identifiers are object keys and may contain slashes.
			s.handleMediaDelete(w, r, strings.Join(parts[2:], "/"))
			return
		}
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "content" {
		s.handleContent(w, r, parts[2])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleContent(w http.ResponseWriter, r *http.Request, kind string) {
	section := strings.TrimSpace(r.URL.Query().Get("section"))

	switch r.Method {
	case http.MethodGet:
		if section != "" {
			value, err := s.service.content.ReadSection(r.Context(), kind, section)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "section": section, "data": value})
			return
		}
		body, err := s.service.content.Read(r.Context(), kind)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "data": body})

	case http.MethodPut:
		if section != "" {
			var value any
			if err := decodeBody(r, &value); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			saved, err := s.service.content.WriteSection(r.Context(), kind, section, value)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "section": section, "data": saved[section]})
			return
		}

		var body map[string]any
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body == nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body must be a JSON object", nil)
			return
		}
		saved, err := s.service.content.Write(r.Context(), kind, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "data": saved})

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file is required", nil)
		return
	}
	defer file.Close()

	folder := strings.TrimSpace(r.FormValue("folder"))
	if folder == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "folder is required", nil)
		return
	}

	resp, err := s.service.media.Upload(r.Context(), media.UploadRequest{
		Reader:        file,
		Name:          header.Filename,
		MimeType:      header.Header.Get("Content-Type"),
		Folder:        folder,
		PriorRemoteID: strings.TrimSpace(r.FormValue("priorId")),
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *HTTPServer) handleMediaList(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.media.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, map[string]any{
			"name":      item.Name,
			"url":       item.URL,
			"remoteId":  item.RemoteID,
			"size":      item.Size,
			"mimeType":  item.MimeType,
			"folder":    item.Folder,
			"width":     item.Width,
			"height":    item.Height,
			"createdAt": item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": payload})
}

func (s *HTTPServer) handleMediaDelete(w http.ResponseWriter, r *http.Request, remoteID string) {
	if err := s.service.media.Delete(r.Context(), remoteID); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	if errors.Is(err, content.ErrUnknownKind) {
		return http.StatusNotFound, "NOT_FOUND", "Unknown content kind", nil
	}
	if errors.Is(err, media.ErrUnsupportedType) {
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "File type is not an allowed image type", nil
	}
	if errors.Is(err, media.ErrPartialUpload) {
		return http.StatusBadGateway, "UPLOAD_PARTIAL", "Upload partially failed; please retry", nil
	}
	if errors.Is(err, media.ErrRemoteStore) {
		return http.StatusBadGateway, "STORAGE_ERROR", "Object storage unavailable", nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

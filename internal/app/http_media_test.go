package app

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

func multipartUpload(t *testing.T, filename, mimeType, folder, priorID string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.WriteField("folder", folder); err != nil {
		t.Fatalf("write folder: %v", err)
	}
	if priorID != "" {
		if err := writer.WriteField("priorId", priorID); err != nil {
			t.Fatalf("write priorId: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename, mimeType, folder, priorID string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, mimeType, folder, priorID, []byte("imagebytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestUploadStoresObjectAndRecord(t *testing.T) {
	env := newTestEnv(t)

	rr := env.upload(t, "team.png", "image/png", "images/about", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	remoteID, _ := payload["remoteId"].(string)
	if remoteID == "" || payload["url"] == "" {
		t.Fatalf("incomplete upload response: %#v", payload)
	}

	record, ok := env.assets.records[remoteID]
	if !ok {
		t.Fatalf("no media record for %s", remoteID)
	}
	if record.Folder != "images/about" {
		t.Fatalf("folder not recorded: %#v", record)
	}
	if _, ok := env.objects.objects[remoteID]; !ok {
		t.Fatalf("object bytes missing from storage")
	}
}

func TestUploadRejectsTextFile(t *testing.T) {
	env := newTestEnv(t)

	rr := env.upload(t, "notes.txt", "text/plain", "images/about", "")
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload := decodeResponse(t, rr); payload["code"] != "UNSUPPORTED_TYPE" {
		t.Fatalf("expected UNSUPPORTED_TYPE, got %v", payload["code"])
	}
	if len(env.assets.records) != 0 || len(env.objects.objects) != 0 {
		t.Fatalf("rejected upload left state behind")
	}
}

func TestUploadRequiresFolder(t *testing.T) {
	env := newTestEnv(t)

	rr := env.upload(t, "team.png", "image/png", "", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUploadWithPriorIDReplacesAsset(t *testing.T) {
	env := newTestEnv(t)

	first := decodeResponse(t, env.upload(t, "hero.png", "image/png", "images", ""))
	firstID := first["remoteId"].(string)

	rr := env.upload(t, "hero-v2.png", "image/png", "images", firstID)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	if len(env.assets.records) != 1 {
		t.Fatalf("expected exactly one record after replace, got %d", len(env.assets.records))
	}
	if _, ok := env.assets.records[firstID]; ok {
		t.Fatalf("replaced record still present")
	}
	if _, ok := env.objects.objects[firstID]; ok {
		t.Fatalf("replaced object still present")
	}
}

func TestUploadStorageFailureReturnsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.objects.uploadErr = errors.New("bucket gone")

	rr := env.upload(t, "hero.png", "image/png", "images", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload := decodeResponse(t, rr); payload["code"] != "STORAGE_ERROR" {
		t.Fatalf("expected STORAGE_ERROR, got %v", payload["code"])
	}
}

func TestMediaListReturnsNewestFirstAndFilters(t *testing.T) {
	env := newTestEnv(t)

	env.upload(t, "first.png", "image/png", "images", "")
	env.upload(t, "second.png", "image/png", "images", "")

	rr := env.do(t, http.MethodGet, "/api/media", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	items, _ := payload["media"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	newest, _ := items[0].(map[string]any)
	if newest["name"] != "second.png" {
		t.Fatalf("expected newest first, got %#v", newest)
	}

	rr = env.do(t, http.MethodGet, "/api/media?q=first", nil)
	payload = decodeResponse(t, rr)
	items, _ = payload["media"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 filtered item, got %d", len(items))
	}
}

func TestMediaDeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	resp := decodeResponse(t, env.upload(t, "hero.png", "image/png", "images/front", ""))
	remoteID := resp["remoteId"].(string)

	rr := env.do(t, http.MethodDelete, "/api/media/"+remoteID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodDelete, "/api/media/"+remoteID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("second delete: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(env.assets.records) != 0 {
		t.Fatalf("record still present after delete")
	}
}

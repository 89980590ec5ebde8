package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/service"
)

func newUploadContext(t *testing.T, filename, contentType string, data []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/channels/200/attachments", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("200")
	return c, rec
}

func newUploadHandler(f *permsFixture, storage *mockFileStorage) *UploadHandler {
	if storage == nil {
		storage = &mockFileStorage{}
	}
	svc := service.NewUploadService(testChannelRepo(), storage, f.checker())
	return NewUploadHandler(svc)
}

func TestUploadAttachment(t *testing.T) {
	f := roleFixture()
	storage := &mockFileStorage{
		UploadFn: func(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
			if filename != "cat.png" {
				t.Errorf("filename = %q", filename)
			}
			if contentType != "image/png" {
				t.Errorf("contentType = %q", contentType)
			}
			data, _ := io.ReadAll(reader)
			if string(data) != "pngbytes" {
				t.Errorf("uploaded data = %q", data)
			}
			return "http://cdn.local/attachments/abc.png", nil
		},
	}
	h := newUploadHandler(f, storage)

	c, rec := newUploadContext(t, "cat.png", "image/png", []byte("pngbytes"))
	setAuthUser(c, 3)

	if err := h.UploadAttachment(c); err != nil {
		t.Fatalf("UploadAttachment returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("http://cdn.local/attachments/abc.png")) {
		t.Errorf("response missing url: %s", rec.Body.String())
	}
}

func TestUploadAttachmentDeniedWithoutMedia(t *testing.T) {
	f := roleFixture()
	f.overwrites[200] = []models.Overwrite{
		{ChannelID: 200, Target: models.OverwriteEveryone, Deny: int64(permissions.CapSendMedia)},
	}
	h := newUploadHandler(f, nil)

	c, rec := newUploadContext(t, "cat.png", "image/png", []byte("pngbytes"))
	setAuthUser(c, 3)

	if err := h.UploadAttachment(c); err != nil {
		t.Fatalf("UploadAttachment returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadAttachmentBadContentType(t *testing.T) {
	f := roleFixture()
	h := newUploadHandler(f, nil)

	c, rec := newUploadContext(t, "payload.exe", "application/x-msdownload", []byte("MZ"))
	setAuthUser(c, 3)

	if err := h.UploadAttachment(c); err != nil {
		t.Fatalf("UploadAttachment returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadAttachmentMissingFile(t *testing.T) {
	f := roleFixture()
	h := newUploadHandler(f, nil)

	c, rec := newTestContext(http.MethodPost, "/api/v1/channels/200/attachments", nil)
	c.SetParamNames("id")
	c.SetParamValues("200")
	setAuthUser(c, 3)

	if err := h.UploadAttachment(c); err != nil {
		t.Fatalf("UploadAttachment returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

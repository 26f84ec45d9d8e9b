package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func tl(t *testing.T) *zap.Logger {
	cfg := zap.NewProductionConfig()
	l, err := cfg.Build()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func uploadRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chats/upload", HandleChatUpload(tl(t)))
	return r
}

func multipartBody(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadRequiresFile(t *testing.T) {
	r := uploadRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chats/upload", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestUploadRejectsBadExtension(t *testing.T) {
	r := uploadRouter(t)
	body, contentType := multipartBody(t, "chat.pdf", []byte("whatever"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chats/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
}

func TestUploadRejectsNonExport(t *testing.T) {
	r := uploadRouter(t)
	body, contentType := multipartBody(t, "notes.txt", []byte("plain text, no whatsapp timestamps"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chats/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
}

func TestUploadRejectsSingleParticipant(t *testing.T) {
	r := uploadRouter(t)
	export := "12/03/2024, 9:15 am - Alice: hello\n12/03/2024, 9:16 am - Alice: anyone there?\n"
	body, contentType := multipartBody(t, "chat.txt", []byte(export))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chats/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
}

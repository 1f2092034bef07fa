package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/findit/backend/internal/apperr"
)

type fakeS3 struct {
	mu   sync.Mutex
	puts map[string][]byte
	srv  *httptest.Server
}

func newFakeS3(t *testing.T) *fakeS3 {
	t.Helper()
	f := &fakeS3{puts: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.puts[r.URL.Path] = body
		f.mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestMediaService(t *testing.T, endpoint string) *MediaService {
	t.Helper()
	cfg := MediaConfig{
		Region:    "us-east-1",
		Bucket:    "items-bucket",
		Endpoint:  endpoint,
		AccessKey: "AKIDTEST",
		SecretKey: "secret",
		MaxBytes:  1 << 20,
	}
	client, err := NewS3Client(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewS3Client() error = %v", err)
	}
	return NewMediaService(client, cfg)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMediaService_Upload(t *testing.T) {
	t.Parallel()
	s3 := newFakeS3(t)
	svc := newTestMediaService(t, s3.srv.URL)
	data := pngBytes(t)

	obj, err := svc.Upload(context.Background(), "photo.png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(obj.Key, "items/") || !strings.HasSuffix(obj.Key, ".png") {
		t.Errorf("Key = %q, want items/<uuid>.png", obj.Key)
	}
	if obj.ContentType != "image/png" || obj.Size != int64(len(data)) {
		t.Errorf("Upload() = %+v", obj)
	}
	if obj.URL != s3.srv.URL+"/items-bucket/"+obj.Key {
		t.Errorf("URL = %q", obj.URL)
	}

	s3.mu.Lock()
	stored, ok := s3.puts["/items-bucket/"+obj.Key]
	s3.mu.Unlock()
	if !ok || !bytes.Contains(stored, data) {
		t.Errorf("object not stored at path-style key; puts = %v", len(s3.puts))
	}
}

func TestMediaService_UploadExtensionFollowsContent(t *testing.T) {
	t.Parallel()
	s3 := newFakeS3(t)
	svc := newTestMediaService(t, s3.srv.URL)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	tests := []struct {
		name     string
		filename string
		body     []byte
		wantExt  string
		wantType string
	}{
		{name: "png named jpg", filename: "holiday.jpg", body: pngBytes(t), wantExt: ".png", wantType: "image/png"},
		{name: "jpeg keeps jpeg spelling", filename: "holiday.JPEG", body: jpg.Bytes(), wantExt: ".jpeg", wantType: "image/jpeg"},
		{name: "jpeg without extension", filename: "holiday", body: jpg.Bytes(), wantExt: ".jpg", wantType: "image/jpeg"},
	}
	for _, tt := range tests {
		obj, err := svc.Upload(context.Background(), tt.filename, bytes.NewReader(tt.body))
		if err != nil {
			t.Fatalf("%s: Upload() error = %v", tt.name, err)
		}
		if !strings.HasSuffix(obj.Key, tt.wantExt) || obj.ContentType != tt.wantType {
			t.Errorf("%s: key = %q type = %q, want %s and %s", tt.name, obj.Key, obj.ContentType, tt.wantExt, tt.wantType)
		}
	}
}

func TestMediaService_UploadRejects(t *testing.T) {
	t.Parallel()
	s3 := newFakeS3(t)
	svc := newTestMediaService(t, s3.srv.URL)

	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty", body: nil},
		{name: "text", body: []byte("just some text, not an image")},
		{name: "too large", body: append(pngBytes(t), make([]byte, 1<<20)...)},
	}
	for _, tt := range tests {
		if _, err := svc.Upload(context.Background(), "x.png", bytes.NewReader(tt.body)); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: Upload() error = %v, want ErrInvalidInput", tt.name, err)
		}
	}
	if len(s3.puts) != 0 {
		t.Errorf("rejected uploads reached storage: %d", len(s3.puts))
	}
}

func TestMediaService_PresignUpload(t *testing.T) {
	t.Parallel()
	svc := newTestMediaService(t, "")

	got, err := svc.PresignUpload(context.Background(), "image/jpeg")
	if err != nil {
		t.Fatalf("PresignUpload() error = %v", err)
	}
	if got.ExpiresIn != 300 || !strings.HasSuffix(got.Key, ".jpg") {
		t.Errorf("PresignUpload() = %+v", got)
	}
	u, err := url.Parse(got.UploadURL)
	if err != nil {
		t.Fatalf("UploadURL %q: %v", got.UploadURL, err)
	}
	if u.Query().Get("X-Amz-Expires") != "300" || u.Query().Get("X-Amz-Signature") == "" {
		t.Errorf("UploadURL query = %v", u.Query())
	}
	if got.PublicURL != "https://items-bucket.s3.us-east-1.amazonaws.com/"+got.Key {
		t.Errorf("PublicURL = %q", got.PublicURL)
	}

	if _, err := svc.PresignUpload(context.Background(), "application/pdf"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("PresignUpload(pdf) error = %v, want ErrInvalidInput", err)
	}
}

package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/config"
)

func TestValidateObjectName(t *testing.T) {
	for _, name := range []string{"", "  ", "a/b.png", "..png", `a\b.png`} {
		if _, err := ValidateObjectName(name); !errors.Is(err, ErrInvalidObject) {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}
	got, err := ValidateObjectName(" gallery-1700000000000-1.png ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "gallery-1700000000000-1.png" {
		t.Fatalf("expected trimmed name, got %q", got)
	}
}

func TestObjectNameFromURL(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example.com/site-images/gallery-1-1.jpg?v=2": "gallery-1-1.jpg",
		"/media/hero-5-1.png":                                     "hero-5-1.png",
		"https://x.s3.amazonaws.com/service%20one.png":            "service one.png",
		"":                                                        "",
	}
	for in, want := range cases {
		if got := ObjectNameFromURL(in); got != want {
			t.Errorf("ObjectNameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMemoryStoreRoundTripOverHTTP(t *testing.T) {
	store := NewMemoryStore("/media/")
	ctx := context.Background()
	if err := store.Upload(ctx, "hero-1-1.png", "image/png", []byte("png-bytes")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	url := store.PublicURL("hero-1-1.png")
	if url != "/media/hero-1-1.png" {
		t.Fatalf("unexpected public url %q", url)
	}

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := store.Delete(ctx, "hero-1-1.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "hero-1-1.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestMemoryStorePublicBaseURL(t *testing.T) {
	store := NewMemoryStore("media", WithPublicBaseURL("http://localhost:8080/"))
	if got := store.PublicURL("a.png"); got != "http://localhost:8080/media/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	putErr  error
	delErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.delErr
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3StoreUploadAndDelete(t *testing.T) {
	api := &fakeS3{}
	store, err := NewS3StoreWithClient(api, "site-images", "me-central-1", "")
	if err != nil {
		t.Fatalf("NewS3StoreWithClient: %v", err)
	}
	if err := store.Upload(context.Background(), "service-1-1.webp", "image/webp", []byte("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(api.puts) != 1 || *api.puts[0].Key != "service-1-1.webp" || *api.puts[0].ContentType != "image/webp" {
		t.Fatalf("unexpected put %+v", api.puts)
	}
	if got := store.PublicURL("service-1-1.webp"); got != "https://site-images.s3.me-central-1.amazonaws.com/service-1-1.webp" {
		t.Fatalf("unexpected url %q", got)
	}

	api.delErr = &s3types.NoSuchKey{}
	if err := store.Delete(context.Background(), "service-1-1.webp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestS3StorePathStyleEndpointURL(t *testing.T) {
	store, err := NewS3StoreWithClient(&fakeS3{}, "site-images", "us-east-1", "http://minio:9000/")
	if err != nil {
		t.Fatalf("NewS3StoreWithClient: %v", err)
	}
	if got := store.PublicURL("a.png"); got != "http://minio:9000/site-images/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestGCSPublicURL(t *testing.T) {
	if got := gcsPublicURL("", "site-images", "gallery-1-1.jpg"); got != "https://storage.googleapis.com/site-images/gallery-1-1.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := gcsPublicURL("https://cdn.example.com", "site-images", "x.jpg"); got != "https://cdn.example.com/x.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected error")
	}
	store, err := Open(context.Background(), config.StorageConfig{Driver: config.StorageMemory, MediaPrefix: "/media"})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

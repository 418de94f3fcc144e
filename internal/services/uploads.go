package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/storage"
)

// MaxImageBytes is the largest accepted image.
const MaxImageBytes = 5 << 20

// Upload error titles.
const (
	UploadWrongTypeTitle = "خطأ في نوع الملف"
	UploadTooLargeTitle  = "حجم الملف كبير"
	UploadFailedTitle    = "خطأ في رفع الصورة"
)

var (
	// ErrNotImage is the cause of an UploadError for non-image MIME types.
	ErrNotImage = errors.New("upload: not an image")
	// ErrImageTooLarge is the cause of an UploadError for files over MaxImageBytes.
	ErrImageTooLarge = errors.New("upload: image too large")
)

// UploadError reports why one file was not uploaded. Title and Body are the
// dashboard notice.
type UploadError struct {
	Filename string
	Title    string
	Body     string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ImageFile is one file posted from the dashboard.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadedImage is a stored object and its public address.
type UploadedImage struct {
	Source string
	Object string
	URL    string
}

// UploadResult is the outcome of one file in a batch.
type UploadResult struct {
	Image UploadedImage
	Err   error
}

// Uploader validates images and writes them to the object store.
type Uploader struct {
	store storage.ObjectStore
	now   func() time.Time
	seq   atomic.Uint64
}

// NewUploader constructs an uploader.
func NewUploader(store storage.ObjectStore, clock func() time.Time) (*Uploader, error) {
	if store == nil {
		return nil, errors.New("uploader: object store is required")
	}
	return &Uploader{store: store, now: utcClock(clock)}, nil
}

// Validate checks type and size without touching the store.
func Validate(file ImageFile) error {
	if !strings.HasPrefix(contentType(file), "image/") {
		return &UploadError{
			Filename: file.Filename,
			Title:    UploadWrongTypeTitle,
			Body:     fmt.Sprintf("الملف %s ليس صورة صالحة", file.Filename),
			Err:      ErrNotImage,
		}
	}
	if len(file.Data) > MaxImageBytes {
		return &UploadError{
			Filename: file.Filename,
			Title:    UploadTooLargeTitle,
			Body:     fmt.Sprintf("الصورة %s حجمها أكبر من 5 ميجابايت", file.Filename),
			Err:      ErrImageTooLarge,
		}
	}
	return nil
}

// Upload validates file and stores it as <prefix>-<unix millis>-<seq>.<ext>.
func (u *Uploader) Upload(ctx context.Context, prefix string, file ImageFile) (UploadedImage, error) {
	if err := Validate(file); err != nil {
		return UploadedImage{}, err
	}
	name := u.objectName(prefix, file)
	if err := u.store.Upload(ctx, name, contentType(file), file.Data); err != nil {
		return UploadedImage{}, &UploadError{
			Filename: file.Filename,
			Title:    UploadFailedTitle,
			Body:     err.Error(),
			Err:      err,
		}
	}
	return UploadedImage{Source: file.Filename, Object: name, URL: u.store.PublicURL(name)}, nil
}

// UploadAll uploads files one after another. A failed file is reported in
// its result and does not stop the batch.
func (u *Uploader) UploadAll(ctx context.Context, prefix string, files []ImageFile) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		img, err := u.Upload(ctx, prefix, file)
		results = append(results, UploadResult{Image: img, Err: err})
	}
	return results
}

// Remove deletes the object behind a public URL. Missing objects are not an error.
func (u *Uploader) Remove(ctx context.Context, publicURL string) error {
	name := storage.ObjectNameFromURL(publicURL)
	if name == "" {
		return nil
	}
	if err := u.store.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func (u *Uploader) objectName(prefix string, file ImageFile) string {
	seq := u.seq.Add(1) - 1
	return fmt.Sprintf("%s-%d-%d.%s", prefix, u.now().UnixMilli(), seq, extension(file))
}

func contentType(file ImageFile) string {
	if ct := strings.TrimSpace(file.ContentType); ct != "" {
		return strings.ToLower(ct)
	}
	if len(file.Data) == 0 {
		return ""
	}
	return http.DetectContentType(file.Data)
}

func extension(file ImageFile) string {
	if ext := strings.TrimPrefix(path.Ext(file.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, err := mime.ExtensionsByType(contentType(file)); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

// baseName is a filename without its extension.
func baseName(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if i := strings.Index(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}

package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
)

func writeFilePart(mw *multipart.Writer, name, contentType string, size int) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	chunk := make([]byte, 1<<20)
	copy(chunk, "\x89PNG\r\n\x1a\n")
	for size > 0 {
		n := min(size, len(chunk))
		if _, err := part.Write(chunk[:n]); err != nil {
			return err
		}
		size -= n
	}
	return nil
}

func TestReadImagesJudgesLargeBatchesPerFile(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		err := mw.WriteField("csrf_token", "token")
		for i := 0; err == nil && i < 3; i++ {
			err = writeFilePart(mw, "big.png", "image/png", 30<<20)
		}
		if err == nil {
			err = writeFilePart(mw, "small.png", "image/png", 512)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := httptest.NewRequest(http.MethodPost, "/dashboard/gallery/upload", pr)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	files, err := readImages(httptest.NewRecorder(), req, "images")
	if err != nil {
		t.Fatalf("readImages: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d", len(files))
	}
	for _, f := range files[:3] {
		if len(f.Data) != services.MaxImageBytes+1 {
			t.Fatalf("oversized file should be cut just past the limit, got %d bytes", len(f.Data))
		}
		if err := services.Validate(f); !errors.Is(err, services.ErrImageTooLarge) {
			t.Fatalf("expected too large, got %v", err)
		}
	}
	if last := files[3]; last.Filename != "small.png" || len(last.Data) != 512 || services.Validate(last) != nil {
		t.Fatalf("small file should pass, got %s with %d bytes", last.Filename, len(last.Data))
	}
}

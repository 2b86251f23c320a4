package evidence

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

const reportID = "22222222-2222-4222-8222-222222222221"

type fakeBackend struct {
	objects map[string]Object
	bodies  map[string]string
	putErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string]Object{}, bodies: map[string]string{}}
}

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, size int64, ct string) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, _ := io.ReadAll(r)
	f.bodies[key] = string(b)
	f.objects[key] = Object{Key: key, Size: size, ContentType: ct, LastModified: time.Now()}
	return nil
}

func (f *fakeBackend) List(_ context.Context, prefix string) ([]Object, error) {
	var out []Object
	for k, o := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackend) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://evidence.local/" + key + "?sig=x", nil
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":               "photo.jpg",
		"../../etc/passwd":        "passwd",
		`C:\Users\cam\shot 1.png`: "shot_1.png",
		"...":                     "file",
		"scène du crime.jpg":      "sc_ne_du_crime.jpg",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllowedContentType(t *testing.T) {
	if ct, ok := AllowedContentType("image/JPEG; charset=binary"); !ok || ct != "image/jpeg" {
		t.Errorf("got %q, %v", ct, ok)
	}
	if _, ok := AllowedContentType("application/x-msdownload"); ok {
		t.Error("executables must be rejected")
	}
}

func TestUploadAndList(t *testing.T) {
	backend := newFakeBackend()
	g := NewGallery(backend)
	ctx := context.Background()

	first, err := g.Upload(ctx, reportID, "front door.jpg", "image/jpeg", strings.NewReader("jpegdata"), 8)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(first.Key, "reports/"+reportID+"/") || first.Name != "front_door.jpg" {
		t.Errorf("unexpected item %+v", first)
	}
	if backend.bodies[first.Key] != "jpegdata" {
		t.Errorf("body not stored")
	}

	g.now = func() time.Time { return time.Now().Add(time.Second) }
	if _, err := g.Upload(ctx, reportID, "statement.pdf", "application/pdf", strings.NewReader("%PDF"), 4); err != nil {
		t.Fatal(err)
	}
	other := "22222222-2222-4222-8222-222222222222"
	if _, err := g.Upload(ctx, other, "x.png", "image/png", strings.NewReader("png"), 3); err != nil {
		t.Fatal(err)
	}

	items, err := g.List(ctx, reportID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Name != "front_door.jpg" || items[1].Name != "statement.pdf" {
		t.Fatalf("List = %+v", items)
	}
	if !strings.Contains(items[0].URL, "sig=") {
		t.Errorf("missing presigned url: %q", items[0].URL)
	}
}

func TestUploadRejects(t *testing.T) {
	g := NewGallery(newFakeBackend())
	ctx := context.Background()

	if _, err := g.Upload(ctx, "nope", "a.jpg", "image/jpeg", strings.NewReader(""), 0); !errors.Is(err, ErrInvalidReportID) {
		t.Errorf("err = %v, want ErrInvalidReportID", err)
	}
	if _, err := g.Upload(ctx, reportID, "a.exe", "application/octet-stream", strings.NewReader(""), 1); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
	if _, err := g.Upload(ctx, reportID, "big.mp4", "video/mp4", strings.NewReader(""), MaxUploadBytes+1); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestUploadBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.putErr = errors.New("connection reset")
	_, err := NewGallery(backend).Upload(context.Background(), reportID, "a.png", "image/png", strings.NewReader("x"), 1)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("err = %v", err)
	}
}

// Package evidence stores photos and documents attached to a report in an
// S3-compatible bucket.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"police-dispatch-system/pkg/dispatch"

	"github.com/google/uuid"
)

const MaxUploadBytes = 20 << 20

var (
	ErrTooLarge        = errors.New("evidence file too large")
	ErrUnsupportedType = errors.New("unsupported evidence content type")
	ErrInvalidReportID = errors.New("invalid report id")
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"application/pdf": true,
}

// Object is what a backend reports about one stored file.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Item is one gallery entry as returned to clients.
type Item struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	URL         string    `json:"url"`
}

type Gallery struct {
	backend   Backend
	urlExpiry time.Duration
	now       func() time.Time
}

func NewGallery(b Backend) *Gallery {
	return &Gallery{backend: b, urlExpiry: 15 * time.Minute, now: time.Now}
}

// AllowedContentType strips parameters and reports whether the type is
// accepted as evidence.
func AllowedContentType(ct string) (string, bool) {
	base, _, _ := strings.Cut(ct, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	return base, allowedTypes[base]
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeName keeps the base name of an upload and replaces anything
// outside [a-zA-Z0-9._-].
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func prefix(reportID string) string {
	return "reports/" + reportID + "/"
}

// ObjectKey is reports/<report>/<unix-nanos>-<short id>-<name>; keys sort by
// upload time.
func ObjectKey(reportID, name string, at time.Time) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s%019d-%s-%s", prefix(reportID), at.UnixNano(), short, SanitizeName(name))
}

func displayName(key string) string {
	base := path.Base(key)
	parts := strings.SplitN(base, "-", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return base
}

func (g *Gallery) Upload(ctx context.Context, reportID, filename, contentType string, r io.Reader, size int64) (*Item, error) {
	if !dispatch.ValidID(reportID) {
		return nil, ErrInvalidReportID
	}
	if size > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	ct, ok := AllowedContentType(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	at := g.now().UTC()
	key := ObjectKey(reportID, filename, at)
	if err := g.backend.Put(ctx, key, io.LimitReader(r, MaxUploadBytes), size, ct); err != nil {
		return nil, fmt.Errorf("store evidence: %w", err)
	}

	url, err := g.backend.PresignGet(ctx, key, g.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign evidence: %w", err)
	}
	return &Item{
		Key:         key,
		Name:        displayName(key),
		Size:        size,
		ContentType: ct,
		UploadedAt:  at,
		URL:         url,
	}, nil
}

// List returns the report's evidence, oldest first, each with a short-lived
// download URL.
func (g *Gallery) List(ctx context.Context, reportID string) ([]Item, error) {
	if !dispatch.ValidID(reportID) {
		return nil, ErrInvalidReportID
	}
	objects, err := g.backend.List(ctx, prefix(reportID))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	items := make([]Item, 0, len(objects))
	for _, o := range objects {
		url, err := g.backend.PresignGet(ctx, o.Key, g.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign evidence: %w", err)
		}
		items = append(items, Item{
			Key:         o.Key,
			Name:        displayName(o.Key),
			Size:        o.Size,
			ContentType: o.ContentType,
			UploadedAt:  o.LastModified,
			URL:         url,
		})
	}
	return items, nil
}

// Package media coordinates images stored with an external object store
// and the domain records that reference them.
//
// The external store commits on upload, so every path that uploads and
// then persists a record is a two-step operation: when the upload succeeds
// and the persistence fails, the uploaded objects must be released again.
// Manager provides the validation, upload and release halves of that.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"servicehub/internal/domain"
)

// File is an upload candidate
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Ext returns the lowercase extension of the file name without the dot
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
}

// UploadOptions are the hints passed to the store
type UploadOptions struct {
	Folder      string
	MaxWidth    int
	MaxHeight   int
	ContentType string
}

// Store is the external object store
type Store interface {
	// Upload stores the file and returns its durable reference.
	Upload(ctx context.Context, file File, opts UploadOptions) (domain.MediaRef, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, publicID string) error
}

// Policy constrains the files accepted for one context
type Policy struct {
	Folder    string
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
}

const (
	profileMaxBytes = 5 << 20
	imageMaxBytes   = 10 << 20
)

var (
	ProfilePolicy = Policy{Folder: "profiles", MaxBytes: profileMaxBytes, MaxWidth: 500, MaxHeight: 500}
	BookingPolicy = Policy{Folder: "bookings", MaxBytes: imageMaxBytes, MaxWidth: 1024, MaxHeight: 1024}
	ServicePolicy = Policy{Folder: "services", MaxBytes: imageMaxBytes, MaxWidth: 1024, MaxHeight: 1024}
	ReviewPolicy  = Policy{Folder: "reviews", MaxBytes: imageMaxBytes, MaxWidth: 1024, MaxHeight: 1024}
)

var allowedTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

var ErrNoContent = errors.New("media: file has no content")

func (p Policy) options(f File) UploadOptions {
	return UploadOptions{
		Folder:      p.Folder,
		MaxWidth:    p.MaxWidth,
		MaxHeight:   p.MaxHeight,
		ContentType: allowedTypes[f.Ext()],
	}
}

// Check rejects files with a disallowed type or size
func (p Policy) Check(f File) error {
	want, ok := allowedTypes[f.Ext()]
	if !ok {
		return domain.InvalidArgument("only jpg, jpeg, and png files are allowed")
	}
	if ct := strings.ToLower(strings.TrimSpace(f.ContentType)); ct != "" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
		if ct != want {
			return domain.InvalidArgument("declared content type does not match an allowed image type")
		}
	}
	if f.Size > p.MaxBytes {
		return domain.InvalidArgument("file size too large, max " + humanBytes(p.MaxBytes) + " allowed")
	}
	if f.Content == nil {
		return domain.InvalidArgument("empty file")
	}
	return nil
}

func humanBytes(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

// Package batch applies the DSX parser to many uploaded documents, expanding
// archives, caching successful results and bundling them for export.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrUnsupportedDocument is returned for top-level inputs that are neither .dsx nor .zip.
	ErrUnsupportedDocument = errors.New("unsupported document type: expected .dsx or .zip")
	// ErrCorruptArchive is returned when a .zip input cannot be read as an archive.
	ErrCorruptArchive = errors.New("archive could not be read")
)

// Document is one uploaded input. ModTime participates in the cache key, so
// callers must pass the original modification time, not the upload time.
type Document struct {
	Name    string
	ModTime time.Time
	Open    func() (io.ReadCloser, error)
}

// FileDocument describes a file on disk.
func FileDocument(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Document{
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Open:    func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// BytesDocument wraps an in-memory upload.
func BytesDocument(name string, modTime time.Time, data []byte) Document {
	return Document{
		Name:    name,
		ModTime: modTime,
		Open:    func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// IsArchive reports whether the document is a .zip bundle.
func (d Document) IsArchive() bool {
	return strings.EqualFold(filepath.Ext(d.Name), ".zip")
}

// IsDSX reports whether the document is a single DSX export.
func (d Document) IsDSX() bool {
	return strings.EqualFold(filepath.Ext(d.Name), ".dsx")
}

// read loads the whole document, giving up early if ctx is cancelled.
func (d Document) read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Open == nil {
		return nil, fmt.Errorf("document %s has no content", d.Name)
	}
	rc, err := d.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.Name, err)
	}
	return data, ctx.Err()
}

// expandArchive returns the .dsx members of the archive as documents, in
// archive order. Directories and other members are ignored.
func expandArchive(ctx context.Context, archive Document) ([]Document, error) {
	data, err := archive.read(ctx)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, archive.Name, err)
	}

	var members []Document
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".dsx") {
			continue
		}
		members = append(members, Document{
			Name:    f.Name,
			ModTime: f.Modified,
			Open:    func() (io.ReadCloser, error) { return f.Open() },
		})
	}
	return members, nil
}

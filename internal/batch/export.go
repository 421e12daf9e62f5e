package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// ExportName returns the bundle entry name for the i-th (zero-based) result:
// the document name with its .dsx extension replaced by .json, or
// file-<i+1>.json when the document is unnamed.
func ExportName(documentName string, i int) string {
	if documentName == "" {
		return fmt.Sprintf("file-%d.json", i+1)
	}
	base := documentName
	if ext := path.Ext(base); strings.EqualFold(ext, ".dsx") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".json"
}

// Export writes a zip bundle with one two-space-indented model per successful
// document. Failed documents are skipped.
func Export(w io.Writer, docs []*models.ParsedDocument) error {
	zw := zip.NewWriter(w)
	now := time.Now()

	for i, d := range docs {
		if d == nil || d.Model == nil {
			continue
		}
		body, err := json.MarshalIndent(d.Model, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", d.DocumentName, err)
		}
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     ExportName(d.DocumentName, i),
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("add %s to bundle: %w", d.DocumentName, err)
		}
		if _, err := f.Write(body); err != nil {
			return fmt.Errorf("write %s to bundle: %w", d.DocumentName, err)
		}
	}
	return zw.Close()
}

// Parsed returns the successful documents of the batch in result order.
func (b *BatchResult) Parsed() []*models.ParsedDocument {
	docs := make([]*models.ParsedDocument, 0, b.Succeeded)
	for _, r := range b.Results {
		if r.Parsed != nil {
			docs = append(docs, r.Parsed)
		}
	}
	return docs
}

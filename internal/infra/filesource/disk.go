package filesource

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

// Disk reads files from the local filesystem.
type Disk struct{}

// NewDisk constructs a disk source.
func NewDisk() *Disk {
	return &Disk{}
}

// Open reads the whole file at path.
func (d *Disk) Open(_ context.Context, path string) (form.SelectedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "read "+path, err)
	}
	return form.SelectedFile{
		Name:     filepath.Base(path),
		MimeType: mimetype.Detect(content).String(),
		Size:     int64(len(content)),
		Content:  content,
	}, nil
}

var _ Source = (*Disk)(nil)

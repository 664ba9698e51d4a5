package filesource

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

// ObjectScheme prefixes references that live in object storage.
const ObjectScheme = "s3://"

// Source turns a user pick into a SelectedFile.
type Source interface {
	Open(ctx context.Context, ref string) (form.SelectedFile, error)
}

// FromUpload builds a SelectedFile from bytes the browser already sent.
// The declared content type is kept unless it is missing or generic.
func FromUpload(name, declaredType string, content []byte) form.SelectedFile {
	return form.SelectedFile{
		Name:     name,
		MimeType: resolveMimeType(declaredType, content),
		Size:     int64(len(content)),
		Content:  content,
	}
}

func resolveMimeType(declared string, content []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(content).String()
}

// Mux sends s3:// references to the object store and everything else to disk.
type Mux struct {
	disk    Source
	objects Source
}

// NewMux combines sources. objects may be nil when storage is disabled.
func NewMux(disk, objects Source) *Mux {
	return &Mux{disk: disk, objects: objects}
}

// Open implements Source.
func (m *Mux) Open(ctx context.Context, ref string) (form.SelectedFile, error) {
	if rest, ok := strings.CutPrefix(ref, ObjectScheme); ok {
		if m.objects == nil {
			return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "object storage is not configured", nil)
		}
		return m.objects.Open(ctx, rest)
	}
	return m.disk.Open(ctx, ref)
}

type limited struct {
	src      Source
	maxBytes int64
}

// Limit rejects files larger than maxBytes. A non-positive limit returns src unchanged.
func Limit(src Source, maxBytes int64) Source {
	if src == nil || maxBytes <= 0 {
		return src
	}
	return &limited{src: src, maxBytes: maxBytes}
}

func (l *limited) Open(ctx context.Context, ref string) (form.SelectedFile, error) {
	file, err := l.src.Open(ctx, ref)
	if err != nil {
		return form.SelectedFile{}, err
	}
	if err := CheckSize(file.Size, l.maxBytes); err != nil {
		return form.SelectedFile{}, err
	}
	return file, nil
}

// CheckSize returns a file_too_large error when size exceeds a positive maxBytes.
func CheckSize(size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return apperrors.Wrap(apperrors.CodeFileTooLarge, fmt.Sprintf("file exceeds maximum allowed size of %d bytes", maxBytes), nil)
	}
	return nil
}

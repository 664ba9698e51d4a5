package filesource

import (
	"context"
	"path"
	"sync"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

// Memory keeps blobs in memory. Useful for tests and local dev.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data     []byte
	mimeType string
}

// NewMemory constructs an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]storedBlob)}
}

// Put stores a blob under ref. An empty mimeType is sniffed from data.
func (m *Memory) Put(ref string, data []byte, mimeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = storedBlob{data: data, mimeType: resolveMimeType(mimeType, data)}
}

// Open returns the blob stored under ref.
func (m *Memory) Open(_ context.Context, ref string) (form.SelectedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[ref]
	if !ok {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "blob not found: "+ref, nil)
	}
	return form.SelectedFile{
		Name:     path.Base(ref),
		MimeType: blob.mimeType,
		Size:     int64(len(blob.data)),
		Content:  blob.data,
	}, nil
}

var _ Source = (*Memory)(nil)

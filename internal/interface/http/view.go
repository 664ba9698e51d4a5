package http

import (
	"github.com/dustin/go-humanize"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

type fileView struct {
	Name        string `json:"name"`
	MimeType    string `json:"mimeType,omitempty"`
	Size        int64  `json:"size"`
	DisplaySize string `json:"displaySize"`
}

// stateView is what the page and the JSON API expose of a form's state.
type stateView struct {
	File           *fileView    `json:"file,omitempty"`
	Prompt         string       `json:"prompt"`
	Summary        string       `json:"summary"`
	Notice         *form.Notice `json:"notice,omitempty"`
	StorageEnabled bool         `json:"-"`
}

func newStateView(s form.State, storageEnabled bool) stateView {
	view := stateView{
		Prompt:         s.Prompt,
		Summary:        s.Summary,
		Notice:         s.Notice,
		StorageEnabled: storageEnabled,
	}
	if s.File != nil {
		view.File = &fileView{
			Name:        s.File.Name,
			MimeType:    s.File.MimeType,
			Size:        s.File.Size,
			DisplaySize: humanize.Bytes(uint64(s.File.Size)),
		}
	}
	return view
}

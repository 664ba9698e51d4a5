package form

import (
	"context"
	"fmt"
	"strings"
)

// MissingInputMessage is shown when Submit is invoked before any file was picked.
const MissingInputMessage = "Upload a file first!"

// SelectedFile is the user's current pick. Content must be treated as read-only
// once handed to the form.
type SelectedFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
	Content  []byte `json:"-"`
}

// Submission is the payload handed to the Submitter for one Submit call.
type Submission struct {
	Seq    uint64
	File   SelectedFile
	Prompt string
}

// Result is the typed success value of a summarize exchange.
type Result struct {
	Summary string
}

// Submitter performs the remote summarize exchange.
type Submitter interface {
	Summarize(ctx context.Context, sub Submission) (Result, error)
}

// NoticeKind distinguishes the two user facing notifications.
type NoticeKind string

const (
	NoticeMissingInput  NoticeKind = "missing_input"
	NoticeRequestFailed NoticeKind = "request_failed"
)

// Notice is a blocking notification the user has to dismiss.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// State is everything the form owns. It is discarded with the form.
type State struct {
	File    *SelectedFile `json:"file,omitempty"`
	Prompt  string        `json:"prompt"`
	Summary string        `json:"summary"`
	Notice  *Notice       `json:"notice,omitempty"`
	Issued  uint64        `json:"issued"`
	Applied uint64        `json:"applied"`
}

// HasFile reports whether a file is currently selected.
func (s State) HasFile() bool {
	return s.File != nil
}

// Policy decides what happens to a response that resolves after a newer one was applied.
type Policy string

const (
	// PolicyLastResolved lets whichever response resolves last overwrite the summary.
	PolicyLastResolved Policy = "last_resolved"
	// PolicyLatestIssued drops responses older than the one already applied.
	PolicyLatestIssued Policy = "latest_issued"
)

// ParsePolicy maps a config value onto a Policy. Empty selects PolicyLastResolved.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyLastResolved:
		return PolicyLastResolved, nil
	case PolicyLatestIssued:
		return PolicyLatestIssued, nil
	default:
		return "", fmt.Errorf("unknown stale policy %q", raw)
	}
}

// Config configures a Form.
type Config struct {
	Policy Policy
}

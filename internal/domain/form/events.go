package form

// Event is a discrete state transition.
type Event interface {
	event()
}

// FileSelected replaces the selected file wholesale.
type FileSelected struct {
	File SelectedFile
}

// PromptChanged replaces the prompt text.
type PromptChanged struct {
	Prompt string
}

// SubmissionRejected records a Submit call made without a file.
type SubmissionRejected struct{}

// SubmissionIssued records that request Seq went out.
type SubmissionIssued struct {
	Seq uint64
}

// SubmissionSucceeded carries the summary of request Seq.
type SubmissionSucceeded struct {
	Seq     uint64
	Summary string
}

// SubmissionFailed carries the failure of request Seq.
type SubmissionFailed struct {
	Seq uint64
	Err error
}

// NoticeDismissed clears the pending notice.
type NoticeDismissed struct{}

func (FileSelected) event()        {}
func (PromptChanged) event()       {}
func (SubmissionRejected) event()  {}
func (SubmissionIssued) event()    {}
func (SubmissionSucceeded) event() {}
func (SubmissionFailed) event()    {}
func (NoticeDismissed) event()     {}

// Apply returns the state after ev. The boolean is false only when a resolution
// event was discarded as stale under PolicyLatestIssued.
func Apply(s State, ev Event, policy Policy) (State, bool) {
	switch e := ev.(type) {
	case FileSelected:
		file := e.File
		s.File = &file
	case PromptChanged:
		s.Prompt = e.Prompt
	case SubmissionRejected:
		s.Notice = &Notice{Kind: NoticeMissingInput, Message: MissingInputMessage}
	case SubmissionIssued:
		if e.Seq > s.Issued {
			s.Issued = e.Seq
		}
	case SubmissionSucceeded:
		if isStale(s, e.Seq, policy) {
			return s, false
		}
		s.Summary = e.Summary
		s.Applied = e.Seq
	case SubmissionFailed:
		if isStale(s, e.Seq, policy) {
			return s, false
		}
		s.Notice = &Notice{Kind: NoticeRequestFailed, Message: failureMessage(e.Err)}
		s.Applied = e.Seq
	case NoticeDismissed:
		s.Notice = nil
	}
	return s, true
}

func isStale(s State, seq uint64, policy Policy) bool {
	return policy == PolicyLatestIssued && seq < s.Applied
}

func failureMessage(err error) string {
	if err == nil {
		return "Error: request failed"
	}
	return "Error: " + err.Error()
}

package form

import (
	"context"
	"sync"

	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

// Form owns the state of one submission form. It is safe for concurrent use;
// the lock is never held across the network call.
type Form struct {
	cfg       Config
	submitter Submitter
	counter   *metrics.SubmissionCounter

	mu    sync.Mutex
	state State
}

// New builds an empty form. counter may be nil.
func New(cfg Config, submitter Submitter, counter *metrics.SubmissionCounter) *Form {
	if cfg.Policy == "" {
		cfg.Policy = PolicyLastResolved
	}
	return &Form{cfg: cfg, submitter: submitter, counter: counter}
}

// Snapshot returns a copy of the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SelectFile replaces the selected file. The previous pick is never sent again.
func (f *Form) SelectFile(file SelectedFile) State {
	return f.dispatch(FileSelected{File: file})
}

// ChangePrompt replaces the prompt text. Empty is valid.
func (f *Form) ChangePrompt(prompt string) State {
	return f.dispatch(PromptChanged{Prompt: prompt})
}

// DismissNotice clears the pending notification.
func (f *Form) DismissNotice() State {
	return f.dispatch(NoticeDismissed{})
}

// Submit sends the selected file and the prompt to the Submitter.
//
// Without a selected file it records the missing input notice and returns a
// missing_input error without calling the Submitter. Any Submitter failure
// records a request failed notice, leaves the summary untouched and comes back
// as a request_failed error wrapping the cause.
func (f *Form) Submit(ctx context.Context) (State, error) {
	f.mu.Lock()
	if !f.state.HasFile() {
		f.state, _ = Apply(f.state, SubmissionRejected{}, f.cfg.Policy)
		snapshot := f.state
		f.mu.Unlock()
		f.counter.Rejected()
		return snapshot, apperrors.Wrap(apperrors.CodeMissingInput, MissingInputMessage, nil)
	}
	seq := f.state.Issued + 1
	f.state, _ = Apply(f.state, SubmissionIssued{Seq: seq}, f.cfg.Policy)
	sub := Submission{Seq: seq, File: *f.state.File, Prompt: f.state.Prompt}
	f.mu.Unlock()
	f.counter.Issued()

	result, err := f.submitter.Summarize(ctx, sub)

	var ev Event = SubmissionSucceeded{Seq: seq, Summary: result.Summary}
	if err != nil {
		ev = SubmissionFailed{Seq: seq, Err: err}
	}

	f.mu.Lock()
	next, applied := Apply(f.state, ev, f.cfg.Policy)
	f.state = next
	f.mu.Unlock()

	switch {
	case !applied:
		f.counter.Stale()
	case err != nil:
		f.counter.Failed()
	default:
		f.counter.Succeeded()
	}

	if err != nil {
		return next, apperrors.Wrap(apperrors.CodeRequestFailed, "summarize request failed", err)
	}
	return next, nil
}

func (f *Form) dispatch(ev Event) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state, _ = Apply(f.state, ev, f.cfg.Policy)
	return f.state
}

package formsession

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

// Factory builds the form handed to a new session.
type Factory func() *form.Form

// Config bounds the registry. Zero IdleTTL never expires sessions and zero
// MaxSessions never caps them.
type Config struct {
	IdleTTL     time.Duration
	MaxSessions int
}

// MemoryRegistry keeps one form per browser session in process memory.
// The least recently used session goes first once MaxSessions is reached.
// Nothing survives a restart.
type MemoryRegistry struct {
	newForm  Factory
	logger   *slog.Logger
	sessions *expirable.LRU[string, *form.Form]
}

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry(cfg Config, newForm Factory, logger *slog.Logger) *MemoryRegistry {
	r := &MemoryRegistry{
		newForm: newForm,
		logger:  logger.With("component", "formsession.memory"),
	}
	r.sessions = expirable.NewLRU[string, *form.Form](cfg.MaxSessions, r.evicted, cfg.IdleTTL)
	return r
}

// Create starts a fresh session and returns its id.
func (r *MemoryRegistry) Create() (string, *form.Form) {
	id := uuid.NewString()
	f := r.newForm()
	r.sessions.Add(id, f)
	return id, f
}

// Get returns the session's form and refreshes its idle timer.
func (r *MemoryRegistry) Get(id string) (*form.Form, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	f, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	// Re-adding resets the expiry.
	r.sessions.Add(id, f)
	return f, true
}

// Len reports the number of live sessions.
func (r *MemoryRegistry) Len() int {
	return r.sessions.Len()
}

// evicted runs under the LRU lock; it must not call back into the registry.
func (r *MemoryRegistry) evicted(_ string, _ *form.Form) {
	r.logger.Debug("form session evicted")
}

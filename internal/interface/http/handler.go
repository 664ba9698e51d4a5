package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
	"github.com/yanqian/multimodal-summarizer/internal/infra/filesource"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
	"github.com/yanqian/multimodal-summarizer/pkg/metrics"
)

// EndpointProber checks that the remote summarize endpoint is up.
type EndpointProber interface {
	Health(ctx context.Context) error
}

// HandlerConfig carries the page level knobs. Both guards are off when zero.
type HandlerConfig struct {
	MaxFileBytes int64
	RateLimit    config.RateLimitConfig
}

// Handler binds the form page and its JSON mirror to per-session forms.
type Handler struct {
	cfg      HandlerConfig
	sessions SessionStore
	objects  filesource.Source
	endpoint EndpointProber
	counter  *metrics.SubmissionCounter
	throttle *submitThrottle
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler. objects may be nil when object
// storage is disabled.
func NewHandler(cfg HandlerConfig, sessions SessionStore, objects filesource.Source, endpoint EndpointProber, counter *metrics.SubmissionCounter, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		objects:  objects,
		endpoint: endpoint,
		counter:  counter,
		throttle: newSubmitThrottle(cfg.RateLimit),
		logger:   logger.With("component", "http.handler"),
	}
}

// Health reports liveness, endpoint reachability, live sessions and submission totals.
func (h *Handler) Health(c *gin.Context) {
	endpoint := "ok"
	if h.endpoint != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.endpoint.Health(ctx); err != nil {
			endpoint = "unavailable: " + err.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"endpoint":    endpoint,
		"sessions":    h.sessions.Len(),
		"submissions": h.counter.Snapshot(),
	})
}

// pickFile applies FileSelected when the request carries a file part or an
// object reference. It reports whether a new file was picked.
func (h *Handler) pickFile(c *gin.Context, f *form.Form) (bool, error) {
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		file, err := h.readUpload(header)
		if err != nil {
			return false, err
		}
		f.SelectFile(file)
		return true, nil
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return false, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid multipart form", err)
	}

	ref := c.PostForm("ref")
	if ref == "" {
		return false, nil
	}
	if h.objects == nil {
		return false, apperrors.Wrap(apperrors.CodeInvalidRequest, "object storage is not configured", nil)
	}
	file, err := filesource.Limit(h.objects, h.cfg.MaxFileBytes).Open(c.Request.Context(), ref)
	if err != nil {
		return false, err
	}
	f.SelectFile(file)
	return true, nil
}

func (h *Handler) readUpload(header *multipart.FileHeader) (form.SelectedFile, error) {
	if err := filesource.CheckSize(header.Size, h.cfg.MaxFileBytes); err != nil {
		return form.SelectedFile{}, err
	}
	src, err := header.Open()
	if err != nil {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "failed to read upload", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "failed to read upload", err)
	}
	return filesource.FromUpload(header.Filename, header.Header.Get("Content-Type"), data), nil
}

// applyPrompt applies PromptChanged only when the field was submitted; an
// empty value still counts.
func applyPrompt(c *gin.Context, f *form.Form) {
	if prompt, ok := c.GetPostForm("prompt"); ok {
		f.ChangePrompt(prompt)
	}
}

// submit runs Submit detached from the browser connection: once issued, the
// request runs to completion even if the tab goes away.
func (h *Handler) submit(c *gin.Context, f *form.Form) (form.State, error) {
	if err := h.admitSubmit(c); err != nil {
		return f.Snapshot(), err
	}
	state, err := f.Submit(context.WithoutCancel(c.Request.Context()))
	if err != nil && apperrors.IsCode(err, apperrors.CodeRequestFailed) {
		h.logger.Warn("summarize request failed", "error", err)
	}
	return state, err
}

func mustForm(c *gin.Context) (*form.Form, bool) {
	f, ok := getForm(c)
	if !ok {
		abortWithError(c, apperrors.Wrap(apperrors.CodeSessionNotFound, "form session missing", nil))
	}
	return f, ok
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

const pageTemplate = "index.html"

// Page renders the submission form for the caller's session.
func (h *Handler) Page(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, pageTemplate, newStateView(f.Snapshot(), h.objects != nil))
}

// SelectFile handles the file input changing.
func (h *Handler) SelectFile(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	if _, err := h.pickFile(c, f); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ChangePrompt handles edits of the custom prompt field.
func (h *Handler) ChangePrompt(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	applyPrompt(c, f)
	c.Redirect(http.StatusSeeOther, "/")
}

// Submit handles the Summarize button. A file part sent along with the button
// replaces the selection first; the outcome is rendered on the redirected page.
func (h *Handler) Submit(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	if _, err := h.pickFile(c, f); err != nil {
		abortWithError(c, err)
		return
	}
	applyPrompt(c, f)
	// Form outcomes render as notices on the page; only a host guard aborts.
	if _, err := h.submit(c, f); apperrors.IsCode(err, apperrors.CodeRateLimited) {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// DismissNotice closes the pending notification dialog.
func (h *Handler) DismissNotice(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	f.DismissNotice()
	c.Redirect(http.StatusSeeOther, "/")
}

// DismissFormNotice is the JSON twin of DismissNotice.
func (h *Handler) DismissFormNotice(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStateView(f.DismissNotice(), h.objects != nil))
}

// GetForm returns the session's form state as JSON.
func (h *Handler) GetForm(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStateView(f.Snapshot(), h.objects != nil))
}

// SubmitForm is the JSON twin of Submit: missing input answers 400, a failed
// exchange answers 502, both with the error envelope.
func (h *Handler) SubmitForm(c *gin.Context) {
	f, ok := mustForm(c)
	if !ok {
		return
	}
	if _, err := h.pickFile(c, f); err != nil {
		abortWithError(c, err)
		return
	}
	applyPrompt(c, f)
	state, err := h.submit(c, f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateView(state, h.objects != nil))
}

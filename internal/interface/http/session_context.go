package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

const sessionFormKey = "session_form"

func setForm(c *gin.Context, f *form.Form) {
	c.Set(sessionFormKey, f)
}

func getForm(c *gin.Context) (*form.Form, bool) {
	value, ok := c.Get(sessionFormKey)
	if !ok {
		return nil, false
	}
	f, ok := value.(*form.Form)
	return f, ok
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

// SessionStore hands out one form per browser session.
type SessionStore interface {
	Get(id string) (*form.Form, bool)
	Create() (string, *form.Form)
	Len() int
}

// sessionMiddleware resolves the session cookie, starting a new session when it
// is missing or expired. The cookie has no Max-Age so it ends with the browser session.
func sessionMiddleware(store SessionStore, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(cookieName); err == nil {
			if f, ok := store.Get(id); ok {
				setForm(c, f)
				c.Next()
				return
			}
		}
		id, f := store.Create()
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		setForm(c, f)
		c.Next()
	}
}

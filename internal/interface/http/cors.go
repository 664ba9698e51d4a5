package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// originPolicy decides which browser origins may call the JSON API.
type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

// newOriginPolicy treats an empty list or a "*" entry as allow-all.
func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimSpace(o))
		if o == "*" {
			p.any = true
		}
		if o != "" {
			p.allowed[o] = struct{}{}
		}
	}
	if len(p.allowed) == 0 {
		p.any = true
	}
	return p
}

// resolve returns the Access-Control-Allow-Origin value for origin, or false
// when the origin is not allowed.
func (p originPolicy) resolve(origin string) (string, bool) {
	if p.any {
		return "*", true
	}
	if _, ok := p.allowed[strings.ToLower(origin)]; ok && origin != "" {
		return origin, true
	}
	return "", false
}

// corsMiddleware lets a separately hosted frontend call the JSON API. The
// session cookie only travels to explicitly listed origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	policy := newOriginPolicy(origins)
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Add("Vary", "Origin")
		if origin, ok := policy.resolve(c.GetHeader("Origin")); ok {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				headers.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

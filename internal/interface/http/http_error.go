package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

const codeInternal = "internal_error"

var statusByCode = map[string]int{
	apperrors.CodeMissingInput:    http.StatusBadRequest,
	apperrors.CodeInvalidRequest:  http.StatusBadRequest,
	apperrors.CodeFileUnreadable:  http.StatusBadRequest,
	apperrors.CodeFileTooLarge:    http.StatusRequestEntityTooLarge,
	apperrors.CodeRateLimited:     http.StatusTooManyRequests,
	apperrors.CodeRequestFailed:   http.StatusBadGateway,
	apperrors.CodeSessionNotFound: http.StatusInternalServerError,
}

// errorReply is the rendered form of a handler error.
type errorReply struct {
	Status  int
	Code    string
	Message string
}

// describeError maps an AppError onto its status; anything else is an opaque 500.
func describeError(err error) errorReply {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return errorReply{Status: http.StatusInternalServerError, Code: codeInternal, Message: "something went wrong"}
	}
	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return errorReply{Status: status, Code: appErr.Code, Message: appErr.Error()}
}

// abortWithError records err for errorHandlingMiddleware and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

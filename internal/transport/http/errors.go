package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"codenest/internal/domain"
)

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	err error
	apiError
}{
	{domain.ErrEmptyCode, apiError{http.StatusBadRequest, "empty_code"}},
	{domain.ErrUnsupportedLanguage, apiError{http.StatusBadRequest, "unsupported_language"}},
	{domain.ErrInvalidAmount, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrInvalidTopicOrder, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrInvalidDay, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrEmptyBadgeName, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrNoTestCases, apiError{http.StatusBadRequest, "no_test_cases"}},
	{domain.ErrPasswordTooLong, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrEmptyProjectName, apiError{http.StatusBadRequest, "validation"}},
	{domain.ErrEmptyFileName, apiError{http.StatusBadRequest, "validation"}},

	{domain.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "invalid_credentials"}},
	{domain.ErrInvalidToken, apiError{http.StatusUnauthorized, "unauthorized"}},

	{domain.ErrTopicLocked, apiError{http.StatusForbidden, "topic_locked"}},

	{domain.ErrUserNotFound, apiError{http.StatusNotFound, "not_found"}},
	{domain.ErrProgressNotFound, apiError{http.StatusNotFound, "not_found"}},
	{domain.ErrTopicNotFound, apiError{http.StatusNotFound, "not_found"}},
	{domain.ErrProjectNotFound, apiError{http.StatusNotFound, "not_found"}},

	{domain.ErrUserAlreadyExists, apiError{http.StatusConflict, "already_exists"}},
	{domain.ErrConcurrentUpdate, apiError{http.StatusConflict, "conflict"}},

	{domain.ErrExecutionTimeout, apiError{http.StatusGatewayTimeout, "execution_timeout"}},
	{domain.ErrExecutionUnavailable, apiError{http.StatusServiceUnavailable, "execution_unavailable"}},
	{domain.ErrContentUnavailable, apiError{http.StatusServiceUnavailable, "content_unavailable"}},
	{domain.ErrMalformedResponse, apiError{http.StatusBadGateway, "malformed_response"}},
}

func classify(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError
		}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apiError{http.StatusBadRequest, "validation"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apiError{http.StatusGatewayTimeout, "timeout"}
	}
	return apiError{http.StatusInternalServerError, "internal"}
}

// writeError: единый формат ошибок {"error", "code"}
func writeError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		// клиент ушёл, отвечать некому
		c.Abort()
		return
	}
	ae := classify(err)
	msg := err.Error()
	if ae.status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(ae.status, gin.H{"error": msg, "code": ae.code})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
}

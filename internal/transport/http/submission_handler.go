package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/middleware"
)

type SubmissionHandler struct {
	submit *usecase.SubmissionUseCase
}

func NewSubmissionHandler(submit *usecase.SubmissionUseCase) *SubmissionHandler {
	return &SubmissionHandler{submit: submit}
}

type submitReq struct {
	Code       string          `json:"code" binding:"required"`
	Language   domain.Language `json:"language" binding:"required,language"`
	TopicOrder int             `json:"topicOrder" binding:"required,min=1"`
}

// POST /api/v1/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.submit.Submit(c.Request.Context(), userID, usecase.SubmissionInput{
		Code:       req.Code,
		Language:   req.Language,
		TopicOrder: req.TopicOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/tutor"
	"codenest/internal/middleware"
)

type TutorHandler struct {
	tutor *usecase.TutorUseCase
}

func NewTutorHandler(t *usecase.TutorUseCase) *TutorHandler {
	return &TutorHandler{tutor: t}
}

type explainReq struct {
	Code           string          `json:"code" binding:"required"`
	Error          string          `json:"error" binding:"required"`
	ExpectedOutput string          `json:"expectedOutput"`
	Topic          string          `json:"topic"`
	Language       domain.Language `json:"language" binding:"omitempty,language"`
}

// POST /api/v1/ai/explain-error
func (h *TutorHandler) ExplainError(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req explainReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.tutor.ExplainError(c.Request.Context(), userID, usecase.ExplainInput{
		Code:           req.Code,
		Error:          req.Error,
		ExpectedOutput: req.ExpectedOutput,
		Topic:          req.Topic,
		Language:       req.Language,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out.Explanation, "fallback": out.Fallback, "reward": out.Reward})
}

type complexityReq struct {
	Code     string          `json:"code" binding:"required"`
	Language domain.Language `json:"language" binding:"omitempty,language"`
}

// POST /api/v1/ai/analyze-complexity
func (h *TutorHandler) AnalyzeComplexity(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req complexityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	analysis, reward, err := h.tutor.AnalyzeComplexity(c.Request.Context(), userID, req.Code, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis, "reward": reward})
}

type chatReq struct {
	UserMessage string          `json:"userMessage" binding:"required"`
	Topic       string          `json:"topic"`
	Code        string          `json:"code"`
	Language    domain.Language `json:"language" binding:"omitempty,language"`
	ChatHistory []tutor.Message `json:"chatHistory" binding:"omitempty,dive"`
}

// POST /api/v1/ai/chat
func (h *TutorHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	text, err := h.tutor.Chat(c.Request.Context(), usecase.ChatInput{
		Message:  req.UserMessage,
		Topic:    req.Topic,
		Code:     req.Code,
		Language: req.Language,
		History:  req.ChatHistory,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"response": text}})
}

type hintReq struct {
	Code     string          `json:"code"`
	Question string          `json:"question" binding:"required"`
	Language domain.Language `json:"language" binding:"omitempty,language"`
}

// POST /api/v1/ai/hint
func (h *TutorHandler) Hint(c *gin.Context) {
	var req hintReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hint, err := h.tutor.Hint(c.Request.Context(), req.Code, req.Question, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hint": hint})
}

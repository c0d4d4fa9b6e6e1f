package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/executor"
	"codenest/internal/middleware"
)

type ExecutionHandler struct {
	exec *usecase.ExecutionUseCase
}

func NewExecutionHandler(exec *usecase.ExecutionUseCase) *ExecutionHandler {
	return &ExecutionHandler{exec: exec}
}

type executeReq struct {
	Code     string          `json:"code" binding:"required"`
	Language domain.Language `json:"language" binding:"required,language"`
	Input    string          `json:"input"`
	// Необязательно: запуск из проекта попадает в его историю
	ProjectID *uuid.UUID `json:"projectId"`
	FileName  string     `json:"fileName"`
}

// POST /api/v1/execute
func (h *ExecutionHandler) Execute(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req executeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	run := domain.ExecutionRequest{
		Code:     req.Code,
		Language: req.Language,
		Stdin:    req.Input,
	}
	var (
		out *usecase.ExecutionOutput
		err error
	)
	if req.ProjectID != nil {
		out, err = h.exec.ExecuteInProject(c.Request.Context(), userID, *req.ProjectID, req.FileName, run)
	} else {
		out, err = h.exec.Execute(c.Request.Context(), userID, run)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/execute/languages
func (h *ExecutionHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": executor.Runtimes()})
}

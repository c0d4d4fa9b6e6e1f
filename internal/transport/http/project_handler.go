package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/middleware"
)

type ProjectHandler struct {
	projects *usecase.ProjectUseCase
}

func NewProjectHandler(projects *usecase.ProjectUseCase) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// projectID: битый id отвечает так же, как чужой
func projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, domain.ErrProjectNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	projects, err := h.projects.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type createProjectReq struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Language    domain.Language `json:"language" binding:"omitempty,language"`
}

// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), userID, usecase.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Language:    req.Language,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type projectFileReq struct {
	Name     string          `json:"name"`
	Content  string          `json:"content"`
	Language domain.Language `json:"language"`
}

type updateProjectReq struct {
	Files       *[]projectFileReq `json:"files"`
	ActiveFile  *string           `json:"activeFile"`
	Name        *string           `json:"name" binding:"omitempty,max=100"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
}

// PUT /api/v1/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := domain.ProjectPatch{ActiveFile: req.ActiveFile, Name: req.Name, Description: req.Description}
	if req.Files != nil {
		files := make([]domain.ProjectFile, 0, len(*req.Files))
		for _, f := range *req.Files {
			files = append(files, domain.ProjectFile{Name: f.Name, Content: f.Content, Language: f.Language})
		}
		patch.Files = &files
	}

	p, err := h.projects.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

type executionRecordReq struct {
	FileName      string          `json:"fileName" binding:"required"`
	Language      domain.Language `json:"language" binding:"omitempty,language"`
	ExecutionTime int64           `json:"executionTime" binding:"min=0"`
	MemoryUsage   float64         `json:"memoryUsage" binding:"min=0"`
	Complexity    string          `json:"complexity" binding:"max=64"`
}

// POST /api/v1/projects/:id/execution
func (h *ProjectHandler) RecordExecution(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req executionRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.projects.RecordExecution(c.Request.Context(), userID, id, domain.ExecutionRecord{
		FileName:        req.FileName,
		Language:        req.Language,
		ExecutionTimeMs: req.ExecutionTime,
		MemoryMB:        req.MemoryUsage,
		Complexity:      req.Complexity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

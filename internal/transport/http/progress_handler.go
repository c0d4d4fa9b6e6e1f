package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/middleware"
)

type ProgressHandler struct {
	progress *usecase.ProgressUseCase
}

func NewProgressHandler(progress *usecase.ProgressUseCase) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/v1/progress/completed
func (h *ProgressHandler) Completed(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	completed, err := h.progress.Completed(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "completedTopics": completed})
}

type completeReq struct {
	TopicOrder int    `json:"topicOrder" binding:"required,min=1"`
	TopicTitle string `json:"topicTitle" binding:"required"`
}

// POST /api/v1/progress/complete
func (h *ProgressHandler) Complete(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req completeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.progress.CompleteTopic(c.Request.Context(), userID, req.TopicOrder)
	if err != nil {
		writeError(c, err)
		return
	}

	if out.Result.AlreadyCompleted {
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"message":          "Topic already completed",
			"alreadyCompleted": true,
			"completedTopics":  out.CompletedTopics,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Completed: " + req.TopicTitle,
		"alreadyCompleted": false,
		"completedTopics":  out.CompletedTopics,
		"xpGained":         out.Result.XPGained,
		"newXP":            out.Result.NewXP,
		"newLevel":         out.Result.NewLevel,
		"leveledUp":        out.Result.LeveledUp,
	})
}

func languageParam(c *gin.Context) (domain.Language, bool) {
	lang, err := domain.ParseLanguage(c.Param("language"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return lang, true
}

// GET /api/v1/topics/:language
func (h *ProgressHandler) Roadmap(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	lang, ok := languageParam(c)
	if !ok {
		return
	}
	topics, err := h.progress.Roadmap(c.Request.Context(), userID, lang)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": lang, "topics": topics})
}

// GET /api/v1/topics/:language/:order
func (h *ProgressHandler) Topic(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	lang, ok := languageParam(c)
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order <= 0 {
		writeError(c, domain.ErrInvalidTopicOrder)
		return
	}
	topic, err := h.progress.Topic(c.Request.Context(), userID, lang, order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

// GET /api/v1/analytics
func (h *ProgressHandler) Analytics(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	a, err := h.progress.Analytics(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type skillsReq struct {
	Syntax         *int `json:"syntax"`
	Logic          *int `json:"logic"`
	DataStructures *int `json:"dataStructures"`
	Optimization   *int `json:"optimization"`
}

// PUT /api/v1/analytics/skills
func (h *ProgressHandler) UpdateSkills(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req skillsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	skills, err := h.progress.UpdateSkills(c.Request.Context(), userID, domain.SkillPatch{
		Syntax:         req.Syntax,
		Logic:          req.Logic,
		DataStructures: req.DataStructures,
		Optimization:   req.Optimization,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, skills)
}

type badgeReq struct {
	Name string `json:"name" binding:"required,max=64"`
	Icon string `json:"icon"`
}

// POST /api/v1/analytics/badge
func (h *ProgressHandler) AwardBadge(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req badgeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	awarded, badges, err := h.progress.AwardBadge(c.Request.Context(), userID, req.Name, req.Icon)
	if err != nil {
		writeError(c, err)
		return
	}
	msg := "Badge awarded!"
	if !awarded {
		msg = "Badge already earned"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "awarded": awarded, "badges": badges})
}

// GET /api/v1/analytics/leaderboard?limit=
func (h *ProgressHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.progress.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

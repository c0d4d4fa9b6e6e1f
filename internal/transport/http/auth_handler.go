package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codenest/internal/application/usecase"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/security"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	auth         *usecase.AuthUseCase
	cookieDomain string
	secureCookie bool
}

func NewAuthHandler(auth *usecase.AuthUseCase, cookieDomain string, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieDomain: cookieDomain, secureCookie: secureCookie}
}

type registerReq struct {
	Email             string          `json:"email" binding:"required,email"`
	Username          string          `json:"username" binding:"required,min=3,max=32"`
	Password          string          `json:"password" binding:"required,min=6"`
	PreferredLanguage domain.Language `json:"preferredLanguage" binding:"omitempty,language"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.PreferredLanguage)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"userId": user.ID, "username": user.Username})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.Refresh)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": tokens.Access,
		"user": gin.H{
			"id":                user.ID,
			"username":          user.Username,
			"email":             user.Email,
			"preferredLanguage": user.PreferredLanguage,
		},
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found", "code": "unauthorized"})
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.Refresh)
	c.JSON(http.StatusOK, gin.H{"accessToken": tokens.Access})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err == nil {
		if err := h.auth.Logout(c.Request.Context(), refreshToken); err != nil {
			writeError(c, err)
			return
		}
	}

	c.SetCookie(refreshCookie, "", -1, "/", h.cookieDomain, h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(refreshCookie, token, int(security.RefreshTTL.Seconds()), "/", h.cookieDomain, h.secureCookie, true)
}

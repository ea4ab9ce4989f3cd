package handler

import (
	"net/http"

	"referly/config"
	"referly/internal/middleware"
	"referly/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cfg       *config.JWTConfig
	svc       *service.AuthService
	dashboard *service.DashboardService
	log       *zap.Logger
}

func NewAuthHandler(cfg *config.JWTConfig, svc *service.AuthService, dashboard *service.DashboardService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, svc: svc, dashboard: dashboard, log: log}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// setAuthCookie stores the session token in an http-only cookie.
func setAuthCookie(c *gin.Context, cfg *config.JWTConfig, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.Expiry.Seconds()), "/", "", cfg.SecureCookie, true)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}
	company, token, err := h.svc.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	setAuthCookie(c, h.cfg, token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "company": company, "message": "Welcome to Referly"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}
	company, token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	setAuthCookie(c, h.cfg, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "company": company, "message": "Welcome Back"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged Out"})
}

// Me returns the authenticated company.
func (h *AuthHandler) Me(c *gin.Context) {
	company, err := h.svc.Me(middleware.GetCompanyID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "company": company})
}

func (h *AuthHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Get(middleware.GetCompanyID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": d})
}

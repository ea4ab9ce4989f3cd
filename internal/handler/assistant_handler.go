package handler

import (
	"net/http"
	"strings"

	"referly/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssistantHandler struct {
	svc *service.AssistantService
	log *zap.Logger
}

func NewAssistantHandler(svc *service.AssistantService, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{svc: svc, log: log}
}

type ChatRequest struct {
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type DescriptionRequest struct {
	Title string `json:"title"`
}

type EmailRequest struct {
	Title   string `json:"title"`
	MsgType string `json:"msgType"`
}

func (h *AssistantHandler) bindText(c *gin.Context) (string, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message.Text) == "" {
		badRequest(c, "Message is required")
		return "", false
	}
	return req.Message.Text, true
}

// Chat serves the company dashboard assistant.
func (h *AssistantHandler) Chat(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	reply, err := h.svc.Chat(c.Request.Context(), text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": reply})
}

// Message drafts a casual personal note for the referral form.
func (h *AssistantHandler) Message(c *gin.Context) {
	msg, err := h.svc.ReferralMessage(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "finalAnswer": msg})
}

func (h *AssistantHandler) Description(c *gin.Context) {
	var req DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		badRequest(c, "Title is required")
		return
	}
	desc, err := h.svc.Description(c.Request.Context(), req.Title)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "description": desc})
}

func (h *AssistantHandler) Email(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		badRequest(c, "Title is required")
		return
	}
	body, err := h.svc.EmailBody(c.Request.Context(), req.Title, req.MsgType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "email": body})
}

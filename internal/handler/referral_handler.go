package handler

import (
	"net/http"
	"strconv"
	"strings"

	"referly/internal/middleware"
	"referly/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	svc       *service.ReferralService
	assistant *service.AssistantService
	log       *zap.Logger
}

func NewReferralHandler(svc *service.ReferralService, assistant *service.AssistantService, log *zap.Logger) *ReferralHandler {
	return &ReferralHandler{svc: svc, assistant: assistant, log: log}
}

type CreateReferralRequest struct {
	CampaignID      uint   `json:"campaignId" binding:"required"`
	ReferrerID      uint   `json:"referralId" binding:"required"`
	ReferredToEmail string `json:"referredToEmail" binding:"required"`
	Message         string `json:"message"`
}

type ConvertReferralRequest struct {
	Data struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

// flexID accepts an id sent either as a JSON number or as a numeric string.
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

// ReferralChatRequest takes the campaign as a top-level campaignId or nested as campaign._id.
type ReferralChatRequest struct {
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	CampaignID flexID `json:"campaignId"`
	Campaign   struct {
		ID flexID `json:"_id"`
	} `json:"campaign"`
	ReferrerID flexID `json:"referralId"`
}

func (r ReferralChatRequest) campaignID() uint {
	if r.CampaignID != 0 {
		return uint(r.CampaignID)
	}
	return uint(r.Campaign.ID)
}

func (h *ReferralHandler) Create(c *gin.Context) {
	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Campaign, referrer and email are required")
		return
	}
	ref, err := h.svc.CreateReferral(c.Request.Context(), service.CreateReferralInput{
		CampaignID: req.CampaignID,
		ReferrerID: req.ReferrerID,
		Email:      req.ReferredToEmail,
		Message:    req.Message,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "referral": ref, "message": "Referral sent"})
}

func (h *ReferralHandler) List(c *gin.Context) {
	referrals, err := h.svc.List(middleware.GetCompanyID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "referrals": referrals})
}

// Convert registers the referred prospect and returns their own referral link.
func (h *ReferralHandler) Convert(c *gin.Context) {
	id, ok := paramID(c, "referralId")
	if !ok {
		return
	}
	var req ConvertReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name and email are required")
		return
	}
	link, err := h.svc.ConvertReferral(c.Request.Context(), id, req.Data.Name, req.Data.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "link": link, "message": "Referral completed"})
}

func (h *ReferralHandler) Chat(c *gin.Context) {
	var req ReferralChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.campaignID() == 0 || req.ReferrerID == 0 {
		badRequest(c, "Campaign and referrer are required")
		return
	}
	reply, err := h.assistant.ReferralChat(c.Request.Context(), req.campaignID(), uint(req.ReferrerID), req.Message.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": reply})
}

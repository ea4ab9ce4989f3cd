package handler

import (
	"net/http"
	"strings"
	"time"

	"referly/internal/middleware"
	"referly/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	svc *service.CampaignService
	log *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{svc: svc, log: log}
}

type CampaignData struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CustomerReward string `json:"customerReward"`
	ReferredReward string `json:"referredReward"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
}

type CreateCampaignRequest struct {
	CampaignData CampaignData `json:"campaignData" binding:"required"`
}

type UpdateCampaignRequest struct {
	Status string `json:"status" binding:"required"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseTime accepts RFC 3339 and the date/datetime-local forms browsers submit.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (h *CampaignHandler) List(c *gin.Context) {
	campaigns, err := h.svc.List(middleware.GetCompanyID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaigns": campaigns})
}

func (h *CampaignHandler) Create(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Campaign data is required")
		return
	}
	d := req.CampaignData
	start, okStart := parseTime(d.StartTime)
	end, okEnd := parseTime(d.EndTime)
	if !okStart || !okEnd {
		badRequest(c, "Start and end time are required")
		return
	}
	campaign, err := h.svc.Create(c.Request.Context(), middleware.GetCompanyID(c), service.CreateCampaignInput{
		Name:           d.Name,
		Description:    d.Description,
		CustomerReward: d.CustomerReward,
		ReferredReward: d.ReferredReward,
		StartTime:      start,
		EndTime:        end,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "campaign": campaign, "message": "Campaign created"})
}

// Close ends a campaign; "completed" is the only accepted status.
func (h *CampaignHandler) Close(c *gin.Context) {
	id, ok := paramID(c, "campaignId")
	if !ok {
		return
	}
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	campaign, failed, err := h.svc.Close(c.Request.Context(), middleware.GetCompanyID(c), id, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign, "failedReferrals": failed, "message": "Campaign Ended"})
}

// Get is public; the referral landing page shows the campaign to the visitor.
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "campaignId")
	if !ok {
		return
	}
	campaign, err := h.svc.Get(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign})
}

package handler

import (
	"net/http"

	"referly/internal/middleware"
	"referly/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	svc *service.CustomerService
	log *zap.Logger
}

func NewCustomerHandler(svc *service.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{svc: svc, log: log}
}

type ImportCustomersRequest struct {
	Customers []service.CustomerInput `json:"customers"`
}

type SendMailRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Email string `json:"email"`
	Msg   string `json:"msg"`
}

func (h *CustomerHandler) Import(c *gin.Context) {
	var req ImportCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Customers) == 0 {
		badRequest(c, "Invalid customer data")
		return
	}
	res, err := h.svc.Import(c.Request.Context(), middleware.GetCompanyID(c), req.Customers)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": res.Message, "added": res.Added, "skipped": res.Skipped})
}

func (h *CustomerHandler) AddSingle(c *gin.Context) {
	var req service.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid customer data")
		return
	}
	customer, err := h.svc.AddSingle(c.Request.Context(), middleware.GetCompanyID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "customer": customer, "message": "Customer added successfully"})
}

func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.svc.List(middleware.GetCompanyID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customers": customers})
}

func (h *CustomerHandler) SendMail(c *gin.Context) {
	var req SendMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid mail data")
		return
	}
	queued, err := h.svc.SendMail(c.Request.Context(), middleware.GetCompanyID(c), service.MailInput{
		Title: req.Title,
		Type:  req.Type,
		Email: req.Email,
		Msg:   req.Msg,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "queued": queued, "message": "Emails sent"})
}

package router

import (
	"net/http"
	"time"

	"referly/config"
	"referly/internal/handler"
	"referly/internal/middleware"
	"referly/internal/repository"
	"referly/internal/service"
	"referly/internal/ws"
	"referly/pkg/llm"
	"referly/pkg/mailer"
	"referly/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the outbound collaborators the HTTP stack is built on.
type Deps struct {
	Mailer    mailer.Sender
	Generator llm.Generator
	Log       *zap.Logger
}

// App is the wired HTTP stack plus the pieces main manages the lifecycle of.
type App struct {
	Engine    *gin.Engine
	Campaigns *service.CampaignService
	Notifier  *service.Notifier
	Limiter   *middleware.InMemoryRateLimiter
	Hub       *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *App {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := deps.Log
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories
	companyRepo := repository.NewCompanyRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	referralRepo := repository.NewReferralRepository(db)

	hub := ws.NewHub(log)
	notifier := service.NewNotifier(deps.Mailer, cfg.Server.ClientURL, cfg.Mail.SendTimeout, log)

	// Services
	authSvc := service.NewAuthService(cfg, companyRepo, log)
	campaignSvc := service.NewCampaignService(db, campaignRepo, referralRepo, customerRepo, companyRepo, notifier, hub, log)
	customerSvc := service.NewCustomerService(db, customerRepo, companyRepo, notifier, hub, cfg.Referral, log)
	referralSvc := service.NewReferralService(db, referralRepo, campaignRepo, customerRepo, companyRepo, notifier, hub, cfg.Referral, log)
	assistantSvc := service.NewAssistantService(deps.Generator, referralSvc, log)
	dashboardSvc := service.NewDashboardService(companyRepo, referralRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(&cfg.JWT, authSvc, dashboardSvc, log)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, log)
	campaignHandler := handler.NewCampaignHandler(campaignSvc, log)
	customerHandler := handler.NewCustomerHandler(customerSvc, log)
	referralHandler := handler.NewReferralHandler(referralSvc, assistantSvc, log)
	assistantHandler := handler.NewAssistantHandler(assistantSvc, log)

	authRequired := middleware.AuthRequired(&cfg.JWT, companyRepo)
	limiter := middleware.NewInMemoryRateLimiter(30, time.Minute)
	publicLimit := middleware.RateLimit(limiter)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws/dashboard", ws.UpgradeDashboardWS(&cfg.JWT, ws.NewUpgrader(cfg.Server.ClientURL), hub))

	api := r.Group("/api")
	{
		company := api.Group("/company")
		company.POST("/signup", authHandler.Signup)
		company.POST("/login", authHandler.Login)
		company.POST("/logout", authHandler.Logout)
		company.GET("/google", googleOAuthHandler.Redirect)
		company.GET("/google/callback", googleOAuthHandler.Callback)
		company.GET("/auth", authRequired, authHandler.Me)
		company.GET("/dashboard", authRequired, authHandler.Dashboard)

		customer := api.Group("/customer", authRequired)
		customer.GET("", customerHandler.List)
		customer.POST("", customerHandler.Import)
		customer.POST("/single", customerHandler.AddSingle)
		customer.POST("/mail", customerHandler.SendMail)

		campaign := api.Group("/campaign")
		campaign.GET("", authRequired, campaignHandler.List)
		campaign.POST("", authRequired, campaignHandler.Create)
		campaign.PUT("/:campaignId", authRequired, campaignHandler.Close)

		referral := api.Group("/referral")
		referral.GET("", authRequired, referralHandler.List)
		referral.POST("", publicLimit, referralHandler.Create)
		referral.GET("/:campaignId", publicLimit, campaignHandler.Get)
		referral.POST("/message", publicLimit, referralHandler.Chat)
		referral.POST("/:referralId", publicLimit, referralHandler.Convert)

		ai := api.Group("/ai")
		ai.POST("/chat", authRequired, assistantHandler.Chat)
		ai.POST("/message", publicLimit, assistantHandler.Message)
		ai.POST("/description", authRequired, assistantHandler.Description)
		ai.POST("/email", authRequired, assistantHandler.Email)
	}

	return &App{
		Engine:    r,
		Campaigns: campaignSvc,
		Notifier:  notifier,
		Limiter:   limiter,
		Hub:       hub,
	}
}

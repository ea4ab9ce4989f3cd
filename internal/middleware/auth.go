package middleware

import (
	"errors"
	"net/http"
	"strings"

	"referly/config"
	"referly/internal/auth"
	"referly/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const companyIDKey = "company_id"

// CompanyLookup loads the company a token was issued to.
type CompanyLookup interface {
	GetByID(id uint) (*models.Company, error)
}

// TokenFromRequest reads the session cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired validates the session token and loads the company into the context.
func AuthRequired(cfg *config.JWTConfig, companies CompanyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cfg.CookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - No Token Provided"})
			return
		}
		claims, err := auth.ParseToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - Invalid Token"})
			return
		}
		company, err := companies.GetByID(claims.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "Company not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong, please try again"})
			return
		}
		c.Set(companyIDKey, company.ID)
		c.Next()
	}
}

// GetCompanyID returns the authenticated company ID (must be used after AuthRequired).
func GetCompanyID(c *gin.Context) uint {
	v, _ := c.Get(companyIDKey)
	if v == nil {
		return 0
	}
	return v.(uint)
}


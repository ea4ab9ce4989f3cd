package models

import (
	"time"
)

// Company owns campaigns and customers and carries the aggregate counters shown on its dashboard.
type Company struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255" json:"-"`
	GoogleID       *string    `gorm:"uniqueIndex;size:255" json:"-"` // nil for password signups
	TotalCampaigns int        `gorm:"not null;default:0" json:"total_campaigns"`
	TotalReferrals int        `gorm:"not null;default:0" json:"total_referrals"`
	TotalCustomers int        `gorm:"not null;default:0" json:"total_customers"`
	NewCustomers   []Customer `gorm:"many2many:company_new_customers;" json:"new_customers,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

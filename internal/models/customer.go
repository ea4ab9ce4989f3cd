package models

import (
	"time"
)

// Customer belongs to one company. Email is unique per company, not globally.
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CompanyID      uint      `gorm:"not null;uniqueIndex:idx_customers_company_email,priority:1" json:"company_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;not null;uniqueIndex:idx_customers_company_email,priority:2" json:"email"`
	Status         string    `gorm:"size:10;not null" json:"status"` // new | old
	TotalReferrals int       `gorm:"not null;default:0;index" json:"total_referrals"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

package models

import (
	"time"

	"referly/internal/domain"
)

// Reward is the pair of rewards a campaign pays out on conversion.
type Reward struct {
	CustomerReward string `gorm:"size:255;not null;default:''" json:"customer_reward"`
	ReferredReward string `gorm:"size:255;not null;default:''" json:"referred_reward"`
}

type Campaign struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CompanyID      uint      `gorm:"not null;index" json:"company_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	Reward         Reward    `gorm:"embedded;embeddedPrefix:reward_" json:"reward"`
	Status         string    `gorm:"size:20;not null;default:'active';index" json:"status"` // active | completed
	StartTime      time.Time `gorm:"not null" json:"start_time"`
	EndTime        time.Time `gorm:"not null;index" json:"end_time"`
	TotalReferrals int       `gorm:"not null;default:0" json:"total_referrals"`
	NewCustomers   int       `gorm:"not null;default:0" json:"new_customers"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

func (c *Campaign) IsCompleted() bool { return c.Status == domain.CampaignStatusCompleted }

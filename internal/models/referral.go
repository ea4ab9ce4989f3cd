package models

import (
	"time"

	"referly/internal/domain"
)

// Referral is one invitation from an existing customer to a prospect email under a campaign.
// (CampaignID, ReferredToEmail, ReferredByID) is unique.
// Reward is copied from the campaign on conversion so later campaign edits never change a payout.
type Referral struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CampaignID      uint      `gorm:"not null;uniqueIndex:idx_referrals_triple,priority:1" json:"campaign_id"`
	CompanyID       uint      `gorm:"not null;index" json:"company_id"`
	ReferredByID    uint      `gorm:"not null;uniqueIndex:idx_referrals_triple,priority:3" json:"referred_by_id"`
	ReferredToEmail string    `gorm:"size:255;not null;uniqueIndex:idx_referrals_triple,priority:2" json:"referred_to_email"`
	Status          string    `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending | completed | failed
	Reward          string    `gorm:"size:255;not null;default:''" json:"reward"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Campaign   *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	ReferredBy *Customer `gorm:"foreignKey:ReferredByID" json:"referred_by,omitempty"`
}

func (Referral) TableName() string { return "referrals" }

func (r *Referral) IsPending() bool { return r.Status == domain.ReferralStatusPending }

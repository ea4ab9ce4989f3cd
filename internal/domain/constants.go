package domain

const (
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
)

const (
	CustomerStatusNew = "new" // acquired through a referral conversion
	CustomerStatusOld = "old" // imported directly
)

const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusFailed    = "failed"
)

// Recipient policies for bulk mail dispatch.
const (
	RecipientsSingle = "single"
	RecipientsAll    = "all"
	RecipientsLoyal  = "loyal"
)

// DefaultLoyalThreshold is the number of successful referrals that makes a customer loyal.
const DefaultLoyalThreshold = 10

const (
	RewardSnapshotCustomer = "customer"
	RewardSnapshotReferred = "referred"
)

// Dashboard feed event names.
const (
	EventReferralCreated   = "referral.created"
	EventReferralConverted = "referral.converted"
	EventCampaignClosed    = "campaign.closed"
	EventCustomersImported = "customers.imported"
)

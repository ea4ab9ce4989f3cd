package repository

import (
	"errors"

	"referly/internal/domain"
	"referly/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) WithTx(tx *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: tx}
}

// Create persists a new referral. A violation of the (campaign, email, referrer)
// unique index surfaces as gorm.ErrDuplicatedKey.
func (r *ReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByID returns the referral with its referrer preloaded.
func (r *ReferralRepository) GetByID(id uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.Preload("ReferredBy").First(&ref, id).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

// Exists reports whether the referrer already referred email under the campaign.
func (r *ReferralRepository) Exists(campaignID uint, email string, referrerID uint) (bool, error) {
	var ref models.Referral
	err := r.db.Select("id").
		Where("campaign_id = ? AND referred_to_email = ? AND referred_by_id = ?", campaignID, email, referrerID).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Complete moves a pending referral to completed with the snapshotted reward.
// It reports false when the referral was no longer pending.
func (r *ReferralRepository) Complete(id uint, reward string) (bool, error) {
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, domain.ReferralStatusPending).
		Updates(map[string]interface{}{"status": domain.ReferralStatusCompleted, "reward": reward})
	return res.RowsAffected == 1, res.Error
}

// FailPending flips every pending referral of a campaign to failed and returns how many moved.
func (r *ReferralRepository) FailPending(campaignID uint) (int64, error) {
	res := r.db.Model(&models.Referral{}).
		Where("campaign_id = ? AND status = ?", campaignID, domain.ReferralStatusPending).
		Update("status", domain.ReferralStatusFailed)
	return res.RowsAffected, res.Error
}

// ListByCompany returns the company's referrals with referrer and campaign preloaded.
func (r *ReferralRepository) ListByCompany(companyID uint) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.Where("company_id = ?", companyID).
		Preload("ReferredBy", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Campaign", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// CountByStatus returns referral counts keyed by status for a company.
func (r *ReferralRepository) CountByStatus(companyID uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&models.Referral{}).
		Select("status, COUNT(*) AS count").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[string]int64{
		domain.ReferralStatusPending:   0,
		domain.ReferralStatusCompleted: 0,
		domain.ReferralStatusFailed:    0,
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

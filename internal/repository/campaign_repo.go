package repository

import (
	"time"

	"referly/internal/domain"
	"referly/internal/models"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) WithTx(tx *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: tx}
}

func (r *CampaignRepository) Create(c *models.Campaign) error {
	return r.db.Create(c).Error
}

func (r *CampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListByCompany(companyID uint) ([]models.Campaign, error) {
	var list []models.Campaign
	err := r.db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// AddCounters atomically bumps the campaign's running counters.
func (r *CampaignRepository) AddCounters(id uint, referrals, newCustomers int) error {
	updates := map[string]interface{}{}
	if referrals != 0 {
		updates["total_referrals"] = gorm.Expr("total_referrals + ?", referrals)
	}
	if newCustomers != 0 {
		updates["new_customers"] = gorm.Expr("new_customers + ?", newCustomers)
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.Model(&models.Campaign{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCompleted flips an active campaign to completed. It reports false when the
// campaign was already completed, so the transition happens at most once.
func (r *CampaignRepository) MarkCompleted(id uint) (bool, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, domain.CampaignStatusActive).
		Update("status", domain.CampaignStatusCompleted)
	return res.RowsAffected == 1, res.Error
}

// ListExpiredActive returns active campaigns whose window ended at or before now.
func (r *CampaignRepository) ListExpiredActive(now time.Time) ([]models.Campaign, error) {
	var list []models.Campaign
	err := r.db.Where("status = ? AND end_time <= ?", domain.CampaignStatusActive, now).Find(&list).Error
	return list, err
}

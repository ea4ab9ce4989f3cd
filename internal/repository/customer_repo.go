package repository

import (
	"referly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

func (r *CustomerRepository) Create(c *models.Customer) error {
	return r.db.Create(c).Error
}

func (r *CustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByCompanyAndEmail(companyID uint, email string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.Where("company_id = ? AND email = ?", companyID, email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) ListByCompany(companyID uint) ([]models.Customer, error) {
	var list []models.Customer
	err := r.db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ExistingEmails returns the subset of emails already stored for the company.
func (r *CustomerRepository) ExistingEmails(companyID uint, emails []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(emails) == 0 {
		return out, nil
	}
	var found []string
	err := r.db.Model(&models.Customer{}).
		Where("company_id = ? AND email IN ?", companyID, emails).
		Pluck("email", &found).Error
	if err != nil {
		return nil, err
	}
	for _, e := range found {
		out[e] = true
	}
	return out, nil
}

// CreateMissing inserts customers, skipping any that collide with an existing
// (company_id, email) pair. It returns the number of rows actually inserted.
func (r *CustomerRepository) CreateMissing(customers []models.Customer) (int64, error) {
	if len(customers) == 0 {
		return 0, nil
	}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "email"}},
		DoNothing: true,
	}).CreateInBatches(&customers, 100)
	return res.RowsAffected, res.Error
}

// IncrementReferrals atomically adds n to a customer's successful referral count.
func (r *CustomerRepository) IncrementReferrals(id uint, n int) error {
	res := r.db.Model(&models.Customer{}).Where("id = ?", id).
		UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByCompanyWithMinReferrals returns customers of a company with at least min referrals.
func (r *CustomerRepository) ListByCompanyWithMinReferrals(companyID uint, min int) ([]models.Customer, error) {
	var list []models.Customer
	err := r.db.Where("company_id = ? AND total_referrals >= ?", companyID, min).Find(&list).Error
	return list, err
}

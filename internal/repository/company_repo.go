package repository

import (
	"referly/internal/models"

	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CompanyRepository) WithTx(tx *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: tx}
}

func (r *CompanyRepository) Create(c *models.Company) error {
	return r.db.Create(c).Error
}

func (r *CompanyRepository) GetByID(id uint) (*models.Company, error) {
	var c models.Company
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetByEmail(email string) (*models.Company, error) {
	var c models.Company
	if err := r.db.Where("email = ?", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetByGoogleID(googleID string) (*models.Company, error) {
	var c models.Company
	if err := r.db.Where("google_id = ?", googleID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) Update(c *models.Company) error {
	return r.db.Save(c).Error
}

// CounterDelta is added to the company aggregate counters; zero fields are left untouched.
type CounterDelta struct {
	Campaigns int
	Referrals int
	Customers int
}

// AddCounters atomically adds delta at the storage layer (no read-modify-write).
func (r *CompanyRepository) AddCounters(id uint, delta CounterDelta) error {
	updates := map[string]interface{}{}
	if delta.Campaigns != 0 {
		updates["total_campaigns"] = gorm.Expr("total_campaigns + ?", delta.Campaigns)
	}
	if delta.Referrals != 0 {
		updates["total_referrals"] = gorm.Expr("total_referrals + ?", delta.Referrals)
	}
	if delta.Customers != 0 {
		updates["total_customers"] = gorm.Expr("total_customers + ?", delta.Customers)
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.Model(&models.Company{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddNewCustomer records a customer acquired through a referral on the company's new-customer list.
func (r *CompanyRepository) AddNewCustomer(companyID uint, customer *models.Customer) error {
	return r.db.Model(&models.Company{ID: companyID}).Association("NewCustomers").Append(customer)
}

func (r *CompanyRepository) CountNewCustomers(companyID uint) (int64, error) {
	assoc := r.db.Model(&models.Company{ID: companyID}).Association("NewCustomers")
	n := assoc.Count()
	return n, assoc.Error
}

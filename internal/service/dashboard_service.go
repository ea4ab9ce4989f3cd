package service

import (
	"referly/internal/models"
	"referly/internal/repository"
)

// Dashboard is the company overview: aggregate counters plus live referral status counts.
type Dashboard struct {
	Company      *models.Company  `json:"company"`
	NewCustomers int64            `json:"new_customers"`
	Referrals    map[string]int64 `json:"referrals_by_status"`
}

type DashboardService struct {
	companies *repository.CompanyRepository
	referrals *repository.ReferralRepository
}

func NewDashboardService(companies *repository.CompanyRepository, referrals *repository.ReferralRepository) *DashboardService {
	return &DashboardService{companies: companies, referrals: referrals}
}

func (s *DashboardService) Get(companyID uint) (*Dashboard, error) {
	c, err := s.companies.GetByID(companyID)
	if err != nil {
		return nil, lookup(err, ErrCompanyNotFound, "company")
	}
	newCustomers, err := s.companies.CountNewCustomers(companyID)
	if err != nil {
		return nil, dependency("count new customers", err)
	}
	byStatus, err := s.referrals.CountByStatus(companyID)
	if err != nil {
		return nil, dependency("count referrals", err)
	}
	return &Dashboard{Company: c, NewCustomers: newCustomers, Referrals: byStatus}, nil
}

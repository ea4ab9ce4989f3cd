package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"referly/internal/domain"
	"referly/internal/models"
	"referly/internal/repository"
	"referly/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CampaignService struct {
	db        *gorm.DB
	campaigns *repository.CampaignRepository
	referrals *repository.ReferralRepository
	customers *repository.CustomerRepository
	companies *repository.CompanyRepository
	notifier  *Notifier
	events    EventPublisher
	log       *zap.Logger
}

func NewCampaignService(
	db *gorm.DB,
	campaigns *repository.CampaignRepository,
	referrals *repository.ReferralRepository,
	customers *repository.CustomerRepository,
	companies *repository.CompanyRepository,
	notifier *Notifier,
	events EventPublisher,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		db:        db,
		campaigns: campaigns,
		referrals: referrals,
		customers: customers,
		companies: companies,
		notifier:  notifier,
		events:    publisherOrNop(events),
		log:       log,
	}
}

type CreateCampaignInput struct {
	Name           string
	Description    string
	CustomerReward string
	ReferredReward string
	StartTime      time.Time
	EndTime        time.Time
}

// Create stores the campaign, bumps the company's campaign count and emails every
// customer of the company their personal link.
func (s *CampaignService) Create(ctx context.Context, companyID uint, in CreateCampaignInput) (*models.Campaign, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CustomerReward = strings.TrimSpace(in.CustomerReward)
	in.ReferredReward = strings.TrimSpace(in.ReferredReward)
	if in.Name == "" || in.CustomerReward == "" || in.ReferredReward == "" {
		return nil, validation("Name, customer reward and referred reward are required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, validation("Start and end time are required")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, ErrInvalidWindow
	}

	campaign := &models.Campaign{
		CompanyID:   companyID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Reward: models.Reward{
			CustomerReward: in.CustomerReward,
			ReferredReward: in.ReferredReward,
		},
		Status:    domain.CampaignStatusActive,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.campaigns.WithTx(tx).Create(campaign); err != nil {
			return dependency("create campaign", err)
		}
		if err := s.companies.WithTx(tx).AddCounters(companyID, repository.CounterDelta{Campaigns: 1}); err != nil {
			return lookup(err, ErrCompanyNotFound, "company")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("campaign created", zap.Uint("campaign_id", campaign.ID), zap.Uint("company_id", companyID))

	customers, err := s.customers.ListByCompany(companyID)
	if err != nil {
		s.log.Warn("load customers for launch email", zap.Uint("campaign_id", campaign.ID), zap.Error(err))
		return campaign, nil
	}
	s.notifier.CampaignLaunched(campaign, customers)
	return campaign, nil
}

func (s *CampaignService) List(companyID uint) ([]models.Campaign, error) {
	list, err := s.campaigns.ListByCompany(companyID)
	if err != nil {
		return nil, dependency("list campaigns", err)
	}
	return list, nil
}

// Get is public: referral landing pages load the campaign by id.
func (s *CampaignService) Get(id uint) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(id)
	if err != nil {
		return nil, lookup(err, ErrCampaignNotFound, "campaign")
	}
	return c, nil
}

// Close ends a company's campaign. status must be "completed"; it returns how many
// pending referrals were failed.
func (s *CampaignService) Close(ctx context.Context, companyID, campaignID uint, status string) (*models.Campaign, int64, error) {
	if status != domain.CampaignStatusCompleted {
		return nil, 0, ErrOnlyCompletion
	}
	c, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		return nil, 0, lookup(err, ErrCampaignNotFound, "campaign")
	}
	if c.CompanyID != companyID {
		return nil, 0, ErrCampaignNotFound
	}
	failed, err := s.close(c, "manual")
	if err != nil {
		return nil, 0, err
	}
	return c, failed, nil
}

// CloseExpired closes every active campaign whose window ended at or before now.
func (s *CampaignService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.campaigns.ListExpiredActive(now)
	if err != nil {
		return 0, dependency("list expired campaigns", err)
	}
	closed := 0
	for i := range expired {
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		if _, err := s.close(&expired[i], "expired"); err != nil {
			if errors.Is(err, ErrCampaignClosed) {
				continue
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// close flips the campaign to completed and fails its pending referrals in one
// transaction. The status guard makes a second close return ErrCampaignClosed.
func (s *CampaignService) close(c *models.Campaign, trigger string) (int64, error) {
	var failed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.campaigns.WithTx(tx).MarkCompleted(c.ID)
		if err != nil {
			return dependency("close campaign", err)
		}
		if !ok {
			return ErrCampaignClosed
		}
		failed, err = s.referrals.WithTx(tx).FailPending(c.ID)
		if err != nil {
			return dependency("fail pending referrals", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.Status = domain.CampaignStatusCompleted

	metrics.CampaignsClosed.WithLabelValues(trigger).Inc()
	s.events.Publish(c.CompanyID, domain.EventCampaignClosed, map[string]interface{}{
		"campaign_id":       c.ID,
		"failed_referrals":  failed,
		"closed_by_trigger": trigger,
	})
	s.log.Info("campaign closed",
		zap.Uint("campaign_id", c.ID), zap.String("trigger", trigger), zap.Int64("failed_referrals", failed))
	return failed, nil
}

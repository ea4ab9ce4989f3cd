package service

import (
	"context"
	"errors"
	"strings"

	"referly/config"
	"referly/internal/domain"
	"referly/internal/models"
	"referly/internal/repository"
	"referly/pkg/mailer"
	"referly/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reasonAlreadyReferred = "already referred"
	reasonSendFailed      = "failed to send"
)

// ReferralService is the referral lifecycle manager. Every state transition and the
// counters it moves are written in one transaction; emails go out after commit.
type ReferralService struct {
	db        *gorm.DB
	referrals *repository.ReferralRepository
	campaigns *repository.CampaignRepository
	customers *repository.CustomerRepository
	companies *repository.CompanyRepository
	notifier  *Notifier
	events    EventPublisher
	cfg       config.ReferralConfig
	validate  *validator.Validate
	log       *zap.Logger
}

func NewReferralService(
	db *gorm.DB,
	referrals *repository.ReferralRepository,
	campaigns *repository.CampaignRepository,
	customers *repository.CustomerRepository,
	companies *repository.CompanyRepository,
	notifier *Notifier,
	events EventPublisher,
	cfg config.ReferralConfig,
	log *zap.Logger,
) *ReferralService {
	return &ReferralService{
		db:        db,
		referrals: referrals,
		campaigns: campaigns,
		customers: customers,
		companies: companies,
		notifier:  notifier,
		events:    publisherOrNop(events),
		cfg:       cfg,
		validate:  validator.New(),
		log:       log,
	}
}

type CreateReferralInput struct {
	CampaignID uint
	ReferrerID uint
	Email      string
	Message    string
}

// FailedReferral is one address of a batch that could not be referred.
type FailedReferral struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// BatchResult partitions the input addresses; every address lands in exactly one list.
type BatchResult struct {
	Succeeded []string         `json:"successfulReferrals"`
	Failed    []FailedReferral `json:"failedReferrals"`
	Invalid   []string         `json:"invalidEmails"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *ReferralService) validEmail(email string) bool {
	return email != "" && s.validate.Var(email, "required,email") == nil
}

// CreateReferral records one referral and sends the invitation in the background.
func (s *ReferralService) CreateReferral(ctx context.Context, in CreateReferralInput) (*models.Referral, error) {
	email := normalizeEmail(in.Email)
	if !s.validEmail(email) {
		return nil, ErrInvalidEmail
	}
	ref, campaign, referrer, err := s.record(in.CampaignID, in.ReferrerID, email)
	if err != nil {
		return nil, err
	}
	msg, err := s.notifier.Invitation(ref, campaign, referrer.Name, in.Message)
	if err != nil {
		s.log.Error("render invitation", zap.Uint("referral_id", ref.ID), zap.Error(err))
	} else {
		s.notifier.Invite(msg)
	}
	return ref, nil
}

// CreateReferralsBatch refers each address independently. Campaign and referrer problems
// fail the whole call up front; per-address problems are reported in the result. A
// referral whose invitation fails to send stays recorded.
func (s *ReferralService) CreateReferralsBatch(ctx context.Context, campaignID, referrerID uint, emails []string, personal string) (*BatchResult, error) {
	campaign, referrer, err := s.checkParties(s.campaigns, s.customers, campaignID, referrerID)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Succeeded: []string{}, Failed: []FailedReferral{}, Invalid: []string{}}
	var recorded []*models.Referral
	for _, raw := range emails {
		email := normalizeEmail(raw)
		if !s.validEmail(email) {
			res.Invalid = append(res.Invalid, strings.TrimSpace(raw))
			continue
		}
		ref, _, _, err := s.record(campaignID, referrerID, email)
		switch {
		case errors.Is(err, ErrDuplicateReferral):
			res.Failed = append(res.Failed, FailedReferral{Email: email, Reason: reasonAlreadyReferred})
		case err != nil:
			res.Failed = append(res.Failed, FailedReferral{Email: email, Reason: Message(err)})
		default:
			recorded = append(recorded, ref)
		}
	}

	msgs := make([]mailer.Message, len(recorded))
	renderErrs := make([]error, len(recorded))
	for i, ref := range recorded {
		msgs[i], renderErrs[i] = s.notifier.Invitation(ref, campaign, referrer.Name, personal)
	}
	sendErrs := s.notifier.SendInvitations(ctx, msgs)
	for i, ref := range recorded {
		if renderErrs[i] != nil || sendErrs[i] != nil {
			res.Failed = append(res.Failed, FailedReferral{Email: ref.ReferredToEmail, Reason: reasonSendFailed})
			continue
		}
		res.Succeeded = append(res.Succeeded, ref.ReferredToEmail)
	}
	return res, nil
}

func (s *ReferralService) checkParties(campaigns *repository.CampaignRepository, customers *repository.CustomerRepository, campaignID, referrerID uint) (*models.Campaign, *models.Customer, error) {
	campaign, err := campaigns.GetByID(campaignID)
	if err != nil {
		return nil, nil, lookup(err, ErrCampaignNotFound, "campaign")
	}
	if campaign.IsCompleted() {
		return nil, nil, ErrCampaignClosed
	}
	referrer, err := customers.GetByID(referrerID)
	if err != nil {
		return nil, nil, lookup(err, ErrReferrerNotFound, "referrer")
	}
	if referrer.CompanyID != campaign.CompanyID {
		return nil, nil, ErrReferrerNotFound
	}
	return campaign, referrer, nil
}

// record is the transactional core of CreateReferral.
func (s *ReferralService) record(campaignID, referrerID uint, email string) (*models.Referral, *models.Campaign, *models.Customer, error) {
	var (
		ref      *models.Referral
		campaign *models.Campaign
		referrer *models.Customer
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		referrals := s.referrals.WithTx(tx)
		campaigns := s.campaigns.WithTx(tx)
		customers := s.customers.WithTx(tx)

		var err error
		campaign, referrer, err = s.checkParties(campaigns, customers, campaignID, referrerID)
		if err != nil {
			return err
		}
		exists, err := referrals.Exists(campaignID, email, referrerID)
		if err != nil {
			return dependency("check referral", err)
		}
		if exists {
			return ErrDuplicateReferral
		}
		ref = &models.Referral{
			CampaignID:      campaignID,
			CompanyID:       campaign.CompanyID,
			ReferredByID:    referrerID,
			ReferredToEmail: email,
			Status:          domain.ReferralStatusPending,
		}
		if err := referrals.Create(ref); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReferral
			}
			return dependency("create referral", err)
		}
		if err := customers.IncrementReferrals(referrerID, 1); err != nil {
			return dependency("update referrer", err)
		}
		if err := campaigns.AddCounters(campaignID, 1, 0); err != nil {
			return dependency("update campaign", err)
		}
		if err := s.companies.WithTx(tx).AddCounters(campaign.CompanyID, repository.CounterDelta{Referrals: 1}); err != nil {
			return dependency("update company", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	metrics.ReferralsCreated.Inc()
	s.events.Publish(campaign.CompanyID, domain.EventReferralCreated, ref)
	s.log.Info("referral created",
		zap.Uint("referral_id", ref.ID), zap.Uint("campaign_id", campaignID), zap.Uint("referrer_id", referrerID))
	return ref, campaign, referrer, nil
}

// ConvertReferral registers the prospect as a new customer, completes the referral and
// returns the new customer's own referral link.
func (s *ReferralService) ConvertReferral(ctx context.Context, referralID uint, name, email string) (string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return "", validation("Name is required")
	}
	if !s.validEmail(email) {
		return "", ErrInvalidEmail
	}

	var (
		ref      *models.Referral
		campaign *models.Campaign
		customer *models.Customer
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		referrals := s.referrals.WithTx(tx)
		campaigns := s.campaigns.WithTx(tx)
		customers := s.customers.WithTx(tx)
		companies := s.companies.WithTx(tx)

		var err error
		ref, err = referrals.GetByID(referralID)
		if err != nil {
			return lookup(err, ErrReferralNotFound, "referral")
		}
		campaign, err = campaigns.GetByID(ref.CampaignID)
		if err != nil {
			return lookup(err, ErrCampaignNotFound, "campaign")
		}
		if campaign.IsCompleted() {
			return ErrCampaignClosed
		}
		if !ref.IsPending() {
			return ErrReferralNotPending
		}
		_, err = customers.GetByCompanyAndEmail(campaign.CompanyID, email)
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dependency("check customer", err)
		}

		reward := s.snapshotReward(campaign)
		ok, err := referrals.Complete(ref.ID, reward)
		if err != nil {
			return dependency("complete referral", err)
		}
		if !ok {
			return ErrReferralNotPending
		}
		ref.Status = domain.ReferralStatusCompleted
		ref.Reward = reward

		customer = &models.Customer{
			CompanyID: campaign.CompanyID,
			Name:      name,
			Email:     email,
			Status:    domain.CustomerStatusNew,
		}
		if err := customers.Create(customer); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return dependency("create customer", err)
		}
		if err := campaigns.AddCounters(campaign.ID, 0, 1); err != nil {
			return dependency("update campaign", err)
		}
		if err := companies.AddCounters(campaign.CompanyID, repository.CounterDelta{Customers: 1}); err != nil {
			return dependency("update company", err)
		}
		if err := companies.AddNewCustomer(campaign.CompanyID, customer); err != nil {
			return dependency("record new customer", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.ReferralsConverted.Inc()
	s.events.Publish(campaign.CompanyID, domain.EventReferralConverted, ref)
	s.log.Info("referral converted",
		zap.Uint("referral_id", ref.ID), zap.Uint("customer_id", customer.ID), zap.String("reward", ref.Reward))
	s.notifier.RewardsEarned(campaign, ref.ReferredBy, customer)
	return s.notifier.ReferralLink(customer.ID, campaign.ID), nil
}

func (s *ReferralService) snapshotReward(c *models.Campaign) string {
	if s.cfg.RewardSnapshot == domain.RewardSnapshotReferred {
		return c.Reward.ReferredReward
	}
	return c.Reward.CustomerReward
}

func (s *ReferralService) List(companyID uint) ([]models.Referral, error) {
	list, err := s.referrals.ListByCompany(companyID)
	if err != nil {
		return nil, dependency("list referrals", err)
	}
	return list, nil
}

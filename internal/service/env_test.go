package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"referly/config"
	"referly/internal/database"
	"referly/internal/models"
	"referly/internal/repository"
	"referly/pkg/mailer"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testClientURL = "http://app.test"

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.To] {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) to(addr string) []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []mailer.Message
	for _, m := range f.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeGenerator echoes the prompt the way hosted models do, followed by reply.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return prompt + "\n" + g.reply, nil
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	sender    *fakeSender
	gen       *fakeGenerator
	notifier  *Notifier
	companies *repository.CompanyRepository
	campaigns *repository.CampaignRepository
	customers *repository.CustomerRepository
	referrals *repository.ReferralRepository

	authSvc      *AuthService
	campaignSvc  *CampaignService
	customerSvc  *CustomerService
	referralSvc  *ReferralService
	assistantSvc *AssistantService
	dashboardSvc *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Server:   config.ServerConfig{ClientURL: testClientURL},
		JWT:      config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "referly", CookieName: "jwt"},
		Referral: config.ReferralConfig{RewardSnapshot: "customer", LoyalThreshold: 10},
	}
	log := zap.NewNop()
	e := &testEnv{
		db:        db,
		cfg:       cfg,
		sender:    &fakeSender{fail: map[string]bool{}},
		gen:       &fakeGenerator{reply: "Sure thing."},
		companies: repository.NewCompanyRepository(db),
		campaigns: repository.NewCampaignRepository(db),
		customers: repository.NewCustomerRepository(db),
		referrals: repository.NewReferralRepository(db),
	}
	e.notifier = NewNotifier(e.sender, testClientURL, time.Second, log)
	e.authSvc = NewAuthService(cfg, e.companies, log)
	e.campaignSvc = NewCampaignService(db, e.campaigns, e.referrals, e.customers, e.companies, e.notifier, nil, log)
	e.customerSvc = NewCustomerService(db, e.customers, e.companies, e.notifier, nil, cfg.Referral, log)
	e.referralSvc = NewReferralService(db, e.referrals, e.campaigns, e.customers, e.companies, e.notifier, nil, cfg.Referral, log)
	e.assistantSvc = NewAssistantService(e.gen, e.referralSvc, log)
	e.dashboardSvc = NewDashboardService(e.companies, e.referrals)
	t.Cleanup(e.notifier.Wait)
	return e
}

func (e *testEnv) company(t *testing.T, email string) *models.Company {
	t.Helper()
	c := &models.Company{Name: "Acme " + email, Email: email}
	require.NoError(t, e.companies.Create(c))
	return c
}

func (e *testEnv) campaign(t *testing.T, companyID uint) *models.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c, err := e.campaignSvc.Create(context.Background(), companyID, CreateCampaignInput{
		Name:           "Spring Promo",
		CustomerReward: "$10",
		ReferredReward: "15%",
		StartTime:      now.Add(-time.Hour),
		EndTime:        now.Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) customer(t *testing.T, companyID uint, name, email string) *models.Customer {
	t.Helper()
	c, err := e.customerSvc.AddSingle(context.Background(), companyID, CustomerInput{Name: name, Email: email})
	require.NoError(t, err)
	return c
}

func (e *testEnv) reloadCompany(t *testing.T, id uint) *models.Company {
	t.Helper()
	c, err := e.companies.GetByID(id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) reloadCampaign(t *testing.T, id uint) *models.Campaign {
	t.Helper()
	c, err := e.campaigns.GetByID(id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) reloadCustomer(t *testing.T, id uint) *models.Customer {
	t.Helper()
	c, err := e.customers.GetByID(id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) reloadReferral(t *testing.T, id uint) *models.Referral {
	t.Helper()
	r, err := e.referrals.GetByID(id)
	require.NoError(t, err)
	return r
}

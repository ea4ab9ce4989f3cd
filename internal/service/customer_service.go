package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"referly/config"
	"referly/internal/domain"
	"referly/internal/models"
	"referly/internal/repository"
	"referly/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Skip reasons reported by Import.
const (
	SkipDuplicate    = "duplicate"
	SkipInvalidEmail = "invalid email"
	SkipMissingName  = "missing name"
)

type CustomerService struct {
	db        *gorm.DB
	customers *repository.CustomerRepository
	companies *repository.CompanyRepository
	notifier  *Notifier
	events    EventPublisher
	cfg       config.ReferralConfig
	validate  *validator.Validate
	log       *zap.Logger
}

func NewCustomerService(
	db *gorm.DB,
	customers *repository.CustomerRepository,
	companies *repository.CompanyRepository,
	notifier *Notifier,
	events EventPublisher,
	cfg config.ReferralConfig,
	log *zap.Logger,
) *CustomerService {
	if cfg.LoyalThreshold <= 0 {
		cfg.LoyalThreshold = domain.DefaultLoyalThreshold
	}
	return &CustomerService{
		db:        db,
		customers: customers,
		companies: companies,
		notifier:  notifier,
		events:    publisherOrNop(events),
		cfg:       cfg,
		validate:  validator.New(),
		log:       log,
	}
}

// CustomerInput is one raw record. TotalReferrals accepts whatever JSON carried.
type CustomerInput struct {
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	TotalReferrals interface{} `json:"totalReferrals"`
}

type SkippedCustomer struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Added   []models.Customer `json:"added"`
	Skipped []SkippedCustomer `json:"skipped"`
	Message string            `json:"message"`
}

// coerceReferrals maps missing, negative or non-numeric counts to zero.
func coerceReferrals(v interface{}) int {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}
	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Import normalizes, deduplicates and stores a batch of customers with status old.
// Existing customers are never overwritten; a batch of only duplicates is not an error.
func (s *CustomerService) Import(ctx context.Context, companyID uint, inputs []CustomerInput) (*ImportResult, error) {
	res := &ImportResult{Added: []models.Customer{}, Skipped: []SkippedCustomer{}}
	seen := make(map[string]bool, len(inputs))
	var rows []models.Customer
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		email := normalizeEmail(in.Email)
		switch {
		case name == "":
			res.Skipped = append(res.Skipped, SkippedCustomer{Name: name, Email: email, Reason: SkipMissingName})
			continue
		case email == "" || s.validate.Var(email, "email") != nil:
			res.Skipped = append(res.Skipped, SkippedCustomer{Name: name, Email: email, Reason: SkipInvalidEmail})
			continue
		case seen[email]:
			res.Skipped = append(res.Skipped, SkippedCustomer{Name: name, Email: email, Reason: SkipDuplicate})
			continue
		}
		seen[email] = true
		rows = append(rows, models.Customer{
			CompanyID:      companyID,
			Name:           name,
			Email:          email,
			Status:         domain.CustomerStatusOld,
			TotalReferrals: coerceReferrals(in.TotalReferrals),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		customers := s.customers.WithTx(tx)
		emails := make([]string, len(rows))
		for i, r := range rows {
			emails[i] = r.Email
		}
		existing, err := customers.ExistingEmails(companyID, emails)
		if err != nil {
			return dependency("check existing customers", err)
		}
		fresh := rows[:0]
		for _, r := range rows {
			if existing[r.Email] {
				res.Skipped = append(res.Skipped, SkippedCustomer{Name: r.Name, Email: r.Email, Reason: SkipDuplicate})
				continue
			}
			fresh = append(fresh, r)
		}
		if len(fresh) == 0 {
			return nil
		}
		inserted, err := customers.CreateMissing(fresh)
		if err != nil {
			return dependency("insert customers", err)
		}
		if inserted != int64(len(fresh)) {
			return ErrImportRace
		}
		referrals := 0
		for _, r := range fresh {
			referrals += r.TotalReferrals
		}
		delta := repository.CounterDelta{Customers: len(fresh), Referrals: referrals}
		if err := s.companies.WithTx(tx).AddCounters(companyID, delta); err != nil {
			return lookup(err, ErrCompanyNotFound, "company")
		}
		res.Added = append(res.Added, fresh...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(res.Added) == 0 {
		res.Message = "No new customers"
		return res, nil
	}
	res.Message = "Customers added successfully"
	metrics.CustomersImported.Add(float64(len(res.Added)))
	s.events.Publish(companyID, domain.EventCustomersImported, map[string]interface{}{"added": len(res.Added)})
	s.log.Info("customers imported",
		zap.Uint("company_id", companyID), zap.Int("added", len(res.Added)), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

// AddSingle imports one customer and reports why it was refused, if it was.
func (s *CustomerService) AddSingle(ctx context.Context, companyID uint, in CustomerInput) (*models.Customer, error) {
	res, err := s.Import(ctx, companyID, []CustomerInput{in})
	if err != nil {
		return nil, err
	}
	if len(res.Added) == 1 {
		return &res.Added[0], nil
	}
	switch res.Skipped[0].Reason {
	case SkipMissingName:
		return nil, validation("Name is required")
	case SkipInvalidEmail:
		return nil, ErrInvalidEmail
	default:
		return nil, ErrCustomerExists
	}
}

func (s *CustomerService) List(companyID uint) ([]models.Customer, error) {
	list, err := s.customers.ListByCompany(companyID)
	if err != nil {
		return nil, dependency("list customers", err)
	}
	return list, nil
}

type MailInput struct {
	Title string
	Type  string // single | all | loyal
	Email string
	Msg   string
}

// SendMail resolves the recipient policy to addresses and hands them to the notifier.
// Delivery is best effort; the returned count is the number of addresses queued.
func (s *CustomerService) SendMail(ctx context.Context, companyID uint, in MailInput) (int, error) {
	title, body := strings.TrimSpace(in.Title), strings.TrimSpace(in.Msg)
	if title == "" || body == "" {
		return 0, validation("Title and message are required")
	}

	var recipients []string
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case domain.RecipientsSingle:
		email := normalizeEmail(in.Email)
		if email == "" {
			return 0, validation("Email not Found")
		}
		if s.validate.Var(email, "email") != nil {
			return 0, ErrInvalidEmail
		}
		recipients = []string{email}
	case domain.RecipientsAll:
		list, err := s.customers.ListByCompany(companyID)
		if err != nil {
			return 0, dependency("list customers", err)
		}
		recipients = emailsOf(list)
	case domain.RecipientsLoyal:
		list, err := s.customers.ListByCompanyWithMinReferrals(companyID, s.cfg.LoyalThreshold)
		if err != nil {
			return 0, dependency("list loyal customers", err)
		}
		recipients = emailsOf(list)
	default:
		return 0, validation("Type must be single, all or loyal")
	}

	company, err := s.companies.GetByID(companyID)
	if err != nil {
		return 0, lookup(err, ErrCompanyNotFound, "company")
	}
	s.notifier.Broadcast(company.Name, recipients, title, body)
	s.log.Info("mail dispatched",
		zap.Uint("company_id", companyID), zap.String("type", in.Type), zap.Int("recipients", len(recipients)))
	return len(recipients), nil
}

func emailsOf(list []models.Customer) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Email
	}
	return out
}

package service

import (
	"errors"
	"strings"

	"referly/config"
	"referly/internal/auth"
	"referly/internal/models"
	"referly/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 5

type AuthService struct {
	cfg         *config.Config
	companyRepo *repository.CompanyRepository
	validate    *validator.Validate
	log         *zap.Logger
}

func NewAuthService(cfg *config.Config, companyRepo *repository.CompanyRepository, log *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, companyRepo: companyRepo, validate: validator.New(), log: log}
}

// Signup creates a company account and returns it with a session token.
func (s *AuthService) Signup(name, email, password string) (*models.Company, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", validation("All fields are required")
	}
	if s.validate.Var(email, "email") != nil {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, "", validation("Password must be at least 5 characters")
	}
	_, err := s.companyRepo.GetByEmail(email)
	if err == nil {
		return nil, "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", dependency("check company", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", dependency("hash password", err)
	}
	c := &models.Company{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.companyRepo.Create(c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailExists
		}
		return nil, "", dependency("create company", err)
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, c.ID, c.Email)
	if err != nil {
		return nil, "", dependency("sign token", err)
	}
	s.log.Info("company signed up", zap.Uint("company_id", c.ID))
	return c, token, nil
}

func (s *AuthService) Login(email, password string) (*models.Company, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", validation("All fields are required")
	}
	c, err := s.companyRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", dependency("load company", err)
	}
	if c.PasswordHash == "" {
		return nil, "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, c.ID, c.Email)
	if err != nil {
		return nil, "", dependency("sign token", err)
	}
	return c, token, nil
}

// LoginWithGoogle finds the company by Google ID, links an existing account with the
// same email, or creates a new one. The bool reports whether the company is new.
func (s *AuthService) LoginWithGoogle(googleID, email, name string) (*models.Company, string, bool, error) {
	email = normalizeEmail(email)
	if googleID == "" || email == "" {
		return nil, "", false, validation("Google account has no email")
	}
	c, err := s.companyRepo.GetByGoogleID(googleID)
	created := false
	switch {
	case err == nil:
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", false, dependency("load company", err)
	default:
		gid := googleID
		c, err = s.companyRepo.GetByEmail(email)
		if err == nil {
			c.GoogleID = &gid
			if err := s.companyRepo.Update(c); err != nil {
				return nil, "", false, dependency("link google account", err)
			}
			break
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", false, dependency("load company", err)
		}
		if name = strings.TrimSpace(name); name == "" {
			name = strings.Split(email, "@")[0]
		}
		c = &models.Company{Name: name, Email: email, GoogleID: &gid}
		if err := s.companyRepo.Create(c); err != nil {
			return nil, "", false, dependency("create company", err)
		}
		created = true
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, c.ID, c.Email)
	if err != nil {
		return nil, "", false, dependency("sign token", err)
	}
	return c, token, created, nil
}

func (s *AuthService) Me(companyID uint) (*models.Company, error) {
	c, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		return nil, lookup(err, ErrCompanyNotFound, "company")
	}
	return c, nil
}

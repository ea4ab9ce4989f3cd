package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"referly/config"
	"referly/internal/database"
	"referly/pkg/mailer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return prompt + "Answer: Referrals grow your business.", nil
}

type testServer struct {
	t      *testing.T
	app    *App
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
		Server:   config.ServerConfig{Env: "test", ClientURL: "http://app.test"},
		JWT:      config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "referly", CookieName: "jwt"},
		Mail:     config.MailConfig{SendTimeout: time.Second},
		Referral: config.ReferralConfig{RewardSnapshot: "customer", LoyalThreshold: 10},
	}
	app := Setup(cfg, db, Deps{Mailer: &recordingSender{}, Generator: echoGenerator{}, Log: zap.NewNop()})
	t.Cleanup(app.Notifier.Wait)
	return &testServer{t: t, app: app}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.app.Engine.ServeHTTP(rec, req)
	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (s *testServer) signup() {
	s.t.Helper()
	rec, body := s.do(http.MethodPost, "/api/company/signup", gin.H{"name": "Acme", "email": "owner@acme.test", "password": "secret1"})
	require.Equal(s.t, http.StatusCreated, rec.Code, body)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" {
			s.cookie = c
		}
	}
	require.NotNil(s.t, s.cookie)
}

func id(t *testing.T, v interface{}) uint {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "expected object, got %T", v)
	f, ok := m["id"].(float64)
	require.True(t, ok)
	return uint(f)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "referly_http_request_duration_seconds")
}

func TestAuthGate(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/api/company/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	s.signup()
	rec, body = s.do(http.MethodGet, "/api/company/auth", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	company := body["company"].(map[string]interface{})
	assert.Equal(t, "owner@acme.test", company["email"])
	assert.NotContains(t, company, "password")

	rec, _ = s.do(http.MethodPost, "/api/company/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.signup()

	rec, body := s.do(http.MethodPost, "/api/company/login", gin.H{"email": "owner@acme.test", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", body["message"])

	rec, _ = s.do(http.MethodPost, "/api/company/signup", gin.H{"name": "Acme", "email": "owner@acme.test", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReferralFlow(t *testing.T) {
	s := newTestServer(t)
	s.signup()

	rec, body := s.do(http.MethodPost, "/api/customer", gin.H{"customers": []gin.H{
		{"name": "Ann", "email": "ann@example.com", "totalReferrals": 2},
		{"name": "", "email": "ghost@example.com"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, body)
	added := body["added"].([]interface{})
	require.Len(t, added, 1)
	assert.Len(t, body["skipped"], 1)
	annID := id(t, added[0])

	now := time.Now().UTC()
	rec, body = s.do(http.MethodPost, "/api/campaign", gin.H{"campaignData": gin.H{
		"name":           "Spring Promo",
		"customerReward": "$10",
		"referredReward": "15%",
		"startTime":      now.Add(-time.Hour).Format(time.RFC3339),
		"endTime":        now.Add(72 * time.Hour).Format(time.RFC3339),
	}})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	campaignID := id(t, body["campaign"])

	rec, body = s.do(http.MethodGet, fmt.Sprintf("/api/referral/%d", campaignID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Spring Promo", body["campaign"].(map[string]interface{})["name"])

	referral := gin.H{"campaignId": campaignID, "referralId": annID, "referredToEmail": "Bob@Example.com"}
	rec, body = s.do(http.MethodPost, "/api/referral", referral)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	referralID := id(t, body["referral"])

	rec, body = s.do(http.MethodPost, "/api/referral", referral)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This email has already been referred", body["message"])

	rec, body = s.do(http.MethodPost, fmt.Sprintf("/api/referral/%d", referralID), gin.H{"data": gin.H{"name": "Bob", "email": "bob@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Contains(t, body["link"], "http://app.test/referral?ref=")

	rec, _ = s.do(http.MethodPost, fmt.Sprintf("/api/referral/%d", referralID), gin.H{"data": gin.H{"name": "Bob", "email": "bob@example.com"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(http.MethodGet, "/api/referral", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["referrals"], 1)

	rec, body = s.do(http.MethodGet, "/api/company/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := body["dashboard"].(map[string]interface{})
	assert.EqualValues(t, 1, dash["new_customers"])

	path := fmt.Sprintf("/api/campaign/%d", campaignID)
	rec, body = s.do(http.MethodPut, path, gin.H{"status": "active"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You can only end a Campaign", body["message"])

	rec, _ = s.do(http.MethodPut, path, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPut, path, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCampaignValidation(t *testing.T) {
	s := newTestServer(t)
	s.signup()

	now := time.Now().UTC()
	rec, body := s.do(http.MethodPost, "/api/campaign", gin.H{"campaignData": gin.H{
		"name":           "Backwards",
		"customerReward": "$10",
		"referredReward": "15%",
		"startTime":      now.Format(time.RFC3339),
		"endTime":        now.Add(-time.Hour).Format(time.RFC3339),
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Start time must be before end time", body["message"])

	rec, _ = s.do(http.MethodPost, "/api/campaign", gin.H{"campaignData": gin.H{"name": "No dates", "customerReward": "$1", "referredReward": "$1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/referral/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/referral/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssistantRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodPost, "/api/ai/message", nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "Referrals grow your business", body["finalAnswer"])

	rec, _ = s.do(http.MethodPost, "/api/ai/chat", gin.H{"message": gin.H{"text": "create a campaign"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.signup()
	rec, body = s.do(http.MethodPost, "/api/ai/chat", gin.H{"message": gin.H{"text": "I want to create a campaign"}})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Contains(t, body["message"].(map[string]interface{})["text"], "Campaign Title")

	rec, _ = s.do(http.MethodPost, "/api/ai/description", gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferralChatAndMailRoutes(t *testing.T) {
	s := newTestServer(t)
	s.signup()

	rec, body := s.do(http.MethodPost, "/api/customer/single", gin.H{"name": "Ann", "email": "ann@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	annID := id(t, body["customer"])

	now := time.Now().UTC()
	rec, body = s.do(http.MethodPost, "/api/campaign", gin.H{"campaignData": gin.H{
		"name":           "Spring Promo",
		"customerReward": "$10",
		"referredReward": "15%",
		"startTime":      now.Add(-time.Hour).Format(time.RFC3339),
		"endTime":        now.Add(72 * time.Hour).Format(time.RFC3339),
	}})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	campaignID := id(t, body["campaign"])

	rec, body = s.do(http.MethodPost, "/api/referral/message", gin.H{
		"message":    gin.H{"text": "bob@example.com, carl@example.com"},
		"campaign":   gin.H{"_id": fmt.Sprint(campaignID)},
		"referralId": fmt.Sprint(annID),
	})
	require.Equal(t, http.StatusOK, rec.Code, body)
	referrals := body["message"].(map[string]interface{})["referrals"].(map[string]interface{})
	assert.Len(t, referrals["successfulReferrals"], 2)

	rec, body = s.do(http.MethodPost, "/api/referral/message", gin.H{
		"message":    gin.H{"text": "dan@"},
		"campaignId": campaignID,
		"referralId": annID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No valid emails provided.", body["message"])

	rec, _ = s.do(http.MethodPost, "/api/referral/message", gin.H{"message": gin.H{"text": "hi"}, "referralId": annID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodPost, "/api/customer/mail", gin.H{"title": "News", "type": "all", "msg": "Hello"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.EqualValues(t, 1, body["queued"])
}

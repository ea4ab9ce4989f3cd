package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRouter(t *testing.T) {
	r := CompanyRouter()
	tests := []struct {
		name    string
		text    string
		intent  Intent
		details bool
	}{
		{name: "empty", text: "   ", intent: None},
		{name: "plain question", text: "What is a referral program?", intent: None},
		{name: "create campaign", text: "Can you help me create a new campaign?", intent: Campaign},
		{name: "typo campaign", text: "launch campagin please", intent: Campaign},
		{name: "phrase set up", text: "Set  up a promo", intent: Campaign},
		{name: "no substring hits", text: "newsletter about promotions", intent: None},
		{name: "send mail", text: "send an email to my customers", intent: Mail},
		{name: "mail before campaign", text: "send a message about the new campaign", intent: Mail},
		{name: "campaign details", text: "summer promo, $10, 15%", intent: Campaign, details: true},
		{name: "mail details", text: "Holiday hours, ALL, Casual", intent: Mail, details: true},
		{name: "bad mail type falls to campaign details", text: "Holiday hours, everyone, casual", intent: Campaign, details: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Route(tt.text)
			assert.Equal(t, tt.intent, m.Intent)
			assert.Equal(t, tt.details, m.HasDetails())
		})
	}
}

func TestCampaignDetailsParsing(t *testing.T) {
	m := CompanyRouter().Route("summer Promo ,  $10 Credit, 15% off ")
	require.NotNil(t, m.Campaign)
	assert.Equal(t, CampaignDetails{Title: "Summer Promo", CustomerReward: "$10 Credit", ReferredReward: "15% off"}, *m.Campaign)
}

func TestMailDetailsParsing(t *testing.T) {
	m := CompanyRouter().Route("holiday hours, Loyal, PROFESSIONAL")
	require.NotNil(t, m.Mail)
	assert.Equal(t, MailDetails{Title: "Holiday hours", Recipients: "loyal", Tone: "professional"}, *m.Mail)
}

func TestReferralRouter(t *testing.T) {
	r := ReferralRouter()

	m := r.Route("I want to invite a friend")
	assert.Equal(t, Referral, m.Intent)
	assert.False(t, m.HasDetails())

	m = r.Route("a@x.com, b@y.com ,, not-an-email")
	assert.Equal(t, Referral, m.Intent)
	assert.Equal(t, []string{"a@x.com", "b@y.com", "not-an-email"}, m.Emails)

	m = r.Route("please invite friend@x.com")
	assert.Equal(t, []string{"please invite friend@x.com"}, m.Emails)

	assert.Equal(t, None, r.Route("what rewards do I get?").Intent)
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "campaign", Campaign.String())
	assert.Equal(t, "mail", Mail.String())
	assert.Equal(t, "referral", Referral.String())
	assert.Equal(t, "none", None.String())
}

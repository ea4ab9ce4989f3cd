package intent

import (
	"strings"
)

var (
	campaignActions = []string{"create", "creating", "make", "making", "new", "start", "starting",
		"launch", "launching", "begin", "initiate", "set up", "setting up"}
	campaignWords = []string{"campaign", "campagin", "promo", "promotion"}

	mailActions = []string{"send", "sending", "mail", "mailing", "email", "e-mail",
		"message", "messaging", "compose", "composing", "notify", "notifying",
		"dispatch", "dispatching", "share", "sharing", "deliver", "delivering"}
	mailContext = []string{"email", "e-mail", "mail", "message", "notification", "note", "announcement"}

	referralActions = append(append([]string{}, mailActions...),
		"refer", "referring", "invite", "inviting", "recommend", "recommending")
	referralContext = append(append([]string{}, mailContext...),
		"referral", "invitation", "recommendation", "friend", "contact", "connection")

	mailRecipients = map[string]bool{"all": true, "single": true, "loyal": true}
	mailTones      = map[string]bool{"professional": true, "casual": true}
)

// CampaignDetailsMatcher matches "title, customer reward, referred reward".
func CampaignDetailsMatcher() Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		parts := splitFields(text)
		if len(parts) < 3 {
			return Match{}, false
		}
		return Match{Intent: Campaign, Campaign: &CampaignDetails{
			Title:          capitalize(parts[0]),
			CustomerReward: parts[1],
			ReferredReward: parts[2],
		}}, true
	})
}

// MailDetailsMatcher matches "title, single|all|loyal, professional|casual".
func MailDetailsMatcher() Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		parts := splitFields(text)
		if len(parts) < 3 {
			return Match{}, false
		}
		recipients, tone := strings.ToLower(parts[1]), strings.ToLower(parts[2])
		if !mailRecipients[recipients] || !mailTones[tone] {
			return Match{}, false
		}
		return Match{Intent: Mail, Mail: &MailDetails{
			Title:      capitalize(parts[0]),
			Recipients: recipients,
			Tone:       tone,
		}}, true
	})
}

// EmailListMatcher matches a comma separated list of addresses.
func EmailListMatcher() Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		if !strings.Contains(text, "@") {
			return Match{}, false
		}
		var emails []string
		for _, p := range strings.Split(text, ",") {
			if p = strings.TrimSpace(p); p != "" {
				emails = append(emails, p)
			}
		}
		return Match{Intent: Referral, Emails: emails}, true
	})
}

// CompanyRouter routes the company dashboard assistant. Structured details win
// over bare requests, and mail is checked before campaigns.
func CompanyRouter() *Router {
	return NewRouter(
		MailDetailsMatcher(),
		Keywords(Mail, mailActions, mailContext),
		CampaignDetailsMatcher(),
		Keywords(Campaign, campaignActions, campaignWords),
	)
}

// ReferralRouter routes the assistant on a customer's referral page.
func ReferralRouter() *Router {
	return NewRouter(
		Without(Keywords(Referral, referralActions, referralContext), "@"),
		EmailListMatcher(),
	)
}

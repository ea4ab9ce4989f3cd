package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"referly/internal/models"
	"referly/pkg/mailer"
	"referly/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Email kinds, used as the metrics label.
const (
	mailCampaignLaunch = "campaign_launch"
	mailInvitation     = "invitation"
	mailReward         = "reward"
	mailBroadcast      = "broadcast"
)

const maxParallelSends = 8

var (
	launchTmpl = template.Must(template.New("launch").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
<h2 style="color: #4CAF50; text-align: center;">Exciting Campaign Alert!</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>{{if .Description}}{{.Description}}{{else}}We've launched an exciting new campaign just for you!{{end}}</p>
<p><strong>Customer Reward:</strong> {{.CustomerReward}}</p>
<p><strong>Referred Reward:</strong> {{.ReferredReward}}</p>
<p>Your unique referral link:</p>
<p style="text-align: center;"><a href="{{.Link}}">Refer &amp; Earn</a></p>
<p>The campaign is active from <strong>{{.Start}}</strong> to <strong>{{.End}}</strong>.</p>
</div>`))

	invitationTmpl = template.Must(template.New("invitation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
<h2 style="color: #4CAF50; text-align: center;">You've Been Invited!</h2>
<p>Hi there,</p>
<p>Your friend <strong>{{.Referrer}}</strong> has invited you to join <strong>{{.Campaign}}</strong>!</p>
{{if .Message}}<blockquote style="font-style: italic; border-left: 4px solid #4CAF50; padding: 10px;">"{{.Message}}"</blockquote>{{end}}
<p>Click the link below to claim your rewards and get started:</p>
<p style="text-align: center;"><a href="{{.Link}}">Claim Your Rewards</a></p>
</div>`))

	referrerRewardTmpl = template.Must(template.New("referrer_reward").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
<h2 style="color: #4CAF50; text-align: center;">Thank You for Referring a Friend!</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>Thank you for referring a friend to our <strong>{{.Campaign}}</strong> campaign!</p>
<p style="text-align: center;">You've earned: <strong>{{.Reward}}</strong></p>
<p style="text-align: center;"><a href="{{.Link}}">Refer More Friends</a></p>
</div>`))

	welcomeRewardTmpl = template.Must(template.New("welcome_reward").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
<h2 style="color: #4CAF50; text-align: center;">Welcome to {{.Campaign}}!</h2>
<p>Hi <strong>{{.Name}}</strong>,</p>
<p>You've been referred by <strong>{{.Referrer}}</strong>, and as a welcome gift you've earned <strong>{{.Reward}}</strong>!</p>
<p>Start referring your friends and earn even more rewards:</p>
<p style="text-align: center;"><a href="{{.Link}}">Your Referral Link</a></p>
</div>`))

	broadcastTmpl = template.Must(template.New("broadcast").Parse(`<div style="max-width: 600px; margin: auto; padding: 20px; font-family: Arial, sans-serif;">
<h2 style="color: #4F46E5; text-align: center;">{{.Title}}</h2>
<p>Hi there,</p>
<p>{{.Body}}</p>
<p style="margin-top: 20px;">Best regards,<br><strong>{{.Company}}</strong></p>
<p style="font-size: 12px; color: #888;">You're receiving this email because you're a valued customer.</p>
</div>`))
)

// Notifier renders and delivers the application's emails. Fire-and-forget sends run in
// the background; Wait blocks until they have all finished.
type Notifier struct {
	sender    mailer.Sender
	clientURL string
	timeout   time.Duration
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewNotifier(sender mailer.Sender, clientURL string, timeout time.Duration, log *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Notifier{sender: sender, clientURL: clientURL, timeout: timeout, log: log}
}

// ReferralLink is a customer's personal link for referring others to a campaign.
func (n *Notifier) ReferralLink(customerID, campaignID uint) string {
	return fmt.Sprintf("%s/referral?ref=%d&campaign=%d", n.clientURL, customerID, campaignID)
}

// ClaimLink is the link a referred prospect follows to convert.
func (n *Notifier) ClaimLink(referralID, campaignID uint) string {
	return fmt.Sprintf("%s/referred?ref=%d&campaign=%d", n.clientURL, referralID, campaignID)
}

// CampaignLaunched emails every customer their personal link for a new campaign.
func (n *Notifier) CampaignLaunched(campaign *models.Campaign, customers []models.Customer) {
	msgs := make([]mailer.Message, 0, len(customers))
	for _, c := range customers {
		html, err := render(launchTmpl, map[string]interface{}{
			"Name":           c.Name,
			"Description":    campaign.Description,
			"CustomerReward": campaign.Reward.CustomerReward,
			"ReferredReward": campaign.Reward.ReferredReward,
			"Link":           n.ReferralLink(c.ID, campaign.ID),
			"Start":          campaign.StartTime.Format(time.RFC1123),
			"End":            campaign.EndTime.Format(time.RFC1123),
		})
		if err != nil {
			n.log.Error("render launch email", zap.Error(err))
			return
		}
		msgs = append(msgs, mailer.Message{
			To:      c.Email,
			Subject: fmt.Sprintf("Join Our New Campaign: %s!", campaign.Name),
			HTML:    html,
		})
	}
	n.dispatch(mailCampaignLaunch, msgs)
}

// Invitation renders the email sent to a referred prospect.
func (n *Notifier) Invitation(referral *models.Referral, campaign *models.Campaign, referrerName, personal string) (mailer.Message, error) {
	html, err := render(invitationTmpl, map[string]interface{}{
		"Referrer": referrerName,
		"Campaign": campaign.Name,
		"Message":  personal,
		"Link":     n.ClaimLink(referral.ID, campaign.ID),
	})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      referral.ReferredToEmail,
		Subject: fmt.Sprintf("You have been referred to %s!", campaign.Name),
		HTML:    html,
	}, nil
}

// Invite sends an invitation in the background.
func (n *Notifier) Invite(msg mailer.Message) {
	n.dispatch(mailInvitation, []mailer.Message{msg})
}

// SendInvitations delivers invitations synchronously and returns one error slot per message.
func (n *Notifier) SendInvitations(ctx context.Context, msgs []mailer.Message) []error {
	return n.sendAll(ctx, mailInvitation, msgs)
}

// RewardsEarned emails both sides of a converted referral. referrer may be nil when the
// referring customer could not be loaded; only the new customer is mailed then.
func (n *Notifier) RewardsEarned(campaign *models.Campaign, referrer *models.Customer, customer *models.Customer) {
	var msgs []mailer.Message
	referrerName := "a friend"
	if referrer != nil {
		referrerName = referrer.Name
		html, err := render(referrerRewardTmpl, map[string]interface{}{
			"Name":     referrer.Name,
			"Campaign": campaign.Name,
			"Reward":   campaign.Reward.CustomerReward,
			"Link":     n.ReferralLink(referrer.ID, campaign.ID),
		})
		if err != nil {
			n.log.Error("render reward email", zap.Error(err))
			return
		}
		msgs = append(msgs, mailer.Message{
			To:      referrer.Email,
			Subject: fmt.Sprintf("You've Earned a Reward from %s!", campaign.Name),
			HTML:    html,
		})
	}
	html, err := render(welcomeRewardTmpl, map[string]interface{}{
		"Name":     customer.Name,
		"Campaign": campaign.Name,
		"Referrer": referrerName,
		"Reward":   campaign.Reward.ReferredReward,
		"Link":     n.ReferralLink(customer.ID, campaign.ID),
	})
	if err != nil {
		n.log.Error("render welcome email", zap.Error(err))
		return
	}
	msgs = append(msgs, mailer.Message{
		To:      customer.Email,
		Subject: fmt.Sprintf("Welcome to %s! Here's Your Reward", campaign.Name),
		HTML:    html,
	})
	n.dispatch(mailReward, msgs)
}

// Broadcast sends the same company message to every recipient.
func (n *Notifier) Broadcast(company string, recipients []string, title, body string) {
	html, err := render(broadcastTmpl, map[string]interface{}{
		"Title":   title,
		"Body":    body,
		"Company": company,
	})
	if err != nil {
		n.log.Error("render broadcast email", zap.Error(err))
		return
	}
	msgs := make([]mailer.Message, len(recipients))
	for i, to := range recipients {
		msgs[i] = mailer.Message{To: to, Subject: title, HTML: html}
	}
	n.dispatch(mailBroadcast, msgs)
}

// Wait blocks until background deliveries have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(kind string, msgs []mailer.Message) {
	if len(msgs) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.sendAll(context.Background(), kind, msgs)
	}()
}

// sendAll never stops early; each failure is logged and reported in its slot.
func (n *Notifier) sendAll(ctx context.Context, kind string, msgs []mailer.Message) []error {
	errs := make([]error, len(msgs))
	var g errgroup.Group
	g.SetLimit(maxParallelSends)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			if err := n.sender.Send(sendCtx, msg); err != nil {
				errs[i] = err
				metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
				n.log.Warn("email delivery failed",
					zap.String("kind", kind), zap.String("to", msg.To), zap.Error(err))
				return nil
			}
			metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"referly/pkg/intent"
	"referly/pkg/llm"

	"go.uber.org/zap"
)

const botSender = "bot"

const (
	askCampaignDetails = "Please provide:\nCampaign Title, Customer Reward, Referred Reward"
	askMailDetails     = "Please provide:\nMail Title, single/all/loyal, professional/casual"
	askReferralEmails  = "Please provide:\nemail, email, email... for multiple users"
)

// CampaignDraft pre-fills the campaign creation form.
type CampaignDraft struct {
	Title          string `json:"title"`
	CustomerReward string `json:"customerReward"`
	ReferredReward string `json:"referredReward"`
	Description    string `json:"description"`
}

// MailDraft pre-fills the mail form.
type MailDraft struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	MsgType string `json:"msgType"`
	Msg     string `json:"msg"`
}

type ChatReply struct {
	Text      string         `json:"text"`
	Sender    string         `json:"sender"`
	Type      string         `json:"type,omitempty"`
	Campaign  *CampaignDraft `json:"campaignData,omitempty"`
	Mail      *MailDraft     `json:"mailData,omitempty"`
	Referrals *BatchResult   `json:"referrals,omitempty"`
}

// AssistantService answers chat messages. Intent routing is deterministic; the language
// model only produces free text.
type AssistantService struct {
	gen       llm.Generator
	referrals *ReferralService
	company   *intent.Router
	referral  *intent.Router
	log       *zap.Logger
}

func NewAssistantService(gen llm.Generator, referrals *ReferralService, log *zap.Logger) *AssistantService {
	return &AssistantService{
		gen:       gen,
		referrals: referrals,
		company:   intent.CompanyRouter(),
		referral:  intent.ReferralRouter(),
		log:       log,
	}
}

func (s *AssistantService) generate(ctx context.Context, prompt string) (string, error) {
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.log.Warn("assistant generation failed", zap.Error(err))
		return "", ErrAssistantDown
	}
	return llm.CleanResponse(out, prompt), nil
}

// Ask answers a free-form question in one sentence.
func (s *AssistantService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", validation("Message is required")
	}
	prompt := fmt.Sprintf("You are an expert assistant. Provide concise, accurate answers.\nQuestion: %s\nAnswer in one sentence:", question)
	return s.generate(ctx, prompt)
}

func (s *AssistantService) ReferralMessage(ctx context.Context) (string, error) {
	return s.generate(ctx, "Generate a referral message for a campaign in a casual tone")
}

func (s *AssistantService) Description(ctx context.Context, title string) (string, error) {
	if title = strings.TrimSpace(title); title == "" {
		return "", validation("Enter Title")
	}
	return s.generate(ctx, fmt.Sprintf("Generate a description for %s in two lines", title))
}

func (s *AssistantService) EmailBody(ctx context.Context, title, tone string) (string, error) {
	if title = strings.TrimSpace(title); title == "" {
		return "", validation("Enter Title")
	}
	if tone = strings.TrimSpace(tone); tone == "" {
		tone = "professional"
	}
	return s.generate(ctx, fmt.Sprintf("Generate an email body for %s in a %s way", title, tone))
}

// Chat serves the company dashboard assistant.
func (s *AssistantService) Chat(ctx context.Context, text string) (*ChatReply, error) {
	m := s.company.Route(text)
	switch {
	case m.Mail != nil:
		body, err := s.EmailBody(ctx, m.Mail.Title, m.Mail.Tone)
		if err != nil {
			return nil, err
		}
		return &ChatReply{
			Text:   "Mail details received! Opening creation form...",
			Sender: botSender,
			Type:   intent.Mail.String(),
			Mail:   &MailDraft{Title: m.Mail.Title, Type: m.Mail.Recipients, MsgType: m.Mail.Tone, Msg: body},
		}, nil
	case m.Intent == intent.Mail:
		return &ChatReply{Text: askMailDetails, Sender: botSender}, nil
	case m.Campaign != nil:
		desc, err := s.Description(ctx, m.Campaign.Title)
		if err != nil {
			return nil, err
		}
		return &ChatReply{
			Text:   "Campaign details received! Opening creation form...",
			Sender: botSender,
			Type:   intent.Campaign.String(),
			Campaign: &CampaignDraft{
				Title:          m.Campaign.Title,
				CustomerReward: m.Campaign.CustomerReward,
				ReferredReward: m.Campaign.ReferredReward,
				Description:    desc,
			},
		}, nil
	case m.Intent == intent.Campaign:
		return &ChatReply{Text: askCampaignDetails, Sender: botSender}, nil
	}
	answer, err := s.Ask(ctx, text)
	if err != nil {
		return nil, err
	}
	return &ChatReply{Text: answer, Sender: botSender}, nil
}

// ReferralChat serves the assistant on a customer's referral page. A list of addresses
// refers each of them under the campaign with a generated personal message.
func (s *AssistantService) ReferralChat(ctx context.Context, campaignID, referrerID uint, text string) (*ChatReply, error) {
	m := s.referral.Route(text)
	if m.Intent != intent.Referral {
		answer, err := s.Ask(ctx, text)
		if err != nil {
			return nil, err
		}
		return &ChatReply{Text: answer, Sender: botSender}, nil
	}
	if !m.HasDetails() {
		return &ChatReply{Text: askReferralEmails, Sender: botSender}, nil
	}

	personal, err := s.ReferralMessage(ctx)
	if err != nil {
		personal = ""
	}
	res, err := s.referrals.CreateReferralsBatch(ctx, campaignID, referrerID, m.Emails, personal)
	if err != nil {
		return nil, err
	}
	if len(res.Succeeded) == 0 && len(res.Failed) == 0 {
		return nil, validation("No valid emails provided.")
	}
	return &ChatReply{Text: "Referral process completed.", Sender: botSender, Type: intent.Referral.String(), Referrals: res}, nil
}

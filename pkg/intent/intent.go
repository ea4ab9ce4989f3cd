// Package intent classifies assistant chat text with an ordered list of matchers.
package intent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Intent int

const (
	None Intent = iota
	Campaign
	Mail
	Referral
)

func (i Intent) String() string {
	switch i {
	case Campaign:
		return "campaign"
	case Mail:
		return "mail"
	case Referral:
		return "referral"
	default:
		return "none"
	}
}

// CampaignDetails is parsed from "title, customer reward, referred reward".
type CampaignDetails struct {
	Title          string `json:"title"`
	CustomerReward string `json:"customer_reward"`
	ReferredReward string `json:"referred_reward"`
}

// MailDetails is parsed from "title, single|all|loyal, professional|casual".
type MailDetails struct {
	Title      string `json:"title"`
	Recipients string `json:"type"`
	Tone       string `json:"msg_type"`
}

// Match is the outcome of routing one message. A match without details or emails
// means the user asked for something but has not supplied the fields yet.
type Match struct {
	Intent   Intent
	Campaign *CampaignDetails
	Mail     *MailDetails
	Emails   []string
}

// HasDetails reports whether the text carried structured data beyond the intent.
func (m Match) HasDetails() bool {
	return m.Campaign != nil || m.Mail != nil || len(m.Emails) > 0
}

type Matcher interface {
	Match(text string) (Match, bool)
}

type MatcherFunc func(text string) (Match, bool)

func (f MatcherFunc) Match(text string) (Match, bool) { return f(text) }

// Router tries its matchers in order and returns the first hit.
type Router struct {
	matchers []Matcher
}

func NewRouter(matchers ...Matcher) *Router {
	return &Router{matchers: matchers}
}

func (r *Router) Route(text string) Match {
	text = Normalize(text)
	if text == "" {
		return Match{Intent: None}
	}
	for _, m := range r.matchers {
		if out, ok := m.Match(text); ok {
			return out
		}
	}
	return Match{Intent: None}
}

var spaces = regexp.MustCompile(`\s+`)

// Normalize trims and collapses whitespace. Case is preserved so parsed fields keep it.
func Normalize(text string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// keywordSet matches any of its words or phrases as whole words, case-insensitively.
type keywordSet struct {
	re *regexp.Regexp
}

func newKeywordSet(words []string) keywordSet {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return keywordSet{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (k keywordSet) in(text string) bool { return k.re.MatchString(text) }

// Keywords matches when text contains a word from every group.
func Keywords(in Intent, groups ...[]string) Matcher {
	sets := make([]keywordSet, len(groups))
	for i, g := range groups {
		sets[i] = newKeywordSet(g)
	}
	return MatcherFunc(func(text string) (Match, bool) {
		for _, s := range sets {
			if !s.in(text) {
				return Match{}, false
			}
		}
		return Match{Intent: in}, true
	})
}

// Without wraps m so it never matches text containing substr.
func Without(m Matcher, substr string) Matcher {
	return MatcherFunc(func(text string) (Match, bool) {
		if strings.Contains(text, substr) {
			return Match{}, false
		}
		return m.Match(text)
	})
}

func splitFields(text string) []string {
	if !strings.Contains(text, ",") {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

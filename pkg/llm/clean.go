package llm

import (
	"regexp"
	"strings"
)

// Fallback is returned when nothing useful is left of a model reply.
const Fallback = "I couldn't process that request."

var (
	labelPrefix    = regexp.MustCompile(`(?i)^(Answer|Response|Explanation)[:.]?\s*`)
	leadingNoise   = regexp.MustCompile(`^[^a-zA-Z0-9"']+`)
	trailingPeriod = regexp.MustCompile(`\s*\.?\s*$`)
)

// CleanResponse strips the echoed prompt and common label/punctuation noise from a
// model reply. Models served by the inference API echo their input before the answer.
func CleanResponse(response, prompt string) string {
	if response == "" {
		return Fallback
	}
	cleaned := response
	if prompt != "" {
		cleaned = strings.Replace(cleaned, prompt, "", 1)
	}
	cleaned = labelPrefix.ReplaceAllString(cleaned, "")
	cleaned = leadingNoise.ReplaceAllString(cleaned, "")
	cleaned = trailingPeriod.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Fallback
	}
	return cleaned
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanResponse(t *testing.T) {
	prompt := "Generate a description for Summer Promo in two lines"
	tests := []struct {
		name     string
		response string
		prompt   string
		want     string
	}{
		{name: "empty", response: "", prompt: prompt, want: Fallback},
		{name: "echoed prompt removed", response: prompt + "\n\nA sunny deal for everyone.", prompt: prompt, want: "A sunny deal for everyone"},
		{name: "answer label", response: "Answer: Go is a language.", want: "Go is a language"},
		{name: "response label case insensitive", response: "response. fine", want: "fine"},
		{name: "leading punctuation", response: "\n- * Hello there", want: "Hello there"},
		{name: "quote kept", response: `"Quoted" text.`, want: `"Quoted" text`},
		{name: "only one trailing period", response: "Wait...", want: "Wait.."},
		{name: "nothing left", response: prompt + " ...", prompt: prompt, want: Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanResponse(tt.response, tt.prompt))
		})
	}
}

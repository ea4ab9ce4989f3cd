package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"referly/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", service.ErrInvalidWindow, http.StatusBadRequest},
		{"unauthorized", service.ErrInvalidCreds, http.StatusUnauthorized},
		{"not found", service.ErrCampaignNotFound, http.StatusNotFound},
		{"invalid state", service.ErrDuplicateReferral, http.StatusConflict},
		{"dependency", service.ErrAssistantDown, http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestParseTime(t *testing.T) {
	got, ok := parseTime("2025-03-01T10:30:00+02:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), got)

	got, ok = parseTime("2025-03-01T10:30")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), got)

	got, ok = parseTime(" 2025-03-01 ")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = parseTime("")
	assert.False(t, ok)
	_, ok = parseTime("next tuesday")
	assert.False(t, ok)
}

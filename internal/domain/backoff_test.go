package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRetryDelay(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{1, time.Minute},
		{2, 5 * time.Minute},
		{3, 15 * time.Minute},
		{4, 60 * time.Minute},
		{5, 60 * time.Minute},
		{100, 60 * time.Minute},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NextRetryDelay(tc.attempts), "attempts=%d", tc.attempts)
	}
}

func TestIsRetryableMessage(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"", true},
		{"Connection timeout", true},
		{"503 Service Unavailable", true},
		{"rate limit exceeded", true},
		{"Entity not found", false},
		{"Unsupported MIME type", false},
		{"Permission denied", false},
		{"Unauthorized", false},
		{"configuration error: missing board id", false},
		{"something unexpected happened", true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, IsRetryableMessage(tc.message), "message=%q", tc.message)
	}
}

func TestTruncateErrorMessage(t *testing.T) {
	short := "short message"
	assert.Equal(t, short, TruncateErrorMessage(short))

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	truncated := TruncateErrorMessage(string(long))
	assert.Len(t, truncated, 500)
}

package domain

import (
	"strings"
	"time"
)

// BackoffScheduleMinutes is the exponential back-off schedule in minutes,
// indexed by attempt (0-indexed, clamped to the last slot).
//
// Slot 0 is immediate. Callers look the delay up after incrementing
// attempts, so the first requeue (attempts=1) waits one minute and later
// ones wait progressively longer, capping at one hour.
var BackoffScheduleMinutes = [5]int{0, 1, 5, 15, 60}

// NextRetryDelay returns how long to wait before a job at the given attempt
// count becomes eligible again.
func NextRetryDelay(attempts int) time.Duration {
	idx:= attempts
	if idx > len(BackoffScheduleMinutes)-1 {
 idx = len(BackoffScheduleMinutes) - 1
	}
	if idx < 0 {
 idx = 0
	}
	return time.Duration(BackoffScheduleMinutes[idx]) * time.Minute
}

// StuckThreshold is how long a row may sit in_progress before stuck recovery
// resets it to pending.
const StuckThreshold = 30 * time.Minute

// retryablePatterns and nonRetryablePatterns classify an error message by
// lowercased substring match. Non-retryable patterns are checked first so
// that, e.g., "unauthorized" always wins even if some other substring also
// matched.
var (
	nonRetryablePatterns = []string{
 "not found",
 "invalid",
 "unsupported",
 "permission denied",
 "unauthorized",
 "forbidden",
 "404",
 "401",
 "403",
 "configuration error",
	}

	retryablePatterns = []string{
 "timeout",
 "connection refused",
 "service unavailable",
 "temporary failure",
 "503",
 "connectionerror",
 "timeouterror",
 "rate limit",
 "too many requests",
 "429",
	}
)

// IsRetryableMessage classifies a job error message per. An empty
// message is retryable by default; so is anything matching neither pattern
// list (unknown errors default to retryable).
func IsRetryableMessage(message string) bool {
	if message == "" {
 return true
	}
	lower:= strings.ToLower(message)

	for _, p:= range nonRetryablePatterns {
 if strings.Contains(lower, p) {
 return false
 }
	}
	for _, p:= range retryablePatterns {
 if strings.Contains(lower, p) {
 return true
 }
	}
	return true
}

// TruncateErrorMessage enforces the 500-char storage limit on error_message.
func TruncateErrorMessage(message string) string {
	const maxLen = 500
	if len(message) <= maxLen {
 return message
	}
	return message[:maxLen]
}

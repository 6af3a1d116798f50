package models

import (
	"time"
)

// Policy is a named fixed-window limit.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Buyer mutation policies. Both count per user, or per client IP when anonymous.
func BuyerCreatePolicy(limit int, window time.Duration) Policy {
	return Policy{Name: "buyer_create", Limit: limit, Window: window}
}

func BuyerUpdatePolicy(limit int, window time.Duration) Policy {
	return Policy{Name: "buyer_update", Limit: limit, Window: window}
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Denied builds a rejected result; RetryAfter rounds up to whole seconds.
func Denied(limit int, resetAt, now time.Time) *RateLimitResult {
	retry := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	return &RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: max(retry, 0),
	}
}

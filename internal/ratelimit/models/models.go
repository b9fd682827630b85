package models

import (
	"net/http"
	"strings"
	"time"
)

// Class groups endpoints that share a per-client budget.
type Class string

const (
	// ClassWallet covers the public endpoints a wallet calls.
	ClassWallet Class = "wallet"
	// ClassResult covers result redemption, where the response code is
	// short enough to be worth guessing.
	ClassResult Class = "result"
	// ClassDevice covers the remaining authenticated and admin endpoints.
	ClassDevice Class = "device"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of a single check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// ExceededResponse is the body of a 429.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// ClassFor maps a request to its class. Health, readiness and metrics are not limited.
func ClassFor(r *http.Request) (Class, bool) {
	p := r.URL.Path
	switch {
	case p == "/health" || p == "/ready" || p == "/metrics":
		return "", false
	case p == "/result":
		return ClassResult, true
	case strings.HasPrefix(p, "/verify/") || strings.HasPrefix(p, "/metadata/"):
		return ClassWallet, true
	default:
		return ClassDevice, true
	}
}

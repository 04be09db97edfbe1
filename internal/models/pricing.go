package models

import "time"

type PriceSystemHealth struct {
	Healthy             bool      `json:"healthy"`
	Failures            int       `json:"failures"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastValidationTime  time.Time `json:"last_validation_time"`
	RecoveryMode        bool      `json:"recovery_mode"`
}

// PriceOverrideAudit entries are append-only for the process lifetime.
// The admin key is checked and discarded, never stored.
type PriceOverrideAudit struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type SelfTestResult struct {
	Test    string `json:"test"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

type SelfTestReport struct {
	Success bool              `json:"success"`
	Results []*SelfTestResult `json:"results"`
	RanAt   time.Time         `json:"ran_at"`
}

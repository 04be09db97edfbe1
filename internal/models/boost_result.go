package models

type PurchaseResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type EligibilityDecision struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

type BoostMetrics struct {
	Views         int `json:"views"`
	Clicks        int `json:"clicks"`
	SearchRanking int `json:"search_ranking"`
}

type BoostEstimate struct {
	ProfileID    string       `json:"profile_id"`
	WithBoost    BoostMetrics `json:"with_boost"`
	WithoutBoost BoostMetrics `json:"without_boost"`
}

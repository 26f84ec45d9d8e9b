package analyzer

import "time"

// Scores maps participant name -> role key -> raw count.
type Scores map[string]map[string]int

// RoleResult is the scored outcome for one role across the chosen pair.
type RoleResult struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	YouPct      float64 `json:"you_pct"`
	ThemPct     float64 `json:"them_pct"`
	YouScore    int     `json:"you_score"`
	ThemScore   int     `json:"them_score"`
	Explanation string  `json:"explanation"`
}

// Result is the full analysis for one upload.
type Result struct {
	UploadID     string       `json:"upload_id"`
	You          string       `json:"you"`
	Them         string       `json:"them"`
	Roles        []RoleResult `json:"roles"`
	MessageCount int          `json:"message_count"`
	AIScored     bool         `json:"ai_scored"`
	GeneratedAt  time.Time    `json:"generated_at"`
}

package internal

import "time"

// SearchRecord summarises one settled orchestrated search.
type SearchRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Query            string    `json:"query"`
	QueryLabel       string    `json:"query_label"`
	DirectCount      int       `json:"direct_count"`
	DirectError      string    `json:"direct_error,omitempty"`
	IntelligentError string    `json:"intelligent_error,omitempty"`
	FinalCount       int       `json:"final_count"`
	SurfacedError    string    `json:"surfaced_error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

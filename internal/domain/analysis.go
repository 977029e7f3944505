// Package domain contains core domain types for the AgriVision application.
package domain

import (
	"time"
)

// AnonymousUserID is the sentinel identifier for requests without an identity.
// Anonymous submitters get ephemeral results and have no addressable history.
const AnonymousUserID = "anonymous-user"

// IsAnonymous reports whether the identifier denotes an anonymous submitter.
func IsAnonymous(userID string) bool {
	return userID == "" || userID == AnonymousUserID
}

// Analysis represents one completed crop assessment.
//
// ImageDataURI and ImageURL are mutually exclusive by lifecycle stage: an
// ephemeral (anonymous) result carries the inline data URI it was analyzed
// from, a persisted record carries the durable media URL instead.
type Analysis struct {
	ID                string    `json:"id,omitempty"`
	UserID            string    `json:"user_id"`
	ImageDataURI      string    `json:"image_data_uri,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"`
	AdditionalDetails string    `json:"additional_details,omitempty"`
	AnalysisResult    string    `json:"analysis_result"`
	ConfidenceLevel   float64   `json:"confidence_level"`
	SuggestedActions  string    `json:"suggested_actions"`
	CreatedAt         time.Time `json:"created_at,omitzero"`
}

// Persisted reports whether the analysis has been written to storage.
func (a *Analysis) Persisted() bool {
	return a.ID != ""
}

// ClampConfidence forces a model-reported confidence into the closed
// interval [0,1]. Out-of-range values must never reach storage or callers.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// User represents an identified device/user in the system.
type User struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

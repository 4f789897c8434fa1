package types

import "time"

// SourceStrava marks activities ingested from Strava.
const SourceStrava = "strava"

// Activity is the internal representation of one upstream activity.
// At most one Activity exists per (UserID, SourceActivityID).
type Activity struct {
	ID               string
	SourceActivityID int64
	UserID           string
	Name             string
	Date             time.Time
	DurationMinutes  int
	AvgPower         float64
	NormalizedPower  float64
	MaxPower         float64
	AvgHeartRate     float64
	MaxHeartRate     float64
	TSS              float64
	IntensityFactor  float64
	Type             string
	Source           string
	CreatedAt        time.Time

	// Derived by enrichment; nil until computed.
	Peak5MinPower  *float64
	Peak20MinPower *float64
	HRCompleteness *float64
}

// ActivityPatch carries the enrichment-derived fields to merge into an Activity.
type ActivityPatch struct {
	Peak5MinPower  *float64
	Peak20MinPower *float64
	HRCompleteness *float64
}

// Empty reports whether the patch carries no fields.
func (p ActivityPatch) Empty() bool {
	return p.Peak5MinPower == nil && p.Peak20MinPower == nil && p.HRCompleteness == nil
}

// StreamSet is the raw per-activity time series persisted during enrichment.
type StreamSet struct {
	Watts       []float64 `json:"watts,omitempty"`
	HeartRate   []float64 `json:"heartrate,omitempty"`
	Time        []float64 `json:"time,omitempty"`
	Cadence     []float64 `json:"cadence,omitempty"`
	SampleCount int       `json:"sample_count"`
}

// FitnessEstimate is an opportunistic VO2max estimate derived from peak power and body weight.
type FitnessEstimate struct {
	ID            string
	UserID        string
	ActivityID    string
	VO2Max        float64
	Peak5MinPower float64
	WeightKg      float64
	Source        string
	CreatedAt     time.Time
}

package types

import "time"

// Credentials is the Strava OAuth credential set owned by one internal user.
type Credentials struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	// ExpiresAt is in epoch seconds, as Strava reports it.
	ExpiresAt int64 `json:"expiresAt" validate:"required|min:1"`
	AthleteID int64 `json:"athleteId" validate:"required|min:1"`
}

// Expired reports whether the access token can no longer be used at now.
func (c *Credentials) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// UserProfile holds the training profile fields the pipeline reads.
type UserProfile struct {
	FTP      int
	WeightKg float64
}

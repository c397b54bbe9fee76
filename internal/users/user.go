package users

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`

	// per-user strava app credentials, set via the strava-login endpoint
	StravaClientID     string `json:"stravaClientId,omitempty"`
	StravaClientSecret string `json:"-"`
}

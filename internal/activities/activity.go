package activities

import "time"

// Activity is a single logged training session, a run usually.
type Activity struct {
	ID          int    `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	// distance in meters
	Distance  float64   `json:"distance"`
	Duration  string    `json:"duration"`
	Tempo     string    `json:"tempo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

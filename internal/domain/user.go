package domain

import "time"

// User mirrors an identity from the external identity provider.
// Credentials and sessions live there, not here.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

package model

import "time"

// User represents a registered participant.
// The API key is the user's credential and is only returned once, at registration.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"api_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserView is the public projection of a user (no credential).
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// View strips the credential from a user record.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

package model

// User is a registered collector. Usernames are unique and case-sensitive.
type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

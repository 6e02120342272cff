package models

// User is the database representation of an actor.
type User struct {
	UserID       string `json:"userID"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	AuditFields
}

package domain

import "time"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn es un mensaje del transcript: lo que escribio el usuario o lo que respondio el agente.
type Turn struct {
	ID        string    `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// IsValidRole indica si el rol pertenece al transcript.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleModel
}

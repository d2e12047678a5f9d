package model

import "time"

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User is an account known to the system. Identity verification happens at
// the auth layer; everything here only needs the stable user id and role.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Role         Role      `json:"role" bson:"role"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Sections     []string  `json:"sections" bson:"sections"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Presence is the live online state for a user, kept in Redis rather than on
// the user document so chat fan-out never writes to Mongo.
type Presence struct {
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

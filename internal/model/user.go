package model

import "time"

type User struct {
	ID           string     `json:"id" bson:"_id"`
	Handle       string     `json:"handle" bson:"handle"`
	PasswordHash string     `json:"-" bson:"passwordHash"`
	Salt         string     `json:"-" bson:"salt"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}

package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims carried by a logged-in user's token.
type UserClaims struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

type SignupRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Handle string `json:"handle"`
}

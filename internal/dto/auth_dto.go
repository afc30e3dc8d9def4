package dto

import "time"

type LoginRequest struct {
	Passphrase string `json:"passphrase" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

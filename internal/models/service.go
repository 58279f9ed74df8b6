package models

import "time"

// Service is one kind of request a department handles (e.g. "Transcript
// Request"). Inactive services are hidden from kiosk issuance but never
// deleted while open entries or windows still reference them.
type Service struct {
	ID         string     `json:"id"`
	Department Department `json:"department"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CreateServiceRequest struct {
	ID         string `json:"id" validate:"required,max=32"`
	Department string `json:"department" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	IsActive   bool   `json:"is_active"`
}

type UpdateServiceRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
}

package models

import "time"

// Window is a staffed service point that pulls entries to serve.
// A priority window implicitly serves every service of its department
// and draws PWD/senior entries ahead of the general FIFO order.
type Window struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Department    Department `json:"department"`
	ServiceIDs    []string   `json:"service_ids"`
	AssignedAdmin string     `json:"assigned_admin,omitempty"`
	IsOpen        bool       `json:"is_open"`
	IsPriority    bool       `json:"is_priority"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateWindowRequest struct {
	ID            string   `json:"id" validate:"required,max=32"`
	Name          string   `json:"name" validate:"required,max=255"`
	Department    string   `json:"department" validate:"required"`
	ServiceIDs    []string `json:"service_ids"`
	AssignedAdmin string   `json:"assigned_admin" validate:"omitempty,max=255"`
	IsOpen        bool     `json:"is_open"`
	IsPriority    bool     `json:"is_priority"`
}

type UpdateWindowRequest struct {
	Name          *string  `json:"name" validate:"omitempty,max=255"`
	ServiceIDs    []string `json:"service_ids"`
	AssignedAdmin *string  `json:"assigned_admin" validate:"omitempty,max=255"`
	IsOpen        *bool    `json:"is_open"`
	IsPriority    *bool    `json:"is_priority"`
}

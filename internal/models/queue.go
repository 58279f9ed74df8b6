package models

import (
	"time"
)

type Department string

const (
	DepartmentRegistrar  Department = "registrar"
	DepartmentAdmissions Department = "admissions"
)

// Departments lists every department the engine partitions by.
var Departments = []Department{DepartmentRegistrar, DepartmentAdmissions}

func (d Department) Valid() bool {
	return d == DepartmentRegistrar || d == DepartmentAdmissions
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusServing   Status = "serving"
	StatusCompleted Status = "completed"

	// StatusTransferred appears only in the transition journal: the
	// hop out of serving on a transfer, while the live entry re-enters
	// waiting immediately.
	StatusTransferred Status = "transferred"
)

// QueueEntry is one person's place in a department's queue.
// QueueNumber is unique within the department for the serving day and
// strictly increasing. FullName, Purpose and Contact are immutable after
// issue; once Status is completed the whole entry is immutable.
type QueueEntry struct {
	ID          string     `json:"id"`
	QueueNumber int64      `json:"queue_number"`
	Department  Department `json:"department"`
	Service     string     `json:"service"`
	FullName    string     `json:"full_name"`
	Purpose     string     `json:"purpose"`
	Contact     string     `json:"contact"`
	Priority    bool       `json:"priority"` // PWD/senior lane
	Status      Status     `json:"status"`
	WindowID    string     `json:"window_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TransitionRecord is the append-only journal row written for every
// committed status change (take, call, finish, recall, transfer).
type TransitionRecord struct {
	ID         int64     `json:"id"`
	EntryID    string    `json:"entry_id"`
	Event      string    `json:"event"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	WindowID   string    `json:"window_id,omitempty"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

/*
|--------------------------------------------------------------------------
| REQUEST
|--------------------------------------------------------------------------
*/

type IssueRequest struct {
	Department string `json:"department" validate:"required"`
	Service    string `json:"service" validate:"required"`
	FullName   string `json:"full_name" validate:"required,max=255"`
	Purpose    string `json:"purpose" validate:"max=500"`
	Contact    string `json:"contact" validate:"max=100"`
	Priority   bool   `json:"priority"`
}

type CallNextRequest struct {
	Department string `json:"department" validate:"required"`
	WindowID   string `json:"window_id" validate:"required"`
}

type CompleteRequest struct {
	Department string `json:"department" validate:"required"`
	EntryID    string `json:"entry_id" validate:"required"`
}

type RecallRequest struct {
	Department string `json:"department" validate:"required"`
	EntryID    string `json:"entry_id" validate:"required"`
}

type TransferRequest struct {
	Department  string `json:"department" validate:"required"`
	EntryID     string `json:"entry_id" validate:"required"`
	NewWindowID string `json:"new_window_id" validate:"required"`
}

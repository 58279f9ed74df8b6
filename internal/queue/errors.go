package queue

import "fmt"

// Reason classifies the expected, recoverable outcomes of a command.
// These are returned as values, never panicked: a lost race between two
// admin consoles is normal operation, not a fault.
type Reason string

const (
	ReasonEmptyQueue        Reason = "empty_queue"
	ReasonBusy              Reason = "busy"
	ReasonStaleState        Reason = "stale_state"
	ReasonNotServing        Reason = "not_serving"
	ReasonInvalidAssignment Reason = "invalid_assignment"
	ReasonConfigLocked      Reason = "config_locked"
)

// Rejection is the non-exceptional failure of a command. Callers map it
// to a calm user-facing message; StaleState additionally means the
// caller's view is outdated and it should re-sync via a snapshot.
type Rejection struct {
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// UnavailableError wraps fatal infrastructure failures (counter
// allocation, durable store unreachable). Callers must back off instead
// of retrying blindly.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}

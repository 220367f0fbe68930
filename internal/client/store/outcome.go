package store

import "github.com/dmitrijs2005/contactbook/internal/client/models"

// State is the lifecycle position of a single store operation.
type State int

const (
	// StatePending means the remote call has been issued but not answered.
	StatePending State = iota
	// StateApplied means the authority confirmed and the collection reflects it.
	StateApplied
	// StateFailed means the authority rejected the call or was unreachable.
	// The collection is unchanged.
	StateFailed
	// StateSuperseded means the authority confirmed, but a newer response for
	// the same contact had already been applied, so this one was dropped.
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	case StateSuperseded:
		return "superseded"
	}
	return "unknown"
}

// Outcome is the result of a store mutation. Contact is set only when State
// is StateApplied; Err only when it is StateFailed.
type Outcome struct {
	State   State
	Contact models.Contact
	Err     error
}

func pending() Outcome { return Outcome{State: StatePending} }

func applied(c models.Contact) Outcome { return Outcome{State: StateApplied, Contact: c.Clone()} }

func failed(err error) Outcome { return Outcome{State: StateFailed, Err: err} }

func superseded() Outcome { return Outcome{State: StateSuperseded} }

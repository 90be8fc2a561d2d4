package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
)

const (
	EchoPending   EchoState = "pending"
	EchoConfirmed EchoState = "confirmed"
	EchoRejected  EchoState = "rejected"
)

type (
	// EchoState tracks one in-flight transaction through the optimistic
	// update lifecycle: shown to the user as pending, then confirmed by the
	// store or rejected and retracted.
	EchoState string

	EchoEntry struct {
		Token   string
		Tx      core.Transaction
		State   EchoState
		Reason  string
		Started time.Time
	}

	// Echo is the two-phase bookkeeping behind the optimistic UI contract.
	// Confirmed entries are dropped immediately (the store now owns them);
	// rejected ones stay visible until acknowledged so the failure can be
	// surfaced.
	Echo struct {
		mu      sync.Mutex
		entries map[string]*EchoEntry
		order   []string
	}
)

func NewEcho() *Echo {
	return &Echo{entries: make(map[string]*EchoEntry)}
}

// Begin registers a tentative transaction and returns its token.
func (e *Echo) Begin(tx core.Transaction) string {
	token := uuid.NewString()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[token] = &EchoEntry{
		Token:   token,
		Tx:      tx,
		State:   EchoPending,
		Started: time.Now(),
	}
	e.order = append(e.order, token)
	return token
}

// Confirm resolves a pending entry after a successful store write.
func (e *Echo) Confirm(token string, id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[token]
	if !ok {
		return
	}
	entry.State = EchoConfirmed
	entry.Tx.ID = id
	e.remove(token)
}

// Reject marks a pending entry as failed. The entry stays listed until
// acknowledged.
func (e *Echo) Reject(token string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[token]
	if !ok {
		return
	}
	entry.State = EchoRejected
	if err != nil {
		entry.Reason = err.Error()
	}
}

// Acknowledge retracts a rejected entry. Pending entries cannot be
// acknowledged away.
func (e *Echo) Acknowledge(token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[token]
	if !ok || entry.State != EchoRejected {
		return false
	}
	e.remove(token)
	return true
}

// Entries returns a snapshot of pending and rejected entries in begin order.
func (e *Echo) Entries() []EchoEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EchoEntry, 0, len(e.order))
	for _, token := range e.order {
		if entry, ok := e.entries[token]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

func (e *Echo) remove(token string) {
	delete(e.entries, token)
	for i, t := range e.order {
		if t == token {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

package app

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/timevaultnetwork/timevault-cli/pkg/ecmh"
)

// EventKind discriminates the records a vault appends to its journal.
type EventKind string

// The three kinds of records a vault emits.
const (
	EventKindDeposit      EventKind = "deposit"
	EventKindLockExtended EventKind = "lock_extended"
	EventKindWithdrawal   EventKind = "withdrawal"
)

// Event represents a single journal record.
type Event struct {
	Kind          EventKind `json:"kind"`
	Sender        string    `json:"sender,omitempty"`
	Amount        *big.Int  `json:"amount,omitempty"`
	OldUnlockTime int64     `json:"old_unlock_time,omitempty"`
	NewUnlockTime int64     `json:"new_unlock_time,omitempty"`
	Timestamp     int64     `json:"timestamp"`
}

// Digestible returns the canonical byte encoding of the event
// that is folded into the journal's multiset digest.
func (e Event) Digestible() []byte {
	amount := ""
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	return []byte(fmt.Sprintf(
		"%s|%s|%s|%d|%d|%d",
		e.Kind, e.Sender, amount, e.OldUnlockTime, e.NewUnlockTime, e.Timestamp,
	))
}

// Journal is an append-only sink for vault events. Revert removes a record
// that was appended by an operation that is being rolled back; it is only
// ever called with the event of the in-progress operation.
type Journal interface {
	Append(Event) error
	Revert(Event) error
}

// MemoryJournal keeps events in memory together with a running
// multiset digest over their canonical encodings.
type MemoryJournal struct {
	mu     sync.Mutex
	events []Event
	digest *ecmh.MultisetHash
}

var _ Journal = (*MemoryJournal)(nil)

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		digest: ecmh.NewMultisetHash(),
	}
}

// Append records an event.
func (j *MemoryJournal) Append(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, e)
	j.digest.InsertBytes(e.Digestible())
	return nil
}

// Revert removes the most recently appended event during a rollback.
func (j *MemoryJournal) Revert(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.events) == 0 {
		return fmt.Errorf("revert on empty journal")
	}
	j.events = j.events[:len(j.events)-1]
	j.digest.RemoveBytes(e.Digestible())
	return nil
}

// Events returns a copy of all recorded events in append order.
func (j *MemoryJournal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// Digest returns the hex-encoded multiset digest of the journal.
func (j *MemoryJournal) Digest() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.digest.String()
}

// VerifyEvents recomputes a journal digest from scratch and compares
// it to the expected one. The digest is order-insensitive, so a listing
// returned in any order verifies as long as no record was altered.
func VerifyEvents(events []Event, digest string) bool {
	h := ecmh.NewMultisetHash()
	for _, e := range events {
		h.InsertBytes(e.Digestible())
	}
	return h.String() == digest
}

package chainstate

import (
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

var ErrAddressOccupied = errors.New("address already hosts code")

// World is the in-memory chain substrate shared by every collaborator.
// It tracks which addresses host code and records an undo journal so a
// multi-step deployment can be unwound as one unit.
//
// Reads (HasCode) are safe at any time. The journal is only meaningful
// inside a deployment, and deployments are serialized by the orchestrator,
// so journal entries never interleave between two operations.
type World struct {
	occupied mapset.Set[common.Address]

	mu      sync.Mutex
	journal []func()
}

// NewWorld creates an empty world with no deployed code.
func NewWorld() *World {
	return &World{
		occupied: mapset.NewSet[common.Address](),
	}
}

// HasCode reports whether addr already hosts deployed code.
func (w *World) HasCode(addr common.Address) bool {
	return w.occupied.Contains(addr)
}

// MarkDeployed records that addr now hosts code. The creation mechanism
// cannot target an occupied address, so a second mark fails.
func (w *World) MarkDeployed(addr common.Address) error {
	if !w.occupied.Add(addr) {
		return fmt.Errorf("%w: %s", ErrAddressOccupied, addr.Hex())
	}
	w.Journal(func() {
		w.occupied.Remove(addr)
	})
	return nil
}

// Journal records an undo action for a mutation made during the current
// deployment. Undo actions run in reverse order on revert.
func (w *World) Journal(undo func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journal = append(w.journal, undo)
}

// Snapshot returns a revision identifier for the current journal depth.
func (w *World) Snapshot() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.journal)
}

// RevertToSnapshot unwinds every mutation journaled after the given
// revision, newest first, and discards the unwound entries.
func (w *World) RevertToSnapshot(rev int) {
	w.mu.Lock()
	undo := w.journal[rev:]
	w.journal = w.journal[:rev]
	w.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// DiscardSnapshot drops journal entries older than the given revision once
// a deployment has committed. Keeping the journal bounded matters for a
// long-lived process; committed work never needs unwinding.
func (w *World) DiscardSnapshot(rev int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rev <= len(w.journal) {
		w.journal = w.journal[:rev]
	}
}

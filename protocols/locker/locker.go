// Package locker custodies liquidity position NFTs and releases them only
// after a configured time has elapsed.
package locker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAlreadyInitialized = errors.New("locker already initialized")
	ErrNotInitialized     = errors.New("locker not initialized")
	ErrStillLocked        = errors.New("position still locked")
	ErrNotLockOwner       = errors.New("caller is not the lock owner")
)

// PositionCustodian is the surface of the position manager the locker needs
// to hold and release an NFT.
type PositionCustodian interface {
	OwnerOf(id uint64) (common.Address, error)
	TransferFrom(caller, from, to common.Address, id uint64) error
}

// Locker holds one position NFT for one owner until the lock expires.
// Deploy, NFT hand-over and Initialize are three separate steps driven by
// the orchestrator; Initialize runs exactly once and starts the clock.
type Locker struct {
	address    common.Address
	positions  PositionCustodian
	owner      common.Address
	duration   uint64
	positionID uint64
	feeCut     uint64 // protocol's percentage of accrued fees

	mu          sync.Mutex
	initialized bool
	unlockAt    uint64
}

func (l *Locker) Address() common.Address { return l.address }
func (l *Locker) Owner() common.Address   { return l.owner }
func (l *Locker) PositionID() uint64      { return l.positionID }
func (l *Locker) FeeCut() uint64          { return l.feeCut }

// Initialize starts the lock clock. One-time.
func (l *Locker) Initialize(now uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, l.address.Hex())
	}
	l.initialized = true
	l.unlockAt = now + l.duration
	return nil
}

// UnlocksAt returns the unlock time, or false before initialization.
func (l *Locker) UnlocksAt() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unlockAt, l.initialized
}

// Unlock returns the position NFT to the lock owner once the lock has
// expired. Only the owner may claim it.
func (l *Locker) Unlock(caller common.Address, now uint64) error {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotInitialized, l.address.Hex())
	}
	unlockAt := l.unlockAt
	l.mu.Unlock()

	if caller != l.owner {
		return fmt.Errorf("%w: %s", ErrNotLockOwner, caller.Hex())
	}
	if now < unlockAt {
		return fmt.Errorf("%w: unlocks at %d, now %d", ErrStillLocked, unlockAt, now)
	}
	return l.positions.TransferFrom(l.address, l.address, l.owner, l.positionID)
}

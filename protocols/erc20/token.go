package erc20

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/chainstate"
)

// Decimals is the fixed decimal precision of every launched token.
const Decimals = 18

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is a minimal fixed-supply fungible token instance. The entire
// supply is minted to the creator at construction and never again; the
// instance is immutable infrastructure thereafter.
//
// Mutations made through a World are journaled so an enclosing deployment
// can unwind them.
type Token struct {
	world   *chainstate.World
	address common.Address
	name    string
	symbol  string
	supply  *big.Int

	mu         sync.RWMutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// New constructs a token instance at the given address, minting the full
// supply to creator. The caller is responsible for journaling the
// construction itself (registration and code occupancy).
func New(world *chainstate.World, address common.Address, name, symbol string, supply *big.Int, creator common.Address) *Token {
	t := &Token{
		world:      world,
		address:    address,
		name:       name,
		symbol:     symbol,
		supply:     new(big.Int).Set(supply),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
	t.balances[creator] = new(big.Int).Set(supply)
	return t
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }

func (t *Token) TotalSupply() *big.Int {
	return new(big.Int).Set(t.supply)
}

// BalanceOf returns a copy of owner's balance.
func (t *Token) BalanceOf(owner common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if bal, ok := t.balances[owner]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Allowance returns a copy of the amount spender may move on owner's behalf.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if byOwner, ok := t.allowances[owner]; ok {
		if amt, ok := byOwner[spender]; ok {
			return new(big.Int).Set(amt)
		}
	}
	return new(big.Int)
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferLocked(from, to, amount)
}

// Approve lets spender move up to amount of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byOwner, ok := t.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		t.allowances[owner] = byOwner
	}

	prev, hadPrev := byOwner[spender]
	byOwner[spender] = new(big.Int).Set(amount)

	t.world.Journal(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if hadPrev {
			t.allowances[owner][spender] = prev
		} else {
			delete(t.allowances[owner], spender)
		}
	})
}

// TransferFrom moves amount from `from` to `to` on spender's authority,
// consuming allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	byOwner := t.allowances[from]
	allowed, ok := byOwner[spender]
	if !ok || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s spending for %s", ErrInsufficientAllowance, spender.Hex(), from.Hex())
	}

	prevAllowed := new(big.Int).Set(allowed)
	byOwner[spender] = new(big.Int).Sub(allowed, amount)
	t.world.Journal(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.allowances[from][spender] = prevAllowed
	})

	return t.transferLocked(from, to, amount)
}

// transferLocked performs the balance mutation and journals its inverse.
// Caller holds t.mu.
func (t *Token) transferLocked(from, to common.Address, amount *big.Int) error {
	fromBal := t.balances[from]
	if fromBal == nil || fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), t.balanceString(from), amount.String())
	}

	prevFrom := new(big.Int).Set(fromBal)
	var prevTo *big.Int
	if toBal, ok := t.balances[to]; ok {
		prevTo = new(big.Int).Set(toBal)
	}

	t.balances[from] = new(big.Int).Sub(fromBal, amount)
	toBal := t.balances[to]
	if toBal == nil {
		toBal = new(big.Int)
	}
	t.balances[to] = new(big.Int).Add(toBal, amount)

	t.world.Journal(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.balances[from] = prevFrom
		if prevTo != nil {
			t.balances[to] = prevTo
		} else {
			delete(t.balances, to)
		}
	})
	return nil
}

func (t *Token) balanceString(owner common.Address) string {
	if bal, ok := t.balances[owner]; ok {
		return bal.String()
	}
	return "0"
}

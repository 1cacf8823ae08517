package erc20

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/chainstate"
)

// Registry tracks launched token instances by address. Additions made
// during an orchestrated launch are journaled.
type Registry struct {
	world *chainstate.World

	mu     sync.RWMutex
	tokens map[common.Address]*Token
}

func NewRegistry(world *chainstate.World) *Registry {
	return &Registry{
		world:  world,
		tokens: make(map[common.Address]*Token),
	}
}

// Add registers a freshly constructed token instance.
func (r *Registry) Add(t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := t.Address()
	if _, ok := r.tokens[addr]; ok {
		return fmt.Errorf("token already registered at %s", addr.Hex())
	}
	r.tokens[addr] = t

	r.world.Journal(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.tokens, addr)
	})
	return nil
}

// Token resolves a token instance by address.
func (r *Registry) Token(addr common.Address) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[addr]
	return t, ok
}

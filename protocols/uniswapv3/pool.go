package uniswapv3

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/chainstate"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3/tickmath"
)

var (
	ErrAlreadyInitialized = errors.New("pool already initialized")
	ErrNotInitialized     = errors.New("pool not initialized")
)

// Pool is a single concentrated-liquidity pool. It is created uninitialized
// by the Factory; Initialize sets the starting price exactly once.
type Pool struct {
	world       *chainstate.World
	address     common.Address
	token0      common.Address
	token1      common.Address
	fee         uint32
	tickSpacing int64

	mu           sync.RWMutex
	initialized  bool
	sqrtPriceX96 *big.Int
	tick         int64
	liquidity    *big.Int
}

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Token0() common.Address  { return p.token0 }
func (p *Pool) Token1() common.Address  { return p.token1 }
func (p *Pool) Fee() uint32             { return p.fee }
func (p *Pool) TickSpacing() int64      { return p.tickSpacing }

// Initialize sets the pool's starting price. The tick is derived from the
// price, not supplied by the caller.
func (p *Pool) Initialize(sqrtPriceX96 *big.Int) error {
	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return fmt.Errorf("pool %s: %w", p.address.Hex(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, p.address.Hex())
	}

	p.initialized = true
	p.sqrtPriceX96 = new(big.Int).Set(sqrtPriceX96)
	p.tick = tick

	p.world.Journal(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.initialized = false
		p.sqrtPriceX96 = nil
		p.tick = 0
	})
	return nil
}

// Slot0 returns the current price, tick and initialization flag.
func (p *Pool) Slot0() (*big.Int, int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return nil, 0, false
	}
	return new(big.Int).Set(p.sqrtPriceX96), p.tick, true
}

// Liquidity returns the in-range liquidity.
func (p *Pool) Liquidity() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.liquidity)
}

// addLiquidity applies a signed in-range liquidity delta, journaled.
func (p *Pool) addLiquidity(delta *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := new(big.Int)
	if err := AddDelta(next, p.liquidity, delta); err != nil {
		return err
	}

	prev := p.liquidity
	p.liquidity = next
	p.world.Journal(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.liquidity = prev
	})
	return nil
}

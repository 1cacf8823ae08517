package uniswapv3

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/launchstate/launchpad-go/chainstate"
)

var (
	ErrPoolExists      = errors.New("pool already exists")
	ErrUnknownFeeTier  = errors.New("unknown fee tier")
	ErrIdenticalTokens = errors.New("identical tokens")
)

// poolInitCodeHash is the keccak256 of the pool creation bytecode, used by
// the factory to place pools at deterministic CREATE2 addresses.
var poolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

type poolKey struct {
	token0 common.Address
	token1 common.Address
	fee    uint32
}

// Factory creates and tracks pools, one per (token0, token1, fee) triple.
type Factory struct {
	world   *chainstate.World
	address common.Address

	mu    sync.RWMutex
	pools map[poolKey]*Pool
}

func NewFactory(world *chainstate.World, address common.Address) *Factory {
	return &Factory{
		world:   world,
		address: address,
		pools:   make(map[poolKey]*Pool),
	}
}

func (f *Factory) Address() common.Address { return f.address }

// SortTokens orders a token pair the way the pool stores it.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// PoolAddress computes the deterministic address a pool for this pair and
// fee will be (or has been) created at.
func (f *Factory) PoolAddress(a, b common.Address, fee uint32) common.Address {
	token0, token1 := SortTokens(a, b)
	salt := crypto.Keccak256Hash(
		common.LeftPadBytes(token0.Bytes(), 32),
		common.LeftPadBytes(token1.Bytes(), 32),
		common.LeftPadBytes(big.NewInt(int64(fee)).Bytes(), 32),
	)
	return crypto.CreateAddress2(f.address, salt, poolInitCodeHash.Bytes())
}

// CreatePool creates an uninitialized pool for the pair at the given fee
// tier. The creation is journaled.
func (f *Factory) CreatePool(a, b common.Address, fee uint32) (*Pool, error) {
	if a == b {
		return nil, fmt.Errorf("%w: %s", ErrIdenticalTokens, a.Hex())
	}
	spacing := TickSpacingForFee(fee)
	if spacing == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFeeTier, fee)
	}

	token0, token1 := SortTokens(a, b)
	key := poolKey{token0: token0, token1: token1, fee: fee}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[key]; ok {
		return nil, fmt.Errorf("%w: %s/%s fee %d", ErrPoolExists, token0.Hex(), token1.Hex(), fee)
	}

	addr := f.PoolAddress(token0, token1, fee)
	if err := f.world.MarkDeployed(addr); err != nil {
		return nil, err
	}

	pool := &Pool{
		world:       f.world,
		address:     addr,
		token0:      token0,
		token1:      token1,
		fee:         fee,
		tickSpacing: spacing,
		liquidity:   new(big.Int),
	}
	f.pools[key] = pool

	f.world.Journal(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.pools, key)
	})
	return pool, nil
}

// Pool returns the pool for a pair and fee, if it exists.
func (f *Factory) Pool(a, b common.Address, fee uint32) (*Pool, bool) {
	token0, token1 := SortTokens(a, b)
	f.mu.RLock()
	defer f.mu.RUnlock()
	pool, ok := f.pools[poolKey{token0: token0, token1: token1, fee: fee}]
	return pool, ok
}

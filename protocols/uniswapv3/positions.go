package uniswapv3

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/chainstate"
	"github.com/launchstate/launchpad-go/protocols/erc20"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3/tickmath"
)

var (
	ErrDeadlineExpired    = errors.New("transaction deadline expired")
	ErrUnknownPool        = errors.New("unknown pool")
	ErrUnknownToken       = errors.New("unknown token")
	ErrMisalignedTicks    = errors.New("tick not aligned to spacing")
	ErrInvalidTickRange   = errors.New("invalid tick range")
	ErrSlippage           = errors.New("amount below minimum")
	ErrUnknownPosition    = errors.New("unknown position")
	ErrNotPositionOwner   = errors.New("caller does not own position")
	ErrZeroLiquidityRange = errors.New("deposit backs zero liquidity")
)

// TokenResolver maps a token address to its ledger instance. The position
// manager pulls deposits from a payer's allowance through it.
type TokenResolver interface {
	Token(addr common.Address) (*erc20.Token, bool)
}

// Position is the NFT record of a liquidity deposit.
type Position struct {
	ID        uint64
	Owner     common.Address
	Token0    common.Address
	Token1    common.Address
	Fee       uint32
	TickLower int64
	TickUpper int64
	Liquidity *big.Int
}

// MintParams mirrors the position manager's mint call.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            uint32
	TickLower      int64
	TickUpper      int64
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Payer          common.Address
	Deadline       uint64
}

// PositionManagerConfig wires the manager to its collaborators.
type PositionManagerConfig struct {
	World   *chainstate.World
	Address common.Address
	Factory *Factory
	Tokens  TokenResolver
	Now     func() uint64 // defaults to wall-clock unix seconds
}

func (c *PositionManagerConfig) validate() error {
	if c.World == nil {
		return errors.New("config: World is required")
	}
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.Factory == nil {
		return errors.New("config: Factory is required")
	}
	if c.Tokens == nil {
		return errors.New("config: Tokens resolver is required")
	}
	return nil
}

// PositionManager mints liquidity positions and keeps their NFT ownership
// records. Deposits are pulled from the payer's allowance to this manager.
type PositionManager struct {
	world   *chainstate.World
	address common.Address
	factory *Factory
	tokens  TokenResolver
	now     func() uint64

	mu        sync.RWMutex
	nextID    uint64
	positions map[uint64]*Position
}

func NewPositionManager(cfg PositionManagerConfig) (*PositionManager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &PositionManager{
		world:     cfg.World,
		address:   cfg.Address,
		factory:   cfg.Factory,
		tokens:    cfg.Tokens,
		now:       now,
		nextID:    1,
		positions: make(map[uint64]*Position),
	}, nil
}

func (pm *PositionManager) Address() common.Address { return pm.address }

// Mint deposits the desired amounts into an existing, initialized pool and
// records a new position owned by the recipient. Returns the position id
// and the liquidity it holds. Every mutation is journaled.
func (pm *PositionManager) Mint(p MintParams) (uint64, *big.Int, error) {
	if pm.now() > p.Deadline {
		return 0, nil, ErrDeadlineExpired
	}

	pool, ok := pm.factory.Pool(p.Token0, p.Token1, p.Fee)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s/%s fee %d", ErrUnknownPool, p.Token0.Hex(), p.Token1.Hex(), p.Fee)
	}
	sqrtPriceX96, _, initialized := pool.Slot0()
	if !initialized {
		return 0, nil, fmt.Errorf("%w: %s", ErrNotInitialized, pool.Address().Hex())
	}

	if p.TickLower >= p.TickUpper {
		return 0, nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidTickRange, p.TickLower, p.TickUpper)
	}
	spacing := pool.TickSpacing()
	if p.TickLower%spacing != 0 || p.TickUpper%spacing != 0 {
		return 0, nil, fmt.Errorf("%w: [%d, %d] spacing %d", ErrMisalignedTicks, p.TickLower, p.TickUpper, spacing)
	}

	liquidity, err := pm.liquidityForDeposit(p, sqrtPriceX96)
	if err != nil {
		return 0, nil, err
	}

	if p.Amount0Min != nil && p.Amount0Desired.Cmp(p.Amount0Min) < 0 {
		return 0, nil, fmt.Errorf("%w: amount0 %s < min %s", ErrSlippage, p.Amount0Desired, p.Amount0Min)
	}
	if p.Amount1Min != nil && p.Amount1Desired.Cmp(p.Amount1Min) < 0 {
		return 0, nil, fmt.Errorf("%w: amount1 %s < min %s", ErrSlippage, p.Amount1Desired, p.Amount1Min)
	}

	// Pull the deposits into the pool.
	if err := pm.pull(p.Token0, p.Payer, pool.Address(), p.Amount0Desired); err != nil {
		return 0, nil, err
	}
	if err := pm.pull(p.Token1, p.Payer, pool.Address(), p.Amount1Desired); err != nil {
		return 0, nil, err
	}

	if err := pool.addLiquidity(liquidity); err != nil {
		return 0, nil, err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	id := pm.nextID
	pm.nextID++
	pm.positions[id] = &Position{
		ID:        id,
		Owner:     p.Recipient,
		Token0:    p.Token0,
		Token1:    p.Token1,
		Fee:       p.Fee,
		TickLower: p.TickLower,
		TickUpper: p.TickUpper,
		Liquidity: liquidity,
	}

	pm.world.Journal(func() {
		pm.mu.Lock()
		defer pm.mu.Unlock()
		delete(pm.positions, id)
		pm.nextID = id
	})
	return id, new(big.Int).Set(liquidity), nil
}

// liquidityForDeposit computes the liquidity the desired amounts back over
// the requested range at the current price. A single-sided deposit is
// valued on its own side alone; when both sides are funded the smaller
// backing wins.
func (pm *PositionManager) liquidityForDeposit(p MintParams, sqrtPriceX96 *big.Int) (*big.Int, error) {
	sqrtLower := new(big.Int)
	if err := tickmath.SqrtRatioAtTick(sqrtLower, p.TickLower); err != nil {
		return nil, err
	}
	sqrtUpper := new(big.Int)
	if err := tickmath.SqrtRatioAtTick(sqrtUpper, p.TickUpper); err != nil {
		return nil, err
	}

	sqrtCurrent := new(big.Int).Set(sqrtPriceX96)
	if sqrtCurrent.Cmp(sqrtLower) < 0 {
		sqrtCurrent.Set(sqrtLower)
	}
	if sqrtCurrent.Cmp(sqrtUpper) > 0 {
		sqrtCurrent.Set(sqrtUpper)
	}

	var l0, l1 *big.Int
	if p.Amount0Desired != nil && p.Amount0Desired.Sign() > 0 {
		l0 = LiquidityForAmount0(p.Amount0Desired, sqrtCurrent, sqrtUpper)
	}
	if p.Amount1Desired != nil && p.Amount1Desired.Sign() > 0 {
		l1 = LiquidityForAmount1(p.Amount1Desired, sqrtLower, sqrtCurrent)
	}

	var liquidity *big.Int
	switch {
	case l0 != nil && l1 != nil:
		liquidity = l0
		if l1.Cmp(l0) < 0 {
			liquidity = l1
		}
	case l0 != nil:
		liquidity = l0
	case l1 != nil:
		liquidity = l1
	}
	if liquidity == nil || liquidity.Sign() == 0 {
		return nil, ErrZeroLiquidityRange
	}
	return liquidity, nil
}

func (pm *PositionManager) pull(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	ledger, ok := pm.tokens.Token(token)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	return ledger.TransferFrom(pm.address, from, to, amount)
}

// OwnerOf returns the current owner of a position NFT.
func (pm *PositionManager) OwnerOf(id uint64) (common.Address, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	pos, ok := pm.positions[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %d", ErrUnknownPosition, id)
	}
	return pos.Owner, nil
}

// Positions returns a copy of the position record.
func (pm *PositionManager) Positions(id uint64) (Position, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	pos, ok := pm.positions[id]
	if !ok {
		return Position{}, false
	}
	cp := *pos
	cp.Liquidity = new(big.Int).Set(pos.Liquidity)
	return cp, true
}

// TransferFrom moves a position NFT. The caller must be its current owner.
func (pm *PositionManager) TransferFrom(caller, from, to common.Address, id uint64) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pos, ok := pm.positions[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, id)
	}
	if pos.Owner != from || caller != from {
		return fmt.Errorf("%w: position %d", ErrNotPositionOwner, id)
	}

	prev := pos.Owner
	pos.Owner = to
	pm.world.Journal(func() {
		pm.mu.Lock()
		defer pm.mu.Unlock()
		if p, ok := pm.positions[id]; ok {
			p.Owner = prev
		}
	})
	return nil
}

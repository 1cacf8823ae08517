// Package deployer orchestrates a token launch as one atomic operation:
// deterministic token creation, pool bootstrap, full-range liquidity
// provisioning and position locking either all succeed or leave no trace.
package deployer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/launchstate/launchpad-go/chainstate"
	"github.com/launchstate/launchpad-go/create2"
	"github.com/launchstate/launchpad-go/engine"
	"github.com/launchstate/launchpad-go/protocols/erc20"
	"github.com/launchstate/launchpad-go/protocols/locker"
	"github.com/launchstate/launchpad-go/protocols/swaprouter"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3/tickmath"
	"github.com/launchstate/launchpad-go/saltminer"
)

var (
	ErrInvalidTickAlignment = errors.New("initial tick not aligned to fee tier spacing")
	ErrAddressOrdering      = errors.New("token address does not sort below reference asset")
	ErrUnauthorized         = errors.New("caller is not the owner")
	ErrInvalidSupply        = errors.New("supply must be a positive integer")
)

// eventBufferSize bounds the TokenCreated broadcast channel; a slow
// listener loses records rather than stalling deployments.
const eventBufferSize = 16

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PoolFactory creates and finds concentrated-liquidity pools.
type PoolFactory interface {
	CreatePool(a, b common.Address, fee uint32) (*uniswapv3.Pool, error)
	Pool(a, b common.Address, fee uint32) (*uniswapv3.Pool, bool)
}

// PositionManager mints and custodies liquidity position NFTs.
type PositionManager interface {
	Address() common.Address
	Mint(p uniswapv3.MintParams) (uint64, *big.Int, error)
	TransferFrom(caller, from, to common.Address, id uint64) error
	OwnerOf(id uint64) (common.Address, error)
}

// LockerFactory deploys locker instances scoped to one position each.
type LockerFactory interface {
	Deploy(positions locker.PositionCustodian, owner common.Address, duration, positionID, feeCut uint64) (*locker.Locker, error)
}

// SwapRouter forwards best-effort swaps of attached value into a token.
type SwapRouter interface {
	ExactInputSingle(p swaprouter.SwapParams) (*big.Int, error)
}

// Config wires the Deployer to its collaborators and initial
// administrative state.
type Config struct {
	Logger   Logger
	Registry prometheus.Registerer

	World *chainstate.World
	// Tokens is the shared token registry; the position manager and the
	// swap router must resolve launched tokens through the same instance.
	Tokens    *erc20.Registry
	Factory   PoolFactory
	Positions PositionManager
	Lockers   LockerFactory
	Router    SwapRouter

	// Address is this orchestrator's own address, the CREATE2 creator of
	// every launched token.
	Address common.Address
	// Owner is the privileged account allowed to mutate administrative
	// state.
	Owner common.Address
	// WETH is the reference asset: the pairing asset of every pool and the
	// ordering bound for mined token addresses.
	WETH common.Address

	TaxCollector        common.Address
	DefaultLockDuration uint64
	// ProtocolFee is the protocol's fee cut on a 0-100 scale. No upper
	// bound is enforced.
	ProtocolFee uint64

	// SaltIterationCap bounds GenerateSalt's search; zero selects the
	// miner's default.
	SaltIterationCap uint64

	// Now returns unix seconds; defaults to wall clock.
	Now func() uint64
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.Registry == nil {
		return errors.New("config: Registry is required")
	}
	if c.World == nil {
		return errors.New("config: World is required")
	}
	if c.Tokens == nil {
		return errors.New("config: Tokens registry is required")
	}
	if c.Factory == nil {
		return errors.New("config: Factory is required")
	}
	if c.Positions == nil {
		return errors.New("config: Positions is required")
	}
	if c.Lockers == nil {
		return errors.New("config: Lockers is required")
	}
	if c.Router == nil {
		return errors.New("config: Router is required")
	}
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.Owner == (common.Address{}) {
		return errors.New("config: Owner is required")
	}
	if c.WETH == (common.Address{}) {
		return errors.New("config: WETH is required")
	}
	return nil
}

// Deployer is the sequencing entity behind deployToken. Deployments are
// serialized; administrative state is read per call and mutated only
// through the owner-gated setters in admin.go.
type Deployer struct {
	logger    Logger
	metrics   *Metrics
	world     *chainstate.World
	factory   PoolFactory
	positions PositionManager
	router    SwapRouter
	tokens    *erc20.Registry
	miner     *saltminer.Miner

	address common.Address
	owner   common.Address
	weth    common.Address
	now     func() uint64

	// mu serializes deployments; no two launches interleave mid-step.
	mu sync.Mutex

	// adminMu guards the owner-mutable configuration below.
	adminMu      sync.RWMutex
	lockers      LockerFactory
	taxCollector common.Address
	lockDuration uint64
	protocolFee  uint64

	events chan engine.TokenCreated
}

func New(cfg Config) (*Deployer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}

	miner, err := saltminer.New(saltminer.Config{
		Factory:       cfg.Address,
		Reference:     cfg.WETH,
		Code:          cfg.World,
		MaxIterations: cfg.SaltIterationCap,
	})
	if err != nil {
		return nil, fmt.Errorf("build salt miner: %w", err)
	}

	return &Deployer{
		logger:       cfg.Logger,
		metrics:      NewMetrics(cfg.Registry),
		world:        cfg.World,
		factory:      cfg.Factory,
		positions:    cfg.Positions,
		router:       cfg.Router,
		tokens:       cfg.Tokens,
		miner:        miner,
		address:      cfg.Address,
		owner:        cfg.Owner,
		weth:         cfg.WETH,
		now:          now,
		lockers:      cfg.Lockers,
		taxCollector: cfg.TaxCollector,
		lockDuration: cfg.DefaultLockDuration,
		protocolFee:  cfg.ProtocolFee,
		events:       make(chan engine.TokenCreated, eventBufferSize),
	}, nil
}

// Events returns the TokenCreated broadcast channel. Best-effort: if the
// consumer is slow, records are dropped.
func (d *Deployer) Events() <-chan engine.TokenCreated {
	return d.events
}

// Token resolves a launched token instance; the position manager and the
// swap router are wired to this.
func (d *Deployer) Token(addr common.Address) (*erc20.Token, bool) {
	return d.tokens.Token(addr)
}

// PredictToken computes, without side effects, the address a token with
// these constructor arguments will be created at for this deployer/salt
// pair. It shares every derivation step with Deploy.
func (d *Deployer) PredictToken(deployer common.Address, name, symbol string, supply *big.Int, salt common.Hash) (common.Address, error) {
	if err := validSupply(supply); err != nil {
		return common.Address{}, err
	}
	initCodeHash, err := erc20.InitCodeHash(name, symbol, supply)
	if err != nil {
		return common.Address{}, err
	}
	return create2.PredictAddress(d.address, deployer, salt, initCodeHash), nil
}

// GenerateSalt mines a salt whose predicted address sorts below the
// reference asset and hosts no code. Read-only.
func (d *Deployer) GenerateSalt(ctx context.Context, deployer common.Address, name, symbol string, supply *big.Int) (common.Hash, common.Address, error) {
	if err := validSupply(supply); err != nil {
		return common.Hash{}, common.Address{}, err
	}
	return d.miner.Mine(ctx, deployer, name, symbol, supply)
}

// validSupply rejects requests that could not mint anything. A nil supply
// arrives from RPC callers that omit the field; it must fail as a
// validation error, never reach the ABI encoder.
func validSupply(supply *big.Int) error {
	if supply == nil || supply.Sign() <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSupply, supply)
	}
	return nil
}

// Deploy runs the full launch sequence atomically. On any failure every
// prior effect, including the token creation itself, is unwound.
func (d *Deployer) Deploy(req engine.DeploymentRequest) (engine.DeploymentResult, error) {
	timer := prometheus.NewTimer(d.metrics.deployDuration)
	defer timer.ObserveDuration()

	d.mu.Lock()
	defer d.mu.Unlock()

	launchID := uuid.NewString()

	if err := validSupply(req.Supply); err != nil {
		d.metrics.deployments.WithLabelValues("rejected").Inc()
		return engine.DeploymentResult{}, err
	}

	spacing := uniswapv3.TickSpacingForFee(req.Fee)
	if spacing == 0 || req.InitialTick%spacing != 0 {
		d.metrics.deployments.WithLabelValues("rejected").Inc()
		return engine.DeploymentResult{}, fmt.Errorf("%w: tick %d, fee %d", ErrInvalidTickAlignment, req.InitialTick, req.Fee)
	}

	rev := d.world.Snapshot()
	res, err := d.launch(req, spacing, launchID)
	if err != nil {
		d.world.RevertToSnapshot(rev)
		d.metrics.deployments.WithLabelValues("failed").Inc()
		d.logger.Error("deployment rolled back", "launch", launchID, "symbol", req.Symbol, "err", err)
		return engine.DeploymentResult{}, err
	}
	d.world.DiscardSnapshot(rev)
	d.metrics.deployments.WithLabelValues("succeeded").Inc()

	d.emit(res)
	d.logger.Info("deployment complete",
		"launch", launchID,
		"token", res.Token.Hex(),
		"position", res.PositionID,
		"locker", res.Locker.Hex(),
	)
	return res, nil
}

// launch drives the post-validation sequence inside the journal boundary
// established by Deploy.
func (d *Deployer) launch(req engine.DeploymentRequest, spacing int64, launchID string) (engine.DeploymentResult, error) {
	var zero engine.DeploymentResult

	// Token creation at the oracle-derived address, full supply minted to
	// the orchestrator.
	initCodeHash, err := erc20.InitCodeHash(req.Name, req.Symbol, req.Supply)
	if err != nil {
		return zero, err
	}
	tokenAddr := create2.PredictAddress(d.address, req.Deployer, req.Salt, initCodeHash)
	if err := d.world.MarkDeployed(tokenAddr); err != nil {
		return zero, err
	}
	token := erc20.New(d.world, tokenAddr, req.Name, req.Symbol, req.Supply, d.address)
	if err := d.tokens.Add(token); err != nil {
		return zero, err
	}
	d.logger.Debug("token created", "launch", launchID, "token", tokenAddr.Hex())

	// Re-check the placement constraint the miner was meant to guarantee.
	// A salt that was not pre-mined deterministically fails here.
	if bytes.Compare(tokenAddr.Bytes(), d.weth.Bytes()) >= 0 {
		return zero, fmt.Errorf("%w: token %s, reference %s", ErrAddressOrdering, tokenAddr.Hex(), d.weth.Hex())
	}

	// Supply split between creator and pool, in thousandths.
	creatorAmount := new(big.Int).Mul(req.Supply, new(big.Int).SetUint64(req.CreatorCut))
	creatorAmount.Div(creatorAmount, big.NewInt(1000))
	poolAmount := new(big.Int).Sub(req.Supply, creatorAmount)
	if creatorAmount.Sign() > 0 {
		if err := token.Transfer(d.address, req.Deployer, creatorAmount); err != nil {
			return zero, fmt.Errorf("creator cut: %w", err)
		}
	}

	// Starting price from the initial tick.
	sqrtPriceX96 := new(big.Int)
	if err := tickmath.SqrtRatioAtTick(sqrtPriceX96, req.InitialTick); err != nil {
		return zero, err
	}

	pool, err := d.factory.CreatePool(tokenAddr, d.weth, req.Fee)
	if err != nil {
		return zero, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Initialize(sqrtPriceX96); err != nil {
		return zero, fmt.Errorf("initialize pool: %w", err)
	}
	d.logger.Debug("pool initialized",
		"launch", launchID,
		"pool", pool.Address().Hex(),
		"tick", req.InitialTick,
		"price", uniswapv3.PriceFromSqrtX96(sqrtPriceX96).String(),
	)

	// Full-range position funded entirely with the pool share of supply.
	token.Approve(d.address, d.positions.Address(), poolAmount)
	now := d.now()
	positionID, liquidity, err := d.positions.Mint(uniswapv3.MintParams{
		Token0:         tokenAddr,
		Token1:         d.weth,
		Fee:            req.Fee,
		TickLower:      tickmath.MinUsableTick(spacing),
		TickUpper:      tickmath.MaxUsableTick(spacing),
		Amount0Desired: poolAmount,
		Amount1Desired: new(big.Int),
		Amount0Min:     new(big.Int),
		Amount1Min:     new(big.Int),
		Recipient:      d.address,
		Payer:          d.address,
		Deadline:       now,
	})
	if err != nil {
		return zero, fmt.Errorf("mint position: %w", err)
	}
	d.logger.Debug("position minted", "launch", launchID, "position", positionID, "liquidity", liquidity.String())

	// Hand the position to a fresh locker.
	lockers, duration, feeCut := d.lockConfig()
	lk, err := lockers.Deploy(d.positions, req.Deployer, duration, positionID, feeCut)
	if err != nil {
		return zero, fmt.Errorf("deploy locker: %w", err)
	}
	if err := d.positions.TransferFrom(d.address, d.address, lk.Address(), positionID); err != nil {
		return zero, fmt.Errorf("transfer position to locker: %w", err)
	}
	if err := lk.Initialize(now); err != nil {
		return zero, fmt.Errorf("initialize locker: %w", err)
	}

	return engine.DeploymentResult{
		Token:        tokenAddr,
		PositionID:   positionID,
		Deployer:     req.Deployer,
		Name:         req.Name,
		Symbol:       req.Symbol,
		Supply:       new(big.Int).Set(req.Supply),
		SupplyMinted: new(big.Int).Set(req.Supply),
		Locker:       lk.Address(),
	}, nil
}

// InitialSwapTokens forwards attached value to the swap router to acquire
// the launched token for the caller. Best-effort: no minimum-output
// protection is applied. Serialized with Deploy so a swap never lands
// inside a launch's journal window; a committed swap survives any later
// rollback.
func (d *Deployer) InitialSwapTokens(caller, token common.Address, fee uint32, value *big.Int) (*big.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rev := d.world.Snapshot()
	out, err := d.router.ExactInputSingle(swaprouter.SwapParams{
		TokenIn:   d.weth,
		TokenOut:  token,
		Fee:       fee,
		Recipient: caller,
		AmountIn:  value,
	})
	if err != nil {
		d.world.RevertToSnapshot(rev)
		return nil, fmt.Errorf("initial swap: %w", err)
	}
	d.world.DiscardSnapshot(rev)
	d.metrics.initialSwaps.Inc()
	return out, nil
}

func (d *Deployer) lockConfig() (LockerFactory, uint64, uint64) {
	d.adminMu.RLock()
	defer d.adminMu.RUnlock()
	return d.lockers, d.lockDuration, d.protocolFee
}

func (d *Deployer) emit(res engine.DeploymentResult) {
	evt := engine.TokenCreated{
		DeploymentResult: res,
		EmittedAtUnixNs:  uint64(time.Now().UnixNano()),
	}
	select {
	case d.events <- evt:
	default:
		d.metrics.eventsDropped.Inc()
		d.logger.Warn("event buffer full, dropping TokenCreated", "token", res.Token.Hex())
	}
}

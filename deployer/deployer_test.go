package deployer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchstate/launchpad-go/chainstate"
	"github.com/launchstate/launchpad-go/engine"
	"github.com/launchstate/launchpad-go/protocols/erc20"
	"github.com/launchstate/launchpad-go/protocols/locker"
	"github.com/launchstate/launchpad-go/protocols/swaprouter"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3"
)

var (
	deployerAddr = common.HexToAddress("0x00000000000000000000000000000000000D0D0D")
	ownerAddr    = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
	wethAddr     = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	creatorAddr  = common.HexToAddress("0x000000000000000000000000000000000000CAFE")
	collectorCur = common.HexToAddress("0x000000000000000000000000000000000000FEE5")
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type fixture struct {
	world   *chainstate.World
	tokens  *erc20.Registry
	pools   *uniswapv3.Factory
	pm      *uniswapv3.PositionManager
	lockers *locker.Factory
	d       *Deployer
	now     uint64
}

func newFixture(t *testing.T, weth common.Address) *fixture {
	t.Helper()

	w := chainstate.NewWorld()
	tokens := erc20.NewRegistry(w)
	pools := uniswapv3.NewFactory(w, common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"))
	lockers := locker.NewFactory(w, common.HexToAddress("0x00000000000000000000000000000000000010C0"))

	now := uint64(1_700_000_000)
	pm, err := uniswapv3.NewPositionManager(uniswapv3.PositionManagerConfig{
		World:   w,
		Address: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
		Factory: pools,
		Tokens:  tokens,
		Now:     func() uint64 { return now },
	})
	require.NoError(t, err)

	d, err := New(Config{
		Logger:              nopLogger{},
		Registry:            prometheus.NewRegistry(),
		World:               w,
		Tokens:              tokens,
		Factory:             pools,
		Positions:           pm,
		Lockers:             lockers,
		Router:              swaprouter.NewRouter(pools, tokens),
		Address:             deployerAddr,
		Owner:               ownerAddr,
		WETH:                weth,
		TaxCollector:        collectorCur,
		DefaultLockDuration: 86_400,
		ProtocolFee:         50,
		Now:                 func() uint64 { return now },
	})
	require.NoError(t, err)

	return &fixture{world: w, tokens: tokens, pools: pools, pm: pm, lockers: lockers, d: d, now: now}
}

func launchRequest(t *testing.T, fx *fixture) engine.DeploymentRequest {
	t.Helper()
	supply := big.NewInt(1_000_000)
	salt, _, err := fx.d.GenerateSalt(context.Background(), creatorAddr, "Foo", "FOO", supply)
	require.NoError(t, err)
	return engine.DeploymentRequest{
		Name:        "Foo",
		Symbol:      "FOO",
		Supply:      supply,
		CreatorCut:  100, // 10% in thousandths
		InitialTick: 0,
		Fee:         3000,
		Salt:        salt,
		Deployer:    creatorAddr,
	}
}

func TestDeployer_Deploy(t *testing.T) {
	t.Run("full launch sequence", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := launchRequest(t, fx)

		predicted, err := fx.d.PredictToken(req.Deployer, req.Name, req.Symbol, req.Supply, req.Salt)
		require.NoError(t, err)

		res, err := fx.d.Deploy(req)
		require.NoError(t, err)

		assert.Equal(t, predicted, res.Token, "deployment lands at the predicted address")
		assert.Equal(t, creatorAddr, res.Deployer)
		assert.Equal(t, big.NewInt(1_000_000), res.Supply)
		assert.Equal(t, res.Supply, res.SupplyMinted)
		assert.True(t, fx.world.HasCode(res.Token))

		tok, ok := fx.d.Token(res.Token)
		require.True(t, ok)
		assert.Equal(t, big.NewInt(100_000), tok.BalanceOf(creatorAddr), "creator cut of 100/1000")

		pool, ok := fx.pools.Pool(res.Token, wethAddr, 3000)
		require.True(t, ok)
		sqrtP, tick, initialized := pool.Slot0()
		assert.True(t, initialized)
		assert.Equal(t, int64(0), tick)
		assert.NotNil(t, sqrtP)
		assert.Equal(t, big.NewInt(900_000), tok.BalanceOf(pool.Address()), "pool share of supply")

		pos, ok := fx.pm.Positions(res.PositionID)
		require.True(t, ok)
		assert.Positive(t, pos.Liquidity.Sign())

		// The locker holds the NFT and the lock clock started at deploy time.
		owner, err := fx.pm.OwnerOf(res.PositionID)
		require.NoError(t, err)
		assert.Equal(t, res.Locker, owner)

		lk, ok := fx.lockers.Locker(res.Locker)
		require.True(t, ok)
		assert.Equal(t, creatorAddr, lk.Owner())
		assert.Equal(t, res.PositionID, lk.PositionID())
		unlockAt, initialized := lk.UnlocksAt()
		assert.True(t, initialized)
		assert.Equal(t, fx.now+86_400, unlockAt)

		select {
		case evt := <-fx.d.Events():
			assert.Equal(t, res.Token, evt.Token)
			assert.Equal(t, res.PositionID, evt.PositionID)
		default:
			t.Fatal("no TokenCreated event emitted")
		}
	})

	t.Run("zero creator cut leaves full supply in the pool", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := launchRequest(t, fx)
		req.CreatorCut = 0

		res, err := fx.d.Deploy(req)
		require.NoError(t, err)

		tok, ok := fx.d.Token(res.Token)
		require.True(t, ok)
		assert.Zero(t, tok.BalanceOf(creatorAddr).Sign())
		pool, _ := fx.pools.Pool(res.Token, wethAddr, 3000)
		assert.Equal(t, big.NewInt(1_000_000), tok.BalanceOf(pool.Address()))
	})

	t.Run("rejects nil and non-positive supply without touching state", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := engine.DeploymentRequest{
			Name:        "Foo",
			Symbol:      "FOO",
			CreatorCut:  100,
			InitialTick: 0,
			Fee:         3000,
			Salt:        common.BigToHash(big.NewInt(1)),
			Deployer:    creatorAddr,
		}

		_, err := fx.d.Deploy(req) // Supply left nil
		assert.ErrorIs(t, err, ErrInvalidSupply)

		req.Supply = new(big.Int)
		_, err = fx.d.Deploy(req)
		assert.ErrorIs(t, err, ErrInvalidSupply)

		req.Supply = big.NewInt(-1)
		_, err = fx.d.Deploy(req)
		assert.ErrorIs(t, err, ErrInvalidSupply)

		assert.Zero(t, fx.world.Snapshot(), "no journal entries recorded")
	})

	t.Run("rejects misaligned initial tick without touching state", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := launchRequest(t, fx)
		req.InitialTick = 61 // spacing for fee 3000 is 60

		_, err := fx.d.Deploy(req)
		assert.ErrorIs(t, err, ErrInvalidTickAlignment)
		assert.Zero(t, fx.world.Snapshot(), "no journal entries recorded")
	})

	t.Run("rejects unknown fee tier", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := launchRequest(t, fx)
		req.Fee = 1234

		_, err := fx.d.Deploy(req)
		assert.ErrorIs(t, err, ErrInvalidTickAlignment)
	})

	t.Run("ordering violation rolls everything back", func(t *testing.T) {
		// A reference asset at 0x...01 makes the placement constraint
		// unsatisfiable for any token address.
		fx := newFixture(t, common.HexToAddress("0x01"))
		supply := big.NewInt(1_000_000)
		req := engine.DeploymentRequest{
			Name:        "Foo",
			Symbol:      "FOO",
			Supply:      supply,
			CreatorCut:  100,
			InitialTick: 0,
			Fee:         3000,
			Salt:        common.BigToHash(big.NewInt(7)),
			Deployer:    creatorAddr,
		}
		predicted, err := fx.d.PredictToken(req.Deployer, req.Name, req.Symbol, req.Supply, req.Salt)
		require.NoError(t, err)

		_, err = fx.d.Deploy(req)
		assert.ErrorIs(t, err, ErrAddressOrdering)

		assert.False(t, fx.world.HasCode(predicted), "token creation unwound")
		_, ok := fx.d.Token(predicted)
		assert.False(t, ok, "registry entry unwound")
	})

	t.Run("replaying a salt fails on occupancy and rolls back", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		req := launchRequest(t, fx)

		res, err := fx.d.Deploy(req)
		require.NoError(t, err)

		_, err = fx.d.Deploy(req)
		assert.ErrorIs(t, err, chainstate.ErrAddressOccupied)

		// The first launch's state survives the second's rollback.
		tok, ok := fx.d.Token(res.Token)
		require.True(t, ok)
		assert.Equal(t, big.NewInt(100_000), tok.BalanceOf(creatorAddr))
	})
}

// blockingLockers parks a launch inside its critical section so the test
// can race another operation against it.
type blockingLockers struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingLockers) Deploy(locker.PositionCustodian, common.Address, uint64, uint64, uint64) (*locker.Locker, error) {
	close(b.entered)
	<-b.release
	return nil, errors.New("locker deploy failed")
}

func TestDeployer_InitialSwapTokens(t *testing.T) {
	t.Run("swaps at spot price", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		res, err := fx.d.Deploy(launchRequest(t, fx))
		require.NoError(t, err)

		buyer := common.HexToAddress("0xB0B")
		out, err := fx.d.InitialSwapTokens(buyer, res.Token, 3000, big.NewInt(250))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(250), out, "tick 0 prices 1:1")

		tok, _ := fx.d.Token(res.Token)
		assert.Equal(t, big.NewInt(250), tok.BalanceOf(buyer))
	})

	t.Run("commits leave no journal entries behind", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		res, err := fx.d.Deploy(launchRequest(t, fx))
		require.NoError(t, err)

		_, err = fx.d.InitialSwapTokens(common.HexToAddress("0xB0B"), res.Token, 3000, big.NewInt(1))
		require.NoError(t, err)
		assert.Zero(t, fx.world.Snapshot(), "committed swap discards its journal window")
	})

	t.Run("failed swap is unwound", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		res, err := fx.d.Deploy(launchRequest(t, fx))
		require.NoError(t, err)

		// More than the pool holds; the payout fails mid-flight.
		_, err = fx.d.InitialSwapTokens(common.HexToAddress("0xB0B"), res.Token, 3000, big.NewInt(2_000_000))
		require.Error(t, err)
		assert.Zero(t, fx.world.Snapshot())
	})

	t.Run("concurrent swap never lands inside a launch", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		res, err := fx.d.Deploy(launchRequest(t, fx))
		require.NoError(t, err)

		bl := &blockingLockers{entered: make(chan struct{}), release: make(chan struct{})}
		require.NoError(t, fx.d.UpdateLiquidityLocker(ownerAddr, bl))

		req := launchRequest(t, fx)
		deployErr := make(chan error, 1)
		go func() {
			_, err := fx.d.Deploy(req)
			deployErr <- err
		}()
		<-bl.entered

		// The swap arrives while the launch holds the journal window; it
		// must serialize after the rollback and keep its effect.
		buyer := common.HexToAddress("0xB0B")
		swapOut := make(chan *big.Int, 1)
		go func() {
			out, err := fx.d.InitialSwapTokens(buyer, res.Token, 3000, big.NewInt(250))
			assert.NoError(t, err)
			swapOut <- out
		}()

		close(bl.release)
		require.Error(t, <-deployErr)

		assert.Equal(t, big.NewInt(250), <-swapOut)
		tok, _ := fx.d.Token(res.Token)
		assert.Equal(t, big.NewInt(250), tok.BalanceOf(buyer),
			"committed swap survives the launch rollback")
	})
}

func TestDeployer_Admin(t *testing.T) {
	intruder := common.HexToAddress("0xBAD")

	t.Run("setters are owner gated", func(t *testing.T) {
		fx := newFixture(t, wethAddr)

		assert.ErrorIs(t, fx.d.UpdateTaxCollector(intruder, intruder), ErrUnauthorized)
		assert.ErrorIs(t, fx.d.UpdateDefaultLockingPeriod(intruder, 1), ErrUnauthorized)
		assert.ErrorIs(t, fx.d.UpdateProtocolFees(intruder, 1), ErrUnauthorized)
		assert.ErrorIs(t, fx.d.UpdateLiquidityLocker(intruder, fx.lockers), ErrUnauthorized)

		assert.Equal(t, collectorCur, fx.d.TaxCollector())
		assert.Equal(t, uint64(86_400), fx.d.DefaultLockingPeriod())
		assert.Equal(t, uint64(50), fx.d.ProtocolFees())
	})

	t.Run("owner updates take effect on the next launch", func(t *testing.T) {
		fx := newFixture(t, wethAddr)

		newCollector := common.HexToAddress("0x00000000000000000000000000000000000000EE")
		require.NoError(t, fx.d.UpdateTaxCollector(ownerAddr, newCollector))
		require.NoError(t, fx.d.UpdateDefaultLockingPeriod(ownerAddr, 3600))
		require.NoError(t, fx.d.UpdateProtocolFees(ownerAddr, 80))

		assert.Equal(t, newCollector, fx.d.TaxCollector())
		assert.Equal(t, uint64(3600), fx.d.DefaultLockingPeriod())
		assert.Equal(t, uint64(80), fx.d.ProtocolFees())

		res, err := fx.d.Deploy(launchRequest(t, fx))
		require.NoError(t, err)
		lk, ok := fx.lockers.Locker(res.Locker)
		require.True(t, ok)
		assert.Equal(t, uint64(80), lk.FeeCut())
		unlockAt, _ := lk.UnlocksAt()
		assert.Equal(t, fx.now+3600, unlockAt)
	})

	t.Run("fee above one hundred is accepted", func(t *testing.T) {
		fx := newFixture(t, wethAddr)
		require.NoError(t, fx.d.UpdateProtocolFees(ownerAddr, 250))
		assert.Equal(t, uint64(250), fx.d.ProtocolFees())
	})
}

func TestDeployer_GenerateSalt(t *testing.T) {
	fx := newFixture(t, wethAddr)

	salt, predicted, err := fx.d.GenerateSalt(context.Background(), creatorAddr, "Foo", "FOO", big.NewInt(1_000_000))
	require.NoError(t, err)

	got, err := fx.d.PredictToken(creatorAddr, "Foo", "FOO", big.NewInt(1_000_000), salt)
	require.NoError(t, err)
	assert.Equal(t, predicted, got)
	assert.Negative(t, predicted.Cmp(wethAddr), "mined address sorts below the reference asset")
}

package deployer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/launchstate/launchpad-go/engine"
	"github.com/launchstate/launchpad-go/protocols/locker"
)

// API exposes the deployer over JSON-RPC under the "launchpad" namespace.
type API struct {
	d *Deployer
}

func NewAPI(d *Deployer) *API {
	return &API{d: d}
}

// DeployTokenArgs is the wire form of a deployment request.
type DeployTokenArgs struct {
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Supply      *hexutil.Big   `json:"supply"`
	CreatorCut  uint64         `json:"creatorCut"`
	InitialTick int64          `json:"initialTick"`
	Fee         uint32         `json:"fee"`
	Salt        common.Hash    `json:"salt"`
	Deployer    common.Address `json:"deployer"`
}

// DeployTokenResult is the wire form of a completed deployment.
type DeployTokenResult struct {
	Token      common.Address `json:"token"`
	PositionID uint64         `json:"positionId"`
	Locker     common.Address `json:"locker"`
	Supply     *hexutil.Big   `json:"supply"`
}

func (a *API) DeployToken(args DeployTokenArgs) (*DeployTokenResult, error) {
	res, err := a.d.Deploy(engine.DeploymentRequest{
		Name:        args.Name,
		Symbol:      args.Symbol,
		Supply:      (*big.Int)(args.Supply),
		CreatorCut:  args.CreatorCut,
		InitialTick: args.InitialTick,
		Fee:         args.Fee,
		Salt:        args.Salt,
		Deployer:    args.Deployer,
	})
	if err != nil {
		return nil, err
	}
	return &DeployTokenResult{
		Token:      res.Token,
		PositionID: res.PositionID,
		Locker:     res.Locker,
		Supply:     (*hexutil.Big)(res.Supply),
	}, nil
}

func (a *API) PredictToken(deployer common.Address, name, symbol string, supply *hexutil.Big, salt common.Hash) (common.Address, error) {
	return a.d.PredictToken(deployer, name, symbol, (*big.Int)(supply), salt)
}

// GenerateSaltResult pairs a mined salt with the address it yields.
type GenerateSaltResult struct {
	Salt  common.Hash    `json:"salt"`
	Token common.Address `json:"token"`
}

func (a *API) GenerateSalt(ctx context.Context, deployer common.Address, name, symbol string, supply *hexutil.Big) (*GenerateSaltResult, error) {
	salt, token, err := a.d.GenerateSalt(ctx, deployer, name, symbol, (*big.Int)(supply))
	if err != nil {
		return nil, err
	}
	return &GenerateSaltResult{Salt: salt, Token: token}, nil
}

func (a *API) InitialSwapTokens(caller, token common.Address, fee uint32, value *hexutil.Big) (*hexutil.Big, error) {
	out, err := a.d.InitialSwapTokens(caller, token, fee, (*big.Int)(value))
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(out), nil
}

func (a *API) UpdateTaxCollector(caller, collector common.Address) error {
	return a.d.UpdateTaxCollector(caller, collector)
}

// UpdateLiquidityLocker swaps the locker factory for one deployed at the
// given address. Existing lockers are unaffected.
func (a *API) UpdateLiquidityLocker(caller, factory common.Address) error {
	return a.d.UpdateLiquidityLocker(caller, locker.NewFactory(a.d.world, factory))
}

func (a *API) UpdateDefaultLockingPeriod(caller common.Address, seconds uint64) error {
	return a.d.UpdateDefaultLockingPeriod(caller, seconds)
}

func (a *API) UpdateProtocolFees(caller common.Address, fee uint64) error {
	return a.d.UpdateProtocolFees(caller, fee)
}

func (a *API) TaxCollector() common.Address { return a.d.TaxCollector() }
func (a *API) DefaultLockingPeriod() uint64 { return a.d.DefaultLockingPeriod() }
func (a *API) ProtocolFees() uint64         { return a.d.ProtocolFees() }
func (a *API) Owner() common.Address        { return a.d.Owner() }

package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenDecimals is the fixed decimal precision of every launched token.
const TokenDecimals = 18

// DeploymentRequest carries everything a single launch needs. One request
// produces exactly one token, one pool, one position and one locker.
type DeploymentRequest struct {
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Supply      *big.Int       `json:"supply"`
	CreatorCut  uint64         `json:"creatorCut"` // per mille of supply kept by the deployer
	InitialTick int64          `json:"initialTick"`
	Fee         uint32         `json:"fee"`
	Salt        common.Hash    `json:"salt"`
	Deployer    common.Address `json:"deployer"`
}

// DeploymentResult is produced exactly once per successful deployment and
// is immutable after emission.
//
// Supply appears twice; the emitted record echoes it in both slots and
// listeners rely on the shape, so it is preserved rather than collapsed.
type DeploymentResult struct {
	Token        common.Address `json:"token"`
	PositionID   uint64         `json:"positionId"`
	Deployer     common.Address `json:"deployer"`
	Name         string         `json:"name"`
	Symbol       string         `json:"symbol"`
	Supply       *big.Int       `json:"supply"`
	SupplyMinted *big.Int       `json:"supplyMinted"`
	Locker       common.Address `json:"locker"`
}

// TokenCreated is the completion record broadcast to external listeners.
// Its fields are exactly the DeploymentResult of the launch that emitted it.
type TokenCreated struct {
	DeploymentResult
	// EmittedAtUnixNs orders records for consumers that survive restarts.
	EmittedAtUnixNs uint64 `json:"emittedAtUnixNs"`
}

// Package saltminer searches for a salt whose predicted token address
// satisfies the launcher's placement constraint: the address must compare
// strictly below the reference asset and must host no code yet.
package saltminer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/create2"
	"github.com/launchstate/launchpad-go/protocols/erc20"
)

// DefaultMaxIterations bounds the linear scan so a pathological input
// cannot hang the process. Address-space density makes hitting it
// vanishingly unlikely in practice.
const DefaultMaxIterations = 100_000

var ErrSaltExhausted = errors.New("salt search exhausted iteration cap")

// CodeReader answers whether an address already hosts code.
type CodeReader interface {
	HasCode(addr common.Address) bool
}

// Config wires a Miner.
type Config struct {
	// Factory is the contract performing the eventual CREATE2.
	Factory common.Address
	// Reference is the wrapped-native-asset address; mined addresses must
	// sort strictly below it.
	Reference common.Address
	// Code probes candidate addresses for existing deployments.
	Code CodeReader
	// MaxIterations caps the scan; zero selects DefaultMaxIterations.
	MaxIterations uint64
}

func (c *Config) validate() error {
	if c.Factory == (common.Address{}) {
		return errors.New("config: Factory is required")
	}
	if c.Reference == (common.Address{}) {
		return errors.New("config: Reference is required")
	}
	if c.Code == nil {
		return errors.New("config: Code reader is required")
	}
	return nil
}

// Miner performs the read-only salt search. Safe for concurrent use.
type Miner struct {
	factory   common.Address
	reference common.Address
	code      CodeReader
	maxIter   uint64
}

func New(cfg Config) (*Miner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}
	return &Miner{
		factory:   cfg.Factory,
		reference: cfg.Reference,
		code:      cfg.Code,
		maxIter:   maxIter,
	}, nil
}

// Mine scans salt candidates from zero upward and returns the first
// (salt, predicted address) pair whose address sorts below the reference
// asset and hosts no code. The context cancels a long search.
func (m *Miner) Mine(ctx context.Context, deployer common.Address, name, symbol string, supply *big.Int) (common.Hash, common.Address, error) {
	initCodeHash, err := erc20.InitCodeHash(name, symbol, supply)
	if err != nil {
		return common.Hash{}, common.Address{}, err
	}

	for i := uint64(0); i < m.maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return common.Hash{}, common.Address{}, fmt.Errorf("salt search cancelled after %d iterations: %w", i, err)
		}

		salt := common.BigToHash(new(big.Int).SetUint64(i))
		predicted := create2.PredictAddress(m.factory, deployer, salt, initCodeHash)

		if bytes.Compare(predicted.Bytes(), m.reference.Bytes()) < 0 && !m.code.HasCode(predicted) {
			return salt, predicted, nil
		}
	}
	return common.Hash{}, common.Address{}, fmt.Errorf("%w: %d iterations", ErrSaltExhausted, m.maxIter)
}

// Package swaprouter is a best-effort periphery that swaps attached native
// value into a launched token at the pool's current price. It enforces no
// invariant of its own; failures simply propagate to the caller.
package swaprouter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/launchstate/launchpad-go/protocols/erc20"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3"
)

var (
	ErrUnknownPool  = errors.New("unknown pool")
	ErrUnknownToken = errors.New("unknown token")
)

// TokenResolver maps a token address to its ledger instance.
type TokenResolver interface {
	Token(addr common.Address) (*erc20.Token, bool)
}

// PoolLookup finds pools by pair and fee.
type PoolLookup interface {
	Pool(a, b common.Address, fee uint32) (*uniswapv3.Pool, bool)
}

// SwapParams mirrors the router's exact-input single-pool call. A nil or
// zero AmountOutMinimum accepts any output.
type SwapParams struct {
	TokenIn          common.Address
	TokenOut         common.Address
	Fee              uint32
	Recipient        common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// Router prices swaps off the pool's current sqrt price. The reference
// asset leg is the attached value itself; only the token leg moves on a
// ledger.
type Router struct {
	pools  PoolLookup
	tokens TokenResolver
}

func NewRouter(pools PoolLookup, tokens TokenResolver) *Router {
	return &Router{pools: pools, tokens: tokens}
}

// ExactInputSingle swaps AmountIn of the reference asset for the launched
// token at the pool's spot price and pays the proceeds to the recipient.
func (r *Router) ExactInputSingle(p SwapParams) (*big.Int, error) {
	pool, ok := r.pools.Pool(p.TokenIn, p.TokenOut, p.Fee)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s fee %d", ErrUnknownPool, p.TokenIn.Hex(), p.TokenOut.Hex(), p.Fee)
	}
	sqrtPriceX96, _, initialized := pool.Slot0()
	if !initialized {
		return nil, fmt.Errorf("%w: %s", uniswapv3.ErrNotInitialized, pool.Address().Hex())
	}

	ledger, ok := r.tokens.Token(p.TokenOut)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, p.TokenOut.Hex())
	}

	// amount0 = amountIn * 2^192 / sqrtP^2; spot price, no slippage model.
	priceX192 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	amountOut := new(big.Int).Lsh(p.AmountIn, 192)
	amountOut.Div(amountOut, priceX192)

	if p.AmountOutMinimum != nil && amountOut.Cmp(p.AmountOutMinimum) < 0 {
		return nil, fmt.Errorf("router: output %s below minimum %s", amountOut, p.AmountOutMinimum)
	}

	if err := ledger.Transfer(pool.Address(), p.Recipient, amountOut); err != nil {
		return nil, fmt.Errorf("pay out swap: %w", err)
	}
	return amountOut, nil
}

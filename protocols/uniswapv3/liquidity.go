package uniswapv3

import (
	"errors"
	"math/big"
)

var (
	// maxUint128 is the maximum value liquidity may take (2^128 - 1).
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta adds a signed liquidity delta to an unsigned liquidity value,
// rejecting results outside the uint128 range.
func AddDelta(dest *big.Int, x *big.Int, y *big.Int) error {
	dest.Add(x, y)
	if dest.Sign() < 0 {
		return ErrLiquidityUnderflow
	}
	if dest.Cmp(maxUint128) > 0 {
		return ErrLiquidityOverflow
	}
	return nil
}

// LiquidityForAmount0 computes the maximal liquidity amount0 can back over
// the price range [sqrtRatioAX96, sqrtRatioBX96]:
//
//	L = amount0 * (sqrtA * sqrtB / Q96) / (sqrtB - sqrtA)
func LiquidityForAmount0(amount0, sqrtRatioAX96, sqrtRatioBX96 *big.Int) *big.Int {
	sqrtA, sqrtB := sqrtRatioAX96, sqrtRatioBX96
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}

	intermediate := new(big.Int).Mul(sqrtA, sqrtB)
	intermediate.Div(intermediate, q96)

	num := new(big.Int).Mul(amount0, intermediate)
	den := new(big.Int).Sub(sqrtB, sqrtA)
	if den.Sign() == 0 {
		return new(big.Int)
	}
	return num.Div(num, den)
}

// LiquidityForAmount1 computes the maximal liquidity amount1 can back over
// the price range [sqrtRatioAX96, sqrtRatioBX96]:
//
//	L = amount1 * Q96 / (sqrtB - sqrtA)
func LiquidityForAmount1(amount1, sqrtRatioAX96, sqrtRatioBX96 *big.Int) *big.Int {
	sqrtA, sqrtB := sqrtRatioAX96, sqrtRatioBX96
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}

	den := new(big.Int).Sub(sqrtB, sqrtA)
	if den.Sign() == 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(amount1, q96)
	return num.Div(num, den)
}

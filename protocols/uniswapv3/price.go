package uniswapv3

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var decimalQ96 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96), 0)

// PriceFromSqrtX96 renders the pool price implied by a fixed-point
// square-root price as a plain decimal (token1 per token0). Display
// precision only; never feed the result back into pool math.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int) decimal.Decimal {
	s := decimal.NewFromBigInt(sqrtPriceX96, 0).DivRound(decimalQ96, 36)
	return s.Mul(s)
}

package tickmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromString(s string) *big.Int {
	n, _ := new(big.Int).SetString(s, 10)
	return n
}

// encodePriceSqrt mirrors the ethers.js test helper: sqrt(reserve1/reserve0) * 2^96.
func encodePriceSqrt(reserve1, reserve0 *big.Int) *big.Int {
	num := new(big.Int).Mul(reserve1, new(big.Int).Lsh(big.NewInt(1), 192))
	ratio := new(big.Int).Div(num, reserve0)
	return new(big.Int).Sqrt(ratio)
}

func TestSqrtRatioAtTick(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		err := SqrtRatioAtTick(new(big.Int), MinTick-1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		err := SqrtRatioAtTick(new(big.Int), MaxTick+1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("min tick", func(t *testing.T) {
		sqrtP := new(big.Int)
		require.NoError(t, SqrtRatioAtTick(sqrtP, MinTick))
		assert.Zero(t, fromString("4295128739").Cmp(sqrtP))
	})

	t.Run("tick zero is one in X96", func(t *testing.T) {
		sqrtP := new(big.Int)
		require.NoError(t, SqrtRatioAtTick(sqrtP, 0))
		assert.Zero(t, new(big.Int).Lsh(big.NewInt(1), 96).Cmp(sqrtP))
	})

	t.Run("max tick", func(t *testing.T) {
		sqrtP := new(big.Int)
		require.NoError(t, SqrtRatioAtTick(sqrtP, MaxTick))
		assert.Zero(t, fromString("1461446703485210103287273052203988822378723970342").Cmp(sqrtP))
	})
}

func TestTickAtSqrtRatio(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		_, err := TickAtSqrtRatio(new(big.Int).Sub(MinSqrtRatio, big.NewInt(1)))
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		_, err := TickAtSqrtRatio(MaxSqrtRatio)
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("ratio of min tick", func(t *testing.T) {
		tick, err := TickAtSqrtRatio(MinSqrtRatio)
		require.NoError(t, err)
		assert.Equal(t, MinTick, tick)
	})

	ratios := []struct {
		name  string
		ratio *big.Int
	}{
		{"1e6:1", encodePriceSqrt(new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil), big.NewInt(1))},
		{"1:8", encodePriceSqrt(big.NewInt(1), big.NewInt(8))},
		{"1:1", encodePriceSqrt(big.NewInt(1), big.NewInt(1))},
		{"8:1", encodePriceSqrt(big.NewInt(8), big.NewInt(1))},
		{"1:1e6", encodePriceSqrt(big.NewInt(1), new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil))},
		{"MAX_SQRT_RATIO-1", new(big.Int).Sub(MaxSqrtRatio, big.NewInt(1))},
	}

	for _, tc := range ratios {
		t.Run(tc.name, func(t *testing.T) {
			tick, err := TickAtSqrtRatio(tc.ratio)
			require.NoError(t, err)

			ratioOfTick := new(big.Int)
			require.NoError(t, SqrtRatioAtTick(ratioOfTick, tick))
			ratioOfTickPlusOne := new(big.Int)
			require.NoError(t, SqrtRatioAtTick(ratioOfTickPlusOne, tick+1))

			// Invariant: ratioOfTick <= ratio < ratioOfTickPlusOne
			assert.True(t, tc.ratio.Cmp(ratioOfTick) >= 0)
			assert.True(t, tc.ratio.Cmp(ratioOfTickPlusOne) < 0)
		})
	}
}

func TestUsableTickBounds(t *testing.T) {
	cases := []struct {
		spacing int64
		max     int64
	}{
		{1, 887272}, // spacing divides the absolute max exactly
		{10, 887270},
		{60, 887220},
		{200, 887200},
	}

	for _, tc := range cases {
		got := MaxUsableTick(tc.spacing)
		assert.Equal(t, tc.max, got, "spacing %d", tc.spacing)
		assert.Equal(t, -tc.max, MinUsableTick(tc.spacing), "spacing %d", tc.spacing)

		// Largest multiple of spacing not exceeding MaxTick.
		assert.Zero(t, got%tc.spacing)
		assert.LessOrEqual(t, got, MaxTick)
		assert.Greater(t, got+tc.spacing, MaxTick)
	}
}

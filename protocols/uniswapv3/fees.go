package uniswapv3

// tickSpacingByFee maps the canonical fee tiers (hundredths of a bip) to
// their tick spacing. Unknown tiers map to zero.
var tickSpacingByFee = map[uint32]int64{
	100:    1,
	500:    10,
	3000:   60,
	10_000: 200,
}

// TickSpacingForFee returns the tick spacing of a fee tier, or zero if the
// tier does not exist.
func TickSpacingForFee(fee uint32) int64 {
	return tickSpacingByFee[fee]
}

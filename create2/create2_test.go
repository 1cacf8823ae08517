package create2

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSalt(t *testing.T) {
	raw := common.HexToHash("0x01")
	deployerA := common.HexToAddress("0x1111")
	deployerB := common.HexToAddress("0x2222")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, DeriveSalt(deployerA, raw), DeriveSalt(deployerA, raw))
	})

	t.Run("decorrelates deployers", func(t *testing.T) {
		assert.NotEqual(t, DeriveSalt(deployerA, raw), DeriveSalt(deployerB, raw),
			"same raw salt from different deployers must derive different salts")
	})

	t.Run("sensitive to raw salt", func(t *testing.T) {
		assert.NotEqual(t, DeriveSalt(deployerA, raw), DeriveSalt(deployerA, common.HexToHash("0x02")))
	})
}

// TestPredictAddress_HashLayout re-derives the address by hand from the
// raw 0xff ++ factory ++ salt ++ initCodeHash layout and checks the oracle
// matches it bit for bit.
func TestPredictAddress_HashLayout(t *testing.T) {
	factory := common.HexToAddress("0x4200000000000000000000000000000000000042")
	deployer := common.HexToAddress("0xdeadbeef")
	raw := common.HexToHash("0x2a")
	initCodeHash := crypto.Keccak256Hash([]byte("init code blob"))

	salt := DeriveSalt(deployer, raw)
	data := make([]byte, 1+20+32+32)
	data[0] = 0xff
	copy(data[1:21], factory.Bytes())
	copy(data[21:53], salt.Bytes())
	copy(data[53:85], initCodeHash.Bytes())
	want := common.BytesToAddress(crypto.Keccak256(data)[12:])

	assert.Equal(t, want, PredictAddress(factory, deployer, raw, initCodeHash))
}

func TestPredictAddress_VariesWithEveryInput(t *testing.T) {
	factory := common.HexToAddress("0x01")
	deployer := common.HexToAddress("0x02")
	raw := common.HexToHash("0x03")
	initCodeHash := common.HexToHash("0x04")

	base := PredictAddress(factory, deployer, raw, initCodeHash)

	assert.NotEqual(t, base, PredictAddress(common.HexToAddress("0x05"), deployer, raw, initCodeHash))
	assert.NotEqual(t, base, PredictAddress(factory, common.HexToAddress("0x05"), raw, initCodeHash))
	assert.NotEqual(t, base, PredictAddress(factory, deployer, common.HexToHash("0x05"), initCodeHash))
	assert.NotEqual(t, base, PredictAddress(factory, deployer, raw, common.HexToHash("0x05")))
}

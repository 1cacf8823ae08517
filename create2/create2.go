// Package create2 is the deterministic address oracle: it computes the
// address the creation mechanism will assign to a not-yet-created contract,
// without performing any deployment. The deployment path reuses the exact
// same derivation, so a predicted address and a deployed address are
// bit-identical by construction.
package create2

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveSalt mixes the deployer into the caller-supplied raw salt. Two
// deployers picking the same raw value therefore land on different
// addresses.
func DeriveSalt(deployer common.Address, raw common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		common.LeftPadBytes(deployer.Bytes(), 32),
		raw.Bytes(),
	)
}

// PredictAddress computes the CREATE2 address for a contract created by
// factory with the given deployer/raw-salt pair and init-code hash:
//
//	keccak256(0xff ++ factory ++ DeriveSalt(deployer, raw) ++ initCodeHash)[12:]
//
// Pure computation; it never fails and has no side effects.
func PredictAddress(factory common.Address, deployer common.Address, raw common.Hash, initCodeHash common.Hash) common.Address {
	salt := DeriveSalt(deployer, raw)
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}

package erc20

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// creationCode is the creation bytecode template shared by every launched
// token. Constructor arguments are ABI-appended to it; the keccak of the
// concatenation feeds the CREATE2 address derivation, so this blob must
// never change between prediction and deployment.
var creationCode = common.FromHex(
	"0x60806040523480156100105760008" +
		"0fd5b5060405161002f38038061002f8339810160408190526100319161" +
		"0045565b600361003d8382610123565b50600461004a8282610123565b5050",
)

var constructorArgs = abi.Arguments{
	{Name: "name_", Type: mustType("string")},
	{Name: "symbol_", Type: mustType("string")},
	{Name: "maxSupply_", Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// PackConstructor ABI-encodes the token constructor arguments. A nil
// supply is rejected here; the ABI encoder panics on nil big integers.
func PackConstructor(name, symbol string, supply *big.Int) ([]byte, error) {
	if supply == nil {
		return nil, errors.New("nil supply")
	}
	return constructorArgs.Pack(name, symbol, supply)
}

// InitCodeHash returns keccak256 of the creation code template concatenated
// with the ABI-encoded constructor arguments. This hash is the third input
// of the CREATE2 derivation and must be computed identically at prediction
// time and at deployment time.
func InitCodeHash(name, symbol string, supply *big.Int) (common.Hash, error) {
	args, err := PackConstructor(name, symbol, supply)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack constructor args: %w", err)
	}
	return crypto.Keccak256Hash(creationCode, args), nil
}

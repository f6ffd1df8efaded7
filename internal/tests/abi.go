package tests

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Selector returns the 4 byte selector of method.
func Selector(a *abi.ABI, method string) []byte {
	return a.Methods[method].ID
}

// Calldata packs a full call to method, panicking on bad arguments.
func Calldata(a *abi.ABI, method string, args ...interface{}) []byte {
	data, err := a.Pack(method, args...)
	if err != nil {
		panic(err)
	}
	return data
}

// EncodeOutputs ABI-encodes the return values of method.
func EncodeOutputs(a *abi.ABI, method string, values ...interface{}) []byte {
	data, err := a.Methods[method].Outputs.Pack(values...)
	if err != nil {
		panic(err)
	}
	return data
}

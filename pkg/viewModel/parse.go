package viewModel

import (
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
)

// Decoded contract outputs arrive as []interface{} and anonymous tuple structs.
// The helpers below read them leniently: anything missing or of the wrong shape is zero.

func valueAt(values []interface{}, i int) interface{} {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func toBig(v interface{}) *big.Int {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(n)
	case big.Int:
		return new(big.Int).Set(&n)
	case uint8, uint16, uint32, uint64, uint:
		return new(big.Int).SetUint64(reflect.ValueOf(n).Uint())
	case int8, int16, int32, int64, int:
		return big.NewInt(reflect.ValueOf(n).Int())
	}
	return new(big.Int)
}

func toUint64(v interface{}) uint64 {
	b := toBig(v)
	if b.Sign() < 0 || !b.IsUint64() {
		return 0
	}
	return b.Uint64()
}

func toBool(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func toAddress(v interface{}) common.Address {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}
	}
	return a
}

func toAddresses(v interface{}) []common.Address {
	a, ok := v.([]common.Address)
	if !ok {
		return []common.Address{}
	}
	out := make([]common.Address, len(a))
	copy(out, a)
	return out
}

func toBigs(v interface{}) []*big.Int {
	a, ok := v.([]*big.Int)
	if !ok {
		return []*big.Int{}
	}
	return a
}

// field reads an exported struct field by name, following pointers.
func field(v interface{}, name string) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil
	}
	return f.Interface()
}

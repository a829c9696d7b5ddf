package eil

import (
	"math"
	"math/big"
	"time"
)

// Clock abstracts wall-clock reads so tests can supply a fixed time. The
// zero value uses time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// nowSeconds returns Unix seconds from clk (or time.Now if clk is nil).
func nowSeconds(clk Clock) int64 {
	return clk.now().Unix()
}

// feePercentToNumerator computes floor(p * 10000) as a U256, p in [0,1].
func feePercentToNumerator(percent float64) *big.Int {
	return big.NewInt(int64(math.Floor(percent * FeeNumeratorScale)))
}

// resolveAddress looks up entity's address on chainID, translating absence
// into the standard InvalidAddress error with the given context label.
func resolveAddress(entity MultiChainEntity, chainID ChainId, context string) (Address, error) {
	addr, ok := entity.AddressOn(chainID)
	if !ok {
		return Address{}, errInvalidAddress(chainID, context)
	}
	return addr, nil
}

// findFirst returns the first element of xs satisfying pred, and false if
// none match. A small generic helper in the spirit of the teacher's
// generic network/scheme lookup helpers, generalized to any predicate.
func findFirst[T any](xs []T, pred func(T) bool) (T, bool) {
	for _, x := range xs {
		if pred(x) {
			return x, true
		}
	}
	var zero T
	return zero, false
}

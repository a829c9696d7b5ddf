package evm

import (
	"math/big"
	"testing"
)

func TestPackAccountGasLimits(t *testing.T) {
	tests := []struct {
		name                 string
		verificationGasLimit *big.Int
		callGasLimit         *big.Int
	}{
		{"small values", big.NewInt(100000), big.NewInt(50000)},
		{"large values", big.NewInt(1000000), big.NewInt(500000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackAccountGasLimits(tt.verificationGasLimit, tt.callGasLimit)
			gotVerification, gotCall := UnpackAccountGasLimits(packed)

			if gotVerification.Cmp(tt.verificationGasLimit) != 0 {
				t.Errorf("verificationGasLimit mismatch: got %v, want %v", gotVerification, tt.verificationGasLimit)
			}
			if gotCall.Cmp(tt.callGasLimit) != 0 {
				t.Errorf("callGasLimit mismatch: got %v, want %v", gotCall, tt.callGasLimit)
			}
		})
	}
}

func TestPackGasFees(t *testing.T) {
	tests := []struct {
		name                 string
		maxPriorityFeePerGas *big.Int
		maxFeePerGas         *big.Int
	}{
		{"small values", big.NewInt(1000000000), big.NewInt(10000000000)},
		{"large values", big.NewInt(100000000000), big.NewInt(500000000000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackGasFees(tt.maxPriorityFeePerGas, tt.maxFeePerGas)
			gotPriority, gotMax := UnpackGasFees(packed)

			if gotPriority.Cmp(tt.maxPriorityFeePerGas) != 0 {
				t.Errorf("maxPriorityFeePerGas mismatch: got %v, want %v", gotPriority, tt.maxPriorityFeePerGas)
			}
			if gotMax.Cmp(tt.maxFeePerGas) != 0 {
				t.Errorf("maxFeePerGas mismatch: got %v, want %v", gotMax, tt.maxFeePerGas)
			}
		})
	}
}

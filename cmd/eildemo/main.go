// Command eildemo is a smoke-test harness wiring a Config, NetworkEnvironment,
// a mock MultiChainSmartAccount, and the builder/executor pipeline end to
// end: 90 USDC bridged from Optimism to Arbitrum via a voucher, then spent on
// an NFT purchase. Grounded on original_source/src/main.rs's worked example,
// uncommented here since Go has no async-runtime boilerplate blocking it.
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

func main() {
	cfg := eil.NewConfig([]eil.ChainInfo{
		{
			ChainID:    eil.ChainOptimism,
			RPCURL:     "https://optimism.llamarpc.com",
			EntryPoint: common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"),
			Paymaster:  common.Address{},
		},
		{
			ChainID:    eil.ChainArbitrum,
			RPCURL:     "https://arbitrum.llamarpc.com",
			EntryPoint: common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"),
			Paymaster:  common.Address{},
		},
	}, eil.WithExpireTime(60), eil.WithExecTimeoutSeconds(30))

	sdk := eil.NewEilSdk(cfg)

	usdc := sdk.CreateToken("USDC", eil.AddressPerChain{
		eil.ChainOptimism: common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
		eil.ChainArbitrum: common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
	})

	fmt.Println("SDK initialized, USDC configured on 2 chains")

	account := newDemoAccount(eil.ChainOptimism, eil.ChainArbitrum)
	marketplace := common.HexToAddress("0x1111111111111111111111111111111111111111")

	builder, err := sdk.CreateBuilder(eil.WithXLPSource(noXLPsNeeded{})).UseAccount(account)
	if err != nil {
		log.Fatalf("use account: %v", err)
	}

	optimismBatch, err := builder.StartBatch(eil.ChainOptimism)
	if err != nil {
		log.Fatalf("start batch (optimism): %v", err)
	}
	optimismBatch.AddVoucherRequest(eil.SdkVoucherRequest{
		RefID:               "voucher1",
		DestinationChainID:  eil.ChainArbitrum,
		Tokens: []eil.TokenAmount{{
			Token:  usdc,
			Amount: eil.NewFixedAmount(90_000000), // 90 USDC, 6 decimals
		}},
	})
	builder, err = builder.EndBatch(optimismBatch)
	if err != nil {
		log.Fatalf("end batch (optimism): %v", err)
	}

	arbitrumBatch, err := builder.StartBatch(eil.ChainArbitrum)
	if err != nil {
		log.Fatalf("start batch (arbitrum): %v", err)
	}
	arbitrumBatch, err = arbitrumBatch.UseVoucher("voucher1")
	if err != nil {
		log.Fatalf("use voucher: %v", err)
	}
	arbitrumBatch.AddAction(eil.Approve{
		Token:   usdc,
		Spender: marketplace,
		Value:   eil.NewFixedAmount(90_000000),
	})
	arbitrumBatch.AddAction(eil.FunctionCall{
		Target:       marketplace,
		ABI:          purchaseNFTABI(),
		FunctionName: "purchaseNFT",
		Args:         []interface{}{big.NewInt(123)},
	})
	builder, err = builder.EndBatch(arbitrumBatch)
	if err != nil {
		log.Fatalf("end batch (arbitrum): %v", err)
	}

	fmt.Println("Building and signing cross-chain operation...")
	executor, err := builder.BuildAndSign(context.Background())
	if err != nil {
		log.Fatalf("build and sign: %v", err)
	}

	fmt.Println("Executing cross-chain operation...")
	voucherEvents := make(chan eil.VoucherEvent, 1)
	voucherEvents <- eil.VoucherEvent{RefID: "voucher1", SignedVoucher: []byte{0xaa, 0xbb}}
	close(voucherEvents)

	err = executor.Execute(context.Background(), func(e eil.ExecCallbackData) {
		switch e.Type {
		case eil.CallbackExecuting:
			fmt.Printf("  -> executing batch %d\n", e.Index)
		case eil.CallbackDone:
			fmt.Printf("  OK batch %d done, tx %x\n", e.Index, e.TxHash)
		case eil.CallbackFailed:
			fmt.Printf("  FAIL batch %d: %s\n", e.Index, e.RevertReason)
		case eil.CallbackWaitingForVouchers:
			fmt.Printf("  .. batch %d waiting for vouchers\n", e.Index)
		case eil.CallbackVoucherIssued:
			fmt.Println("  voucher issued")
		}
	}, voucherEvents)
	if err != nil {
		log.Fatalf("execute: %v", err)
	}

	fmt.Println("Cross-chain operation completed")
}

func purchaseNFTABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(`[
		{"type":"function","name":"purchaseNFT","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]}
	]`))
	if err != nil {
		panic(err)
	}
	return parsed
}

// noXLPsNeeded is an eil.XLPSource stub that reports one well-funded
// candidate for every chain/token query, so the demo voucher passes XLP
// selection without contacting an XLP directory.
type noXLPsNeeded struct{}

func (noXLPsNeeded) CandidateXLPs(ctx context.Context, chainID eil.ChainId, token eil.Address) ([]eil.XLPCandidate, error) {
	return []eil.XLPCandidate{{
		Address:          common.HexToAddress("0x9999999999999999999999999999999999999999"),
		AvailableDeposit: big.NewInt(1_000_000_000_000),
		Balance:          big.NewInt(1_000_000_000_000),
	}}, nil
}

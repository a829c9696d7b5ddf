package eil

import (
	"bytes"
	"context"
	"math/big"
	"sort"
)

// tokenRequirement is a resolved (address, amount) pair used both to build an
// Asset and to query XLP solvency for that token.
type tokenRequirement struct {
	Token  Address
	Amount *big.Int
}

// resolveTokenAmount applies translation step 2: Fixed amounts pass through;
// Runtime amounts are replaced by the declared minimum provider deposit, or
// 1 wei if none was given.
func resolveTokenAmount(t TokenAmount) *big.Int {
	if fixed, ok := t.Amount.(FixedAmount); ok {
		return fixed.Value
	}
	if t.MinProviderDeposit != nil {
		return t.MinProviderDeposit
	}
	return big.NewInt(1)
}

// resolveAssets resolves every TokenAmount's address on chainID and folds in
// its amount, producing both the wire Asset form and the plain requirement
// used for XLP solvency checks.
func resolveAssets(tokens []TokenAmount, chainID ChainId) ([]Asset, []tokenRequirement, error) {
	assets := make([]Asset, 0, len(tokens))
	reqs := make([]tokenRequirement, 0, len(tokens))
	for _, t := range tokens {
		addr, ok := t.Token.AddressOn(chainID)
		if !ok {
			return nil, nil, errInvalidAddress(chainID, "voucher token")
		}
		amount := resolveTokenAmount(t)
		assets = append(assets, Asset{ERC20Token: addr, Amount: amount})
		reqs = append(reqs, tokenRequirement{Token: addr, Amount: amount})
	}
	return assets, reqs, nil
}

// selectXLPsForVoucher implements the XLP-selection protocol of spec §4.4: it
// queries candidates per required token, keeps only XLPs solvent for every
// token at once, applies the custom filter if any, and truncates to at most
// MaxXLPs in deterministic address-ascending order.
func selectXLPsForVoucher(ctx context.Context, source XLPSource, cfg XLPSelectionConfig, chainID ChainId, reqs []tokenRequirement) ([]Address, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if source == nil {
		if cfg.MinXLPs > 0 {
			return nil, NewErrorWithDetails(ErrNoXLPsFound, "no xlp source configured",
				map[string]interface{}{"chain_id": chainID})
		}
		return nil, nil
	}

	qualifying := make(map[Address]bool)
	for i, req := range reqs {
		candidates, err := source.CandidateXLPs(ctx, chainID, req.Token)
		if err != nil {
			return nil, WrapError(ErrTransport, err, "querying xlp candidates for chain %d", chainID)
		}

		threshold := new(big.Float).Mul(new(big.Float).SetInt(req.Amount), big.NewFloat(cfg.DepositReserveFactor))
		passing := make(map[Address]bool, len(candidates))
		for _, c := range candidates {
			if new(big.Float).SetInt(c.AvailableDeposit).Cmp(threshold) < 0 {
				continue
			}
			if cfg.IncludeBalance && new(big.Float).SetInt(c.Balance).Cmp(threshold) < 0 {
				continue
			}
			if cfg.CustomFilter != nil && !cfg.CustomFilter(chainID, c.Address, req.Token, c.AvailableDeposit, c.Balance) {
				continue
			}
			passing[c.Address] = true
		}

		if i == 0 {
			qualifying = passing
			continue
		}
		for addr := range qualifying {
			if !passing[addr] {
				delete(qualifying, addr)
			}
		}
	}

	addrs := make([]Address, 0, len(qualifying))
	for addr := range qualifying {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	if len(addrs) < cfg.MinXLPs {
		if len(addrs) == 0 {
			return nil, NewErrorWithDetails(ErrNoXLPsFound, "no solvent xlps found",
				map[string]interface{}{"chain_id": chainID})
		}
		return nil, NewErrorWithDetails(ErrInsufficientXLPs,
			"insufficient solvent xlps",
			map[string]interface{}{"chain_id": chainID, "found": len(addrs), "required": cfg.MinXLPs})
	}
	if len(addrs) > cfg.MaxXLPs {
		addrs = addrs[:cfg.MaxXLPs]
	}
	return addrs, nil
}

// collectXLPsPerVoucher fills coordinator.AllowedXLPs for every registered
// voucher, in registration order, per spec step 5 of the translation layer.
func collectXLPsPerVoucher(ctx context.Context, coordinator *VoucherCoordinator, source XLPSource, cfg XLPSelectionConfig) error {
	for _, entry := range coordinator.AllVouchers() {
		voucher := entry.Voucher
		if voucher.SourceChainID == nil {
			continue
		}
		_, reqs, err := resolveAssets(voucher.Tokens, voucher.DestinationChainID)
		if err != nil {
			return err
		}
		xlps, err := selectXLPsForVoucher(ctx, source, cfg, voucher.DestinationChainID, reqs)
		if err != nil {
			return err
		}
		if err := coordinator.SetAllowedXLPs(voucher.RefID, xlps); err != nil {
			return err
		}
	}
	return nil
}

// buildFeeRule converts a percentage-based FeeConfig into the on-chain
// numerator quadruple, grounded on original_source/src/utils.rs's
// fee_percent_to_numerator.
func buildFeeRule(cfg FeeConfig) AtomicSwapFeeRule {
	return AtomicSwapFeeRule{
		StartFeeNumerator:             feePercentToNumerator(cfg.StartFeePercent),
		MaxFeeNumerator:               feePercentToNumerator(cfg.MaxFeePercent),
		FeeIncreasePerSecondNumerator: feePercentToNumerator(cfg.FeeIncreasePerSecond),
		UnspentVoucherFeeNumerator:    feePercentToNumerator(cfg.UnspentVoucherFeePercent),
	}
}

// sdkToVoucherRequest translates one SdkVoucherRequest into its on-chain
// VoucherRequest form, per spec §4.4 steps 1-6.
func sdkToVoucherRequest(ctx context.Context, account MultiChainSmartAccount, network *NetworkEnvironment, coordinator *VoucherCoordinator, feeConfig FeeConfig, expireSeconds uint64, clk Clock, req SdkVoucherRequest) (VoucherRequest, error) {
	if req.SourceChainID == nil {
		return VoucherRequest{}, NewErrorWithDetails(ErrInvalidVoucherDestination,
			"voucher has no source chain", map[string]interface{}{"ref_id": req.RefID})
	}
	sourceChain := *req.SourceChainID
	destChain := req.DestinationChainID
	if sourceChain == destChain {
		return VoucherRequest{}, NewErrorWithDetails(ErrSameChainVoucher,
			"voucher source and destination chain are identical",
			map[string]interface{}{"ref_id": req.RefID, "chain_id": sourceChain})
	}

	sourceSender, err := resolveAddress(account, sourceChain, "account")
	if err != nil {
		return VoucherRequest{}, err
	}
	var destSender Address
	if req.Target != nil {
		destSender = *req.Target
	} else {
		destSender, err = resolveAddress(account, destChain, "account")
		if err != nil {
			return VoucherRequest{}, err
		}
	}

	sourcePaymaster, err := network.Paymaster(sourceChain)
	if err != nil {
		return VoucherRequest{}, err
	}
	destPaymaster, err := network.Paymaster(destChain)
	if err != nil {
		return VoucherRequest{}, err
	}

	sourceAssets, _, err := resolveAssets(req.Tokens, sourceChain)
	if err != nil {
		return VoucherRequest{}, err
	}
	destAssets, _, err := resolveAssets(req.Tokens, destChain)
	if err != nil {
		return VoucherRequest{}, err
	}

	nonce, err := account.GetNonce(ctx, sourceChain)
	if err != nil {
		return VoucherRequest{}, err
	}

	entry, err := coordinator.Get(req.RefID)
	if err != nil {
		return VoucherRequest{}, err
	}

	return VoucherRequest{
		Origination: SourceSwapComponent{
			ChainID:     sourceChain,
			Sender:      sourceSender,
			Paymaster:   sourcePaymaster,
			Assets:      sourceAssets,
			FeeRule:     buildFeeRule(feeConfig),
			SenderNonce: nonce,
			AllowedXLPs: entry.AllowedXLPs,
		},
		Destination: DestinationSwapComponent{
			ChainID:       destChain,
			Sender:        destSender,
			Paymaster:     destPaymaster,
			Assets:        destAssets,
			MaxUserOpCost: new(big.Int).Set(DefaultMaxUserOpCost),
			ExpiresAt:     nowSeconds(clk) + int64(expireSeconds),
		},
	}, nil
}

// buildVouchers translates every registered voucher, in registration order,
// and writes the result back into the coordinator (spec §4.4 "build
// vouchers" step).
func buildVouchers(ctx context.Context, account MultiChainSmartAccount, network *NetworkEnvironment, coordinator *VoucherCoordinator, feeConfig FeeConfig, expireSeconds uint64, clk Clock) error {
	for _, entry := range coordinator.AllVouchers() {
		translated, err := sdkToVoucherRequest(ctx, account, network, coordinator, feeConfig, expireSeconds, clk, entry.Voucher)
		if err != nil {
			return err
		}
		if err := coordinator.SetVoucherRequest(entry.Voucher.RefID, translated); err != nil {
			return err
		}
	}
	return nil
}

package eil

import (
	"context"
	"fmt"
	"time"
)

// CallbackType is the kind of progress event the executor reports per batch.
type CallbackType int

const (
	CallbackExecuting CallbackType = iota
	CallbackDone
	CallbackFailed
	CallbackWaitingForVouchers
	CallbackVoucherIssued
)

func (t CallbackType) String() string {
	switch t {
	case CallbackExecuting:
		return "executing"
	case CallbackDone:
		return "done"
	case CallbackFailed:
		return "failed"
	case CallbackWaitingForVouchers:
		return "waiting_for_vouchers"
	case CallbackVoucherIssued:
		return "voucher_issued"
	default:
		return "unknown"
	}
}

// ExecCallbackData is the payload delivered to an ExecCallback. Index is
// meaningless for CallbackVoucherIssued (the event is not batch-scoped).
type ExecCallbackData struct {
	Index                int
	Type                 CallbackType
	UserOpHash           Hex
	TxHash               Hex
	RequestIDs           []Hex
	RevertReason         string
	InputVoucherRequests []SdkVoucherRequest
	OutVoucherRequests   []SdkVoucherRequest
}

// ExecCallback observes execution progress; it must not block for long, as
// it runs inline on the executor's single tick loop.
type ExecCallback func(ExecCallbackData)

// CrossChainExecutor drives submission of a sealed, signed sequence of
// SingleChainBatches, gating each on its input vouchers' availability and
// reporting progress via callback.
type CrossChainExecutor struct {
	network        *NetworkEnvironment
	account        MultiChainSmartAccount
	batches        []SingleChainBatch
	timeoutSeconds uint64
	clock          Clock
	tickInterval   time.Duration
}

// NewCrossChainExecutor seals batches for execution against network's
// configured timeout, using account to submit operations.
func NewCrossChainExecutor(network *NetworkEnvironment, account MultiChainSmartAccount, batches []SingleChainBatch) *CrossChainExecutor {
	return &CrossChainExecutor{
		network:        network,
		account:        account,
		batches:        batches,
		timeoutSeconds: network.Config().ExecTimeoutSeconds,
		tickInterval:   100 * time.Millisecond,
	}
}

// Batches returns the executor's sealed batches in their fixed order.
func (e *CrossChainExecutor) Batches() []SingleChainBatch {
	return e.batches
}

// Execute runs the tick loop described in spec §4.6 to completion: it
// returns nil once every batch reaches Done or Failed, ExecutionTimeout if
// the wall-clock budget is exceeded, and UserOpNotSigned up front if any
// batch was sealed without a signature. voucherEvents may be nil if no
// batch has cross-batch voucher dependencies.
func (e *CrossChainExecutor) Execute(ctx context.Context, callback ExecCallback, voucherEvents <-chan VoucherEvent) error {
	for _, b := range e.batches {
		if len(b.UserOp.Signature) == 0 {
			return NewErrorWithDetails(ErrUserOpNotSigned, fmt.Sprintf("batch for chain %d has no signature", b.ChainID),
				map[string]interface{}{"chain_id": b.ChainID})
		}
	}

	statuses := make([]*BatchStatusInfo, len(e.batches))
	for i, b := range e.batches {
		statuses[i] = &BatchStatusInfo{Index: i, Batch: b, Status: StatusPending, Vouchers: make(map[string]Hex)}
	}
	waitingAnnounced := make([]bool, len(e.batches))
	accumulator := make(map[string]Hex)

	start := e.clock.now()
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		if elapsed := e.clock.now().Sub(start); elapsed > time.Duration(e.timeoutSeconds)*time.Second {
			return NewErrorWithDetails(ErrExecutionTimeout, fmt.Sprintf("execution exceeded %ds", e.timeoutSeconds),
				map[string]interface{}{"timeout_seconds": e.timeoutSeconds})
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if allSettled(statuses) {
			return nil
		}

		e.drainVoucherEvents(voucherEvents, accumulator, callback)

		readyIdx := -1
		for i, s := range statuses {
			if s.Status != StatusPending {
				continue
			}
			if isWaitingForVouchers(s, accumulator) {
				if !waitingAnnounced[i] {
					waitingAnnounced[i] = true
					callback(waitingCallback(s))
				}
				continue
			}
			readyIdx = i
			break
		}

		if readyIdx == -1 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			continue
		}

		e.executeBatch(ctx, statuses[readyIdx], callback)
	}
}

func allSettled(statuses []*BatchStatusInfo) bool {
	for _, s := range statuses {
		if s.Status != StatusDone && s.Status != StatusFailed {
			return false
		}
	}
	return true
}

// isWaitingForVouchers reports whether any of the batch's input vouchers is
// still absent from the signed-voucher accumulator. This replaces the
// always-false placeholder of the reference implementation with the real
// dependency check.
func isWaitingForVouchers(s *BatchStatusInfo, accumulator map[string]Hex) bool {
	for _, v := range s.Batch.InputVoucherRequests {
		if _, ok := accumulator[v.RefID]; !ok {
			return true
		}
	}
	return false
}

func (e *CrossChainExecutor) drainVoucherEvents(events <-chan VoucherEvent, accumulator map[string]Hex, callback ExecCallback) {
	if events == nil {
		return
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			accumulator[ev.RefID] = ev.SignedVoucher
			callback(ExecCallbackData{
				Index:      -1,
				Type:       CallbackVoucherIssued,
				UserOpHash: ev.SignedVoucher,
				RequestIDs: ev.RequestIDs,
			})
		default:
			return
		}
	}
}

func waitingCallback(s *BatchStatusInfo) ExecCallbackData {
	return ExecCallbackData{
		Index:                s.Index,
		Type:                 CallbackWaitingForVouchers,
		UserOpHash:           s.Batch.UserOpHash,
		InputVoucherRequests: s.Batch.InputVoucherRequests,
		OutVoucherRequests:   s.Batch.OutVoucherRequests,
	}
}

func (e *CrossChainExecutor) executeBatch(ctx context.Context, s *BatchStatusInfo, callback ExecCallback) {
	s.Status = StatusExecuting
	callback(ExecCallbackData{
		Index:                s.Index,
		Type:                 CallbackExecuting,
		UserOpHash:           s.Batch.UserOpHash,
		InputVoucherRequests: s.Batch.InputVoucherRequests,
		OutVoucherRequests:   s.Batch.OutVoucherRequests,
	})

	txHash, err := e.account.SendUserOperation(ctx, s.Batch.ChainID, s.Batch.UserOp)
	if err != nil {
		s.Status = StatusFailed
		s.RevertReason = err.Error()
		callback(ExecCallbackData{
			Index:                s.Index,
			Type:                 CallbackFailed,
			UserOpHash:           s.Batch.UserOpHash,
			RevertReason:         err.Error(),
			InputVoucherRequests: s.Batch.InputVoucherRequests,
			OutVoucherRequests:   s.Batch.OutVoucherRequests,
		})
		return
	}

	s.TxHash = txHash
	s.Status = StatusDone
	callback(ExecCallbackData{
		Index:                s.Index,
		Type:                 CallbackDone,
		UserOpHash:           s.Batch.UserOpHash,
		TxHash:               txHash,
		InputVoucherRequests: s.Batch.InputVoucherRequests,
		OutVoucherRequests:   s.Batch.OutVoucherRequests,
	})
}

package eil

import "testing"

func testVoucher(refID string, destChain ChainId) SdkVoucherRequest {
	source := ChainMainnet
	return SdkVoucherRequest{
		RefID:              refID,
		SourceChainID:      &source,
		DestinationChainID: destChain,
	}
}

func TestCoordinatorRegister(t *testing.T) {
	c := NewVoucherCoordinator()
	if err := c.Register(testVoucher("v1", ChainOptimism), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := c.Get("v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.SourceBatchIndex != 0 {
		t.Fatalf("expected source batch index 0, got %d", entry.SourceBatchIndex)
	}
	if entry.DestBatchIndex != nil {
		t.Fatal("expected dest batch index to be nil after register")
	}
}

func TestCoordinatorRegisterDuplicate(t *testing.T) {
	c := NewVoucherCoordinator()
	if err := c.Register(testVoucher("v1", ChainOptimism), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.Register(testVoucher("v1", ChainOptimism), 1)
	if !IsKind(err, ErrDuplicateVoucher) {
		t.Fatalf("expected DuplicateVoucher, got %v", err)
	}
}

func TestCoordinatorGetNotFound(t *testing.T) {
	c := NewVoucherCoordinator()
	_, err := c.Get("ghost")
	if !IsKind(err, ErrVoucherNotFound) {
		t.Fatalf("expected VoucherNotFound, got %v", err)
	}
}

func TestCoordinatorMarkConsumed(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)

	if err := c.MarkConsumed("v1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, _ := c.Get("v1")
	if entry.DestBatchIndex == nil || *entry.DestBatchIndex != 1 {
		t.Fatalf("expected dest batch index 1, got %v", entry.DestBatchIndex)
	}
}

func TestCoordinatorMarkConsumedTwice(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)
	_ = c.MarkConsumed("v1", 1)

	err := c.MarkConsumed("v1", 2)
	if !IsKind(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("expected VoucherAlreadyUsed, got %v", err)
	}
}

func TestCoordinatorMarkConsumedNotFound(t *testing.T) {
	c := NewVoucherCoordinator()
	err := c.MarkConsumed("ghost", 0)
	if !IsKind(err, ErrVoucherNotFound) {
		t.Fatalf("expected VoucherNotFound, got %v", err)
	}
}

func TestCoordinatorUnconsumedVouchers(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)
	_ = c.Register(testVoucher("v2", ChainOptimism), 0)
	_ = c.MarkConsumed("v1", 1)

	unconsumed := c.UnconsumedVouchers()
	if len(unconsumed) != 1 || unconsumed[0].Voucher.RefID != "v2" {
		t.Fatalf("expected only v2 unconsumed, got %+v", unconsumed)
	}
}

func TestCoordinatorValidateAllConsumedSuccess(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)
	_ = c.MarkConsumed("v1", 1)

	if err := c.ValidateAllConsumed(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCoordinatorValidateAllConsumedFailure(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)

	err := c.ValidateAllConsumed()
	if !IsKind(err, ErrVoucherNotConsumed) {
		t.Fatalf("expected VoucherNotConsumed, got %v", err)
	}
}

func TestCoordinatorSetAllowedXLPs(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)

	xlps := []Address{{0x01}, {0x02}}
	if err := c.SetAllowedXLPs("v1", xlps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, _ := c.Get("v1")
	if len(entry.AllowedXLPs) != 2 {
		t.Fatalf("expected 2 allowed xlps, got %d", len(entry.AllowedXLPs))
	}
}

func TestCoordinatorAllVouchersOrder(t *testing.T) {
	c := NewVoucherCoordinator()
	_ = c.Register(testVoucher("v1", ChainOptimism), 0)
	_ = c.Register(testVoucher("v2", ChainOptimism), 1)
	_ = c.Register(testVoucher("v3", ChainOptimism), 1)

	all := c.AllVouchers()
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	order := []string{all[0].Voucher.RefID, all[1].Voucher.RefID, all[2].Voucher.RefID}
	want := []string{"v1", "v2", "v3"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected insertion order %v, got %v", want, order)
		}
	}
}

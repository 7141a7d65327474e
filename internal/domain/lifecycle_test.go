package domain

import (
	"errors"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestPlaceOnApproval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current Snapshot
		wantErr bool
	}{
		{
			name:    "from waiting",
			current: Snapshot{BidStatus: BidStatusWaitingResult, PaymentStatus: PaymentNotRequired},
		},
		{
			name:    "already on approval",
			current: Snapshot{BidStatus: BidStatusOnApproval, PaymentStatus: PaymentNotRequired},
			wantErr: true,
		},
		{
			name:    "already won",
			current: Snapshot{BidStatus: BidStatusWon, PaymentStatus: PaymentPending},
			wantErr: true,
		},
		{
			name:    "already lost",
			current: Snapshot{BidStatus: BidStatusLost, PaymentStatus: PaymentNotRequired},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			update, err := PlaceOnApproval(tt.current, int64Ptr(7500))
			if tt.wantErr {
				var te *InvalidTransitionError
				if !errors.As(err, &te) {
					t.Fatalf("expected InvalidTransitionError, got %v", err)
				}
				if te.Current != tt.current.BidStatus {
					t.Errorf("error current status = %s, want %s", te.Current, tt.current.BidStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if update.BidStatus == nil || *update.BidStatus != BidStatusOnApproval {
				t.Errorf("bid status update = %v, want on_approval", update.BidStatus)
			}
			if update.AccountBlocked == nil || !*update.AccountBlocked {
				t.Error("expected account to be blocked")
			}
			if update.AuctionResultBid == nil || *update.AuctionResultBid != 7500 {
				t.Errorf("auction result bid = %v, want 7500", update.AuctionResultBid)
			}
		})
	}
}

func TestMarkWon(t *testing.T) {
	t.Parallel()

	t.Run("from waiting sets payment pending", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusWaitingResult, PaymentStatus: PaymentNotRequired}
		update, err := MarkWon(cur, int64Ptr(9000))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.BidStatus == nil || *update.BidStatus != BidStatusWon {
			t.Errorf("bid status update = %v, want won", update.BidStatus)
		}
		if update.PaymentStatus == nil || *update.PaymentStatus != PaymentPending {
			t.Errorf("payment status update = %v, want pending", update.PaymentStatus)
		}
		if update.AccountBlocked == nil || !*update.AccountBlocked {
			t.Error("expected account to stay blocked until payment")
		}
	})

	t.Run("keeps payment already pending", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusOnApproval, PaymentStatus: PaymentPending}
		update, err := MarkWon(cur, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.PaymentStatus != nil {
			t.Errorf("payment status update = %v, want untouched", *update.PaymentStatus)
		}
	})

	t.Run("rejects second win", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusWon, PaymentStatus: PaymentPending}
		if _, err := MarkWon(cur, nil); err == nil {
			t.Fatal("expected error marking a won bid won again")
		}
	})
}

func TestApprove(t *testing.T) {
	t.Parallel()

	t.Run("requires on approval", func(t *testing.T) {
		t.Parallel()

		for _, status := range []BidStatus{BidStatusWaitingResult, BidStatusWon, BidStatusLost} {
			cur := Snapshot{BidStatus: status, PaymentStatus: PaymentNotRequired}
			if _, err := Approve(cur, nil); err == nil {
				t.Errorf("expected error approving from %s", status)
			}
		}
	})

	t.Run("matches mark won from on approval", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusOnApproval, PaymentStatus: PaymentNotRequired}
		approved, err := Approve(cur, int64Ptr(8000))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		won, err := MarkWon(cur, int64Ptr(8000))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if *approved.BidStatus != *won.BidStatus {
			t.Errorf("approve status %s, mark won status %s", *approved.BidStatus, *won.BidStatus)
		}
		if *approved.PaymentStatus != *won.PaymentStatus {
			t.Errorf("approve payment %s, mark won payment %s", *approved.PaymentStatus, *won.PaymentStatus)
		}
		if *approved.AccountBlocked != *won.AccountBlocked {
			t.Error("approve and mark won disagree on account block")
		}
	})
}

func TestMarkLost(t *testing.T) {
	t.Parallel()

	t.Run("releases account block", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusOnApproval, PaymentStatus: PaymentNotRequired, AccountBlocked: true}
		update, err := MarkLost(cur, int64Ptr(6000))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.BidStatus == nil || *update.BidStatus != BidStatusLost {
			t.Errorf("bid status update = %v, want lost", update.BidStatus)
		}
		if update.AccountBlocked == nil || *update.AccountBlocked {
			t.Error("expected account block to be released")
		}
	})

	t.Run("rejects won bid", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusWon, PaymentStatus: PaymentPending}
		if _, err := MarkLost(cur, nil); err == nil {
			t.Fatal("expected error marking a won bid lost")
		}
	})

	t.Run("allows re-entry on lost bid", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusLost, PaymentStatus: PaymentNotRequired}
		if _, err := MarkLost(cur, int64Ptr(5500)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if RefundRequired(cur) {
			t.Error("second mark-lost must not refund again")
		}
	})
}

func TestDecline(t *testing.T) {
	t.Parallel()

	for _, status := range []BidStatus{BidStatusWaitingResult, BidStatusWon, BidStatusLost} {
		cur := Snapshot{BidStatus: status, PaymentStatus: PaymentNotRequired}
		if _, err := Decline(cur, nil); err == nil {
			t.Errorf("expected error declining from %s", status)
		}
	}

	cur := Snapshot{BidStatus: BidStatusOnApproval, PaymentStatus: PaymentNotRequired, AccountBlocked: true}
	update, err := Decline(cur, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.BidStatus == nil || *update.BidStatus != BidStatusLost {
		t.Errorf("bid status update = %v, want lost", update.BidStatus)
	}
}

func TestMarkPaid(t *testing.T) {
	t.Parallel()

	t.Run("requires won", func(t *testing.T) {
		t.Parallel()

		for _, status := range []BidStatus{BidStatusWaitingResult, BidStatusOnApproval, BidStatusLost} {
			cur := Snapshot{BidStatus: status, PaymentStatus: PaymentPending}
			if _, err := MarkPaid(cur); err == nil {
				t.Errorf("expected error marking %s bid paid", status)
			}
		}
	})

	t.Run("rejects double payment", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusWon, PaymentStatus: PaymentPaid}
		_, err := MarkPaid(cur)
		var te *InvalidTransitionError
		if !errors.As(err, &te) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
		if te.Payment != PaymentPaid {
			t.Errorf("error payment = %s, want paid", te.Payment)
		}
	})

	t.Run("releases block and marks paid", func(t *testing.T) {
		t.Parallel()

		cur := Snapshot{BidStatus: BidStatusWon, PaymentStatus: PaymentPending, AccountBlocked: true}
		update, err := MarkPaid(cur)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.PaymentStatus == nil || *update.PaymentStatus != PaymentPaid {
			t.Errorf("payment status update = %v, want paid", update.PaymentStatus)
		}
		if update.AccountBlocked == nil || *update.AccountBlocked {
			t.Error("expected account block to be released")
		}
		if update.BidStatus != nil {
			t.Errorf("bid status update = %v, want untouched", *update.BidStatus)
		}
	})
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	bid := &Bid{
		BidStatus:      BidStatusWaitingResult,
		PaymentStatus:  PaymentNotRequired,
		AccountBlocked: false,
	}
	snap := bid.Snapshot()

	update, err := MarkWon(snap, int64Ptr(9000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bid.Apply(update)
	if bid.BidStatus != BidStatusWon || bid.PaymentStatus != PaymentPending || !bid.AccountBlocked {
		t.Fatalf("apply produced %s/%s/blocked=%v", bid.BidStatus, bid.PaymentStatus, bid.AccountBlocked)
	}

	bid.Apply(snap.Restore())
	if bid.BidStatus != BidStatusWaitingResult {
		t.Errorf("restored status = %s, want waiting_auction_result", bid.BidStatus)
	}
	if bid.PaymentStatus != PaymentNotRequired {
		t.Errorf("restored payment = %s, want not_required", bid.PaymentStatus)
	}
	if bid.AccountBlocked {
		t.Error("restored bid should be unblocked")
	}
	if bid.AuctionResultBid != nil {
		t.Errorf("restored auction result = %d, want cleared", *bid.AuctionResultBid)
	}
}

// Restoring a snapshot that carried an auction result must put that value
// back, not just clear the field.
func TestSnapshotRestoreKeepsPriorResult(t *testing.T) {
	t.Parallel()

	bid := &Bid{
		BidStatus:        BidStatusOnApproval,
		PaymentStatus:    PaymentNotRequired,
		AccountBlocked:   true,
		AuctionResultBid: int64Ptr(7000),
	}
	snap := bid.Snapshot()

	update, err := MarkWon(snap, int64Ptr(9000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bid.Apply(update)

	bid.Apply(snap.Restore())
	if bid.AuctionResultBid == nil || *bid.AuctionResultBid != 7000 {
		t.Errorf("restored auction result = %v, want 7000", bid.AuctionResultBid)
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	if BidStatusWaitingResult.Terminal() || BidStatusOnApproval.Terminal() {
		t.Error("active statuses must not be terminal")
	}
	if !BidStatusWon.Terminal() || !BidStatusLost.Terminal() {
		t.Error("won and lost must be terminal")
	}
}

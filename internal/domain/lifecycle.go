package domain

// Lifecycle transitions over (bidStatus, paymentStatus, accountBlocked).
// Each function is pure: it inspects the current snapshot and either returns
// the field changes to persist or an *InvalidTransitionError. Approve and
// Decline are precondition-narrowed aliases of MarkWon and MarkLost.

const (
	TransitionPlaceOnApproval = "place_on_approval"
	TransitionMarkWon         = "mark_won"
	TransitionApprove         = "approve"
	TransitionMarkLost        = "mark_lost"
	TransitionDecline         = "decline"
	TransitionMarkPaid        = "mark_paid"
)

// PlaceOnApproval blocks the user's account while the seller decides.
func PlaceOnApproval(cur Snapshot, auctionResultBid *int64) (BidUpdate, error) {
	switch cur.BidStatus {
	case BidStatusWon, BidStatusLost, BidStatusOnApproval:
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionPlaceOnApproval,
			Current:    cur.BidStatus,
		}
	}

	status := BidStatusOnApproval
	blocked := true
	return BidUpdate{
		BidStatus:        &status,
		AccountBlocked:   &blocked,
		AuctionResultBid: auctionResultBid,
	}, nil
}

// MarkWon moves the bid to WON, puts payment into PENDING when it was not
// yet required and keeps the account blocked until payment completes.
func MarkWon(cur Snapshot, auctionResultBid *int64) (BidUpdate, error) {
	if cur.BidStatus == BidStatusWon {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionMarkWon,
			Current:    cur.BidStatus,
		}
	}

	status := BidStatusWon
	blocked := true
	update := BidUpdate{
		BidStatus:        &status,
		AccountBlocked:   &blocked,
		AuctionResultBid: auctionResultBid,
	}
	if cur.PaymentStatus == PaymentNotRequired {
		payment := PaymentPending
		update.PaymentStatus = &payment
	}
	return update, nil
}

// Approve is the seller accepting an ON_APPROVAL bid.
func Approve(cur Snapshot, auctionResultBid *int64) (BidUpdate, error) {
	if cur.BidStatus != BidStatusOnApproval {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionApprove,
			Current:    cur.BidStatus,
		}
	}
	return MarkWon(cur, auctionResultBid)
}

// MarkLost resolves the bid and releases the account block. A bid that is
// already LOST re-enters legally so a revised auction result can still be
// recorded; RefundRequired tells the caller whether the funds hold must be
// returned.
func MarkLost(cur Snapshot, auctionResultBid *int64) (BidUpdate, error) {
	if cur.BidStatus == BidStatusWon {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionMarkLost,
			Current:    cur.BidStatus,
		}
	}

	status := BidStatusLost
	blocked := false
	return BidUpdate{
		BidStatus:        &status,
		AccountBlocked:   &blocked,
		AuctionResultBid: auctionResultBid,
	}, nil
}

// Decline is the seller rejecting an ON_APPROVAL bid.
func Decline(cur Snapshot, auctionResultBid *int64) (BidUpdate, error) {
	if cur.BidStatus != BidStatusOnApproval {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionDecline,
			Current:    cur.BidStatus,
		}
	}
	return MarkLost(cur, auctionResultBid)
}

// MarkPaid confirms payment on a won bid and releases the account block.
func MarkPaid(cur Snapshot) (BidUpdate, error) {
	if cur.BidStatus != BidStatusWon {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionMarkPaid,
			Current:    cur.BidStatus,
		}
	}
	if cur.PaymentStatus == PaymentPaid {
		return BidUpdate{}, &InvalidTransitionError{
			Transition: TransitionMarkPaid,
			Current:    cur.BidStatus,
			Payment:    cur.PaymentStatus,
		}
	}

	payment := PaymentPaid
	blocked := false
	return BidUpdate{
		PaymentStatus:  &payment,
		AccountBlocked: &blocked,
	}, nil
}

// RefundRequired reports whether resolving cur as lost must return the
// user's funds hold. A second mark-lost on the same bid never refunds twice.
func RefundRequired(cur Snapshot) bool {
	return cur.BidStatus != BidStatusLost
}

package services

import (
	"context"

	"github.com/vinasLT/bid-service/internal/domain"
	"github.com/vinasLT/bid-service/pkg/logger"
)

// compensator wraps the two-step sequence the workflows share: persist a
// locally-reversible field change, then run an externally-visible side
// effect. When the side effect fails the persisted change is restored from
// the pre-mutation snapshot before the error propagates.
//
// It must only guard effects the system can still undo. Once the ledger has
// acknowledged a money movement the workflows stop using it and surface a
// partial NotificationError instead.
type compensator struct {
	repo domain.BidRepository
	log  logger.Logger
}

// run applies update to the bid, executes sideEffect with the fresh row and
// reverts to snap when the side effect fails. The revert is best effort: its
// own failure is logged and the side effect's error still wins.
func (c *compensator) run(
	ctx context.Context,
	bidID int64,
	snap domain.Snapshot,
	update domain.BidUpdate,
	sideEffect func(ctx context.Context, bid *domain.Bid) error,
) (*domain.Bid, error) {
	bid, err := c.repo.Update(ctx, bidID, update)
	if err != nil {
		return nil, err
	}

	if err := sideEffect(ctx, bid); err != nil {
		if _, revertErr := c.repo.Update(ctx, bidID, snap.Restore()); revertErr != nil {
			c.log.Error("compensation revert failed, bid state may be inconsistent",
				"bid_id", bidID, "revert_error", revertErr, "original_error", err)
		} else {
			c.log.Warn("side effect failed, bid state reverted", "bid_id", bidID, "error", err)
		}
		return nil, err
	}

	return bid, nil
}

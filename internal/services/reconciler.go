package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vinasLT/bid-service/internal/domain"
	"github.com/vinasLT/bid-service/pkg/logger"
)

// FundsHoldReconciler sweeps bids whose placement debit was never
// acknowledged and retries the hold. The ledger reference is keyed by bid
// id, so a retry after a lost acknowledgement cannot debit twice.
type FundsHoldReconciler struct {
	cron     *cron.Cron
	repo     domain.BidRepository
	ledger   domain.FundsLedger
	interval time.Duration
	grace    time.Duration
	log      logger.Logger
}

func NewFundsHoldReconciler(
	repo domain.BidRepository,
	ledger domain.FundsLedger,
	interval time.Duration,
	grace time.Duration,
	log logger.Logger,
) *FundsHoldReconciler {
	return &FundsHoldReconciler{
		cron:     cron.New(),
		repo:     repo,
		ledger:   ledger,
		interval: interval,
		grace:    grace,
		log:      log,
	}
}

func (r *FundsHoldReconciler) Start(ctx context.Context) error {
	r.log.Info("starting funds-hold reconciler", "interval", r.interval, "grace", r.grace)

	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.sweep(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *FundsHoldReconciler) Stop() error {
	r.log.Info("stopping funds-hold reconciler")
	r.cron.Stop()
	return nil
}

func (r *FundsHoldReconciler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.grace)

	bids, err := r.repo.ListUnheldBids(ctx, cutoff)
	if err != nil {
		r.log.Error("failed to list unheld bids", "error", err)
		return
	}

	for _, bid := range bids {
		reference := fmt.Sprintf("bid-%d", bid.ID)
		if err := r.ledger.CreateTransaction(ctx, bid.UserID, domain.TransactionBidPlacement, bid.BidAmount, reference); err != nil {
			r.log.Error("funds hold retry failed", "bid_id", bid.ID, "error", err)
			continue
		}

		held := true
		if _, err := r.repo.Update(ctx, bid.ID, domain.BidUpdate{FundsHeld: &held}); err != nil {
			r.log.Error("failed to record reconciled funds hold", "bid_id", bid.ID, "error", err)
			continue
		}

		r.log.Info("funds hold reconciled", "bid_id", bid.ID, "amount", bid.BidAmount)
	}
}

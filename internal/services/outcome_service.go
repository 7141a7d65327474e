package services

import (
	"context"
	"fmt"

	"github.com/vinasLT/bid-service/internal/domain"
	"github.com/vinasLT/bid-service/pkg/logger"
)

// OutcomeService moves an existing bid through the auction outcome:
// on-approval, won, lost, approve/decline and paid.
type OutcomeService struct {
	repo      domain.BidRepository
	ledger    domain.FundsLedger
	identity  domain.IdentityProvider
	publisher domain.EventPublisher
	comp      *compensator
	log       logger.Logger
}

func NewOutcomeService(
	repo domain.BidRepository,
	ledger domain.FundsLedger,
	identity domain.IdentityProvider,
	publisher domain.EventPublisher,
	log logger.Logger,
) *OutcomeService {
	return &OutcomeService{
		repo:      repo,
		ledger:    ledger,
		identity:  identity,
		publisher: publisher,
		comp:      &compensator{repo: repo, log: log},
		log:       log,
	}
}

// MarkOnApproval blocks the account pending the seller's decision. Local
// write only, no side effects to compensate.
func (s *OutcomeService) MarkOnApproval(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	update, err := domain.PlaceOnApproval(bid.Snapshot(), auctionResultBid)
	if err != nil {
		return nil, err
	}

	s.log.Info("bid on approval", "bid_id", bidID)
	return s.repo.Update(ctx, bidID, update)
}

// MarkWon transitions the bid to WON and notifies the user. The publish runs
// under compensation: if it fails, the pre-call field values are restored and
// the error is the reverted NotificationError.
func (s *OutcomeService) MarkWon(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	return s.markWon(ctx, bid, domain.TransitionMarkWon, auctionResultBid)
}

// Approve is the seller accepting an ON_APPROVAL bid; it behaves exactly
// like MarkWon, notification and compensation included.
func (s *OutcomeService) Approve(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidStatus != domain.BidStatusOnApproval {
		return nil, &domain.InvalidTransitionError{
			Transition: domain.TransitionApprove,
			Current:    bid.BidStatus,
		}
	}
	return s.markWon(ctx, bid, domain.TransitionApprove, auctionResultBid)
}

func (s *OutcomeService) markWon(ctx context.Context, bid *domain.Bid, transition string, auctionResultBid *int64) (*domain.Bid, error) {
	snap := bid.Snapshot()
	update, err := domain.MarkWon(snap, auctionResultBid)
	if err != nil {
		return nil, err
	}

	// Contacts are fetched before anything is written so an identity
	// failure cannot leave a half-applied transition behind.
	contacts, err := s.identity.GetUserContacts(ctx, bid.UserID)
	if err != nil {
		return nil, err
	}

	updated, err := s.comp.run(ctx, bid.ID, snap, update, func(ctx context.Context, fresh *domain.Bid) error {
		payload := domain.BidEventPayload(fresh, contacts)
		if err := publishPerDestination(ctx, s.publisher, domain.RoutingKeyWonBid, payload); err != nil {
			return &domain.NotificationError{Reverted: true, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bid marked as won", "bid_id", bid.ID, "transition", transition)
	return updated, nil
}

// MarkLost resolves the bid as lost, refunds the funds hold when this is the
// first loss, and notifies the user.
//
// The refund runs under compensation: a ledger failure means no money moved,
// so the local change is reverted. A publish failure after a successful
// refund is NOT reverted; it surfaces as the partial NotificationError.
func (s *OutcomeService) MarkLost(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidStatus == domain.BidStatusWon {
		return nil, &domain.InvalidTransitionError{
			Transition: domain.TransitionMarkLost,
			Current:    bid.BidStatus,
		}
	}
	return s.markLost(ctx, bid, auctionResultBid)
}

// Decline is the seller rejecting an ON_APPROVAL bid; it behaves exactly
// like MarkLost, refund included.
func (s *OutcomeService) Decline(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidStatus != domain.BidStatusOnApproval {
		return nil, &domain.InvalidTransitionError{
			Transition: domain.TransitionDecline,
			Current:    bid.BidStatus,
		}
	}
	return s.markLost(ctx, bid, auctionResultBid)
}

func (s *OutcomeService) markLost(ctx context.Context, bid *domain.Bid, auctionResultBid *int64) (*domain.Bid, error) {
	snap := bid.Snapshot()
	refundRequired := domain.RefundRequired(snap)
	current := bid

	if refundRequired || auctionResultBid != nil {
		update, err := domain.MarkLost(snap, auctionResultBid)
		if err != nil {
			return nil, err
		}

		if refundRequired {
			current, err = s.comp.run(ctx, bid.ID, snap, update, func(ctx context.Context, fresh *domain.Bid) error {
				reference := fmt.Sprintf("refund-bid-%d", fresh.ID)
				return s.ledger.CreateTransaction(ctx, fresh.UserID, domain.TransactionAdjustment, fresh.BidAmount, reference)
			})
		} else {
			current, err = s.repo.Update(ctx, bid.ID, update)
		}
		if err != nil {
			return nil, err
		}
	}

	contacts, err := s.identity.GetUserContacts(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	var refundedAmount *int64
	if refundRequired {
		refundedAmount = &current.BidAmount
	}
	payload := domain.LossEventPayload(current, contacts, refundedAmount)

	if err := publishPerDestination(ctx, s.publisher, domain.RoutingKeyLostBid, payload); err != nil {
		if refundRequired {
			// Money already moved back; the loss must stand.
			return nil, &domain.NotificationError{Committed: "refund was processed", Err: err}
		}
		return nil, &domain.NotificationError{Err: err}
	}

	s.log.Info("bid marked as lost", "bid_id", bid.ID, "refunded", refundRequired)
	return current, nil
}

// MarkPaid confirms payment on a won bid and releases the account block.
func (s *OutcomeService) MarkPaid(ctx context.Context, bidID int64) (*domain.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	update, err := domain.MarkPaid(bid.Snapshot())
	if err != nil {
		return nil, err
	}

	s.log.Info("bid payment confirmed", "bid_id", bidID)
	return s.repo.Update(ctx, bidID, update)
}

func (s *OutcomeService) getBid(ctx context.Context, bidID int64) (*domain.Bid, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, domain.NewNotFound("Bid not found")
	}
	return bid, nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
	"github.com/vinasLT/bid-service/pkg/logger"
)

type PlacementService struct {
	repo        domain.BidRepository
	auctionData domain.AuctionDataProvider
	ledger      domain.FundsLedger
	identity    domain.IdentityProvider
	publisher   domain.EventPublisher
	startCutoff time.Duration
	log         logger.Logger

	// Per-(site, lot) admission locks so two concurrent placements above
	// the current leading bid cannot both pass the highest-bid check.
	// In-process only: a multi-instance deployment needs the check pushed
	// into the storage layer instead.
	lotMutex sync.Mutex
	lotLocks map[string]*lotLock
}

// lotLock is a reference-counted mutex. The owner map entry is removed once
// the last holder releases it, keeping the map bounded by concurrency rather
// than by the number of lots ever seen.
type lotLock struct {
	mu   sync.Mutex
	refs int
}

type PlaceBidInput struct {
	LotID     int64
	Site      domain.AuctionSite
	BidAmount int64
}

type BuyNowInput struct {
	LotID int64
	Site  domain.AuctionSite
}

func NewPlacementService(
	repo domain.BidRepository,
	auctionData domain.AuctionDataProvider,
	ledger domain.FundsLedger,
	identity domain.IdentityProvider,
	publisher domain.EventPublisher,
	startCutoff time.Duration,
	log logger.Logger,
) *PlacementService {
	return &PlacementService{
		repo:        repo,
		auctionData: auctionData,
		ledger:      ledger,
		identity:    identity,
		publisher:   publisher,
		startCutoff: startCutoff,
		log:         log,
		lotLocks:    make(map[string]*lotLock),
	}
}

// PlaceBid validates a new bid against the lot, the user's funds account and
// the existing bids for the lot, persists it and submits the funds hold.
//
// The record write and the ledger debit are not one atomic unit: a debit
// failure leaves the bid persisted with FundsHeld=false and surfaces the
// ledger error; the funds-hold reconciler retries the debit later.
func (s *PlacementService) PlaceBid(ctx context.Context, userID string, in PlaceBidInput) (*domain.Bid, error) {
	s.log.Info("placing bid", "user_id", userID, "site", in.Site, "lot_id", in.LotID, "amount", in.BidAmount)

	lot, err := s.fetchOpenLot(ctx, in.Site, in.LotID)
	if err != nil {
		return nil, err
	}

	if lot.AuctionDate != nil && time.Until(*lot.AuctionDate) < s.startCutoff {
		return nil, domain.NewConflict(fmt.Sprintf("Auction starts in less than %d minutes",
			int(s.startCutoff.Minutes())))
	}

	currentBid, err := s.auctionData.GetCurrentBid(ctx, in.Site, in.LotID)
	if err != nil {
		return nil, err
	}
	if currentBid.PreBid > 0 && currentBid.PreBid > in.BidAmount {
		return nil, domain.NewConflict("Current bid on auction is higher")
	}

	if err := s.checkAccount(ctx, userID, in.BidAmount); err != nil {
		return nil, err
	}

	unlock := s.lockLot(in.Site, in.LotID)
	bid, err := func() (*domain.Bid, error) {
		defer unlock()

		// The user's own bid is checked first: the lot's highest bid
		// includes it, so a highest-first order could never report the
		// previous-bid conflict.
		previous, err := s.repo.UserBidForLot(ctx, userID, in.Site, in.LotID)
		if err != nil {
			return nil, err
		}
		if previous != nil && previous.BidAmount >= in.BidAmount {
			return nil, domain.NewConflict("Your previous bid is higher")
		}

		highest, err := s.repo.HighestBidForLot(ctx, in.Site, in.LotID)
		if err != nil {
			return nil, err
		}
		if highest != nil && highest.BidAmount >= in.BidAmount {
			return nil, domain.NewConflict("Someone already placed a higher bid for this lot")
		}

		draft := draftFromLot(lot, in.Site, in.LotID, userID, in.BidAmount)
		return s.repo.Create(ctx, draft)
	}()
	if err != nil {
		return nil, err
	}

	if err := s.holdFunds(ctx, bid); err != nil {
		return nil, err
	}

	payload := domain.PlacementPayload(bid, currentBid.PreBid)
	if err := s.publisher.Publish(ctx, domain.RoutingKeyBidPlaced, payload); err != nil {
		// Bid and debit stand; only the notification is lost.
		return nil, &domain.NotificationError{Committed: "funds were debited", Err: err}
	}

	s.log.Info("bid placed", "bid_id", bid.ID, "user_id", userID, "lot_id", in.LotID)
	return bid, nil
}

// BuyNow purchases the lot outright at its buy-now price. The bid is created
// already won, with payment pending and the account blocked until payment.
func (s *PlacementService) BuyNow(ctx context.Context, userID string, in BuyNowInput) (*domain.Bid, error) {
	s.log.Info("buy now", "user_id", userID, "site", in.Site, "lot_id", in.LotID)

	lot, err := s.fetchOpenLot(ctx, in.Site, in.LotID)
	if err != nil {
		return nil, err
	}

	if !lot.IsBuyNow || lot.BuyNowPrice == nil || *lot.BuyNowPrice <= 0 {
		return nil, domain.NewConflict("Buy now is not available for this lot")
	}
	price := *lot.BuyNowPrice

	if err := s.checkAccount(ctx, userID, price); err != nil {
		return nil, err
	}

	unlock := s.lockLot(in.Site, in.LotID)
	bid, err := func() (*domain.Bid, error) {
		defer unlock()

		previous, err := s.repo.UserBidForLot(ctx, userID, in.Site, in.LotID)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			return nil, domain.NewConflict("You already placed a bid for this lot")
		}

		draft := draftFromLot(lot, in.Site, in.LotID, userID, price)
		draft.BidStatus = domain.BidStatusWon
		draft.PaymentStatus = domain.PaymentPending
		draft.AccountBlocked = true
		draft.IsBuyNow = true
		return s.repo.Create(ctx, draft)
	}()
	if err != nil {
		return nil, err
	}

	if err := s.holdFunds(ctx, bid); err != nil {
		return nil, err
	}

	contacts, err := s.identity.GetUserContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload := domain.BidEventPayload(bid, contacts)
	if err := publishPerDestination(ctx, s.publisher, domain.RoutingKeyWonBid, payload); err != nil {
		return nil, &domain.NotificationError{Committed: "the purchase was completed", Err: err}
	}

	s.log.Info("buy now completed", "bid_id", bid.ID, "user_id", userID, "price", price)
	return bid, nil
}

func (s *PlacementService) fetchOpenLot(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.LotInfo, error) {
	lot, err := s.auctionData.GetLot(ctx, site, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.NewNotFound("Lot not found")
	}
	if lot.Closed() {
		return nil, domain.NewConflict("Auction is closed")
	}
	return lot, nil
}

// checkAccount runs the funds-account admission checks: balance, block flag,
// plan presence and the plan's concurrent-bid limit.
func (s *PlacementService) checkAccount(ctx context.Context, userID string, amount int64) error {
	account, err := s.ledger.GetAccountInfo(ctx, userID)
	if err != nil {
		return err
	}
	if account.Balance < amount {
		return domain.NewInsufficientFunds("Not enough money")
	}
	if account.Blocked {
		return domain.NewAccountBlocked("Account is blocked until payment is completed")
	}
	if account.Plan == nil {
		return domain.NewPlanRequired("You need to buy plan for bidding")
	}

	active, err := s.repo.CountActiveBidsForUser(ctx, userID)
	if err != nil {
		return err
	}
	if active >= account.Plan.MaxActiveBids {
		return domain.NewBidLimitExceeded(account.Plan.MaxActiveBids)
	}
	return nil
}

// holdFunds submits the placement debit and records the acknowledgement.
func (s *PlacementService) holdFunds(ctx context.Context, bid *domain.Bid) error {
	reference := fmt.Sprintf("bid-%d", bid.ID)
	if err := s.ledger.CreateTransaction(ctx, bid.UserID, domain.TransactionBidPlacement, bid.BidAmount, reference); err != nil {
		s.log.Error("funds hold failed, bid persisted without ledger entry",
			"bid_id", bid.ID, "user_id", bid.UserID, "error", err)
		return err
	}

	held := true
	updated, err := s.repo.Update(ctx, bid.ID, domain.BidUpdate{FundsHeld: &held})
	if err != nil {
		// The debit went through; the reconciler's idempotent reference
		// keeps a retried hold from double-debiting.
		s.log.Error("failed to record funds hold", "bid_id", bid.ID, "error", err)
		return nil
	}
	*bid = *updated
	return nil
}

func (s *PlacementService) lockLot(site domain.AuctionSite, lotID int64) func() {
	key := fmt.Sprintf("%s:%d", site, lotID)

	s.lotMutex.Lock()
	lock, ok := s.lotLocks[key]
	if !ok {
		lock = &lotLock{}
		s.lotLocks[key] = lock
	}
	lock.refs++
	s.lotMutex.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		s.lotMutex.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.lotLocks, key)
		}
		s.lotMutex.Unlock()
	}
}

func draftFromLot(lot *domain.LotInfo, site domain.AuctionSite, lotID int64, userID string, amount int64) *domain.BidDraft {
	return &domain.BidDraft{
		LotID:           lotID,
		AuctionSite:     site,
		UserID:          userID,
		BidAmount:       amount,
		BidStatus:       domain.BidStatusWaitingResult,
		PaymentStatus:   domain.PaymentNotRequired,
		Title:           lot.Title,
		VIN:             lot.VIN,
		Images:          lot.JoinedImages(),
		AuctionDate:     lot.AuctionDate,
		Odometer:        lot.Odometer,
		Location:        lot.Location,
		DamagePrimary:   lot.DamagePrimary,
		DamageSecondary: lot.DamageSecondary,
		Fuel:            lot.Fuel,
		Transmission:    lot.Transmission,
		EngineSize:      lot.EngineSize,
		Cylinders:       lot.Cylinders,
		Seller:          lot.Seller,
		Document:        lot.Document,
		LotStatus:       lot.Status,
	}
}

// publishPerDestination fans a payload out once per delivery channel.
func publishPerDestination(ctx context.Context, publisher domain.EventPublisher, routingKey string, payload map[string]interface{}) error {
	for _, destination := range []string{"email", "sms"} {
		message := make(map[string]interface{}, len(payload)+1)
		for k, v := range payload {
			message[k] = v
		}
		message["destination"] = destination

		if err := publisher.Publish(ctx, routingKey, message); err != nil {
			return err
		}
	}
	return nil
}

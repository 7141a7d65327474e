package domain

import (
	"context"
	"time"
)

// Repository interface
type BidRepository interface {
	Create(ctx context.Context, draft *BidDraft) (*Bid, error)
	GetByID(ctx context.Context, id int64) (*Bid, error)
	Update(ctx context.Context, id int64, update BidUpdate) (*Bid, error)

	// Admission queries. A missing row is (nil, nil), not an error.
	HighestBidForLot(ctx context.Context, site AuctionSite, lotID int64) (*Bid, error)
	UserBidForLot(ctx context.Context, userID string, site AuctionSite, lotID int64) (*Bid, error)
	CountActiveBidsForUser(ctx context.Context, userID string) (int, error)

	List(ctx context.Context, filter ListFilter) ([]*Bid, int64, error)
	ListUnheldBids(ctx context.Context, createdBefore time.Time) ([]*Bid, error)
}

// Remote collaborator interfaces
type AuctionDataProvider interface {
	// GetLot returns (nil, nil) when the lot does not exist upstream.
	GetLot(ctx context.Context, site AuctionSite, lotID int64) (*LotInfo, error)
	GetCurrentBid(ctx context.Context, site AuctionSite, lotID int64) (*CurrentBid, error)
}

type FundsLedger interface {
	GetAccountInfo(ctx context.Context, userID string) (*AccountInfo, error)
	// CreateTransaction moves funds. Amounts are positive; reference is an
	// idempotency key so a retried call cannot double-move money.
	CreateTransaction(ctx context.Context, userID string, txType TransactionType, amount int64, reference string) error
}

type IdentityProvider interface {
	GetUserContacts(ctx context.Context, userID string) (*UserContacts, error)
}

// Event interface
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error
}

// Routing keys used on the message bus.
const (
	RoutingKeyBidPlaced = "bid.new_bid_placed"
	RoutingKeyWonBid    = "bid.you_won_bid"
	RoutingKeyLostBid   = "bid.you_lost_bid"
)

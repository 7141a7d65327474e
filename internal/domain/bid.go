package domain

import (
	"strings"
	"time"
)

type AuctionSite string

const (
	SiteCopart AuctionSite = "copart"
	SiteIAAI   AuctionSite = "iaai"
)

func (s AuctionSite) String() string {
	return string(s)
}

// WireValue is the representation published to the message bus and stored
// in the database.
func (s AuctionSite) WireValue() string {
	return string(s)
}

func (s AuctionSite) Valid() bool {
	return s == SiteCopart || s == SiteIAAI
}

type BidStatus string

const (
	BidStatusWaitingResult BidStatus = "waiting_auction_result"
	BidStatusOnApproval    BidStatus = "on_approval"
	BidStatusWon           BidStatus = "won"
	BidStatusLost          BidStatus = "lost"
)

func (s BidStatus) String() string {
	return string(s)
}

func (s BidStatus) WireValue() string {
	return string(s)
}

// Terminal reports whether no further status transition may leave s.
// LOST allows an idempotent re-entry that only refreshes the auction
// result without re-running side effects.
func (s BidStatus) Terminal() bool {
	return s == BidStatusWon || s == BidStatusLost
}

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) WireValue() string {
	return string(s)
}

type TransactionType string

const (
	TransactionBidPlacement TransactionType = "bid_placement"
	TransactionAdjustment   TransactionType = "adjustment"
)

// Bid is the persisted record of a user's participation in one lot auction.
// Identity, lot coordinates, owner, amount and the buy-now flag are set at
// creation and never change; status fields are mutated only through the
// lifecycle transitions.
type Bid struct {
	ID          int64
	LotID       int64
	AuctionSite AuctionSite
	UserID      string

	BidAmount        int64
	BidStatus        BidStatus
	PaymentStatus    PaymentStatus
	AccountBlocked   bool
	IsBuyNow         bool
	AuctionResultBid *int64

	// FundsHeld records whether the ledger acknowledged the placement
	// debit; the reconciler retries the hold for stale unheld bids.
	FundsHeld bool

	// Lot snapshot, copied once from the auction-data provider at
	// creation and never re-synced.
	Title           *string
	VIN             *string
	Images          *string // comma-joined image URLs
	AuctionDate     *time.Time
	Odometer        *int64
	Location        *string
	DamagePrimary   *string
	DamageSecondary *string
	Fuel            *string
	Transmission    *string
	EngineSize      *string
	Cylinders       *string
	Seller          *string
	Document        *string
	LotStatus       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageList splits the stored comma-joined image string.
func (b *Bid) ImageList() []string {
	if b.Images == nil || *b.Images == "" {
		return nil
	}
	return strings.Split(*b.Images, ",")
}

// Snapshot captures the mutable lifecycle fields before a transition so a
// failed side effect can restore them.
func (b *Bid) Snapshot() Snapshot {
	return Snapshot{
		BidStatus:        b.BidStatus,
		PaymentStatus:    b.PaymentStatus,
		AccountBlocked:   b.AccountBlocked,
		AuctionResultBid: b.AuctionResultBid,
	}
}

// Apply writes the fields present in u onto the bid.
func (b *Bid) Apply(u BidUpdate) {
	if u.BidStatus != nil {
		b.BidStatus = *u.BidStatus
	}
	if u.PaymentStatus != nil {
		b.PaymentStatus = *u.PaymentStatus
	}
	if u.AccountBlocked != nil {
		b.AccountBlocked = *u.AccountBlocked
	}
	if u.ClearAuctionResult {
		b.AuctionResultBid = nil
	} else if u.AuctionResultBid != nil {
		b.AuctionResultBid = u.AuctionResultBid
	}
	if u.FundsHeld != nil {
		b.FundsHeld = *u.FundsHeld
	}
	b.UpdatedAt = time.Now()
}

// BidDraft is the creation payload for a new bid record.
type BidDraft struct {
	LotID       int64
	AuctionSite AuctionSite
	UserID      string

	BidAmount     int64
	BidStatus     BidStatus
	PaymentStatus PaymentStatus

	AccountBlocked bool
	IsBuyNow       bool

	Title           *string
	VIN             *string
	Images          *string
	AuctionDate     *time.Time
	Odometer        *int64
	Location        *string
	DamagePrimary   *string
	DamageSecondary *string
	Fuel            *string
	Transmission    *string
	EngineSize      *string
	Cylinders       *string
	Seller          *string
	Document        *string
	LotStatus       *string
}

// BidUpdate is a partial update: only non-nil fields are applied.
// ClearAuctionResult resets the auction result to absent, which a nil
// AuctionResultBid alone cannot express.
type BidUpdate struct {
	BidStatus          *BidStatus
	PaymentStatus      *PaymentStatus
	AccountBlocked     *bool
	AuctionResultBid   *int64
	ClearAuctionResult bool
	FundsHeld          *bool
}

// Snapshot holds the lifecycle fields of a bid as they were before a
// transition was applied.
type Snapshot struct {
	BidStatus        BidStatus
	PaymentStatus    PaymentStatus
	AccountBlocked   bool
	AuctionResultBid *int64
}

// Restore builds the update that puts a bid back to this snapshot, including
// clearing an auction result the failed transition introduced.
func (s Snapshot) Restore() BidUpdate {
	status := s.BidStatus
	payment := s.PaymentStatus
	blocked := s.AccountBlocked
	update := BidUpdate{
		BidStatus:      &status,
		PaymentStatus:  &payment,
		AccountBlocked: &blocked,
	}
	if s.AuctionResultBid != nil {
		result := *s.AuctionResultBid
		update.AuctionResultBid = &result
	} else {
		update.ClearAuctionResult = true
	}
	return update
}

// LotInfo is the auction-data provider's view of a lot.
type LotInfo struct {
	// FormType is "history" once the lot's auction has closed.
	FormType    string     `json:"form_get_type"`
	AuctionDate *time.Time `json:"auction_date"`
	IsBuyNow    bool       `json:"is_buynow"`
	BuyNowPrice *int64     `json:"price_new"`

	Title           *string  `json:"title"`
	VIN             *string  `json:"vin"`
	ImagesHD        []string `json:"link_img_hd"`
	ImagesSmall     []string `json:"link_img_small"`
	Odometer        *int64   `json:"odometer"`
	Location        *string  `json:"location"`
	DamagePrimary   *string  `json:"damage_pr"`
	DamageSecondary *string  `json:"damage_sec"`
	Fuel            *string  `json:"fuel"`
	Transmission    *string  `json:"transmission"`
	EngineSize      *string  `json:"engine_size"`
	Cylinders       *string  `json:"cylinders"`
	Seller          *string  `json:"seller"`
	Document        *string  `json:"document"`
	Status          *string  `json:"status"`
}

func (l *LotInfo) Closed() bool {
	return l.FormType == "history"
}

// JoinedImages prefers the HD image list and falls back to the small one,
// comma-joined for storage on the bid record.
func (l *LotInfo) JoinedImages() *string {
	images := l.ImagesHD
	if len(images) == 0 {
		images = l.ImagesSmall
	}
	if len(images) == 0 {
		return nil
	}
	joined := strings.Join(images, ",")
	return &joined
}

type CurrentBid struct {
	PreBid int64 `json:"pre_bid"`
}

type Plan struct {
	MaxActiveBids int `json:"max_active_bids"`
}

type AccountInfo struct {
	Balance int64 `json:"balance"`
	Blocked bool  `json:"blocked"`
	Plan    *Plan `json:"plan"`
}

type UserContacts struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

// ListFilter narrows and orders bid listings.
type ListFilter struct {
	Status *BidStatus
	Site   *AuctionSite
	UserID *string
	// Search matches the lot id, VIN or title.
	Search    string
	SortBy    string // created_at | auction_date | bid_amount
	SortOrder string // asc | desc
	Page      int
	PerPage   int
}

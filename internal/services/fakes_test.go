package services

import (
	"context"
	"sync"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
)

// In-memory fakes for the workflow collaborators.

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	bids   map[int64]*domain.Bid

	createErr error
	updateErr error

	updates []domain.BidUpdate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, bids: make(map[int64]*domain.Bid)}
}

func (r *fakeRepo) add(bid *domain.Bid) *domain.Bid {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bid.ID == 0 {
		bid.ID = r.nextID
	}
	if bid.ID >= r.nextID {
		r.nextID = bid.ID + 1
	}
	r.bids[bid.ID] = bid
	return bid
}

func (r *fakeRepo) Create(ctx context.Context, draft *domain.BidDraft) (*domain.Bid, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	now := time.Now()
	bid := &domain.Bid{
		LotID:           draft.LotID,
		AuctionSite:     draft.AuctionSite,
		UserID:          draft.UserID,
		BidAmount:       draft.BidAmount,
		BidStatus:       draft.BidStatus,
		PaymentStatus:   draft.PaymentStatus,
		AccountBlocked:  draft.AccountBlocked,
		IsBuyNow:        draft.IsBuyNow,
		Title:           draft.Title,
		VIN:             draft.VIN,
		Images:          draft.Images,
		AuctionDate:     draft.AuctionDate,
		Odometer:        draft.Odometer,
		Location:        draft.Location,
		DamagePrimary:   draft.DamagePrimary,
		DamageSecondary: draft.DamageSecondary,
		Fuel:            draft.Fuel,
		Transmission:    draft.Transmission,
		EngineSize:      draft.EngineSize,
		Cylinders:       draft.Cylinders,
		Seller:          draft.Seller,
		Document:        draft.Document,
		LotStatus:       draft.LotStatus,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return r.add(bid), nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid, ok := r.bids[id]
	if !ok {
		return nil, nil
	}
	copied := *bid
	return &copied, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, update domain.BidUpdate) (*domain.Bid, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	bid, ok := r.bids[id]
	if !ok {
		return nil, domain.NewNotFound("Bid not found")
	}
	bid.Apply(update)
	r.updates = append(r.updates, update)

	copied := *bid
	return &copied, nil
}

func (r *fakeRepo) HighestBidForLot(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var highest *domain.Bid
	for _, bid := range r.bids {
		if bid.AuctionSite != site || bid.LotID != lotID {
			continue
		}
		if highest == nil || bid.BidAmount > highest.BidAmount {
			highest = bid
		}
	}
	if highest == nil {
		return nil, nil
	}
	copied := *highest
	return &copied, nil
}

func (r *fakeRepo) UserBidForLot(ctx context.Context, userID string, site domain.AuctionSite, lotID int64) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bid := range r.bids {
		if bid.UserID == userID && bid.AuctionSite == site && bid.LotID == lotID {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) CountActiveBidsForUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, bid := range r.bids {
		if bid.UserID != userID {
			continue
		}
		if bid.BidStatus == domain.BidStatusWaitingResult || bid.BidStatus == domain.BidStatusOnApproval {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Bid, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Bid
	for _, bid := range r.bids {
		copied := *bid
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListUnheldBids(ctx context.Context, createdBefore time.Time) ([]*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Bid
	for _, bid := range r.bids {
		if !bid.FundsHeld && bid.CreatedAt.Before(createdBefore) {
			copied := *bid
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeAuctionData struct {
	lot        *domain.LotInfo
	lotErr     error
	currentBid *domain.CurrentBid
	currentErr error
}

func (a *fakeAuctionData) GetLot(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.LotInfo, error) {
	return a.lot, a.lotErr
}

func (a *fakeAuctionData) GetCurrentBid(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.CurrentBid, error) {
	if a.currentErr != nil {
		return nil, a.currentErr
	}
	if a.currentBid == nil {
		return &domain.CurrentBid{}, nil
	}
	return a.currentBid, nil
}

type ledgerTx struct {
	userID    string
	txType    domain.TransactionType
	amount    int64
	reference string
}

type fakeLedger struct {
	mu      sync.Mutex
	account *domain.AccountInfo

	accountErr error
	txErr      error

	transactions []ledgerTx
}

func (l *fakeLedger) GetAccountInfo(ctx context.Context, userID string) (*domain.AccountInfo, error) {
	if l.accountErr != nil {
		return nil, l.accountErr
	}
	return l.account, nil
}

func (l *fakeLedger) CreateTransaction(ctx context.Context, userID string, txType domain.TransactionType, amount int64, reference string) error {
	if l.txErr != nil {
		return l.txErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append(l.transactions, ledgerTx{userID, txType, amount, reference})
	return nil
}

type fakeIdentity struct {
	contacts *domain.UserContacts
	err      error
}

func (i *fakeIdentity) GetUserContacts(ctx context.Context, userID string) (*domain.UserContacts, error) {
	if i.err != nil {
		return nil, i.err
	}
	if i.contacts == nil {
		return &domain.UserContacts{}, nil
	}
	return i.contacts, nil
}

type publishedEvent struct {
	routingKey string
	payload    map[string]interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		copied[k] = v
	}
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: copied})
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func futureTime() *time.Time {
	t := time.Now().Add(48 * time.Hour)
	return &t
}

func openLot() *domain.LotInfo {
	return &domain.LotInfo{
		FormType:    "prebid",
		AuctionDate: futureTime(),
		Title:       strPtr("2019 Honda Civic"),
		VIN:         strPtr("1HGBH41JXMN109186"),
		ImagesHD:    []string{"https://img.example/1.jpg"},
	}
}

func accountWithPlan(balance int64) *domain.AccountInfo {
	return &domain.AccountInfo{
		Balance: balance,
		Plan:    &domain.Plan{MaxActiveBids: 5},
	}
}

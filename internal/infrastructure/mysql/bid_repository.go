package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/vinasLT/bid-service/internal/domain"
)

const bidColumns = `
        id, lot_id, auction_site, user_id, bid_amount, bid_status, payment_status,
        account_blocked, is_buy_now, funds_held, auction_result_bid,
        title, vin, images, auction_date, odometer, location, damage_pr, damage_sec,
        fuel, transmission, engine_size, cylinders, seller, document, lot_status,
        created_at, updated_at`

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) Create(ctx context.Context, draft *domain.BidDraft) (*domain.Bid, error) {
	query := `
        INSERT INTO bids (lot_id, auction_site, user_id, bid_amount, bid_status, payment_status,
            account_blocked, is_buy_now, funds_held, auction_result_bid,
            title, vin, images, auction_date, odometer, location, damage_pr, damage_sec,
            fuel, transmission, engine_size, cylinders, seller, document, lot_status,
            created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		draft.LotID, string(draft.AuctionSite), draft.UserID, draft.BidAmount,
		string(draft.BidStatus), string(draft.PaymentStatus),
		draft.AccountBlocked, draft.IsBuyNow, false, nil,
		draft.Title, draft.VIN, draft.Images, draft.AuctionDate, draft.Odometer,
		draft.Location, draft.DamagePrimary, draft.DamageSecondary,
		draft.Fuel, draft.Transmission, draft.EngineSize, draft.Cylinders,
		draft.Seller, draft.Document, draft.LotStatus,
		now, now)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *MySQLBidRepository) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	query := `SELECT` + bidColumns + ` FROM bids WHERE id = ?`
	return r.scanBid(r.db.QueryRowContext(ctx, query, id))
}

// Update applies only the fields present in update and bumps updated_at.
func (r *MySQLBidRepository) Update(ctx context.Context, id int64, update domain.BidUpdate) (*domain.Bid, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	if update.BidStatus != nil {
		sets = append(sets, "bid_status = ?")
		args = append(args, string(*update.BidStatus))
	}
	if update.PaymentStatus != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, string(*update.PaymentStatus))
	}
	if update.AccountBlocked != nil {
		sets = append(sets, "account_blocked = ?")
		args = append(args, *update.AccountBlocked)
	}
	if update.ClearAuctionResult {
		sets = append(sets, "auction_result_bid = NULL")
	} else if update.AuctionResultBid != nil {
		sets = append(sets, "auction_result_bid = ?")
		args = append(args, *update.AuctionResultBid)
	}
	if update.FundsHeld != nil {
		sets = append(sets, "funds_held = ?")
		args = append(args, *update.FundsHeld)
	}

	query := fmt.Sprintf("UPDATE bids SET %s WHERE id = ?", strings.Join(sets, ", "))
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	bid, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, domain.NewNotFound("Bid not found")
	}
	return bid, nil
}

func (r *MySQLBidRepository) HighestBidForLot(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.Bid, error) {
	query := `SELECT` + bidColumns + `
        FROM bids WHERE auction_site = ? AND lot_id = ?
        ORDER BY bid_amount DESC LIMIT 1`
	return r.scanBid(r.db.QueryRowContext(ctx, query, string(site), lotID))
}

func (r *MySQLBidRepository) UserBidForLot(ctx context.Context, userID string, site domain.AuctionSite, lotID int64) (*domain.Bid, error) {
	query := `SELECT` + bidColumns + `
        FROM bids WHERE user_id = ? AND auction_site = ? AND lot_id = ?
        LIMIT 1`
	return r.scanBid(r.db.QueryRowContext(ctx, query, userID, string(site), lotID))
}

// CountActiveBidsForUser counts bids still occupying a plan slot: waiting
// for the auction result or pending the seller's decision.
func (r *MySQLBidRepository) CountActiveBidsForUser(ctx context.Context, userID string) (int, error) {
	query := `
        SELECT COUNT(*) FROM bids
        WHERE user_id = ? AND bid_status IN (?, ?)`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID,
		string(domain.BidStatusWaitingResult), string(domain.BidStatusOnApproval)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MySQLBidRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Bid, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "bid_status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Site != nil {
		conditions = append(conditions, "auction_site = ?")
		args = append(args, string(*filter.Site))
	}
	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		search := "(vin LIKE ? OR title LIKE ?"
		args = append(args, like, like)
		if isDigits(filter.Search) {
			search += " OR lot_id = ?"
			args = append(args, filter.Search)
		}
		search += ")"
		conditions = append(conditions, search)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM bids" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Sort field and direction are whitelisted, never interpolated from
	// raw input.
	sortField := "created_at"
	switch filter.SortBy {
	case "auction_date":
		sortField = "auction_date"
	case "bid_amount":
		sortField = "bid_amount"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	query := fmt.Sprintf("SELECT%s FROM bids%s ORDER BY %s %s LIMIT ? OFFSET ?",
		bidColumns, where, sortField, direction)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := r.scanBid(rows)
		if err != nil {
			return nil, 0, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return bids, total, nil
}

func (r *MySQLBidRepository) ListUnheldBids(ctx context.Context, createdBefore time.Time) ([]*domain.Bid, error) {
	query := `SELECT` + bidColumns + `
        FROM bids WHERE funds_held = FALSE AND created_at < ?
        ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := r.scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MySQLBidRepository) scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	var site, status, payment string
	var auctionDate sql.NullTime

	err := row.Scan(
		&bid.ID, &bid.LotID, &site, &bid.UserID, &bid.BidAmount, &status, &payment,
		&bid.AccountBlocked, &bid.IsBuyNow, &bid.FundsHeld, &bid.AuctionResultBid,
		&bid.Title, &bid.VIN, &bid.Images, &auctionDate, &bid.Odometer,
		&bid.Location, &bid.DamagePrimary, &bid.DamageSecondary,
		&bid.Fuel, &bid.Transmission, &bid.EngineSize, &bid.Cylinders,
		&bid.Seller, &bid.Document, &bid.LotStatus,
		&bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	bid.AuctionSite = domain.AuctionSite(site)
	bid.BidStatus = domain.BidStatus(status)
	bid.PaymentStatus = domain.PaymentStatus(payment)
	if auctionDate.Valid {
		bid.AuctionDate = &auctionDate.Time
	}
	return &bid, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vinasLT/bid-service/internal/domain"
	"github.com/vinasLT/bid-service/internal/services"
	"github.com/vinasLT/bid-service/pkg/logger"
)

// PlacementAPI and OutcomeAPI are the workflow entry points the handlers
// depend on; tests substitute fakes.
type PlacementAPI interface {
	PlaceBid(ctx context.Context, userID string, in services.PlaceBidInput) (*domain.Bid, error)
	BuyNow(ctx context.Context, userID string, in services.BuyNowInput) (*domain.Bid, error)
}

type OutcomeAPI interface {
	MarkOnApproval(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error)
	MarkWon(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error)
	Approve(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error)
	MarkLost(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error)
	Decline(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error)
	MarkPaid(ctx context.Context, bidID int64) (*domain.Bid, error)
}

type BidHandler struct {
	placement PlacementAPI
	outcome   OutcomeAPI
	repo      domain.BidRepository
	log       logger.Logger
}

func NewBidHandler(placement PlacementAPI, outcome OutcomeAPI, repo domain.BidRepository, log logger.Logger) *BidHandler {
	return &BidHandler{
		placement: placement,
		outcome:   outcome,
		repo:      repo,
		log:       log,
	}
}

func (h *BidHandler) Register(api *echo.Group) {
	api.POST("/bids", h.PlaceBid)
	api.POST("/bids/buy-now", h.BuyNow)
	api.GET("/bids", h.ListBids)
	api.GET("/bids/for-user", h.ListUserBids)
	api.GET("/bids/my", h.GetMyBid)
	api.POST("/bids/:id/on-approval", h.MarkOnApproval)
	api.POST("/bids/:id/won", h.MarkWon)
	api.POST("/bids/:id/approve", h.Approve)
	api.POST("/bids/:id/lost", h.MarkLost)
	api.POST("/bids/:id/decline", h.Decline)
	api.POST("/bids/:id/paid", h.MarkPaid)
}

type PlaceBidRequest struct {
	LotID     int64  `json:"lot_id"`
	Auction   string `json:"auction"`
	BidAmount int64  `json:"bid_amount"`
}

type BuyNowRequest struct {
	LotID   int64  `json:"lot_id"`
	Auction string `json:"auction"`
}

type OutcomeRequest struct {
	AuctionResultBid *int64 `json:"auction_result_bid"`
}

type BidResponse struct {
	ID               int64    `json:"id"`
	LotID            int64    `json:"lot_id"`
	Auction          string   `json:"auction"`
	UserID           string   `json:"user_id"`
	BidAmount        int64    `json:"bid_amount"`
	BidStatus        string   `json:"bid_status"`
	PaymentStatus    string   `json:"payment_status"`
	AccountBlocked   bool     `json:"account_blocked"`
	IsBuyNow         bool     `json:"is_buy_now"`
	AuctionResultBid *int64   `json:"auction_result_bid"`
	Title            *string  `json:"title"`
	VIN              *string  `json:"vin"`
	Images           []string `json:"images"`
	AuctionDate      *string  `json:"auction_date"`
	Odometer         *int64   `json:"odometer"`
	Location         *string  `json:"location"`
	DamagePrimary    *string  `json:"damage_pr"`
	DamageSecondary  *string  `json:"damage_sec"`
	Fuel             *string  `json:"fuel"`
	Transmission     *string  `json:"transmission"`
	EngineSize       *string  `json:"engine_size"`
	Cylinders        *string  `json:"cylinders"`
	Seller           *string  `json:"seller"`
	Document         *string  `json:"document"`
	LotStatus        *string  `json:"status"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type ListBidsResponse struct {
	Data  []*BidResponse `json:"data"`
	Count int64          `json:"count"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	userID, ok := requestUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	site := domain.AuctionSite(req.Auction)
	if !site.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown auction site"})
	}
	if req.BidAmount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Bid amount must be positive"})
	}

	bid, err := h.placement.PlaceBid(c.Request().Context(), userID, services.PlaceBidInput{
		LotID:     req.LotID,
		Site:      site,
		BidAmount: req.BidAmount,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBidResponse(bid))
}

func (h *BidHandler) BuyNow(c echo.Context) error {
	userID, ok := requestUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	var req BuyNowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	site := domain.AuctionSite(req.Auction)
	if !site.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown auction site"})
	}

	bid, err := h.placement.BuyNow(c.Request().Context(), userID, services.BuyNowInput{
		LotID: req.LotID,
		Site:  site,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBidResponse(bid))
}

func (h *BidHandler) ListBids(c echo.Context) error {
	filter, err := listFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	bids, total, err := h.repo.List(c.Request().Context(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toListResponse(bids, total))
}

func (h *BidHandler) ListUserBids(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	filter, err := listFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	filter.UserID = &userID

	bids, total, err := h.repo.List(c.Request().Context(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toListResponse(bids, total))
}

// GetMyBid returns the calling user's bid for one lot.
func (h *BidHandler) GetMyBid(c echo.Context) error {
	userID, ok := requestUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
	}

	site := domain.AuctionSite(c.QueryParam("auction"))
	if !site.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown auction site"})
	}
	lotID, err := strconv.ParseInt(c.QueryParam("lot_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid lot id"})
	}

	bid, err := h.repo.UserBidForLot(c.Request().Context(), userID, site, lotID)
	if err != nil {
		return h.writeError(c, err)
	}
	if bid == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Bid not found"})
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

func (h *BidHandler) MarkOnApproval(c echo.Context) error {
	return h.outcomeCall(c, h.outcome.MarkOnApproval)
}

func (h *BidHandler) MarkWon(c echo.Context) error {
	return h.outcomeCall(c, h.outcome.MarkWon)
}

func (h *BidHandler) Approve(c echo.Context) error {
	return h.outcomeCall(c, h.outcome.Approve)
}

func (h *BidHandler) MarkLost(c echo.Context) error {
	return h.outcomeCall(c, h.outcome.MarkLost)
}

func (h *BidHandler) Decline(c echo.Context) error {
	return h.outcomeCall(c, h.outcome.Decline)
}

func (h *BidHandler) MarkPaid(c echo.Context) error {
	bidID, err := bidIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bid id"})
	}

	bid, err := h.outcome.MarkPaid(c.Request().Context(), bidID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

func (h *BidHandler) outcomeCall(
	c echo.Context,
	op func(ctx context.Context, bidID int64, auctionResultBid *int64) (*domain.Bid, error),
) error {
	bidID, err := bidIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bid id"})
	}

	var req OutcomeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.AuctionResultBid != nil && *req.AuctionResultBid < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "auction_result_bid must not be negative"})
	}

	bid, err := op(c.Request().Context(), bidID, req.AuctionResultBid)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

// writeError maps the error taxonomy onto HTTP statuses. The body always
// carries the error kind so callers can tell, without parsing messages,
// whether funds moved.
func (h *BidHandler) writeError(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	body := map[string]interface{}{
		"error": err.Error(),
		"kind":  string(kind),
	}

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidTransition:
		status = http.StatusConflict
	case domain.KindInsufficientFunds, domain.KindAccountBlocked,
		domain.KindPlanRequired, domain.KindBidLimitExceeded:
		status = http.StatusBadRequest
	case domain.KindUpstream:
		status = http.StatusBadGateway
	case domain.KindNotification:
		status = http.StatusBadGateway
		var ne *domain.NotificationError
		if errors.As(err, &ne) {
			body["reverted"] = ne.Reverted
			body["funds_moved"] = !ne.Reverted && ne.Committed != ""
		}
	default:
		h.log.Error("unhandled workflow error", "error", err)
		body["error"] = "Internal server error"
	}

	return c.JSON(status, body)
}

func requestUser(c echo.Context) (string, bool) {
	userID := c.Request().Header.Get("X-User-ID")
	return userID, userID != ""
}

func bidIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func listFilterFromQuery(c echo.Context) (domain.ListFilter, error) {
	filter := domain.ListFilter{
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}

	if raw := c.QueryParam("bid_status"); raw != "" {
		status := domain.BidStatus(raw)
		filter.Status = &status
	}
	if raw := c.QueryParam("auction"); raw != "" {
		site := domain.AuctionSite(raw)
		if !site.Valid() {
			return filter, errors.New("unknown auction site")
		}
		filter.Site = &site
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, errors.New("invalid page")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > 1000 {
			return filter, errors.New("invalid per_page")
		}
		filter.PerPage = perPage
	}

	return filter, nil
}

func toBidResponse(bid *domain.Bid) *BidResponse {
	resp := &BidResponse{
		ID:               bid.ID,
		LotID:            bid.LotID,
		Auction:          bid.AuctionSite.WireValue(),
		UserID:           bid.UserID,
		BidAmount:        bid.BidAmount,
		BidStatus:        bid.BidStatus.WireValue(),
		PaymentStatus:    bid.PaymentStatus.WireValue(),
		AccountBlocked:   bid.AccountBlocked,
		IsBuyNow:         bid.IsBuyNow,
		AuctionResultBid: bid.AuctionResultBid,
		Title:            bid.Title,
		VIN:              bid.VIN,
		Images:           bid.ImageList(),
		Odometer:         bid.Odometer,
		Location:         bid.Location,
		DamagePrimary:    bid.DamagePrimary,
		DamageSecondary:  bid.DamageSecondary,
		Fuel:             bid.Fuel,
		Transmission:     bid.Transmission,
		EngineSize:       bid.EngineSize,
		Cylinders:        bid.Cylinders,
		Seller:           bid.Seller,
		Document:         bid.Document,
		LotStatus:        bid.LotStatus,
		CreatedAt:        bid.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        bid.UpdatedAt.Format(time.RFC3339),
	}
	if bid.AuctionDate != nil {
		date := bid.AuctionDate.Format(time.RFC3339)
		resp.AuctionDate = &date
	}
	return resp
}

func toListResponse(bids []*domain.Bid, total int64) *ListBidsResponse {
	resp := &ListBidsResponse{
		Data:  make([]*BidResponse, 0, len(bids)),
		Count: total,
	}
	for _, bid := range bids {
		resp.Data = append(resp.Data, toBidResponse(bid))
	}
	return resp
}

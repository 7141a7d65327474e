package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
)

const auctionServiceName = "Auction"

// AuctionAPIClient reads lot data and current pre-bids from the
// auction-data provider.
type AuctionAPIClient struct {
	client  *http.Client
	baseURL string
}

func NewAuctionAPIClient(baseURL string, timeout time.Duration) *AuctionAPIClient {
	return &AuctionAPIClient{
		client:  newHTTPClient(timeout),
		baseURL: baseURL,
	}
}

func (c *AuctionAPIClient) GetLot(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.LotInfo, error) {
	url := fmt.Sprintf("%s/v1/lots/%s/%d", c.baseURL, site.WireValue(), lotID)

	var lot domain.LotInfo
	if err := getJSON(ctx, c.client, auctionServiceName, url, &lot); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (c *AuctionAPIClient) GetCurrentBid(ctx context.Context, site domain.AuctionSite, lotID int64) (*domain.CurrentBid, error) {
	url := fmt.Sprintf("%s/v1/lots/%s/%d/current-bid", c.baseURL, site.WireValue(), lotID)

	var current domain.CurrentBid
	if err := getJSON(ctx, c.client, auctionServiceName, url, &current); err != nil {
		if err == errNotFound {
			// No pre-bid recorded yet for the lot.
			return &domain.CurrentBid{}, nil
		}
		return nil, err
	}
	return &current, nil
}

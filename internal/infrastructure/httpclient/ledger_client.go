package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
)

const ledgerServiceName = "Account"

// LedgerClient talks to the funds ledger: account lookups and the
// debit/refund transactions.
type LedgerClient struct {
	client  *http.Client
	baseURL string
}

func NewLedgerClient(baseURL string, timeout time.Duration) *LedgerClient {
	return &LedgerClient{
		client:  newHTTPClient(timeout),
		baseURL: baseURL,
	}
}

func (c *LedgerClient) GetAccountInfo(ctx context.Context, userID string) (*domain.AccountInfo, error) {
	u := fmt.Sprintf("%s/v1/accounts/%s", c.baseURL, url.PathEscape(userID))

	var account domain.AccountInfo
	if err := getJSON(ctx, c.client, ledgerServiceName, u, &account); err != nil {
		if err == errNotFound {
			return nil, &domain.UpstreamError{
				Service: ledgerServiceName,
				Code:    "http_404",
				Message: "account not found",
			}
		}
		return nil, err
	}
	return &account, nil
}

type transactionRequest struct {
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

func (c *LedgerClient) CreateTransaction(ctx context.Context, userID string, txType domain.TransactionType, amount int64, reference string) error {
	u := fmt.Sprintf("%s/v1/transactions", c.baseURL)

	return postJSON(ctx, c.client, ledgerServiceName, u, transactionRequest{
		UserID:    userID,
		Type:      string(txType),
		Amount:    amount,
		Reference: reference,
	})
}

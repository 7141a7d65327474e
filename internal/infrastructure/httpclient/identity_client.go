package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
)

const identityServiceName = "Auth"

// IdentityClient resolves a user's contact channels for notifications.
type IdentityClient struct {
	client  *http.Client
	baseURL string
}

func NewIdentityClient(baseURL string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		client:  newHTTPClient(timeout),
		baseURL: baseURL,
	}
}

func (c *IdentityClient) GetUserContacts(ctx context.Context, userID string) (*domain.UserContacts, error) {
	u := fmt.Sprintf("%s/v1/users/%s/contacts", c.baseURL, url.PathEscape(userID))

	var contacts domain.UserContacts
	if err := getJSON(ctx, c.client, identityServiceName, u, &contacts); err != nil {
		if err == errNotFound {
			// Unknown user contacts are not fatal for a notification.
			return &domain.UserContacts{}, nil
		}
		return nil, err
	}
	return &contacts, nil
}

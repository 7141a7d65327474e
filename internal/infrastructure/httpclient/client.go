// Package httpclient implements the remote collaborator contracts over
// plain HTTP/JSON. Every transport or non-2xx failure is wrapped into a
// domain.UpstreamError carrying the collaborator's name, so workflows never
// leak raw transport errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vinasLT/bid-service/internal/domain"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func getJSON(ctx context.Context, client *http.Client, service, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return unreachable(service, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return unreachable(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(service, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.UpstreamError{
			Service: service,
			Code:    "bad_response",
			Message: err.Error(),
			Err:     err,
		}
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, service, url string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return unreachable(service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return unreachable(service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return unreachable(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(service, resp)
	}
	return nil
}

func unreachable(service string, err error) error {
	return &domain.UpstreamError{
		Service: service,
		Code:    "unreachable",
		Message: err.Error(),
		Err:     err,
	}
}

func statusError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	message := string(bytes.TrimSpace(body))
	if message == "" {
		message = resp.Status
	}
	return &domain.UpstreamError{
		Service: service,
		Code:    fmt.Sprintf("http_%d", resp.StatusCode),
		Message: message,
	}
}

// errNotFound is internal to this package: callers translate it into their
// contract's missing-value representation.
var errNotFound = fmt.Errorf("not found")

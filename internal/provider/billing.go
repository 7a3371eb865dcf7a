package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"kudos-backend/internal/logger"

	"github.com/shopspring/decimal"
)

// BillingProvider is the external recurring payment rail. ChargeToken
// reports a definite outcome: either the charge went through (Success with
// the provider's charge reference) or the provider declined it. Transport
// failures come back as errors and are treated as charge failures; if a
// provider turns out to settle charges it never acknowledged, operators
// reconcile against its records out of band.
type BillingProvider interface {
	IssueToken(ctx context.Context, authorizationCode, tenantKey string) (string, error)
	ChargeToken(ctx context.Context, token, orderID string, amount decimal.Decimal) (*ChargeResult, error)
}

type ChargeResult struct {
	Success     bool      `json:"success"`
	ChargeRef   string    `json:"charge_ref"`
	ApprovedAt  time.Time `json:"approved_at"`
	FailCode    string    `json:"fail_code"`
	FailMessage string    `json:"fail_message"`
}

type billingClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewBillingClient(baseURL, apiKey string, timeout time.Duration) BillingProvider {
	return &billingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *billingClient) IssueToken(ctx context.Context, authorizationCode, tenantKey string) (string, error) {
	logger.ExternalServiceCall("billing", "IssueToken", "tenant_key", tenantKey)

	var out struct {
		Token string `json:"token"`
	}
	err := c.post(ctx, "/v1/tokens", map[string]string{
		"authorization_code": authorizationCode,
		"tenant_key":         tenantKey,
	}, &out)
	logger.ExternalServiceResult("billing", "IssueToken", err, "tenant_key", tenantKey)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *billingClient) ChargeToken(ctx context.Context, token, orderID string, amount decimal.Decimal) (*ChargeResult, error) {
	logger.ExternalServiceCall("billing", "ChargeToken", "order_id", orderID, "amount", amount.String())

	var result ChargeResult
	err := c.post(ctx, "/v1/charges", map[string]string{
		"token":    token,
		"order_id": orderID,
		"amount":   amount.String(),
	}, &result)
	logger.ExternalServiceResult("billing", "ChargeToken", err, "order_id", orderID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *billingClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeProviderError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

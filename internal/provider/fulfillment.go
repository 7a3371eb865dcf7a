package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/logger"
)

// FulfillmentProvider places gift orders with the external catalog/voucher
// service. Implementations return nil on success, a *domain.ProviderError of
// kind client when the provider rejected the request, and one of kind
// upstream for network errors, timeouts, and 5xx responses.
type FulfillmentProvider interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) error
}

type PlaceOrderRequest struct {
	ExternalOrderID string `json:"order_id"`
	ProductRef      string `json:"product_ref"`
	Quantity        int32  `json:"quantity"`
	RecipientEmail  string `json:"recipient_email"`
	RecipientName   string `json:"recipient_name"`
}

type fulfillmentClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFulfillmentClient(baseURL, apiKey string, timeout time.Duration) FulfillmentProvider {
	return &fulfillmentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type providerErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *fulfillmentClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest) error {
	logger.ExternalServiceCall("fulfillment", "PlaceOrder", "order_id", req.ExternalOrderID, "product_ref", req.ProductRef)

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Timeouts land here and are indistinguishable from any other
		// network failure, which is exactly how callers treat them.
		perr := &domain.ProviderError{Kind: domain.ProviderErrorUpstream, Code: "network_error", Message: err.Error()}
		logger.ExternalServiceResult("fulfillment", "PlaceOrder", perr, "order_id", req.ExternalOrderID)
		return perr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		logger.ExternalServiceResult("fulfillment", "PlaceOrder", nil, "order_id", req.ExternalOrderID)
		return nil
	}

	perr := decodeProviderError(resp)
	logger.ExternalServiceResult("fulfillment", "PlaceOrder", perr, "order_id", req.ExternalOrderID, "status", resp.StatusCode)
	return perr
}

func decodeProviderError(resp *http.Response) *domain.ProviderError {
	kind := domain.ProviderErrorUpstream
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		kind = domain.ProviderErrorClient
	}

	var parsed providerErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Code == "" {
		parsed.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if parsed.Message == "" {
		parsed.Message = string(raw)
	}
	return &domain.ProviderError{Kind: kind, Code: parsed.Code, Message: parsed.Message}
}

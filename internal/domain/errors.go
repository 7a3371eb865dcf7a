package domain

import (
	"errors"
	"fmt"
)

// Errors rejected before any wallet mutation. Callers can map these to
// stable client-error codes.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrSelfTransfer       = errors.New("sender and receiver must differ")
	ErrTooManyTags        = errors.New("at most 3 tags per transaction")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("catalog item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrBillingRequired    = errors.New("tenant subscription is not current")
)

type ProviderErrorKind string

const (
	// ProviderErrorClient: the provider rejected the request (4xx). Retrying
	// the same request will not help.
	ProviderErrorClient ProviderErrorKind = "client"
	// ProviderErrorUpstream: the provider was unreachable or failed (5xx,
	// network error, timeout). The request may succeed later.
	ProviderErrorUpstream ProviderErrorKind = "upstream"
)

// ProviderError is a failure from an external provider call. Both kinds
// drive the same compensation path in the sagas but surface different codes
// to the caller.
type ProviderError struct {
	Kind    ProviderErrorKind
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s error [%s]: %s", e.Kind, e.Code, e.Message)
}

// IsUpstream reports whether err is a provider failure of the unreachable /
// 5xx variety, as opposed to a definite rejection.
func IsUpstream(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == ProviderErrorUpstream
}

// IsClientRejected reports whether err is a definite provider rejection.
func IsClientRejected(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == ProviderErrorClient
}

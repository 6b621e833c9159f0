package llm

import (
	"errors"
	"fmt"
)

// Predefined gateway errors
var (
	// ErrEmptyCompletion the provider answered but the completion was blank
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrQuotaExceeded the provider rejected the call for billing/quota reasons
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrNoMessages the request carried no messages
	ErrNoMessages = errors.New("request contains no messages")

	// ErrMalformedJSON the completion did not contain the expected JSON payload
	ErrMalformedJSON = errors.New("malformed JSON in completion")
)

// ProviderError wraps a transport or API failure of a specific provider
type ProviderError struct {
	Provider string
	Status   int // HTTP status when known, 0 otherwise
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderFailure reports whether err is a provider-side failure that
// justifies retrying against another provider
func IsProviderFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsQuota reports whether err is a quota/billing rejection
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Package errors classifies AWS SDK errors into a few categories callers can
// branch on with errors.Is.
package errors

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrNotFound covers missing functions, pools, clients and listeners.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied covers IAM and credential failures.
	ErrAccessDenied = errors.New("access denied")
	// ErrRetryable covers throttling and transient service faults.
	ErrRetryable = errors.New("retryable")
	// ErrOperation is everything else.
	ErrOperation = errors.New("op error")
)

var codes = map[string]error{
	"ResourceNotFoundException":   ErrNotFound,
	"ListenerNotFound":            ErrNotFound,
	"LoadBalancerNotFound":        ErrNotFound,
	"RuleNotFound":                ErrNotFound,
	"AccessDeniedException":       ErrAccessDenied,
	"AccessDenied":                ErrAccessDenied,
	"NotAuthorizedException":      ErrAccessDenied,
	"UnrecognizedClientException": ErrAccessDenied,
	"ExpiredTokenException":       ErrAccessDenied,
	"ThrottlingException":         ErrRetryable,
	"Throttling":                  ErrRetryable,
	"TooManyRequestsException":    ErrRetryable,
	"RequestLimitExceeded":        ErrRetryable,
	"ServiceException":            ErrRetryable,
	"InternalErrorException":      ErrRetryable,
}

// Classify wraps err with one of the category sentinels, keeping the original
// error in the chain. A nil err stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if cat, ok := codes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %s: %w", cat, apiErr.ErrorCode(), err)
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return fmt.Errorf("%w: %s: %w", ErrRetryable, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("%w: %s: %w", ErrOperation, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: %w", ErrOperation, err)
}

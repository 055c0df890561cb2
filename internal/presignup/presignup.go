// Package presignup implements the Cognito pre sign-up trigger that confirms
// new accounts and marks the supplied contact channels as verified.
//
// Reference: https://docs.aws.amazon.com/cognito/latest/developerguide/user-pool-lambda-pre-sign-up.html
package presignup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
)

// Attribute names inspected by the trigger.
const (
	AttributeEmail       = "email"
	AttributePhoneNumber = "phone_number"
)

// Response keys written by the trigger.
const (
	FieldAutoConfirmUser = "autoConfirmUser"
	FieldAutoVerifyEmail = "autoVerifyEmail"
	FieldAutoVerifyPhone = "autoVerifyPhone"
)

// ErrMalformedEvent is returned when the event lacks the request section or
// its user attributes cannot be decoded.
var ErrMalformedEvent = errors.New("presignup: malformed event")

// Decision is the outcome of the trigger for one registration.
type Decision struct {
	AutoConfirmUser bool `json:"autoConfirmUser" yaml:"autoConfirmUser"`
	AutoVerifyEmail bool `json:"autoVerifyEmail" yaml:"autoVerifyEmail"`
	AutoVerifyPhone bool `json:"autoVerifyPhone" yaml:"autoVerifyPhone"`
}

// Decide always confirms the user and verifies each contact channel that was
// submitted with the registration.
func Decide(userAttributes map[string]string) Decision {
	_, hasEmail := userAttributes[AttributeEmail]
	_, hasPhone := userAttributes[AttributePhoneNumber]
	return Decision{
		AutoConfirmUser: true,
		AutoVerifyEmail: hasEmail,
		AutoVerifyPhone: hasPhone,
	}
}

// Handler is the Lambda entrypoint.
type Handler struct {
	logger logging.Logger
}

// NewHandler returns a Handler logging through logger (discarded when nil).
func NewHandler(logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Handler{logger: logger}
}

// Handle applies Decide to a raw pre sign-up event. Only the response flags
// that are true are written; every other field of the event is returned as
// received.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(event, &top); err != nil || top == nil {
		return nil, fmt.Errorf("%w: event is not a JSON object", ErrMalformedEvent)
	}
	rawReq, ok := top["request"]
	if !ok || isNull(rawReq) {
		return nil, fmt.Errorf("%w: missing request", ErrMalformedEvent)
	}
	var req events.CognitoEventUserPoolsPreSignupRequest
	if err := json.Unmarshal(rawReq, &req); err != nil {
		return nil, fmt.Errorf("%w: request: %v", ErrMalformedEvent, err)
	}
	if req.UserAttributes == nil {
		return nil, fmt.Errorf("%w: missing request.userAttributes", ErrMalformedEvent)
	}

	resp := map[string]json.RawMessage{}
	if rawResp, ok := top["response"]; ok && !isNull(rawResp) {
		if err := json.Unmarshal(rawResp, &resp); err != nil {
			return nil, fmt.Errorf("%w: response: %v", ErrMalformedEvent, err)
		}
	}

	d := Decide(req.UserAttributes)
	setTrue(resp, FieldAutoConfirmUser, d.AutoConfirmUser)
	setTrue(resp, FieldAutoVerifyEmail, d.AutoVerifyEmail)
	setTrue(resp, FieldAutoVerifyPhone, d.AutoVerifyPhone)

	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("presignup: encode response: %w", err)
	}
	top["response"] = b

	fields := logging.Fields{
		FieldAutoConfirmUser: d.AutoConfirmUser,
		FieldAutoVerifyEmail: d.AutoVerifyEmail,
		FieldAutoVerifyPhone: d.AutoVerifyPhone,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields["requestId"] = lc.AwsRequestID
	}
	h.logger.Info("presignup.decision", fields)

	return json.Marshal(top)
}

func setTrue(m map[string]json.RawMessage, key string, v bool) {
	if v {
		m[key] = json.RawMessage("true")
	}
}

func isNull(b json.RawMessage) bool { return string(b) == "null" }

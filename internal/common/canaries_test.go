package common

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go"

	awserrors "github.com/mikecbrant/cognito-alb-fargate-demo/internal/awssdk/errors"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/presignup"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/testutil"
)

func targets() Targets {
	return Targets{
		HookFunctionName:   "demo-auto-confirm",
		UserPoolID:         "eu-central-1_abc",
		ClientID:           "client123",
		ListenerArn:        "arn:aws:elasticloadbalancing:eu-central-1:123456789012:listener/app/demo/1/2",
		HostHeader:         "demo.example.com",
		CallbackURLs:       []string{"https://demo.example.com/oauth2/idpresponse", "https://demo.example.com"},
		LogoutURLs:         []string{"https://demo.example.com"},
		DefaultRedirectURI: "https://demo.example.com/oauth2/idpresponse",
	}
}

// realHook answers Invoke by running the actual trigger handler.
func realHook() *testutil.FakeLambda {
	h := presignup.NewHandler(nil)
	return &testutil.FakeLambda{Respond: func(in *lambda.InvokeInput) (*lambda.InvokeOutput, error) {
		out, err := h.Handle(context.Background(), in.Payload)
		if err != nil {
			return &lambda.InvokeOutput{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"` + err.Error() + `"}`)}, nil
		}
		return &lambda.InvokeOutput{StatusCode: 200, Payload: out}, nil
	}}
}

func goodCognito(t Targets) *testutil.FakeCognito {
	return &testutil.FakeCognito{Out: &cip.DescribeUserPoolClientOutput{UserPoolClient: &ciptypes.UserPoolClientType{
		CallbackURLs:       []string{t.CallbackURLs[1], t.CallbackURLs[0]},
		LogoutURLs:         t.LogoutURLs,
		DefaultRedirectURI: aws.String(t.DefaultRedirectURI),
	}}}
}

func goodELB(t Targets) *testutil.FakeELB {
	return &testutil.FakeELB{
		Listeners: &elbv2.DescribeListenersOutput{Listeners: []elbv2types.Listener{{
			DefaultActions: []elbv2types.Action{{
				Type:                elbv2types.ActionTypeEnumFixedResponse,
				FixedResponseConfig: &elbv2types.FixedResponseActionConfig{StatusCode: aws.String("403")},
			}},
		}}},
		Rules: &elbv2.DescribeRulesOutput{Rules: []elbv2types.Rule{
			{Priority: aws.String("default")},
			{
				Priority: aws.String("1000"),
				Conditions: []elbv2types.RuleCondition{{
					Field:            aws.String("host-header"),
					HostHeaderConfig: &elbv2types.HostHeaderConditionConfig{Values: []string{t.HostHeader}},
				}},
				Actions: []elbv2types.Action{
					{Type: elbv2types.ActionTypeEnumForward, Order: aws.Int32(2)},
					{Type: elbv2types.ActionTypeEnumAuthenticateCognito, Order: aws.Int32(1)},
				},
			},
		}},
	}
}

func TestLoadHookCases_Embedded(t *testing.T) {
	cases, err := LoadHookCases("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 embedded cases, got %d", len(cases))
	}
	if !cases[0].Expect.AutoConfirmUser || !cases[0].Expect.AutoVerifyEmail {
		t.Fatalf("yaml expectations not decoded: %+v", cases[0])
	}
}

func TestLoadHookCases_ConsumerFileAppended(t *testing.T) {
	p := filepath.Join(t.TempDir(), "canaries.yaml")
	body := "cases:\n  - name: both\n    userAttributes: {email: x@y.z, phone_number: \"+1\"}\n    expect: {autoConfirmUser: true, autoVerifyEmail: true, autoVerifyPhone: true}\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cases, err := LoadHookCases(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 4 || cases[3].Name != "both" || !cases[3].Expect.AutoVerifyPhone {
		t.Fatalf("consumer case not appended: %+v", cases)
	}
	if _, err := LoadHookCases(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("absent consumer file must be ignored: %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("cases: [:"), 0o600)
	if _, err := LoadHookCases(bad); err == nil {
		t.Fatalf("expected YAML error")
	}
}

func TestChecker_Run_AllGreen(t *testing.T) {
	tg := targets()
	cases, _ := LoadHookCases("")
	l := &testutil.BufferLogger{}
	fl := realHook()
	c := &Checker{Lambda: fl, Cognito: goodCognito(tg), ELB: goodELB(tg), Logger: l}
	if err := c.Run(context.Background(), tg, cases); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fl.Inputs) != len(cases) {
		t.Fatalf("expected %d invocations, got %d", len(cases), len(fl.Inputs))
	}
	if got := aws.ToString(fl.Inputs[0].FunctionName); got != tg.HookFunctionName {
		t.Fatalf("FunctionName = %q", got)
	}
	var ev map[string]any
	if err := json.Unmarshal(fl.Inputs[0].Payload, &ev); err != nil || ev["triggerSource"] != "PreSignUp_SignUp" {
		t.Fatalf("unexpected event payload %s (%v)", fl.Inputs[0].Payload, err)
	}
	if l.Calls[len(l.Calls)-1] != "info" {
		t.Fatalf("expected final info log, got %v", l.Calls)
	}
}

func TestChecker_CheckHook_WrongDecision(t *testing.T) {
	fl := &testutil.FakeLambda{Respond: func(*lambda.InvokeInput) (*lambda.InvokeOutput, error) {
		return &lambda.InvokeOutput{Payload: []byte(`{"response":{"autoConfirmUser":false}}`)}, nil
	}}
	c := &Checker{Lambda: fl, Logger: &testutil.BufferLogger{}}
	err := c.CheckHook(context.Background(), "fn", []HookCase{{Name: "x", Expect: presignup.Decision{AutoConfirmUser: true}}})
	if err == nil || !strings.Contains(err.Error(), "unexpected decision") {
		t.Fatalf("expected decision mismatch, got %v", err)
	}
}

func TestChecker_CheckHook_FunctionError(t *testing.T) {
	fl := &testutil.FakeLambda{Respond: func(*lambda.InvokeInput) (*lambda.InvokeOutput, error) {
		return &lambda.InvokeOutput{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"boom"}`)}, nil
	}}
	c := &Checker{Lambda: fl, Logger: &testutil.BufferLogger{}}
	err := c.CheckHook(context.Background(), "fn", []HookCase{{Name: "x"}})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected function error, got %v", err)
	}
}

type notFound struct{}

func (notFound) Error() string                 { return "ResourceNotFoundException" }
func (notFound) ErrorCode() string             { return "ResourceNotFoundException" }
func (notFound) ErrorMessage() string          { return "function not found" }
func (notFound) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestChecker_CheckHook_InvokeErrorIsClassified(t *testing.T) {
	fl := &testutil.FakeLambda{Respond: func(*lambda.InvokeInput) (*lambda.InvokeOutput, error) {
		return nil, notFound{}
	}}
	c := &Checker{Lambda: fl, Logger: &testutil.BufferLogger{}}
	err := c.CheckHook(context.Background(), "fn", []HookCase{{Name: "x"}})
	if !errors.Is(err, awserrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChecker_CheckClient_Mismatches(t *testing.T) {
	tg := targets()
	fc := goodCognito(tg)
	fc.Out.UserPoolClient.LogoutURLs = []string{"https://elsewhere.example.com"}
	c := &Checker{Cognito: fc, Logger: &testutil.BufferLogger{}}
	if err := c.CheckClient(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "logout URLs") {
		t.Fatalf("expected logout mismatch, got %v", err)
	}
	if aws.ToString(fc.In.ClientId) != tg.ClientID || aws.ToString(fc.In.UserPoolId) != tg.UserPoolID {
		t.Fatalf("unexpected describe input: %+v", fc.In)
	}

	fc = goodCognito(tg)
	fc.Out.UserPoolClient.DefaultRedirectURI = nil
	c.Cognito = fc
	if err := c.CheckClient(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "default redirect") {
		t.Fatalf("expected redirect mismatch, got %v", err)
	}
}

func TestChecker_CheckListener_DefaultActionMustDeny(t *testing.T) {
	tg := targets()
	fe := goodELB(tg)
	fe.Listeners.Listeners[0].DefaultActions = []elbv2types.Action{{Type: elbv2types.ActionTypeEnumForward}}
	c := &Checker{ELB: fe, Logger: &testutil.BufferLogger{}}
	if err := c.CheckListener(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "fixed 403") {
		t.Fatalf("expected deny-by-default failure, got %v", err)
	}
}

func TestChecker_CheckListener_RuleChecks(t *testing.T) {
	tg := targets()

	fe := goodELB(tg)
	fe.Rules.Rules[1].Actions = []elbv2types.Action{{Type: elbv2types.ActionTypeEnumForward, Order: aws.Int32(1)}}
	c := &Checker{ELB: fe, Logger: &testutil.BufferLogger{}}
	if err := c.CheckListener(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "authenticate-cognito") {
		t.Fatalf("expected action order failure, got %v", err)
	}

	fe = goodELB(tg)
	fe.Rules.Rules[1].Conditions[0].HostHeaderConfig.Values = []string{"other.example.com"}
	c.ELB = fe
	if err := c.CheckListener(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "does not match host") {
		t.Fatalf("expected host failure, got %v", err)
	}

	fe = goodELB(tg)
	fe.Rules.Rules = fe.Rules.Rules[:1]
	c.ELB = fe
	if err := c.CheckListener(context.Background(), tg); err == nil || !strings.Contains(err.Error(), "no rule with priority 1000") {
		t.Fatalf("expected missing rule failure, got %v", err)
	}
}

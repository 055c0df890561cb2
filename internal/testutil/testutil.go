// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"

	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
)

// FakeLambda records Invoke inputs and answers through Respond.
type FakeLambda struct {
	Inputs  []*lambda.InvokeInput
	Respond func(in *lambda.InvokeInput) (*lambda.InvokeOutput, error)
}

// Invoke records the input and delegates to Respond.
func (f *FakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.Inputs = append(f.Inputs, in)
	return f.Respond(in)
}

// FakeCognito returns a fixed DescribeUserPoolClient result.
type FakeCognito struct {
	In  *cip.DescribeUserPoolClientInput
	Out *cip.DescribeUserPoolClientOutput
	Err error
}

// DescribeUserPoolClient records the input and returns the configured result.
func (f *FakeCognito) DescribeUserPoolClient(_ context.Context, in *cip.DescribeUserPoolClientInput, _ ...func(*cip.Options)) (*cip.DescribeUserPoolClientOutput, error) {
	f.In = in
	return f.Out, f.Err
}

// FakeELB returns fixed DescribeListeners/DescribeRules results.
type FakeELB struct {
	Listeners    *elbv2.DescribeListenersOutput
	Rules        *elbv2.DescribeRulesOutput
	ListenersErr error
	RulesErr     error
}

// DescribeListeners returns the configured listeners.
func (f *FakeELB) DescribeListeners(context.Context, *elbv2.DescribeListenersInput, ...func(*elbv2.Options)) (*elbv2.DescribeListenersOutput, error) {
	return f.Listeners, f.ListenersErr
}

// DescribeRules returns the configured rules.
func (f *FakeELB) DescribeRules(context.Context, *elbv2.DescribeRulesInput, ...func(*elbv2.Options)) (*elbv2.DescribeRulesOutput, error) {
	return f.Rules, f.RulesErr
}

// BufferLogger is a buffer-backed logger that records calls for assertions.
type BufferLogger struct {
	Calls   []string
	Entries []string
}

// Debug records a debug-level log entry.
func (l *BufferLogger) Debug(msg string, ctx logging.Fields) { l.record("debug", msg, ctx) }

// Info records an info-level log entry.
func (l *BufferLogger) Info(msg string, ctx logging.Fields) { l.record("info", msg, ctx) }

// Warn records a warn-level log entry.
func (l *BufferLogger) Warn(msg string, ctx logging.Fields) { l.record("warn", msg, ctx) }

func (l *BufferLogger) record(level, msg string, ctx logging.Fields) {
	l.Calls = append(l.Calls, level)
	// simple human-readable capture for assertions; not a JSON serializer
	l.Entries = append(l.Entries, fmt.Sprintf("%s: %s ctx=%v", level, msg, ctx))
}

var _ logging.Logger = (*BufferLogger)(nil)

// Contains reports whether s contains sub; exported for reuse across tests.
func Contains(s, sub string) bool { return strings.Contains(s, sub) }

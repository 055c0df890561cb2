package common

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"gopkg.in/yaml.v3"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/awssdk"
	awserrors "github.com/mikecbrant/cognito-alb-fargate-demo/internal/awssdk/errors"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/presignup"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
)

//go:embed assets/canaries/*.yaml
var canaryFS embed.FS

// Values the edge router must be configured with.
const (
	DenyStatusCode       = "403"
	DenyContentType      = "text/plain"
	DenyMessageBody      = "This is not a valid endpoint!"
	AuthenticatePriority = 1000
)

// LambdaInvoker is the subset of the Lambda client used by the hook canaries.
type LambdaInvoker interface {
	Invoke(context.Context, *lambda.InvokeInput, ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// UserPoolClientDescriber is the subset of the Cognito client used to check the client registration.
type UserPoolClientDescriber interface {
	DescribeUserPoolClient(context.Context, *cip.DescribeUserPoolClientInput, ...func(*cip.Options)) (*cip.DescribeUserPoolClientOutput, error)
}

// ListenerDescriber is the subset of the ELBv2 client used to check the HTTPS listener.
type ListenerDescriber interface {
	DescribeListeners(context.Context, *elbv2.DescribeListenersInput, ...func(*elbv2.Options)) (*elbv2.DescribeListenersOutput, error)
	DescribeRules(context.Context, *elbv2.DescribeRulesInput, ...func(*elbv2.Options)) (*elbv2.DescribeRulesOutput, error)
}

// Targets identifies the deployed resources and what they are expected to look like.
type Targets struct {
	HookFunctionName   string
	UserPoolID         string
	ClientID           string
	ListenerArn        string
	HostHeader         string
	CallbackURLs       []string
	LogoutURLs         []string
	DefaultRedirectURI string
}

// HookCase is a single pre sign-up canary.
type HookCase struct {
	Name           string             `yaml:"name"`
	UserAttributes map[string]string  `yaml:"userAttributes"`
	Expect         presignup.Decision `yaml:"expect"`
}

type canaryDoc struct {
	Cases []HookCase `yaml:"cases"`
}

// Checker runs the post-deploy canaries against injected clients.
type Checker struct {
	Lambda  LambdaInvoker
	Cognito UserPoolClientDescriber
	ELB     ListenerDescriber
	Logger  logging.Logger
}

// RunPostDeployCanaries builds AWS clients for region and runs every canary.
// Consumer hook cases from consumerPath (optional) are appended to the embedded ones.
func RunPostDeployCanaries(ctx context.Context, region string, t Targets, consumerPath string, logger logging.Logger) error {
	cfg, err := awssdk.LoadDefault(ctx, region)
	if err != nil {
		return err
	}
	cases, err := LoadHookCases(consumerPath)
	if err != nil {
		return err
	}
	c := &Checker{
		Lambda:  lambda.NewFromConfig(cfg),
		Cognito: cip.NewFromConfig(cfg),
		ELB:     elbv2.NewFromConfig(cfg),
		Logger:  logger,
	}
	return c.Run(ctx, t, cases)
}

// Run executes the hook, client registration and listener canaries in order and
// stops at the first failure.
func (c *Checker) Run(ctx context.Context, t Targets, cases []HookCase) error {
	if c.Logger == nil {
		c.Logger = logging.NopLogger{}
	}
	if err := c.CheckHook(ctx, t.HookFunctionName, cases); err != nil {
		return err
	}
	if err := c.CheckClient(ctx, t); err != nil {
		return err
	}
	if err := c.CheckListener(ctx, t); err != nil {
		return err
	}
	c.Logger.Info("canary.ok", logging.Fields{"hookCases": len(cases)})
	return nil
}

// LoadHookCases returns the embedded cases followed by the cases of consumerPath
// when that file exists.
func LoadHookCases(consumerPath string) ([]HookCase, error) {
	b, err := canaryFS.ReadFile("assets/canaries/presignup.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded canaries: %w", err)
	}
	doc, err := readCanaryDoc(b, "embedded presignup.yaml")
	if err != nil {
		return nil, err
	}
	cases := doc.Cases
	if consumerPath == "" {
		return cases, nil
	}
	b, err = os.ReadFile(consumerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cases, nil
		}
		return nil, fmt.Errorf("failed to read canary file %s: %w", consumerPath, err)
	}
	extra, err := readCanaryDoc(b, consumerPath)
	if err != nil {
		return nil, err
	}
	return append(cases, extra.Cases...), nil
}

func readCanaryDoc(b []byte, src string) (canaryDoc, error) {
	var doc canaryDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return canaryDoc{}, fmt.Errorf("invalid canary YAML %s: %w", src, err)
	}
	return doc, nil
}

type hookEvent struct {
	Version       string         `json:"version"`
	TriggerSource string         `json:"triggerSource"`
	UserName      string         `json:"userName"`
	Request       map[string]any `json:"request"`
	Response      map[string]any `json:"response"`
}

type hookResult struct {
	Response presignup.Decision `json:"response"`
}

// CheckHook invokes the deployed trigger once per case and compares the decision.
func (c *Checker) CheckHook(ctx context.Context, functionName string, cases []HookCase) error {
	for i, hc := range cases {
		attrs := hc.UserAttributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		payload, err := json.Marshal(hookEvent{
			Version:       "1",
			TriggerSource: "PreSignUp_SignUp",
			UserName:      "canary-" + hc.Name,
			Request:       map[string]any{"userAttributes": attrs},
			Response:      map[string]any{},
		})
		if err != nil {
			return fmt.Errorf("canary #%d (%s): encode event: %w", i+1, hc.Name, err)
		}
		out, err := c.Lambda.Invoke(ctx, &lambda.InvokeInput{FunctionName: aws.String(functionName), Payload: payload})
		if err != nil {
			return fmt.Errorf("canary #%d (%s) failed to execute: %w", i+1, hc.Name, awserrors.Classify(err))
		}
		if out.FunctionError != nil {
			return fmt.Errorf("canary #%d (%s): hook returned %s: %s", i+1, hc.Name, aws.ToString(out.FunctionError), string(out.Payload))
		}
		var res hookResult
		if err := json.Unmarshal(out.Payload, &res); err != nil {
			return fmt.Errorf("canary #%d (%s): invalid hook response: %w", i+1, hc.Name, err)
		}
		if res.Response != hc.Expect {
			return fmt.Errorf("canary #%d (%s) unexpected decision: got %+v, want %+v", i+1, hc.Name, res.Response, hc.Expect)
		}
		c.Logger.Debug("canary.hook.ok", logging.Fields{"case": hc.Name})
	}
	return nil
}

// CheckClient compares the registered callback, logout and default redirect URLs.
func (c *Checker) CheckClient(ctx context.Context, t Targets) error {
	out, err := c.Cognito.DescribeUserPoolClient(ctx, &cip.DescribeUserPoolClientInput{
		UserPoolId: aws.String(t.UserPoolID),
		ClientId:   aws.String(t.ClientID),
	})
	if err != nil {
		return fmt.Errorf("canary client registration: %w", awserrors.Classify(err))
	}
	if out.UserPoolClient == nil {
		return fmt.Errorf("canary client registration: client %s not returned", t.ClientID)
	}
	upc := out.UserPoolClient
	if !sameSet(upc.CallbackURLs, t.CallbackURLs) {
		return fmt.Errorf("canary client registration: callback URLs = %v, want %v", upc.CallbackURLs, t.CallbackURLs)
	}
	if !sameSet(upc.LogoutURLs, t.LogoutURLs) {
		return fmt.Errorf("canary client registration: logout URLs = %v, want %v", upc.LogoutURLs, t.LogoutURLs)
	}
	if got := aws.ToString(upc.DefaultRedirectURI); got != t.DefaultRedirectURI {
		return fmt.Errorf("canary client registration: default redirect URI = %q, want %q", got, t.DefaultRedirectURI)
	}
	c.Logger.Debug("canary.client.ok", logging.Fields{"clientId": t.ClientID})
	return nil
}

// CheckListener verifies the deny-by-default action and the authenticate rule.
func (c *Checker) CheckListener(ctx context.Context, t Targets) error {
	lo, err := c.ELB.DescribeListeners(ctx, &elbv2.DescribeListenersInput{ListenerArns: []string{t.ListenerArn}})
	if err != nil {
		return fmt.Errorf("canary listener: %w", awserrors.Classify(err))
	}
	if len(lo.Listeners) != 1 {
		return fmt.Errorf("canary listener: expected 1 listener for %s, got %d", t.ListenerArn, len(lo.Listeners))
	}
	if !deniesByDefault(lo.Listeners[0].DefaultActions) {
		return fmt.Errorf("canary listener: default action is not a fixed %s response", DenyStatusCode)
	}

	ro, err := c.ELB.DescribeRules(ctx, &elbv2.DescribeRulesInput{ListenerArn: aws.String(t.ListenerArn)})
	if err != nil {
		return fmt.Errorf("canary listener rules: %w", awserrors.Classify(err))
	}
	want := fmt.Sprint(AuthenticatePriority)
	for _, r := range ro.Rules {
		if aws.ToString(r.Priority) != want {
			continue
		}
		if !matchesHost(r.Conditions, t.HostHeader) {
			return fmt.Errorf("canary listener rules: rule %s does not match host %q", want, t.HostHeader)
		}
		if !authenticatesThenForwards(r.Actions) {
			return fmt.Errorf("canary listener rules: rule %s must authenticate-cognito then forward", want)
		}
		c.Logger.Debug("canary.listener.ok", logging.Fields{"listenerArn": t.ListenerArn})
		return nil
	}
	return fmt.Errorf("canary listener rules: no rule with priority %s", want)
}

func deniesByDefault(actions []elbv2types.Action) bool {
	for _, a := range actions {
		if a.Type == elbv2types.ActionTypeEnumFixedResponse && a.FixedResponseConfig != nil &&
			aws.ToString(a.FixedResponseConfig.StatusCode) == DenyStatusCode {
			return true
		}
	}
	return false
}

func matchesHost(conds []elbv2types.RuleCondition, host string) bool {
	for _, c := range conds {
		if aws.ToString(c.Field) != "host-header" {
			continue
		}
		values := c.Values
		if c.HostHeaderConfig != nil {
			values = append(values, c.HostHeaderConfig.Values...)
		}
		if slices.Contains(values, host) {
			return true
		}
	}
	return false
}

func authenticatesThenForwards(actions []elbv2types.Action) bool {
	if len(actions) < 2 {
		return false
	}
	sorted := slices.Clone(actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return aws.ToInt32(sorted[i].Order) < aws.ToInt32(sorted[j].Order)
	})
	return sorted[0].Type == elbv2types.ActionTypeEnumAuthenticateCognito &&
		sorted[len(sorted)-1].Type == elbv2types.ActionTypeEnumForward
}

func sameSet(got, want []string) bool {
	a := slices.Clone(got)
	b := slices.Clone(want)
	sort.Strings(a)
	sort.Strings(b)
	return slices.Equal(a, b)
}

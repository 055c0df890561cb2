package provider

import (
	"fmt"
	"strings"

	aws "github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	p "github.com/pulumi/pulumi-go-provider"
	"github.com/pulumi/pulumi-go-provider/infer"
	"github.com/pulumi/pulumi/sdk/v3/go/common/tokens"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

// ProviderName is the Pulumi package name of the component provider.
const ProviderName = "cognito-alb-fargate"

const demoStackType = ProviderName + ":index:DemoStack"

// NewProvider builds the component provider exposing DemoStack.
func NewProvider() (p.Provider, error) {
	return infer.NewProviderBuilder().
		WithComponents(infer.ComponentF(NewDemoStack)).
		Build()
}

// DemoStackArgs are the inputs of the component. The first five mirror the
// keys of the deployment configuration file.
type DemoStackArgs struct {
	HostedZoneID        string `pulumi:"hostedZoneId"`
	HostedZoneName      string `pulumi:"hostedZoneName"`
	CognitoCustomDomain string `pulumi:"cognitoCustomDomain"`
	ApplicationDNSName  string `pulumi:"applicationDnsName"`
	BackendDesiredCount int    `pulumi:"backendDesiredCount"`
	// Path to the zip holding the pre sign-up hook's bootstrap binary.
	HookArchive string `pulumi:"hookArchive"`
	// Container image. When unset the web service is built from BuildContext
	// and pushed to the stack's own repository.
	Image *string `pulumi:"image,optional"`
	// Docker build context for the web service; defaults to the working directory.
	BuildContext *string `pulumi:"buildContext,optional"`
	// Dockerfile path; defaults to Dockerfile inside the build context.
	Dockerfile *string `pulumi:"dockerfile,optional"`
	// Optional SES identity for the user pool's emails.
	EmailSender *EmailSenderArgs `pulumi:"emailSender,optional"`
	// When true, the user pool, its domain and its app client are retained on delete.
	RetainOnDelete *bool `pulumi:"retainOnDelete,optional"`
	// Run the post-deploy canaries and export their status.
	RunCanaries *bool `pulumi:"runCanaries,optional"`
	// Additional pre sign-up canary cases (YAML).
	CanaryFile *string `pulumi:"canaryFile,optional"`
}

// ArgsFromDeployment fills the configuration-file fields of DemoStackArgs.
func ArgsFromDeployment(d *config.Deployment) DemoStackArgs {
	return DemoStackArgs{
		HostedZoneID:        d.HostedZoneID,
		HostedZoneName:      d.HostedZoneName,
		CognitoCustomDomain: d.CognitoCustomDomain,
		ApplicationDNSName:  d.ApplicationDNSName,
		BackendDesiredCount: d.BackendDesiredCount,
	}
}

func (a DemoStackArgs) deployment() *config.Deployment {
	return &config.Deployment{
		HostedZoneID:        strings.TrimSpace(a.HostedZoneID),
		HostedZoneName:      strings.TrimSuffix(strings.TrimSpace(a.HostedZoneName), "."),
		CognitoCustomDomain: strings.TrimSpace(a.CognitoCustomDomain),
		ApplicationDNSName:  strings.TrimSuffix(strings.TrimSpace(a.ApplicationDNSName), "."),
		BackendDesiredCount: a.BackendDesiredCount,
	}
}

// DemoStack is the whole demo environment: identity pool, network, edge
// router and backend service.
type DemoStack struct {
	pulumi.ResourceState

	UserPoolID          pulumi.StringOutput `pulumi:"userPoolId"`
	UserPoolArn         pulumi.StringOutput `pulumi:"userPoolArn"`
	UserPoolClientID    pulumi.StringOutput `pulumi:"userPoolClientId"`
	UserPoolDomain      pulumi.StringOutput `pulumi:"userPoolDomain"`
	HookFunctionArn     pulumi.StringOutput `pulumi:"hookFunctionArn"`
	LoadBalancerDNSName pulumi.StringOutput `pulumi:"loadBalancerDnsName"`
	ApplicationURL      pulumi.StringOutput `pulumi:"applicationUrl"`
	LogoutURL           pulumi.StringOutput `pulumi:"logoutUrl"`
	UserInfoURL         pulumi.StringOutput `pulumi:"userInfoUrl"`
	RepositoryURL       pulumi.StringOutput `pulumi:"repositoryUrl"`
	ServiceName         pulumi.StringOutput `pulumi:"serviceName"`
}

// Annotate attaches schema metadata used for provider docs and code generation.
func (c *DemoStack) Annotate(a infer.Annotator) {
	a.Describe(&c, "A Cognito user pool with an auto-confirming pre sign-up hook, an application load balancer that authenticates against it, and a Fargate service behind it.")
	a.SetToken(tokens.ModuleName("index"), tokens.TypeName("DemoStack"))
}

// NewDemoStack declares every resource of the environment in dependency order.
func NewDemoStack(ctx *pulumi.Context, name string, args DemoStackArgs, opts ...pulumi.ResourceOption) (*DemoStack, error) {
	plan, err := Describe(args)
	if err != nil {
		return nil, fmt.Errorf("invalid %s arguments: %w", name, err)
	}

	comp := &DemoStack{}
	if err := ctx.RegisterComponentResource(demoStackType, name, comp, opts...); err != nil {
		return nil, err
	}
	childOpts, retainOpts := buildChildOptions(comp, opts, valueOrDefault(args.RetainOnDelete, false))

	reg, err := aws.GetRegion(ctx, nil, pulumi.Parent(comp))
	if err != nil {
		return nil, err
	}
	region := reg.Name

	id, err := createIdentity(ctx, name, region, plan.Deployment, plan.Identity, childOpts, retainOpts)
	if err != nil {
		return nil, err
	}
	net, err := createNetwork(ctx, name, plan.Network, childOpts)
	if err != nil {
		return nil, err
	}
	e, err := createEdge(ctx, name, plan.Edge, net, id, childOpts)
	if err != nil {
		return nil, err
	}
	svc, err := createService(ctx, name, region, plan.Service, net, e, id, childOpts)
	if err != nil {
		return nil, err
	}

	comp.UserPoolID = id.pool.ID().ToStringOutput()
	comp.UserPoolArn = id.pool.Arn
	comp.UserPoolClientID = id.client.ID().ToStringOutput()
	comp.UserPoolDomain = id.domain.Domain
	comp.HookFunctionArn = id.hook.Arn
	comp.LoadBalancerDNSName = e.alb.DnsName
	comp.ApplicationURL = pulumi.String(plan.Deployment.ApplicationURL()).ToStringOutput()
	comp.LogoutURL = id.logoutURL
	comp.UserInfoURL = pulumi.String(id.userInfoURL).ToStringOutput()
	comp.RepositoryURL = svc.repository.RepositoryUrl
	comp.ServiceName = svc.service.Name

	if valueOrDefault(args.RunCanaries, false) {
		exportCanaryStatus(ctx, name, region, plan, id, e, valueOrDefault(args.CanaryFile, ""))
	}

	return comp, nil
}

func buildChildOptions(comp pulumi.Resource, opts []pulumi.ResourceOption, retainOnDelete bool) (childOpts []pulumi.ResourceOption, retainOpts []pulumi.ResourceOption) {
	childOpts = append([]pulumi.ResourceOption{}, opts...)
	childOpts = append(childOpts, pulumi.Parent(comp))
	retainOpts = append([]pulumi.ResourceOption{}, childOpts...)
	if retainOnDelete {
		retainOpts = append(retainOpts, pulumi.RetainOnDelete(true))
	}
	return childOpts, retainOpts
}

package provider

import (
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/common"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/common/ses"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

// Fixed shape of the demo environment.
const (
	vpcCIDR             = "10.0.0.0/16"
	containerName       = "web"
	containerPort       = 80
	healthCheckPath     = "/healthcheck"
	deregistrationDelay = 10
	taskCPU             = 256
	taskMemory          = 512
)

var publicSubnetCIDRs = []string{"10.0.0.0/24", "10.0.1.0/24"}

// IdentitySpec describes the user pool, its hosted UI domain, the load
// balancer's app client and the pre sign-up hook.
type IdentitySpec struct {
	DomainPrefix       string
	CallbackURLs       []string
	LogoutURLs         []string
	DefaultRedirectURI string
	HookArchive        string
	EmailSender        *ses.Sender
	ConfigurationSet   string
}

// Validate checks the domain prefix, the client URLs and the hook archive path.
func (s IdentitySpec) Validate() error {
	var errs []error
	if !config.ValidDomainPrefix(s.DomainPrefix) {
		errs = append(errs, fmt.Errorf("identity: invalid domain prefix %q", s.DomainPrefix))
	}
	if len(s.CallbackURLs) == 0 {
		errs = append(errs, errors.New("identity: at least one callback URL is required"))
	}
	for _, u := range append(append([]string{}, s.CallbackURLs...), s.LogoutURLs...) {
		if !strings.HasPrefix(u, "https://") {
			errs = append(errs, fmt.Errorf("identity: %q must use https", u))
		}
	}
	if s.DefaultRedirectURI != "" && !slices.Contains(s.CallbackURLs, s.DefaultRedirectURI) {
		errs = append(errs, fmt.Errorf("identity: default redirect URI %q is not a callback URL", s.DefaultRedirectURI))
	}
	if strings.TrimSpace(s.HookArchive) == "" {
		errs = append(errs, errors.New("identity: hookArchive is required"))
	}
	if s.EmailSender != nil && (s.EmailSender.SourceArn == "" || s.EmailSender.From == "") {
		errs = append(errs, errors.New("identity: emailSender needs sourceArn and from"))
	}
	return errors.Join(errs...)
}

// NetworkSpec describes the VPC and its public subnets.
type NetworkSpec struct {
	CIDR          string
	SubnetCIDRs   []string
	ContainerPort int
}

// Validate checks that every subnet lies inside the VPC and that there are
// at least two of them, the minimum for an application load balancer.
func (s NetworkSpec) Validate() error {
	vpc, err := netip.ParsePrefix(s.CIDR)
	if err != nil {
		return fmt.Errorf("network: vpc cidr: %w", err)
	}
	var errs []error
	if len(s.SubnetCIDRs) < 2 {
		errs = append(errs, fmt.Errorf("network: need 2 subnets, got %d", len(s.SubnetCIDRs)))
	}
	for _, c := range s.SubnetCIDRs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("network: subnet cidr: %w", err))
			continue
		}
		if p.Bits() < vpc.Bits() || !vpc.Contains(p.Addr()) {
			errs = append(errs, fmt.Errorf("network: subnet %s not within %s", c, s.CIDR))
		}
	}
	if s.ContainerPort <= 0 || s.ContainerPort > 65535 {
		errs = append(errs, fmt.Errorf("network: invalid container port %d", s.ContainerPort))
	}
	return errors.Join(errs...)
}

// EdgeSpec describes the certificate, load balancer, listeners and DNS alias.
type EdgeSpec struct {
	HostedZoneID        string
	HostedZoneName      string
	ApplicationDNSName  string
	ContainerPort       int
	HealthCheckPath     string
	DeregistrationDelay int
	RulePriority        int
}

// Validate checks the DNS names and the listener rule priority.
func (s EdgeSpec) Validate() error {
	var errs []error
	if s.HostedZoneID == "" {
		errs = append(errs, errors.New("edge: hosted zone id is required"))
	}
	if s.ApplicationDNSName == "" {
		errs = append(errs, errors.New("edge: application DNS name is required"))
	} else if !config.InZone(s.ApplicationDNSName, s.HostedZoneName) {
		errs = append(errs, fmt.Errorf("edge: %q is not within zone %q", s.ApplicationDNSName, s.HostedZoneName))
	}
	if s.RulePriority < 1 || s.RulePriority > 50000 {
		errs = append(errs, fmt.Errorf("edge: rule priority %d out of range", s.RulePriority))
	}
	if !strings.HasPrefix(s.HealthCheckPath, "/") {
		errs = append(errs, fmt.Errorf("edge: health check path %q must start with /", s.HealthCheckPath))
	}
	return errors.Join(errs...)
}

// ServiceSpec describes the Fargate task and service. Without an Image the
// container is built from BuildContext.
type ServiceSpec struct {
	Image         *string
	BuildContext  string
	Dockerfile    string
	DesiredCount  int
	CPU           int
	Memory        int
	ContainerName string
	ContainerPort int
}

// Validate checks the desired count and the task size.
func (s ServiceSpec) Validate() error {
	var errs []error
	if s.DesiredCount < 0 {
		errs = append(errs, fmt.Errorf("service: desired count must be >= 0, got %d", s.DesiredCount))
	}
	if s.CPU <= 0 || s.Memory <= 0 {
		errs = append(errs, fmt.Errorf("service: invalid task size %d/%d", s.CPU, s.Memory))
	}
	if s.Image != nil && strings.TrimSpace(*s.Image) == "" {
		errs = append(errs, errors.New("service: image must not be empty when set"))
	}
	if s.Image == nil && (s.BuildContext == "" || s.Dockerfile == "") {
		errs = append(errs, errors.New("service: buildContext and dockerfile are required without an image"))
	}
	return errors.Join(errs...)
}

// Plan is the validated description of the whole stack.
type Plan struct {
	Deployment *config.Deployment
	Identity   IdentitySpec
	Network    NetworkSpec
	Edge       EdgeSpec
	Service    ServiceSpec
}

// Describe turns component args into validated resource group records. Every
// validation error is returned, joined.
func Describe(args DemoStackArgs) (*Plan, error) {
	d := args.deployment()
	buildContext := valueOrDefault(args.BuildContext, ".")
	p := &Plan{
		Deployment: d,
		Identity: IdentitySpec{
			DomainPrefix:       d.CognitoCustomDomain,
			CallbackURLs:       d.CallbackURLs(),
			LogoutURLs:         d.LogoutURLs(),
			DefaultRedirectURI: d.DefaultRedirectURI(),
			HookArchive:        args.HookArchive,
			EmailSender:        args.EmailSender.sender(),
		},
		Network: NetworkSpec{
			CIDR:          vpcCIDR,
			SubnetCIDRs:   publicSubnetCIDRs,
			ContainerPort: containerPort,
		},
		Edge: EdgeSpec{
			HostedZoneID:        d.HostedZoneID,
			HostedZoneName:      d.HostedZoneName,
			ApplicationDNSName:  d.ApplicationDNSName,
			ContainerPort:       containerPort,
			HealthCheckPath:     healthCheckPath,
			DeregistrationDelay: deregistrationDelay,
			RulePriority:        common.AuthenticatePriority,
		},
		Service: ServiceSpec{
			Image:         args.Image,
			BuildContext:  buildContext,
			Dockerfile:    valueOrDefault(args.Dockerfile, filepath.Join(buildContext, "Dockerfile")),
			DesiredCount:  d.BackendDesiredCount,
			CPU:           taskCPU,
			Memory:        taskMemory,
			ContainerName: containerName,
			ContainerPort: containerPort,
		},
	}
	if args.EmailSender != nil {
		p.Identity.ConfigurationSet = valueOrDefault(args.EmailSender.ConfigurationSet, "")
	}
	err := errors.Join(p.Identity.Validate(), p.Network.Validate(), p.Edge.Validate(), p.Service.Validate())
	if err != nil {
		return nil, err
	}
	return p, nil
}

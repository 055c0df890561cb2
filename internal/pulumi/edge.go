package provider

import (
	"fmt"

	awsacm "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/acm"
	awslb "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	awsroute53 "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/common"
)

type edge struct {
	alb           *awslb.LoadBalancer
	targetGroup   *awslb.TargetGroup
	httpsListener *awslb.Listener
	rule          *awslb.ListenerRule
}

func createEdge(ctx *pulumi.Context, name string, s EdgeSpec, net *network, id *identity, opts []pulumi.ResourceOption) (*edge, error) {
	certArn, err := createCertificate(ctx, name, s, opts)
	if err != nil {
		return nil, err
	}

	alb, err := awslb.NewLoadBalancer(ctx, fmt.Sprintf("%s-alb", name), &awslb.LoadBalancerArgs{
		LoadBalancerType: pulumi.String("application"),
		Internal:         pulumi.Bool(false),
		SecurityGroups:   pulumi.StringArray{net.albSG.ID().ToStringOutput()},
		Subnets:          net.subnetIDs,
	}, opts...)
	if err != nil {
		return nil, err
	}
	albOpts := append(append([]pulumi.ResourceOption{}, opts...), pulumi.Parent(alb))

	tg, err := awslb.NewTargetGroup(ctx, fmt.Sprintf("%s-tg", name), &awslb.TargetGroupArgs{
		Port:                pulumi.Int(s.ContainerPort),
		Protocol:            pulumi.String("HTTP"),
		TargetType:          pulumi.String("ip"),
		VpcId:               net.vpc.ID().ToStringOutput(),
		DeregistrationDelay: pulumi.Int(s.DeregistrationDelay),
		HealthCheck: &awslb.TargetGroupHealthCheckArgs{
			Path:    pulumi.String(s.HealthCheckPath),
			Matcher: pulumi.String("200"),
		},
	}, albOpts...)
	if err != nil {
		return nil, err
	}

	if _, err := awslb.NewListener(ctx, fmt.Sprintf("%s-http", name), &awslb.ListenerArgs{
		LoadBalancerArn: alb.Arn,
		Port:            pulumi.Int(80),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions: awslb.ListenerDefaultActionArray{
			awslb.ListenerDefaultActionArgs{
				Type: pulumi.String("redirect"),
				Redirect: &awslb.ListenerDefaultActionRedirectArgs{
					Protocol:   pulumi.String("HTTPS"),
					Port:       pulumi.String("443"),
					StatusCode: pulumi.String("HTTP_301"),
				},
			},
		},
	}, albOpts...); err != nil {
		return nil, err
	}

	https, err := awslb.NewListener(ctx, fmt.Sprintf("%s-https", name), &awslb.ListenerArgs{
		LoadBalancerArn: alb.Arn,
		Port:            pulumi.Int(443),
		Protocol:        pulumi.String("HTTPS"),
		CertificateArn:  certArn,
		DefaultActions: awslb.ListenerDefaultActionArray{
			awslb.ListenerDefaultActionArgs{
				Type: pulumi.String("fixed-response"),
				FixedResponse: &awslb.ListenerDefaultActionFixedResponseArgs{
					StatusCode:  pulumi.String(common.DenyStatusCode),
					ContentType: pulumi.String(common.DenyContentType),
					MessageBody: pulumi.String(common.DenyMessageBody),
				},
			},
		},
	}, albOpts...)
	if err != nil {
		return nil, err
	}

	rule, err := awslb.NewListenerRule(ctx, fmt.Sprintf("%s-authenticate", name), &awslb.ListenerRuleArgs{
		ListenerArn: https.Arn,
		Priority:    pulumi.Int(s.RulePriority),
		Conditions: awslb.ListenerRuleConditionArray{
			awslb.ListenerRuleConditionArgs{
				HostHeader: &awslb.ListenerRuleConditionHostHeaderArgs{
					Values: pulumi.ToStringArray([]string{s.ApplicationDNSName}),
				},
			},
		},
		Actions: awslb.ListenerRuleActionArray{
			awslb.ListenerRuleActionArgs{
				Type:  pulumi.String("authenticate-cognito"),
				Order: pulumi.Int(1),
				AuthenticateCognito: &awslb.ListenerRuleActionAuthenticateCognitoArgs{
					UserPoolArn:      id.pool.Arn,
					UserPoolClientId: id.client.ID().ToStringOutput(),
					UserPoolDomain:   id.domain.Domain,
				},
			},
			awslb.ListenerRuleActionArgs{
				Type:           pulumi.String("forward"),
				Order:          pulumi.Int(2),
				TargetGroupArn: tg.Arn,
			},
		},
	}, pulumi.Parent(https))
	if err != nil {
		return nil, err
	}

	if _, err := awsroute53.NewRecord(ctx, fmt.Sprintf("%s-alias", name), &awsroute53.RecordArgs{
		ZoneId: pulumi.String(s.HostedZoneID),
		Name:   pulumi.String(s.ApplicationDNSName),
		Type:   pulumi.String("A"),
		Aliases: awsroute53.RecordAliasArray{
			awsroute53.RecordAliasArgs{
				Name:                 alb.DnsName,
				ZoneId:               alb.ZoneId,
				EvaluateTargetHealth: pulumi.Bool(false),
			},
		},
	}, opts...); err != nil {
		return nil, err
	}

	return &edge{alb: alb, targetGroup: tg, httpsListener: https, rule: rule}, nil
}

// createCertificate requests a DNS-validated certificate and waits for it to be issued.
func createCertificate(ctx *pulumi.Context, name string, s EdgeSpec, opts []pulumi.ResourceOption) (pulumi.StringOutput, error) {
	cert, err := awsacm.NewCertificate(ctx, fmt.Sprintf("%s-cert", name), &awsacm.CertificateArgs{
		DomainName:       pulumi.String(s.ApplicationDNSName),
		ValidationMethod: pulumi.String("DNS"),
	}, opts...)
	if err != nil {
		return pulumi.StringOutput{}, err
	}
	dvo := cert.DomainValidationOptions.Index(pulumi.Int(0))
	rec, err := awsroute53.NewRecord(ctx, fmt.Sprintf("%s-cert-validation-record", name), &awsroute53.RecordArgs{
		ZoneId:         pulumi.String(s.HostedZoneID),
		Name:           dvo.ResourceRecordName().Elem(),
		Type:           dvo.ResourceRecordType().Elem(),
		Records:        pulumi.StringArray{dvo.ResourceRecordValue().Elem()},
		Ttl:            pulumi.Int(60),
		AllowOverwrite: pulumi.Bool(true),
	}, pulumi.Parent(cert))
	if err != nil {
		return pulumi.StringOutput{}, err
	}
	v, err := awsacm.NewCertificateValidation(ctx, fmt.Sprintf("%s-cert-validation", name), &awsacm.CertificateValidationArgs{
		CertificateArn:        cert.Arn,
		ValidationRecordFqdns: pulumi.StringArray{rec.Fqdn},
	}, pulumi.Parent(cert))
	if err != nil {
		return pulumi.StringOutput{}, err
	}
	return v.CertificateArn, nil
}

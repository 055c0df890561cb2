package provider

import (
	"fmt"

	aws "github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	awsec2 "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type network struct {
	vpc       *awsec2.Vpc
	subnetIDs pulumi.StringArray
	albSG     *awsec2.SecurityGroup
	serviceSG *awsec2.SecurityGroup
}

func createNetwork(ctx *pulumi.Context, name string, s NetworkSpec, opts []pulumi.ResourceOption) (*network, error) {
	azs, err := aws.GetAvailabilityZones(ctx, &aws.GetAvailabilityZonesArgs{State: pulumi.StringRef("available")})
	if err != nil {
		return nil, err
	}
	if len(azs.Names) < len(s.SubnetCIDRs) {
		return nil, fmt.Errorf("network: region offers %d availability zones, need %d", len(azs.Names), len(s.SubnetCIDRs))
	}

	vpc, err := awsec2.NewVpc(ctx, fmt.Sprintf("%s-vpc", name), &awsec2.VpcArgs{
		CidrBlock:          pulumi.String(s.CIDR),
		EnableDnsHostnames: pulumi.Bool(true),
		EnableDnsSupport:   pulumi.Bool(true),
	}, opts...)
	if err != nil {
		return nil, err
	}
	vpcID := vpc.ID().ToStringOutput()
	vpcOpts := append(append([]pulumi.ResourceOption{}, opts...), pulumi.Parent(vpc))

	igw, err := awsec2.NewInternetGateway(ctx, fmt.Sprintf("%s-igw", name), &awsec2.InternetGatewayArgs{
		VpcId: vpcID,
	}, vpcOpts...)
	if err != nil {
		return nil, err
	}
	rt, err := awsec2.NewRouteTable(ctx, fmt.Sprintf("%s-public-rt", name), &awsec2.RouteTableArgs{
		VpcId: vpcID,
		Routes: awsec2.RouteTableRouteArray{
			awsec2.RouteTableRouteArgs{CidrBlock: pulumi.String("0.0.0.0/0"), GatewayId: igw.ID().ToStringOutput()},
		},
	}, vpcOpts...)
	if err != nil {
		return nil, err
	}

	n := &network{vpc: vpc}
	for i, cidr := range s.SubnetCIDRs {
		sn, err := awsec2.NewSubnet(ctx, fmt.Sprintf("%s-public-%d", name, i+1), &awsec2.SubnetArgs{
			VpcId:               vpcID,
			CidrBlock:           pulumi.String(cidr),
			AvailabilityZone:    pulumi.String(azs.Names[i]),
			MapPublicIpOnLaunch: pulumi.Bool(true),
		}, vpcOpts...)
		if err != nil {
			return nil, err
		}
		if _, err := awsec2.NewRouteTableAssociation(ctx, fmt.Sprintf("%s-public-%d-rta", name, i+1), &awsec2.RouteTableAssociationArgs{
			SubnetId:     sn.ID().ToStringOutput(),
			RouteTableId: rt.ID(),
		}, pulumi.Parent(sn)); err != nil {
			return nil, err
		}
		n.subnetIDs = append(n.subnetIDs, sn.ID().ToStringOutput())
	}

	n.albSG, err = awsec2.NewSecurityGroup(ctx, fmt.Sprintf("%s-alb-sg", name), &awsec2.SecurityGroupArgs{
		VpcId:       vpcID,
		Description: pulumi.String("Public load balancer"),
		Ingress: awsec2.SecurityGroupIngressArray{
			tcpIngressFromAnywhere(80),
			tcpIngressFromAnywhere(443),
		},
		Egress: awsec2.SecurityGroupEgressArray{
			awsec2.SecurityGroupEgressArgs{
				Description: pulumi.String("Reach the Cognito endpoints"),
				Protocol:    pulumi.String("tcp"),
				FromPort:    pulumi.Int(443),
				ToPort:      pulumi.Int(443),
				CidrBlocks:  pulumi.ToStringArray([]string{"0.0.0.0/0"}),
			},
			awsec2.SecurityGroupEgressArgs{
				Description: pulumi.String("Reach the service tasks"),
				Protocol:    pulumi.String("tcp"),
				FromPort:    pulumi.Int(s.ContainerPort),
				ToPort:      pulumi.Int(s.ContainerPort),
				CidrBlocks:  pulumi.ToStringArray([]string{s.CIDR}),
			},
		},
	}, vpcOpts...)
	if err != nil {
		return nil, err
	}

	n.serviceSG, err = awsec2.NewSecurityGroup(ctx, fmt.Sprintf("%s-service-sg", name), &awsec2.SecurityGroupArgs{
		VpcId:       vpcID,
		Description: pulumi.String("Backend service tasks"),
		Ingress: awsec2.SecurityGroupIngressArray{
			awsec2.SecurityGroupIngressArgs{
				Description:    pulumi.String("Traffic from the load balancer"),
				Protocol:       pulumi.String("tcp"),
				FromPort:       pulumi.Int(s.ContainerPort),
				ToPort:         pulumi.Int(s.ContainerPort),
				SecurityGroups: pulumi.StringArray{n.albSG.ID()},
			},
		},
		Egress: awsec2.SecurityGroupEgressArray{
			awsec2.SecurityGroupEgressArgs{
				Protocol:   pulumi.String("-1"),
				FromPort:   pulumi.Int(0),
				ToPort:     pulumi.Int(0),
				CidrBlocks: pulumi.ToStringArray([]string{"0.0.0.0/0"}),
			},
		},
	}, vpcOpts...)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func tcpIngressFromAnywhere(port int) awsec2.SecurityGroupIngressArgs {
	return awsec2.SecurityGroupIngressArgs{
		Protocol:   pulumi.String("tcp"),
		FromPort:   pulumi.Int(port),
		ToPort:     pulumi.Int(port),
		CidrBlocks: pulumi.ToStringArray([]string{"0.0.0.0/0"}),
	}
}

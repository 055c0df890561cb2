package provider

import (
	"encoding/json"
	"fmt"
	"strconv"

	awscloudwatch "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	awsecr "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	awsecs "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	awsiam "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const ecsTasksAssumeRolePolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":["ecs-tasks.amazonaws.com"]},"Action":["sts:AssumeRole"]}]}`

type service struct {
	repository *awsecr.Repository
	cluster    *awsecs.Cluster
	task       *awsecs.TaskDefinition
	service    *awsecs.Service
}

type containerEnv struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type portMapping struct {
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol"`
}

type logConfiguration struct {
	LogDriver string            `json:"logDriver"`
	Options   map[string]string `json:"options"`
}

type containerDefinition struct {
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Essential        bool             `json:"essential"`
	PortMappings     []portMapping    `json:"portMappings"`
	Environment      []containerEnv   `json:"environment"`
	LogConfiguration logConfiguration `json:"logConfiguration"`
}

// containerDefinitions renders the task's single container. Environment
// entries are sorted by name so the document is stable across runs.
func containerDefinitions(s ServiceSpec, image, logGroup, region, logoutURL, userInfoURL string) (string, error) {
	defs := []containerDefinition{{
		Name:      s.ContainerName,
		Image:     image,
		Essential: true,
		PortMappings: []portMapping{
			{ContainerPort: s.ContainerPort, Protocol: "tcp"},
		},
		Environment: []containerEnv{
			{Name: "LOGOUT_URL", Value: logoutURL},
			{Name: "PORT", Value: strconv.Itoa(s.ContainerPort)},
			{Name: "USER_INFO_URL", Value: userInfoURL},
		},
		LogConfiguration: logConfiguration{
			LogDriver: "awslogs",
			Options: map[string]string{
				"awslogs-group":         logGroup,
				"awslogs-region":        region,
				"awslogs-stream-prefix": s.ContainerName,
			},
		},
	}}
	b, err := json.Marshal(defs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func createService(ctx *pulumi.Context, name, region string, s ServiceSpec, net *network, e *edge, id *identity, opts []pulumi.ResourceOption) (*service, error) {
	repo, err := awsecr.NewRepository(ctx, fmt.Sprintf("%s-repo", name), &awsecr.RepositoryArgs{
		ForceDelete:        pulumi.Bool(true),
		ImageTagMutability: pulumi.String("MUTABLE"),
	}, opts...)
	if err != nil {
		return nil, err
	}
	var image pulumi.StringOutput
	if s.Image != nil {
		image = pulumi.String(*s.Image).ToStringOutput()
	} else if image, err = buildImage(ctx, name, s, repo, opts); err != nil {
		return nil, err
	}

	cluster, err := awsecs.NewCluster(ctx, fmt.Sprintf("%s-cluster", name), &awsecs.ClusterArgs{}, opts...)
	if err != nil {
		return nil, err
	}
	logs, err := awscloudwatch.NewLogGroup(ctx, fmt.Sprintf("%s-logs", name), &awscloudwatch.LogGroupArgs{
		RetentionInDays: pulumi.Int(7),
	}, opts...)
	if err != nil {
		return nil, err
	}

	execRole, err := awsiam.NewRole(ctx, fmt.Sprintf("%s-task-exec-role", name), &awsiam.RoleArgs{
		AssumeRolePolicy: pulumi.String(ecsTasksAssumeRolePolicy),
	}, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := awsiam.NewRolePolicyAttachment(ctx, fmt.Sprintf("%s-task-exec-policy", name), &awsiam.RolePolicyAttachmentArgs{
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"),
		Role:      execRole.Name,
	}, pulumi.Parent(execRole)); err != nil {
		return nil, err
	}

	defs := pulumi.All(image, logs.Name, id.logoutURL).ApplyT(func(args []interface{}) (string, error) {
		return containerDefinitions(s, args[0].(string), args[1].(string), region, args[2].(string), id.userInfoURL)
	}).(pulumi.StringOutput)

	task, err := awsecs.NewTaskDefinition(ctx, fmt.Sprintf("%s-task", name), &awsecs.TaskDefinitionArgs{
		Family:                  pulumi.String(fmt.Sprintf("%s-web", name)),
		Cpu:                     pulumi.String(strconv.Itoa(s.CPU)),
		Memory:                  pulumi.String(strconv.Itoa(s.Memory)),
		NetworkMode:             pulumi.String("awsvpc"),
		RequiresCompatibilities: pulumi.ToStringArray([]string{"FARGATE"}),
		RuntimePlatform: &awsecs.TaskDefinitionRuntimePlatformArgs{
			CpuArchitecture:       pulumi.String("X86_64"),
			OperatingSystemFamily: pulumi.String("LINUX"),
		},
		ExecutionRoleArn:     execRole.Arn,
		ContainerDefinitions: defs,
	}, opts...)
	if err != nil {
		return nil, err
	}

	svcOpts := append(append([]pulumi.ResourceOption{}, opts...),
		pulumi.DependsOn([]pulumi.Resource{e.httpsListener, e.rule}))
	svc, err := awsecs.NewService(ctx, fmt.Sprintf("%s-service", name), &awsecs.ServiceArgs{
		Cluster:        cluster.Arn,
		TaskDefinition: task.Arn,
		DesiredCount:   pulumi.Int(s.DesiredCount),
		LaunchType:     pulumi.String("FARGATE"),
		NetworkConfiguration: &awsecs.ServiceNetworkConfigurationArgs{
			Subnets:        net.subnetIDs,
			SecurityGroups: pulumi.StringArray{net.serviceSG.ID().ToStringOutput()},
			AssignPublicIp: pulumi.Bool(true),
		},
		LoadBalancers: awsecs.ServiceLoadBalancerArray{
			awsecs.ServiceLoadBalancerArgs{
				TargetGroupArn: e.targetGroup.Arn,
				ContainerName:  pulumi.String(s.ContainerName),
				ContainerPort:  pulumi.Int(s.ContainerPort),
			},
		},
	}, svcOpts...)
	if err != nil {
		return nil, err
	}
	return &service{repository: repo, cluster: cluster, task: task, service: svc}, nil
}

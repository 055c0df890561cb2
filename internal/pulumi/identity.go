package provider

import (
	"fmt"

	awscognito "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cognito"
	awsiam "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	awslambda "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/config"
)

const lambdaAssumeRolePolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":["lambda.amazonaws.com"]},"Action":["sts:AssumeRole"]}]}`

type identity struct {
	hook        *awslambda.Function
	pool        *awscognito.UserPool
	domain      *awscognito.UserPoolDomain
	client      *awscognito.UserPoolClient
	logoutURL   pulumi.StringOutput
	userInfoURL string
}

// createIdentity declares the hook and the user pool. retainOpts apply only to
// the pool, its domain and its client.
func createIdentity(ctx *pulumi.Context, name, region string, d *config.Deployment, s IdentitySpec, opts, retainOpts []pulumi.ResourceOption) (*identity, error) {
	emailConf, sesID, err := emailConfiguration(region, s)
	if err != nil {
		return nil, err
	}

	hook, err := createHook(ctx, name, s.HookArchive, opts)
	if err != nil {
		return nil, err
	}
	smsRole, externalID, err := createSmsRole(ctx, name, opts)
	if err != nil {
		return nil, err
	}

	poolArgs := &awscognito.UserPoolArgs{
		AdminCreateUserConfig: &awscognito.UserPoolAdminCreateUserConfigArgs{
			AllowAdminCreateUserOnly: pulumi.Bool(false),
		},
		AccountRecoverySetting: &awscognito.UserPoolAccountRecoverySettingArgs{
			RecoveryMechanisms: awscognito.UserPoolAccountRecoverySettingRecoveryMechanismArray{
				awscognito.UserPoolAccountRecoverySettingRecoveryMechanismArgs{Name: pulumi.String("verified_email"), Priority: pulumi.Int(1)},
				awscognito.UserPoolAccountRecoverySettingRecoveryMechanismArgs{Name: pulumi.String("verified_phone_number"), Priority: pulumi.Int(2)},
			},
		},
		AutoVerifiedAttributes: pulumi.ToStringArray([]string{"email", "phone_number"}),
		Schemas: awscognito.UserPoolSchemaArray{
			requiredStringAttribute("email"),
			requiredStringAttribute("given_name"),
			requiredStringAttribute("family_name"),
		},
		LambdaConfig: &awscognito.UserPoolLambdaConfigArgs{
			PreSignUp: hook.Arn,
		},
		SmsConfiguration: &awscognito.UserPoolSmsConfigurationArgs{
			ExternalId:   pulumi.String(externalID),
			SnsCallerArn: smsRole.Arn,
		},
	}
	if emailConf != nil {
		poolArgs.EmailConfiguration = emailConf
	}
	pool, err := awscognito.NewUserPool(ctx, fmt.Sprintf("%s-userpool", name), poolArgs, retainOpts...)
	if err != nil {
		return nil, err
	}
	if sesID != nil {
		if err := allowPoolToSend(ctx, name, pool, *sesID, opts); err != nil {
			return nil, err
		}
	}

	if _, err := awslambda.NewPermission(ctx, fmt.Sprintf("%s-presignup-invoke", name), &awslambda.PermissionArgs{
		Action:    pulumi.String("lambda:InvokeFunction"),
		Function:  hook.Name,
		Principal: pulumi.String("cognito-idp.amazonaws.com"),
		SourceArn: pool.Arn,
	}, pulumi.Parent(hook)); err != nil {
		return nil, err
	}

	domain, err := awscognito.NewUserPoolDomain(ctx, fmt.Sprintf("%s-domain", name), &awscognito.UserPoolDomainArgs{
		Domain:     pulumi.String(s.DomainPrefix),
		UserPoolId: pool.ID(),
	}, retainOpts...)
	if err != nil {
		return nil, err
	}

	client, err := awscognito.NewUserPoolClient(ctx, fmt.Sprintf("%s-alb-client", name), &awscognito.UserPoolClientArgs{
		Name:                            pulumi.String("AlbAuthentication"),
		UserPoolId:                      pool.ID(),
		GenerateSecret:                  pulumi.Bool(true),
		AllowedOauthFlows:               pulumi.ToStringArray([]string{"code"}),
		AllowedOauthFlowsUserPoolClient: pulumi.Bool(true),
		AllowedOauthScopes:              pulumi.ToStringArray([]string{"openid"}),
		SupportedIdentityProviders:      pulumi.ToStringArray([]string{"COGNITO"}),
		CallbackUrls:                    pulumi.ToStringArray(s.CallbackURLs),
		LogoutUrls:                      pulumi.ToStringArray(s.LogoutURLs),
		DefaultRedirectUri:              pulumi.StringPtr(s.DefaultRedirectURI),
	}, retainOpts...)
	if err != nil {
		return nil, err
	}

	logoutURL := client.ID().ToStringOutput().ApplyT(func(id string) string {
		return d.LogoutURL(region, id)
	}).(pulumi.StringOutput)

	return &identity{
		hook:        hook,
		pool:        pool,
		domain:      domain,
		client:      client,
		logoutURL:   logoutURL,
		userInfoURL: d.UserInfoURL(region),
	}, nil
}

func requiredStringAttribute(attr string) awscognito.UserPoolSchemaInput {
	return awscognito.UserPoolSchemaArgs{
		Name:              pulumi.String(attr),
		AttributeDataType: pulumi.String("String"),
		Required:          pulumi.Bool(true),
		Mutable:           pulumi.Bool(true),
		StringAttributeConstraints: &awscognito.UserPoolSchemaStringAttributeConstraintsArgs{
			MinLength: pulumi.String("1"),
			MaxLength: pulumi.String("2048"),
		},
	}
}

func createHook(ctx *pulumi.Context, name, archive string, opts []pulumi.ResourceOption) (*awslambda.Function, error) {
	role, err := awsiam.NewRole(ctx, fmt.Sprintf("%s-presignup-role", name), &awsiam.RoleArgs{
		AssumeRolePolicy: pulumi.String(lambdaAssumeRolePolicy),
	}, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := awsiam.NewRolePolicyAttachment(ctx, fmt.Sprintf("%s-presignup-role-basic", name), &awsiam.RolePolicyAttachmentArgs{
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
		Role:      role.Name,
	}, pulumi.Parent(role)); err != nil {
		return nil, err
	}

	return awslambda.NewFunction(ctx, fmt.Sprintf("%s-presignup", name), &awslambda.FunctionArgs{
		Role:          role.Arn,
		Runtime:       pulumi.String("provided.al2023"),
		Handler:       pulumi.String("bootstrap"),
		Architectures: pulumi.ToStringArray([]string{"arm64"}),
		Timeout:       pulumi.Int(5),
		MemorySize:    pulumi.Int(128),
		Code:          pulumi.NewFileArchive(archive),
	}, opts...)
}

// createSmsRole returns the role Cognito assumes to send verification SMS.
func createSmsRole(ctx *pulumi.Context, name string, opts []pulumi.ResourceOption) (*awsiam.Role, string, error) {
	externalID := fmt.Sprintf("%s-sms", name)
	role, err := awsiam.NewRole(ctx, fmt.Sprintf("%s-sms-role", name), &awsiam.RoleArgs{
		AssumeRolePolicy: pulumi.String(fmt.Sprintf(
			`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"cognito-idp.amazonaws.com"},"Action":"sts:AssumeRole","Condition":{"StringEquals":{"sts:ExternalId":%q}}}]}`,
			externalID)),
	}, opts...)
	if err != nil {
		return nil, "", err
	}
	if _, err := awsiam.NewRolePolicy(ctx, fmt.Sprintf("%s-sms-publish", name), &awsiam.RolePolicyArgs{
		Role:   role.Name,
		Policy: pulumi.String(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":"sns:Publish","Resource":"*"}]}`),
	}, pulumi.Parent(role)); err != nil {
		return nil, "", err
	}
	return role, externalID, nil
}

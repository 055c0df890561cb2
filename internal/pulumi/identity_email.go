package provider

import (
	"encoding/json"
	"fmt"

	awscognito "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cognito"
	awssesv2 "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/sesv2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/common/ses"
)

// EmailSenderArgs points the user pool's verification and recovery emails at
// an SES identity instead of the Cognito default sender.
type EmailSenderArgs struct {
	SourceArn        string  `pulumi:"sourceArn" json:"sourceArn"`
	From             string  `pulumi:"from" json:"from"`
	ReplyTo          *string `pulumi:"replyTo,optional" json:"replyTo,omitempty"`
	ConfigurationSet *string `pulumi:"configurationSet,optional" json:"configurationSet,omitempty"`
}

func (a *EmailSenderArgs) sender() *ses.Sender {
	if a == nil {
		return nil
	}
	return &ses.Sender{SourceArn: a.SourceArn, From: a.From, ReplyTo: valueOrDefault(a.ReplyTo, "")}
}

// emailConfiguration validates the sender against the pool's region. It
// returns nil values when no sender is configured.
func emailConfiguration(region string, s IdentitySpec) (*awscognito.UserPoolEmailConfigurationArgs, *ses.Identity, error) {
	if s.EmailSender == nil {
		return nil, nil, nil
	}
	id, err := ses.Validate(*s.EmailSender, region)
	if err != nil {
		return nil, nil, fmt.Errorf("identity: emailSender: %w", err)
	}
	conf := &awscognito.UserPoolEmailConfigurationArgs{
		EmailSendingAccount: pulumi.String("DEVELOPER"),
		SourceArn:           pulumi.String(s.EmailSender.SourceArn),
		FromEmailAddress:    pulumi.String(s.EmailSender.From),
	}
	if s.EmailSender.ReplyTo != "" {
		conf.ReplyToEmailAddress = pulumi.String(s.EmailSender.ReplyTo)
	}
	if s.ConfigurationSet != "" {
		conf.ConfigurationSet = pulumi.String(s.ConfigurationSet)
	}
	return conf, &id, nil
}

// allowPoolToSend lets the user pool send through the SES identity.
func allowPoolToSend(ctx *pulumi.Context, name string, pool *awscognito.UserPool, id ses.Identity, opts []pulumi.ResourceOption) error {
	policy := pool.Arn.ApplyT(func(poolArn string) (string, error) {
		b, err := json.Marshal(map[string]any{
			"Version": "2012-10-17",
			"Statement": []map[string]any{{
				"Effect":    "Allow",
				"Action":    []string{"ses:SendEmail", "ses:SendRawEmail"},
				"Principal": map[string]any{"Service": "cognito-idp.amazonaws.com"},
				"Resource":  id.Arn(),
				"Condition": map[string]any{"StringEquals": map[string]any{"AWS:SourceArn": poolArn}},
			}},
		})
		return string(b), err
	}).(pulumi.StringOutput)
	_, err := awssesv2.NewEmailIdentityPolicy(ctx, fmt.Sprintf("%s-ses-policy", name), &awssesv2.EmailIdentityPolicyArgs{
		EmailIdentity: pulumi.String(id.Name),
		Policy:        policy,
		PolicyName:    pulumi.String(fmt.Sprintf("%s-cognito-send", name)),
	}, opts...)
	return err
}

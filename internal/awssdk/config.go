// Package awssdk holds the aws-sdk-go-v2 plumbing shared by the post-deploy
// canaries and the SES sender checks.
package awssdk

import (
	"context"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// LoadDefault resolves credentials from the environment, shared config files
// or the instance role. An empty region leaves region resolution to the chain,
// which is what the canaries get when the stack's region lookup is skipped.
func LoadDefault(ctx context.Context, region string) (awsv2.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// partitionPrefixes is ordered so longer prefixes win.
var partitionPrefixes = []struct{ prefix, partition string }{
	{"us-isob-", "aws-iso-b"},
	{"us-iso-", "aws-iso"},
	{"eu-isoe-", "aws-iso-e"},
	{"us-gov-", "aws-us-gov"},
	{"cn-", "aws-cn"},
}

// PartitionForRegion returns the ARN partition of a region. A user pool can
// only send through an SES identity in its own partition.
func PartitionForRegion(region string) string {
	for _, p := range partitionPrefixes {
		if strings.HasPrefix(region, p.prefix) {
			return p.partition
		}
	}
	return "aws"
}
